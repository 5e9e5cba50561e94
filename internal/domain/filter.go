package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidFilterRange is returned when a range filter has a lower bound
// above its upper bound. Callers reject the update and keep the previous
// filter value.
var ErrInvalidFilterRange = errors.New("invalid filter range")

// Filter narrows a customer collection. All populated dimensions are
// combined with AND; zero values mean "no constraint".
type Filter struct {
	Search     string   `json:"search,omitempty"`
	Industries []string `json:"industries,omitempty"`
	HealthMin  *int     `json:"healthMin,omitempty"`
	HealthMax  *int     `json:"healthMax,omitempty"`
	ARRMin     *float64 `json:"arrMin,omitempty"`
	ARRMax     *float64 `json:"arrMax,omitempty"`
}

// Validate checks that every populated range has min <= max.
func (f Filter) Validate() error {
	if f.HealthMin != nil && f.HealthMax != nil && *f.HealthMin > *f.HealthMax {
		return fmt.Errorf("%w: health score min %d exceeds max %d", ErrInvalidFilterRange, *f.HealthMin, *f.HealthMax)
	}
	if f.ARRMin != nil && f.ARRMax != nil && *f.ARRMin > *f.ARRMax {
		return fmt.Errorf("%w: arr min %.2f exceeds max %.2f", ErrInvalidFilterRange, *f.ARRMin, *f.ARRMax)
	}
	return nil
}

// Empty reports whether the filter constrains nothing.
func (f Filter) Empty() bool {
	return f.Search == "" && len(f.Industries) == 0 &&
		f.HealthMin == nil && f.HealthMax == nil &&
		f.ARRMin == nil && f.ARRMax == nil
}

// SortField identifies a sortable customer column.
type SortField string

// Sortable customer columns.
const (
	SortByName     SortField = "name"
	SortByIndustry SortField = "industry"
	SortByHealth   SortField = "health_score"
	SortByARR      SortField = "arr"
	SortByRenewal  SortField = "renewal_date"
	SortByStatus   SortField = "status"
)

// SortFields lists every sortable column.
var SortFields = []SortField{SortByName, SortByIndustry, SortByHealth, SortByARR, SortByRenewal, SortByStatus}

// Valid reports whether f names a sortable column.
func (f SortField) Valid() bool {
	for _, known := range SortFields {
		if f == known {
			return true
		}
	}
	return false
}

// Sort directions.
const (
	Ascending  = "ASCENDING"
	Descending = "DESCENDING"
)

// Sort specifies the ordering of a customer collection. Ties are broken by
// customer ID so the order is total; flipping the direction reverses the
// tiebreak as well, so a toggle yields the exact reverse sequence.
type Sort struct {
	Field     SortField `json:"field"`
	Direction string    `json:"direction"`
}

// DefaultSort orders customers by name ascending.
func DefaultSort() Sort {
	return Sort{Field: SortByName, Direction: Ascending}
}

// Validate checks the sort field and direction.
func (s Sort) Validate() error {
	if !s.Field.Valid() {
		return fmt.Errorf("unsortable field %q", s.Field)
	}
	if s.Direction != Ascending && s.Direction != Descending {
		return fmt.Errorf("invalid sort direction %q", s.Direction)
	}
	return nil
}

// Query is a filtered, sorted, offset-paginated customer request.
type Query struct {
	Filter Filter `json:"filter"`
	Sort   Sort   `json:"sort"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
