// Package listview implements the read model behind the customer list:
// filtering, sorting, pagination, and selection over an in-memory snapshot
// of customer records. All operations are synchronous and deterministic;
// the asynchronous fetch that produces the records lives in internal/fetch.
package listview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/retainhq/retain/internal/domain"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 25

// ErrInvalidPageSize is returned when a page size below 1 is requested.
// The previous page size is kept.
var ErrInvalidPageSize = errors.New("page size must be at least 1")

// State holds the list-view state. Selection is scoped to the filtered
// dataset: SelectAll selects the whole filtered set (not just the visible
// page), and whenever the records or filters change the selection is pruned
// by ID so it never refers to a record outside the current filtered set.
type State struct {
	records  []domain.Customer
	revision uint64

	filter domain.Filter
	sort   domain.Sort

	pageSize int
	page     int

	selected map[string]struct{}

	memo *Snapshot
}

// NewState creates an empty list view with the given page size.
func NewState(pageSize int) *State {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &State{
		sort:     domain.DefaultSort(),
		pageSize: pageSize,
		page:     1,
		selected: make(map[string]struct{}),
	}
}

// SetRecords replaces the backing record set. The revision tags which fetch
// produced the records so consumers can tell snapshots apart.
func (s *State) SetRecords(records []domain.Customer, revision uint64) {
	s.records = records
	s.revision = revision
	s.refresh()
}

// Revision returns the revision of the current record set.
func (s *State) Revision() uint64 { return s.revision }

// Filter returns the active filter.
func (s *State) Filter() domain.Filter { return s.filter }

// Sort returns the active sort.
func (s *State) Sort() domain.Sort { return s.sort }

// Page returns the current page number.
func (s *State) Page() int { return s.page }

// PageSize returns the current page size.
func (s *State) PageSize() int { return s.pageSize }

// Query renders the active filter and sort as a server-side customer query.
func (s *State) Query() domain.Query {
	return domain.Query{Filter: s.filter, Sort: s.sort}
}

// SetSearch sets the free-text search term. The term matches
// case-insensitively against customer names and industries.
func (s *State) SetSearch(term string) {
	s.filter.Search = strings.TrimSpace(term)
	s.refresh()
}

// SetIndustries sets the industry filter; an empty slice clears it.
func (s *State) SetIndustries(industries []string) {
	if len(industries) == 0 {
		s.filter.Industries = nil
	} else {
		s.filter.Industries = append([]string(nil), industries...)
	}
	s.refresh()
}

// SetHealthRange sets the inclusive health score bounds. A nil bound is
// open. An inverted range is rejected and the previous bounds are kept.
func (s *State) SetHealthRange(minScore, maxScore *int) error {
	candidate := s.filter
	candidate.HealthMin = copyInt(minScore)
	candidate.HealthMax = copyInt(maxScore)
	if err := candidate.Validate(); err != nil {
		return err
	}
	s.filter = candidate
	s.refresh()
	return nil
}

// SetARRRange sets the inclusive ARR bounds. A nil bound is open. An
// inverted range is rejected and the previous bounds are kept.
func (s *State) SetARRRange(minARR, maxARR *float64) error {
	candidate := s.filter
	candidate.ARRMin = copyFloat(minARR)
	candidate.ARRMax = copyFloat(maxARR)
	if err := candidate.Validate(); err != nil {
		return err
	}
	s.filter = candidate
	s.refresh()
	return nil
}

// ClearFilters removes every filter dimension at once.
func (s *State) ClearFilters() {
	s.filter = domain.Filter{}
	s.refresh()
}

// SetSort sorts by the given field. Choosing the already-active field flips
// the direction; choosing a new field resets the direction to ascending.
func (s *State) SetSort(field domain.SortField) error {
	if !field.Valid() {
		return fmt.Errorf("unsortable field %q", field)
	}
	if s.sort.Field == field {
		if s.sort.Direction == domain.Ascending {
			s.sort.Direction = domain.Descending
		} else {
			s.sort.Direction = domain.Ascending
		}
	} else {
		s.sort = domain.Sort{Field: field, Direction: domain.Ascending}
	}
	s.memo = nil
	return nil
}

// SetPage moves to the given page, clamped into [1, totalPages].
func (s *State) SetPage(n int) {
	snap := s.Compute()
	if n < 1 {
		n = 1
	}
	if n > snap.Summary.TotalPages {
		n = snap.Summary.TotalPages
	}
	if n != s.page {
		s.page = n
		s.memo = nil
	}
}

// NextPage advances one page, stopping at the last.
func (s *State) NextPage() { s.SetPage(s.page + 1) }

// PrevPage goes back one page, stopping at the first.
func (s *State) PrevPage() { s.SetPage(s.page - 1) }

// SetPageSize changes the page size and clamps the current page into the
// recomputed page range.
func (s *State) SetPageSize(n int) error {
	if n < 1 {
		return ErrInvalidPageSize
	}
	if n == s.pageSize {
		return nil
	}
	s.pageSize = n
	s.memo = nil
	s.clampPage()
	return nil
}

// ToggleSelect flips the selection of one record and reports whether it is
// now selected. IDs outside the current filtered set cannot be selected.
func (s *State) ToggleSelect(id string) bool {
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return false
	}

	snap := s.Compute()
	for _, c := range snap.Filtered {
		if c.ID == id {
			s.selected[id] = struct{}{}
			return true
		}
	}
	return false
}

// SelectAll selects every record in the filtered set.
func (s *State) SelectAll() {
	snap := s.Compute()
	for _, c := range snap.Filtered {
		s.selected[c.ID] = struct{}{}
	}
}

// ClearSelection deselects everything.
func (s *State) ClearSelection() {
	clear(s.selected)
}

// IsSelected reports whether the record is selected.
func (s *State) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// SelectedCount returns the number of selected records.
func (s *State) SelectedCount() int { return len(s.selected) }

// SelectedIDs returns the selected IDs in the current sorted order.
func (s *State) SelectedIDs() []string {
	snap := s.Compute()
	ids := make([]string, 0, len(s.selected))
	for _, c := range snap.Sorted {
		if s.IsSelected(c.ID) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// refresh re-derives the view after a records or filter change: the memo is
// dropped, the selection is pruned to the new filtered set, and the current
// page is clamped into the recomputed page range.
func (s *State) refresh() {
	s.memo = nil

	if len(s.selected) > 0 {
		snap := s.Compute()
		keep := make(map[string]struct{}, len(s.selected))
		for _, c := range snap.Filtered {
			if _, ok := s.selected[c.ID]; ok {
				keep[c.ID] = struct{}{}
			}
		}
		s.selected = keep
	}

	s.clampPage()
}

func (s *State) clampPage() {
	snap := s.Compute()
	if s.page > snap.Summary.TotalPages {
		s.page = snap.Summary.TotalPages
		s.memo = nil
	}
	if s.page < 1 {
		s.page = 1
		s.memo = nil
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
