package listview

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/retainhq/retain/internal/domain"
)

// Compare orders two customers by the sort field, breaking ties by numeric
// ID. Descending sorts negate the whole comparison, tiebreak included, so
// flipping the direction yields the exact reverse sequence.
func Compare(a, b domain.Customer, s domain.Sort) int {
	c := compareField(a, b, s.Field)
	if c == 0 {
		c = compareIDs(a.ID, b.ID)
	}
	if s.Direction == domain.Descending {
		c = -c
	}
	return c
}

func compareField(a, b domain.Customer, field domain.SortField) int {
	switch field {
	case domain.SortByName:
		return compareFold(a.Name, b.Name)
	case domain.SortByIndustry:
		return compareFold(a.Industry, b.Industry)
	case domain.SortByHealth:
		return cmp.Compare(a.HealthScore, b.HealthScore)
	case domain.SortByARR:
		return cmp.Compare(a.ARR, b.ARR)
	case domain.SortByRenewal:
		return strings.Compare(a.RenewalDate, b.RenewalDate)
	case domain.SortByStatus:
		return compareFold(a.Status, b.Status)
	default:
		return 0
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// compareIDs compares numerically when both IDs are integers, matching the
// rowid-based ordering the store produces.
func compareIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		return cmp.Compare(ai, bi)
	}
	return strings.Compare(a, b)
}

// SortCustomers returns a sorted copy of records; the input is not modified.
func SortCustomers(records []domain.Customer, s domain.Sort) []domain.Customer {
	out := make([]domain.Customer, len(records))
	copy(out, records)
	slices.SortFunc(out, func(a, b domain.Customer) int {
		return Compare(a, b, s)
	})
	return out
}
