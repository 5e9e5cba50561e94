package listview

import (
	"strings"

	"github.com/retainhq/retain/internal/domain"
)

// MatchesFilter reports whether the customer satisfies every populated
// filter dimension. The search term matches case-insensitively as a
// substring of the name or industry; range bounds are inclusive.
func MatchesFilter(c domain.Customer, f domain.Filter) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(c.Name), q) &&
			!strings.Contains(strings.ToLower(c.Industry), q) {
			return false
		}
	}
	if len(f.Industries) > 0 {
		found := false
		for _, industry := range f.Industries {
			if c.Industry == industry {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.HealthMin != nil && c.HealthScore < *f.HealthMin {
		return false
	}
	if f.HealthMax != nil && c.HealthScore > *f.HealthMax {
		return false
	}
	if f.ARRMin != nil && c.ARR < *f.ARRMin {
		return false
	}
	if f.ARRMax != nil && c.ARR > *f.ARRMax {
		return false
	}
	return true
}
