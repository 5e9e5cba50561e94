package listview

import "github.com/retainhq/retain/internal/domain"

// Snapshot is the derived view of the current state: the filtered set, the
// sorted set, the records on the current page, and the pagination summary.
type Snapshot struct {
	Filtered []domain.Customer
	Sorted   []domain.Customer
	Page     []domain.Customer
	Summary  Summary
}

// Summary describes the derived pagination counters. TotalPages is the
// ceiling of FilteredCount over the page size, and is 1 when the filtered
// set is empty so CurrentPage always has a valid value.
type Summary struct {
	FilteredCount   int
	TotalCount      int
	TotalPages      int
	CurrentPage     int
	PageSize        int
	HasNextPage     bool
	HasPreviousPage bool
	SelectedCount   int
}

// Compute derives the snapshot for the current state. The result is
// memoized until the next mutation, so repeated calls between mutations
// return identical slices.
func (s *State) Compute() Snapshot {
	if s.memo == nil {
		snap := s.compute()
		s.memo = &snap
	}
	snap := *s.memo
	snap.Summary.SelectedCount = len(s.selected)
	return snap
}

func (s *State) compute() Snapshot {
	filtered := make([]domain.Customer, 0, len(s.records))
	for _, c := range s.records {
		if MatchesFilter(c, s.filter) {
			filtered = append(filtered, c)
		}
	}
	sorted := SortCustomers(filtered, s.sort)

	filteredCount := len(filtered)
	totalPages := 1
	if filteredCount > 0 {
		totalPages = (filteredCount + s.pageSize - 1) / s.pageSize
	}

	page := s.page
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * s.pageSize
	end := start + s.pageSize
	if end > filteredCount {
		end = filteredCount
	}

	return Snapshot{
		Filtered: filtered,
		Sorted:   sorted,
		Page:     sorted[start:end],
		Summary: Summary{
			FilteredCount:   filteredCount,
			TotalCount:      len(s.records),
			TotalPages:      totalPages,
			CurrentPage:     page,
			PageSize:        s.pageSize,
			HasNextPage:     page < totalPages,
			HasPreviousPage: page > 1,
		},
	}
}
