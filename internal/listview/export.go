package listview

import (
	"fmt"
	"slices"

	"github.com/retainhq/retain/internal/domain"
)

// ExportScope selects which records an export covers.
type ExportScope string

const (
	// ScopeSelection exports every selected record in sorted order.
	ScopeSelection ExportScope = "selection"
	// ScopePage exports the records on the current page, selected or not.
	ScopePage ExportScope = "page"
)

// ExportRows renders export rows for the chosen scope in the current sorted
// order. Column order is preserved exactly as given; an empty column list
// defaults to the full export field set. The returned header mirrors the
// columns actually rendered.
func (s *State) ExportRows(scope ExportScope, columns []string) ([]string, [][]string, error) {
	if len(columns) == 0 {
		columns = slices.Clone(domain.ExportFields)
	}
	for _, col := range columns {
		if !domain.ValidExportField(col) {
			return nil, nil, fmt.Errorf("unknown export field %q", col)
		}
	}

	snap := s.Compute()
	var records []domain.Customer
	switch scope {
	case ScopeSelection:
		for _, c := range snap.Sorted {
			if s.IsSelected(c.ID) {
				records = append(records, c)
			}
		}
	case ScopePage:
		records = snap.Page
	default:
		return nil, nil, fmt.Errorf("unknown export scope %q", scope)
	}

	rows := make([][]string, 0, len(records))
	for _, c := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			v, err := domain.FieldValue(c, col)
			if err != nil {
				return nil, nil, err
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}
