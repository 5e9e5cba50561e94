package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/retainhq/retain/internal/domain"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 500
)

// ValidationError reports an invalid request payload or parameter.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// sortColumns maps sortable fields to customer columns. Text columns collate
// case-insensitively to match the in-memory view ordering.
var sortColumns = map[domain.SortField]string{
	domain.SortByName:     "name COLLATE NOCASE",
	domain.SortByIndustry: "industry COLLATE NOCASE",
	domain.SortByHealth:   "health_score",
	domain.SortByARR:      "arr",
	domain.SortByRenewal:  "renewal_date",
	domain.SortByStatus:   "status COLLATE NOCASE",
}

func validateQuery(q *domain.Query) error {
	if err := q.Filter.Validate(); err != nil {
		return err
	}

	if q.Sort.Field == "" {
		q.Sort = domain.DefaultSort()
	}
	if q.Sort.Direction == "" {
		q.Sort.Direction = domain.Ascending
	}
	if err := q.Sort.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	if q.Limit < 0 {
		return &ValidationError{Message: "limit must not be negative"}
	}
	if q.Offset < 0 {
		return &ValidationError{Message: "offset must not be negative"}
	}
	if q.Limit == 0 {
		q.Limit = defaultQueryLimit
	}
	if q.Limit > maxQueryLimit {
		q.Limit = maxQueryLimit
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildCustomerWhere renders the filter as a WHERE clause over live
// customers. Every populated dimension is ANDed together.
func buildCustomerWhere(f domain.Filter) (string, []any) {
	clauses := []string{"archived = FALSE"}
	args := []any{}

	if f.Search != "" {
		pattern := "%" + likeEscaper.Replace(f.Search) + "%"
		clauses = append(clauses, `(name LIKE ? ESCAPE '\' OR industry LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if len(f.Industries) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(f.Industries)), ", ")
		clauses = append(clauses, "industry IN ("+placeholders+")")
		for _, industry := range f.Industries {
			args = append(args, industry)
		}
	}
	if f.HealthMin != nil {
		clauses = append(clauses, "health_score >= ?")
		args = append(args, *f.HealthMin)
	}
	if f.HealthMax != nil {
		clauses = append(clauses, "health_score <= ?")
		args = append(args, *f.HealthMax)
	}
	if f.ARRMin != nil {
		clauses = append(clauses, "arr >= ?")
		args = append(args, *f.ARRMin)
	}
	if f.ARRMax != nil {
		clauses = append(clauses, "arr <= ?")
		args = append(args, *f.ARRMax)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// buildCustomerOrder renders the sort as an ORDER BY clause. The ID tiebreak
// follows the sort direction so a toggled sort yields the exact reverse order.
func buildCustomerOrder(s domain.Sort) string {
	column := sortColumns[s.Field]
	direction := "ASC"
	if s.Direction == domain.Descending {
		direction = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", column, direction, direction)
}

// Query executes a filtered, sorted, offset-paginated customer search.
func (s *SQLiteCustomerStore) Query(ctx context.Context, q domain.Query) (*domain.QueryResult, error) {
	if err := validateQuery(&q); err != nil {
		return nil, err
	}

	where, args := buildCustomerWhere(q.Filter)

	// Count query over the same WHERE clause.
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("query count: %w", err)
	}

	selectSQL := "SELECT " + customerColumns + " FROM customers" + where + buildCustomerOrder(q.Sort) + " LIMIT ? OFFSET ?"
	selectArgs := make([]any, len(args), len(args)+2)
	copy(selectArgs, args)
	selectArgs = append(selectArgs, q.Limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, selectSQL, selectArgs...)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := []*domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return &domain.QueryResult{Total: total, Results: results}, nil
}
