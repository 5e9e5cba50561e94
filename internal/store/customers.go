package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/retainhq/retain/internal/domain"
)

// CustomerStore defines the interface for customer persistence.
type CustomerStore interface {
	Create(ctx context.Context, input domain.CustomerInput) (*domain.Customer, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, opts domain.ListOpts) (*domain.CustomerPage, error)
	Update(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error)
	Archive(ctx context.Context, id string) error
	Query(ctx context.Context, q domain.Query) (*domain.QueryResult, error)
	Industries(ctx context.Context) ([]string, error)
	Dashboard(ctx context.Context, renewalWindowDays int) (*domain.Dashboard, error)
}

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = fmt.Errorf("not found")

// SQLiteCustomerStore implements CustomerStore backed by SQLite.
type SQLiteCustomerStore struct {
	db *sql.DB
}

// NewSQLiteCustomerStore creates a new SQLiteCustomerStore.
func NewSQLiteCustomerStore(db *sql.DB) *SQLiteCustomerStore {
	return &SQLiteCustomerStore{db: db}
}

const customerColumns = `id, name, industry, health_score, arr, status, owner_id, renewal_date, archived, archived_at, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*domain.Customer, error) {
	var c domain.Customer
	var id int64
	var ownerID sql.NullInt64
	var renewalDate, archivedAt sql.NullString

	err := row.Scan(&id, &c.Name, &c.Industry, &c.HealthScore, &c.ARR, &c.Status,
		&ownerID, &renewalDate, &c.Archived, &archivedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.ID = strconv.FormatInt(id, 10)
	if ownerID.Valid {
		c.OwnerID = strconv.FormatInt(ownerID.Int64, 10)
	}
	if renewalDate.Valid {
		c.RenewalDate = renewalDate.String
	}
	if archivedAt.Valid {
		c.ArchivedAt = archivedAt.String
	}
	return &c, nil
}

func validateCustomerInput(input *domain.CustomerInput) error {
	if input.Name == "" {
		return &ValidationError{Message: "name is required"}
	}
	if input.Status == "" {
		input.Status = domain.StatusActive
	}
	if !domain.ValidStatus(input.Status) {
		return &ValidationError{Message: fmt.Sprintf("invalid status %q", input.Status)}
	}
	if input.HealthScore < 0 || input.HealthScore > 100 {
		return &ValidationError{Message: "healthScore must be between 0 and 100"}
	}
	if input.ARR < 0 {
		return &ValidationError{Message: "arr must not be negative"}
	}
	if input.RenewalDate != "" && !validDate(input.RenewalDate) {
		return &ValidationError{Message: "renewalDate must be YYYY-MM-DD"}
	}
	return nil
}

func (s *SQLiteCustomerStore) ownerExists(ctx context.Context, ownerID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, ownerID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return &ValidationError{Message: fmt.Sprintf("owner %s not found", ownerID)}
		}
		return fmt.Errorf("check owner: %w", err)
	}
	return nil
}

// Create inserts a new customer.
func (s *SQLiteCustomerStore) Create(ctx context.Context, input domain.CustomerInput) (*domain.Customer, error) {
	if err := validateCustomerInput(&input); err != nil {
		return nil, err
	}
	if input.OwnerID != "" {
		if err := s.ownerExists(ctx, input.OwnerID); err != nil {
			return nil, err
		}
	}

	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (name, industry, health_score, arr, status, owner_id, renewal_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		input.Name, input.Industry, input.HealthScore, input.ARR, input.Status,
		nullable(input.OwnerID), nullable(input.RenewalDate), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.Get(ctx, strconv.FormatInt(id, 10))
}

// Get retrieves a single customer by ID, archived or not.
func (s *SQLiteCustomerStore) Get(ctx context.Context, id string) (*domain.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)

	c, err := scanCustomer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("customer %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get customer %s: %w", id, err)
	}
	return c, nil
}

// List returns a cursor-paginated list of customers ordered by ID.
func (s *SQLiteCustomerStore) List(ctx context.Context, opts domain.ListOpts) (*domain.CustomerPage, error) {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}

	query := `SELECT ` + customerColumns + ` FROM customers WHERE archived = ?`
	args := []any{opts.Archived}

	if opts.After != "" {
		query += ` AND id > ?`
		args = append(args, opts.After)
	}

	// Fetch one extra to determine if there is a next page.
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, opts.Limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	page := &domain.CustomerPage{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		page.Results = append(page.Results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	if len(page.Results) > opts.Limit {
		page.HasMore = true
		page.After = page.Results[opts.Limit-1].ID
		page.Results = page.Results[:opts.Limit]
	}

	return page, nil
}

// Update applies a partial update to an existing customer.
func (s *SQLiteCustomerStore) Update(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM customers WHERE id = ? AND archived = FALSE`, id,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}

	sets := []string{}
	args := []any{}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, &ValidationError{Message: "name must not be empty"}
		}
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Industry != nil {
		sets = append(sets, "industry = ?")
		args = append(args, *patch.Industry)
	}
	if patch.HealthScore != nil {
		if *patch.HealthScore < 0 || *patch.HealthScore > 100 {
			return nil, &ValidationError{Message: "healthScore must be between 0 and 100"}
		}
		sets = append(sets, "health_score = ?")
		args = append(args, *patch.HealthScore)
	}
	if patch.ARR != nil {
		if *patch.ARR < 0 {
			return nil, &ValidationError{Message: "arr must not be negative"}
		}
		sets = append(sets, "arr = ?")
		args = append(args, *patch.ARR)
	}
	if patch.Status != nil {
		if !domain.ValidStatus(*patch.Status) {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid status %q", *patch.Status)}
		}
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.OwnerID != nil {
		if *patch.OwnerID != "" {
			if err := s.ownerExists(ctx, *patch.OwnerID); err != nil {
				return nil, err
			}
		}
		sets = append(sets, "owner_id = ?")
		args = append(args, nullable(*patch.OwnerID))
	}
	if patch.RenewalDate != nil {
		if *patch.RenewalDate != "" && !validDate(*patch.RenewalDate) {
			return nil, &ValidationError{Message: "renewalDate must be YYYY-MM-DD"}
		}
		sets = append(sets, "renewal_date = ?")
		args = append(args, nullable(*patch.RenewalDate))
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, now(), id)

		query := "UPDATE customers SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("update customer: %w", err)
		}
	}

	return s.Get(ctx, id)
}

// Archive soft-deletes a customer.
func (s *SQLiteCustomerStore) Archive(ctx context.Context, id string) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE customers SET archived = TRUE, archived_at = ?, updated_at = ? WHERE id = ? AND archived = FALSE`,
		ts, ts, id,
	)
	if err != nil {
		return fmt.Errorf("archive customer: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}

	return nil
}

// Industries returns the distinct industries across live customers, sorted.
func (s *SQLiteCustomerStore) Industries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT industry FROM customers WHERE archived = FALSE AND industry != '' ORDER BY industry ASC`)
	if err != nil {
		return nil, fmt.Errorf("list industries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var industries []string
	for rows.Next() {
		var industry string
		if err := rows.Scan(&industry); err != nil {
			return nil, fmt.Errorf("scan industry: %w", err)
		}
		industries = append(industries, industry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return industries, nil
}
