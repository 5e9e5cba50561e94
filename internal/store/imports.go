package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
)

// Import job states.
const (
	ImportStateStarted    = "STARTED"
	ImportStateProcessing = "PROCESSING"
	ImportStateDone       = "DONE"
	ImportStateFailed     = "FAILED"
)

// Import represents a CSV customer import job.
type Import struct {
	ID           string        `json:"id"`
	Filename     string        `json:"filename,omitempty"`
	State        string        `json:"state"`
	TotalRows    int           `json:"totalRows"`
	ImportedRows int           `json:"importedRows"`
	Errors       []ImportError `json:"errors"`
	CreatedAt    string        `json:"createdAt"`
	UpdatedAt    string        `json:"updatedAt"`
}

// ImportError describes a rejected row within an import.
type ImportError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportStore defines the interface for import job persistence.
type ImportStore interface {
	Create(ctx context.Context, filename string) (*Import, error)
	Get(ctx context.Context, id string) (*Import, error)
	UpdateState(ctx context.Context, id, state string) error
	Finish(ctx context.Context, id string, totalRows, importedRows int, errs []ImportError) error
}

// SQLiteImportStore implements ImportStore backed by SQLite.
type SQLiteImportStore struct {
	db *sql.DB
}

// NewSQLiteImportStore creates a new SQLiteImportStore.
func NewSQLiteImportStore(db *sql.DB) *SQLiteImportStore {
	return &SQLiteImportStore{db: db}
}

// Create inserts a new import job.
func (s *SQLiteImportStore) Create(ctx context.Context, filename string) (*Import, error) {
	ts := now()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO imports (filename, state, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		filename, ImportStateStarted, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert import: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &Import{
		ID:        strconv.FormatInt(id, 10),
		Filename:  filename,
		State:     ImportStateStarted,
		Errors:    []ImportError{},
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// Get retrieves an import job by ID.
func (s *SQLiteImportStore) Get(ctx context.Context, id string) (*Import, error) {
	var imp Import
	var dbID int64
	var errorsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, state, total_rows, imported_rows, errors_json, created_at, updated_at
		 FROM imports WHERE id = ?`,
		id,
	).Scan(&dbID, &imp.Filename, &imp.State, &imp.TotalRows, &imp.ImportedRows,
		&errorsJSON, &imp.CreatedAt, &imp.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("import %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get import: %w", err)
	}

	imp.ID = strconv.FormatInt(dbID, 10)
	if err := json.Unmarshal([]byte(errorsJSON), &imp.Errors); err != nil {
		return nil, fmt.Errorf("unmarshal import errors: %w", err)
	}
	if imp.Errors == nil {
		imp.Errors = []ImportError{}
	}

	return &imp, nil
}

// UpdateState transitions an import job to a new state.
func (s *SQLiteImportStore) UpdateState(ctx context.Context, id, state string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE imports SET state = ?, updated_at = ? WHERE id = ?`,
		state, now(), id,
	)
	if err != nil {
		return fmt.Errorf("update import state: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("import %s: %w", id, ErrNotFound)
	}
	return nil
}

// Finish records the outcome of an import job. Partial failures still land
// in DONE with the rejected rows kept in errors_json; the job only moves to
// FAILED when not a single row was imported.
func (s *SQLiteImportStore) Finish(ctx context.Context, id string, totalRows, importedRows int, errs []ImportError) error {
	if errs == nil {
		errs = []ImportError{}
	}
	errorsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("marshal import errors: %w", err)
	}

	state := ImportStateDone
	if importedRows == 0 && len(errs) > 0 {
		state = ImportStateFailed
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE imports SET state = ?, total_rows = ?, imported_rows = ?, errors_json = ?, updated_at = ? WHERE id = ?`,
		state, totalRows, importedRows, string(errorsJSON), now(), id,
	)
	if err != nil {
		return fmt.Errorf("finish import: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("import %s: %w", id, ErrNotFound)
	}
	return nil
}
