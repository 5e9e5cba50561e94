package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Export job states.
const (
	ExportStatePending  = "PENDING"
	ExportStateComplete = "COMPLETE"
	ExportStateFailed   = "FAILED"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// Export represents a customer export job.
type Export struct {
	ID          string          `json:"id"`
	State       string          `json:"state"`
	Format      string          `json:"format"`
	Columns     []string        `json:"columns"`
	RequestJSON json.RawMessage `json:"-"`
	RecordCount int             `json:"recordCount"`
	ResultData  []byte          `json:"-"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// ExportStore defines the interface for export job persistence.
type ExportStore interface {
	Create(ctx context.Context, format string, columns []string, requestJSON json.RawMessage) (*Export, error)
	Get(ctx context.Context, id string) (*Export, error)
	Complete(ctx context.Context, id string, data []byte, recordCount int) error
	Fail(ctx context.Context, id, message string) error
}

// SQLiteExportStore implements ExportStore backed by SQLite.
type SQLiteExportStore struct {
	db *sql.DB
}

// NewSQLiteExportStore creates a new SQLiteExportStore.
func NewSQLiteExportStore(db *sql.DB) *SQLiteExportStore {
	return &SQLiteExportStore{db: db}
}

// Create inserts a new pending export job.
func (s *SQLiteExportStore) Create(ctx context.Context, format string, columns []string, requestJSON json.RawMessage) (*Export, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, &ValidationError{Message: fmt.Sprintf("unsupported export format %q", format)}
	}

	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return nil, fmt.Errorf("marshal columns: %w", err)
	}
	if len(requestJSON) == 0 {
		requestJSON = json.RawMessage(`{}`)
	}

	id := uuid.NewString()
	ts := now()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exports (id, state, format, columns_json, request_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, ExportStatePending, format, string(columnsJSON), string(requestJSON), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert export: %w", err)
	}

	return &Export{
		ID:          id,
		State:       ExportStatePending,
		Format:      format,
		Columns:     columns,
		RequestJSON: requestJSON,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

// Get retrieves an export job by ID.
func (s *SQLiteExportStore) Get(ctx context.Context, id string) (*Export, error) {
	var exp Export
	var columnsJSON, requestJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, state, format, columns_json, request_json, record_count, result_data, error, created_at, updated_at
		 FROM exports WHERE id = ?`,
		id,
	).Scan(&exp.ID, &exp.State, &exp.Format, &columnsJSON, &requestJSON,
		&exp.RecordCount, &exp.ResultData, &exp.Error, &exp.CreatedAt, &exp.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("export %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get export: %w", err)
	}

	if err := json.Unmarshal([]byte(columnsJSON), &exp.Columns); err != nil {
		return nil, fmt.Errorf("unmarshal columns: %w", err)
	}
	exp.RequestJSON = json.RawMessage(requestJSON)

	return &exp, nil
}

// Complete marks an export as complete with the generated file data.
func (s *SQLiteExportStore) Complete(ctx context.Context, id string, data []byte, recordCount int) error {
	return s.finish(ctx, id, ExportStateComplete, data, recordCount, "")
}

// Fail marks an export as failed with an error message.
func (s *SQLiteExportStore) Fail(ctx context.Context, id, message string) error {
	return s.finish(ctx, id, ExportStateFailed, nil, 0, message)
}

func (s *SQLiteExportStore) finish(ctx context.Context, id, state string, data []byte, recordCount int, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE exports SET state = ?, result_data = ?, record_count = ?, error = ?, updated_at = ? WHERE id = ?`,
		state, data, recordCount, message, now(), id,
	)
	if err != nil {
		return fmt.Errorf("update export: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("export %s: %w", id, ErrNotFound)
	}
	return nil
}
