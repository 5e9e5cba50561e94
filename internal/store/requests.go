package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/retainhq/retain/internal/domain"
)

// RequestLogStore defines the interface for the API request log.
type RequestLogStore interface {
	Record(ctx context.Context, e domain.RequestLogEntry) error
	List(ctx context.Context, limit int, after string) ([]*domain.RequestLogEntry, bool, string, error)
}

// SQLiteRequestLogStore implements RequestLogStore backed by SQLite.
type SQLiteRequestLogStore struct {
	db *sql.DB
}

// NewSQLiteRequestLogStore creates a new SQLiteRequestLogStore.
func NewSQLiteRequestLogStore(db *sql.DB) *SQLiteRequestLogStore {
	return &SQLiteRequestLogStore{db: db}
}

// Record appends one request to the log.
func (s *SQLiteRequestLogStore) Record(ctx context.Context, e domain.RequestLogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO request_log (method, path, status_code, request_body, response_body, duration_ms, correlation_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Method, e.Path, e.StatusCode, nullable(e.RequestBody), nullable(e.ResponseBody),
		e.DurationMs, nullable(e.CorrelationID), now(),
	)
	if err != nil {
		return fmt.Errorf("record request: %w", err)
	}
	return nil
}

// List returns request log entries newest first. The after cursor is the ID
// of the last entry on the previous page.
func (s *SQLiteRequestLogStore) List(ctx context.Context, limit int, after string) ([]*domain.RequestLogEntry, bool, string, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := `SELECT id, method, path, status_code, COALESCE(request_body, ''), COALESCE(response_body, ''),
			  COALESCE(duration_ms, 0), COALESCE(correlation_id, ''), created_at
			  FROM request_log`
	args := []any{}
	if after != "" {
		query += ` WHERE id < ?`
		args = append(args, after)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, "", fmt.Errorf("list requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*domain.RequestLogEntry
	for rows.Next() {
		var e domain.RequestLogEntry
		var id int64
		if err := rows.Scan(&id, &e.Method, &e.Path, &e.StatusCode,
			&e.RequestBody, &e.ResponseBody, &e.DurationMs, &e.CorrelationID, &e.CreatedAt); err != nil {
			return nil, false, "", fmt.Errorf("scan request: %w", err)
		}
		e.ID = strconv.FormatInt(id, 10)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, "", fmt.Errorf("rows iteration: %w", err)
	}

	hasMore := false
	nextAfter := ""
	if len(entries) > limit {
		hasMore = true
		nextAfter = entries[limit-1].ID
		entries = entries[:limit]
	}

	return entries, hasMore, nextAfter, nil
}
