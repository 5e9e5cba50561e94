package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/retainhq/retain/internal/domain"
)

// SegmentStore defines the interface for saved segment persistence.
type SegmentStore interface {
	Create(ctx context.Context, input domain.SegmentInput) (*domain.Segment, error)
	Get(ctx context.Context, id string) (*domain.Segment, error)
	List(ctx context.Context, limit int, after string) (*domain.SegmentPage, error)
	Update(ctx context.Context, id string, patch domain.SegmentPatch) (*domain.Segment, error)
	Archive(ctx context.Context, id string) error
}

// SQLiteSegmentStore implements SegmentStore backed by SQLite.
type SQLiteSegmentStore struct {
	db *sql.DB
}

// NewSQLiteSegmentStore creates a new SQLiteSegmentStore.
func NewSQLiteSegmentStore(db *sql.DB) *SQLiteSegmentStore {
	return &SQLiteSegmentStore{db: db}
}

func scanSegment(row interface{ Scan(...any) error }) (*domain.Segment, error) {
	var seg domain.Segment
	var id int64
	var filterJSON, sortJSON string

	err := row.Scan(&id, &seg.Name, &seg.Description, &filterJSON, &sortJSON,
		&seg.Archived, &seg.CreatedAt, &seg.UpdatedAt)
	if err != nil {
		return nil, err
	}

	seg.ID = strconv.FormatInt(id, 10)
	if err := json.Unmarshal([]byte(filterJSON), &seg.Filter); err != nil {
		return nil, fmt.Errorf("unmarshal segment filter: %w", err)
	}
	if err := json.Unmarshal([]byte(sortJSON), &seg.Sort); err != nil {
		return nil, fmt.Errorf("unmarshal segment sort: %w", err)
	}
	if seg.Sort.Field == "" {
		seg.Sort = domain.DefaultSort()
	}
	return &seg, nil
}

const segmentColumns = `id, name, description, filter_json, sort_json, archived, created_at, updated_at`

// Create inserts a new segment with its filter and sort serialized as JSON.
func (s *SQLiteSegmentStore) Create(ctx context.Context, input domain.SegmentInput) (*domain.Segment, error) {
	if input.Name == "" {
		return nil, &ValidationError{Message: "name is required"}
	}
	if err := input.Filter.Validate(); err != nil {
		return nil, err
	}

	sort := domain.DefaultSort()
	if input.Sort != nil {
		sort = *input.Sort
		if err := sort.Validate(); err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
	}

	filterJSON, err := json.Marshal(input.Filter)
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}
	sortJSON, err := json.Marshal(sort)
	if err != nil {
		return nil, fmt.Errorf("marshal sort: %w", err)
	}

	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO segments (name, description, filter_json, sort_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		input.Name, input.Description, string(filterJSON), string(sortJSON), ts, ts,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("segment name %q already exists: %w", input.Name, ErrConflict)
		}
		return nil, fmt.Errorf("insert segment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.Get(ctx, strconv.FormatInt(id, 10))
}

// Get retrieves a segment by ID.
func (s *SQLiteSegmentStore) Get(ctx context.Context, id string) (*domain.Segment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+segmentColumns+` FROM segments WHERE id = ?`, id)

	seg, err := scanSegment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("segment %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get segment %s: %w", id, err)
	}
	return seg, nil
}

// List returns a cursor-paginated list of live segments ordered by ID.
func (s *SQLiteSegmentStore) List(ctx context.Context, limit int, after string) (*domain.SegmentPage, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := `SELECT ` + segmentColumns + ` FROM segments WHERE archived = FALSE`
	args := []any{}
	if after != "" {
		query += ` AND id > ?`
		args = append(args, after)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	page := &domain.SegmentPage{}
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		page.Results = append(page.Results, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	if len(page.Results) > limit {
		page.HasMore = true
		page.After = page.Results[limit-1].ID
		page.Results = page.Results[:limit]
	}

	return page, nil
}

// Update applies a partial update to an existing segment.
func (s *SQLiteSegmentStore) Update(ctx context.Context, id string, patch domain.SegmentPatch) (*domain.Segment, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM segments WHERE id = ? AND archived = FALSE`, id,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", id, ErrNotFound)
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
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Filter != nil {
		if err := patch.Filter.Validate(); err != nil {
			return nil, err
		}
		filterJSON, err := json.Marshal(patch.Filter)
		if err != nil {
			return nil, fmt.Errorf("marshal filter: %w", err)
		}
		sets = append(sets, "filter_json = ?")
		args = append(args, string(filterJSON))
	}
	if patch.Sort != nil {
		if err := patch.Sort.Validate(); err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		sortJSON, err := json.Marshal(patch.Sort)
		if err != nil {
			return nil, fmt.Errorf("marshal sort: %w", err)
		}
		sets = append(sets, "sort_json = ?")
		args = append(args, string(sortJSON))
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, now(), id)

		query := "UPDATE segments SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return nil, fmt.Errorf("segment name already exists: %w", ErrConflict)
			}
			return nil, fmt.Errorf("update segment: %w", err)
		}
	}

	return s.Get(ctx, id)
}

// Archive soft-deletes a segment.
func (s *SQLiteSegmentStore) Archive(ctx context.Context, id string) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE segments SET archived = TRUE, updated_at = ? WHERE id = ? AND archived = FALSE`,
		ts, id,
	)
	if err != nil {
		return fmt.Errorf("archive segment: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("segment %s: %w", id, ErrNotFound)
	}
	return nil
}
