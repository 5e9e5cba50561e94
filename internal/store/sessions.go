package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Session is a server-side record of an issued login token. The ID matches
// the token's jti claim; deleting the row invalidates the token.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt string
	CreatedAt string
}

// SessionStore defines the interface for session persistence.
type SessionStore interface {
	Create(ctx context.Context, id, userID string, expiresAt time.Time) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	DeleteForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLiteSessionStore implements SessionStore backed by SQLite.
type SQLiteSessionStore struct {
	db *sql.DB
}

// NewSQLiteSessionStore creates a new SQLiteSessionStore.
func NewSQLiteSessionStore(db *sql.DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

// Create inserts a session row for an issued token.
func (s *SQLiteSessionStore) Create(ctx context.Context, id, userID string, expiresAt time.Time) (*Session, error) {
	ts := now()
	expires := expiresAt.UTC().Format("2006-01-02T15:04:05.000Z")

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		id, userID, expires, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return &Session{ID: id, UserID: userID, ExpiresAt: expires, CreatedAt: ts}, nil
}

// Get retrieves a session by token ID.
func (s *SQLiteSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	var sess Session
	var userID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &userID, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.UserID = strconv.FormatInt(userID, 10)
	return &sess, nil
}

// Delete removes a session, invalidating its token.
func (s *SQLiteSessionStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteForUser removes every session belonging to a user.
func (s *SQLiteSessionStore) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions for user: %w", err)
	}
	return res.RowsAffected()
}

// DeleteExpired removes sessions that expired before the cutoff.
func (s *SQLiteSessionStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`,
		cutoff.UTC().Format("2006-01-02T15:04:05.000Z"),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
