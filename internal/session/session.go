// Package session issues and validates login tokens. Tokens are signed
// JWTs whose jti claim is backed by a server-side session row, so logging
// out invalidates a token before its expiry.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/retainhq/retain/internal/domain"
	"github.com/retainhq/retain/internal/store"
)

var (
	// ErrInvalidCredentials is returned when the email or password is
	// wrong. Unknown emails get the same error as bad passwords.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned when a token cannot be verified or its
	// session no longer exists.
	ErrInvalidToken = errors.New("invalid token")
	// ErrSessionExpired is returned when a token's session has expired.
	ErrSessionExpired = errors.New("session expired")
)

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Manager authenticates users and manages their sessions.
type Manager struct {
	secret   []byte
	ttl      time.Duration
	users    store.UserStore
	sessions store.SessionStore
}

// NewManager creates a session manager. Tokens are signed with HMAC-SHA256
// over the given secret and expire after the given TTL.
func NewManager(secret string, ttl time.Duration, users store.UserStore, sessions store.SessionStore) *Manager {
	return &Manager{
		secret:   []byte(secret),
		ttl:      ttl,
		users:    users,
		sessions: sessions,
	}
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Login verifies the credentials and issues a signed token backed by a
// fresh session row.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	id := uuid.NewString()
	expires := time.Now().UTC().Add(m.ttl)
	if _, err := m.sessions.Create(ctx, id, user.ID, expires); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}

	return user, signed, nil
}

// Validate parses a token and returns its user. The token must verify, be
// unexpired, and still have a live session row.
func (m *Manager) Validate(ctx context.Context, token string) (*domain.User, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, m.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidToken
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || c.ID == "" {
		return nil, ErrInvalidToken
	}

	sess, err := m.sessions.Get(ctx, c.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("look up session: %w", err)
	}
	if expired(sess.ExpiresAt) {
		_ = m.sessions.Delete(ctx, sess.ID)
		return nil, ErrSessionExpired
	}

	user, err := m.users.Get(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	return user, nil
}

// Logout deletes the token's session. Expired tokens can still log out,
// and logging out twice is not an error.
func (m *Manager) Logout(ctx context.Context, token string) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.ParseWithClaims(token, &claims{}, m.key)
	if err != nil {
		return ErrInvalidToken
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || c.ID == "" {
		return ErrInvalidToken
	}

	if err := m.sessions.Delete(ctx, c.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LogoutAll deletes every session belonging to a user and reports how many
// were removed.
func (m *Manager) LogoutAll(ctx context.Context, userID string) (int64, error) {
	return m.sessions.DeleteForUser(ctx, userID)
}

// PruneExpired removes sessions whose expiry has passed.
func (m *Manager) PruneExpired(ctx context.Context) (int64, error) {
	return m.sessions.DeleteExpired(ctx, time.Now().UTC())
}

func (m *Manager) key(*jwt.Token) (any, error) {
	return m.secret, nil
}

func expired(s string) bool {
	t, err := time.Parse("2006-01-02T15:04:05.000Z", s)
	if err != nil {
		return true
	}
	return time.Now().UTC().After(t)
}
