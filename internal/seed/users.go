package seed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/retainhq/retain/internal/domain"
)

type userDef struct {
	email string
	name  string
	role  string
}

var defaultUsers = []userDef{
	{email: "avery@retain.dev", name: "Avery Quinn", role: domain.RoleAdmin},
	{email: "jordan@retain.dev", name: "Jordan Diaz", role: domain.RoleMember},
}

// defaultPassword is the shared password for seeded demo accounts.
const defaultPassword = "retain-demo"

// Users inserts the default demo accounts. Each account is checked by email
// so a partial seed can be completed by running again.
func Users(ctx context.Context, db *sql.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	for _, ud := range defaultUsers {
		var exists int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = ?`, ud.email).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check user %s: %w", ud.email, err)
		}

		if _, err := db.ExecContext(ctx,
			`INSERT INTO users (email, name, role, password_hash, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			ud.email, ud.name, ud.role, string(hash), ts, ts,
		); err != nil {
			return fmt.Errorf("insert user %s: %w", ud.email, err)
		}
	}

	return nil
}
