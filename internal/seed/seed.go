// Package seed inserts demo data for local development and testing.
package seed

import (
	"context"
	"database/sql"
	"fmt"
)

// Seed inserts all standard seed data into the database. It is idempotent —
// existing rows are left untouched. Users go first so customers can reference
// them as owners.
func Seed(ctx context.Context, db *sql.DB) error {
	if err := Users(ctx, db); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if err := Customers(ctx, db); err != nil {
		return fmt.Errorf("seed customers: %w", err)
	}
	return nil
}
