package seed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/retainhq/retain/internal/domain"
)

type customerDef struct {
	name        string
	industry    string
	healthScore int
	arr         float64
	status      string
	renewalDays int // days from now; 0 means no renewal date
	ownerIndex  int // index into defaultUsers, -1 for unassigned
}

var defaultCustomers = []customerDef{
	{name: "Acme Manufacturing", industry: "Manufacturing", healthScore: 82, arr: 120000, status: domain.StatusActive, renewalDays: 68, ownerIndex: 0},
	{name: "beacon analytics", industry: "Software", healthScore: 45, arr: 64000, status: domain.StatusAtRisk, renewalDays: 21, ownerIndex: 1},
	{name: "Cobalt Health", industry: "Healthcare", healthScore: 71, arr: 98000, status: domain.StatusActive, renewalDays: 148, ownerIndex: 0},
	{name: "datawise", industry: "Software", healthScore: 30, arr: 18000, status: domain.StatusChurned, renewalDays: -40, ownerIndex: -1},
	{name: "Evergreen Retail", industry: "Retail", healthScore: 55, arr: 47000, status: domain.StatusRenewed, renewalDays: 310, ownerIndex: 1},
	{name: "Fathom Robotics", industry: "Manufacturing", healthScore: 88, arr: 210000, status: domain.StatusActive, renewalDays: 199, ownerIndex: 0},
	{name: "Gale Logistics", industry: "Logistics", healthScore: 62, arr: 75000, status: domain.StatusAtRisk, renewalDays: 105, ownerIndex: 1},
	{name: "Harbor Software", industry: "Software", healthScore: 91, arr: 155000, status: domain.StatusRenewed, renewalDays: 340, ownerIndex: 0},
	{name: "Ion Biotech", industry: "Healthcare", healthScore: 50, arr: 88000, status: domain.StatusActive, renewalDays: 36, ownerIndex: 1},
	{name: "Juniper Media", industry: "Media", healthScore: 67, arr: 52000, status: domain.StatusActive, renewalDays: 83, ownerIndex: -1},
	{name: "Krill Marine", industry: "Logistics", healthScore: 38, arr: 29000, status: domain.StatusAtRisk, renewalDays: 12, ownerIndex: 0},
	{name: "Lumen Grid", industry: "Energy", healthScore: 76, arr: 132000, status: domain.StatusActive, renewalDays: 254, ownerIndex: 1},
	{name: "Mosaic Foods", industry: "Retail", healthScore: 59, arr: 41000, status: domain.StatusActive, renewalDays: 57, ownerIndex: 0},
	{name: "Northwind Freight", industry: "Logistics", healthScore: 84, arr: 167000, status: domain.StatusRenewed, renewalDays: 365, ownerIndex: 1},
	{name: "opal systems", industry: "Software", healthScore: 25, arr: 22000, status: domain.StatusChurned, renewalDays: 0, ownerIndex: -1},
}

// Customers inserts a demo portfolio if the customers table is empty.
// Renewal dates are spread relative to the current date so the dashboard
// renewal window always has entries.
func Customers(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count); err != nil {
		return fmt.Errorf("count customers: %w", err)
	}
	if count > 0 {
		return nil
	}

	ownerIDs, err := seededUserIDs(ctx, db)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	ts := now.Format("2006-01-02T15:04:05.000Z")
	for _, cd := range defaultCustomers {
		var renewal any
		if cd.renewalDays != 0 {
			renewal = now.AddDate(0, 0, cd.renewalDays).Format("2006-01-02")
		}
		var owner any
		if cd.ownerIndex >= 0 && cd.ownerIndex < len(ownerIDs) {
			owner = ownerIDs[cd.ownerIndex]
		}

		if _, err := db.ExecContext(ctx,
			`INSERT INTO customers (name, industry, health_score, arr, status, owner_id, renewal_date, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cd.name, cd.industry, cd.healthScore, cd.arr, cd.status, owner, renewal, ts, ts,
		); err != nil {
			return fmt.Errorf("insert customer %s: %w", cd.name, err)
		}
	}

	return nil
}

func seededUserIDs(ctx context.Context, db *sql.DB) ([]int64, error) {
	ids := make([]int64, 0, len(defaultUsers))
	for _, ud := range defaultUsers {
		var id int64
		err := db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, ud.email).Scan(&id)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, fmt.Errorf("lookup user %s: %w", ud.email, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
