package store

import (
	"context"
	"fmt"
	"time"

	"github.com/retainhq/retain/internal/domain"
)

const defaultRenewalWindowDays = 90

// Dashboard computes portfolio aggregates over live customers. The renewal
// window counts customers whose renewal date falls within the next
// renewalWindowDays days.
func (s *SQLiteCustomerStore) Dashboard(ctx context.Context, renewalWindowDays int) (*domain.Dashboard, error) {
	if renewalWindowDays <= 0 {
		renewalWindowDays = defaultRenewalWindowDays
	}

	d := &domain.Dashboard{
		StatusCounts:   []domain.CountEntry{},
		IndustryCounts: []domain.CountEntry{},
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(arr), 0), COALESCE(AVG(health_score), 0)
		 FROM customers WHERE archived = FALSE`,
	).Scan(&d.TotalCustomers, &d.TotalARR, &d.AverageHealth)
	if err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers WHERE archived = FALSE AND status = ?`,
		domain.StatusAtRisk,
	).Scan(&d.AtRiskCount)
	if err != nil {
		return nil, fmt.Errorf("dashboard at risk: %w", err)
	}

	from := today()
	to := time.Now().UTC().AddDate(0, 0, renewalWindowDays).Format("2006-01-02")
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers
		 WHERE archived = FALSE AND renewal_date IS NOT NULL AND renewal_date >= ? AND renewal_date <= ?`,
		from, to,
	).Scan(&d.RenewalsDue)
	if err != nil {
		return nil, fmt.Errorf("dashboard renewals due: %w", err)
	}

	d.StatusCounts, err = s.groupCount(ctx,
		`SELECT status, COUNT(*) FROM customers WHERE archived = FALSE
		 GROUP BY status ORDER BY COUNT(*) DESC, status ASC`)
	if err != nil {
		return nil, fmt.Errorf("dashboard status counts: %w", err)
	}

	d.IndustryCounts, err = s.groupCount(ctx,
		`SELECT industry, COUNT(*) FROM customers WHERE archived = FALSE AND industry != ''
		 GROUP BY industry ORDER BY COUNT(*) DESC, industry ASC`)
	if err != nil {
		return nil, fmt.Errorf("dashboard industry counts: %w", err)
	}

	return d, nil
}

func (s *SQLiteCustomerStore) groupCount(ctx context.Context, query string) ([]domain.CountEntry, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := []domain.CountEntry{}
	for rows.Next() {
		var e domain.CountEntry
		if err := rows.Scan(&e.Name, &e.Count); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
