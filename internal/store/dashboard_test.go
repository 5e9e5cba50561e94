package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/retainhq/retain/internal/domain"
)

func TestDashboard(t *testing.T) {
	cs := setupCustomerStore(t)
	ctx := context.Background()

	soon := time.Now().UTC().AddDate(0, 0, 30).Format("2006-01-02")
	far := time.Now().UTC().AddDate(0, 0, 200).Format("2006-01-02")

	mustCreateCustomer(t, cs, domain.CustomerInput{Name: "A", Industry: "Retail", HealthScore: 80, ARR: 100000, Status: domain.StatusActive, RenewalDate: soon})
	mustCreateCustomer(t, cs, domain.CustomerInput{Name: "B", Industry: "Retail", HealthScore: 40, ARR: 50000, Status: domain.StatusAtRisk, RenewalDate: far})
	mustCreateCustomer(t, cs, domain.CustomerInput{Name: "C", Industry: "Energy", HealthScore: 60, ARR: 30000, Status: domain.StatusAtRisk})

	archived := mustCreateCustomer(t, cs, domain.CustomerInput{Name: "D", HealthScore: 10, ARR: 99999, Status: domain.StatusChurned})
	if err := cs.Archive(ctx, archived.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	d, err := cs.Dashboard(ctx, 90)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if d.TotalCustomers != 3 {
		t.Errorf("TotalCustomers = %d, want 3 (archived excluded)", d.TotalCustomers)
	}
	if d.TotalARR != 180000 {
		t.Errorf("TotalARR = %f, want 180000", d.TotalARR)
	}
	if d.AverageHealth != 60 {
		t.Errorf("AverageHealth = %f, want 60", d.AverageHealth)
	}
	if d.AtRiskCount != 2 {
		t.Errorf("AtRiskCount = %d, want 2", d.AtRiskCount)
	}
	if d.RenewalsDue != 1 {
		t.Errorf("RenewalsDue = %d, want 1 (only the 30-day renewal)", d.RenewalsDue)
	}

	if len(d.StatusCounts) != 2 {
		t.Fatalf("StatusCounts = %v, want 2 buckets", d.StatusCounts)
	}
	if d.StatusCounts[0].Name != domain.StatusAtRisk || d.StatusCounts[0].Count != 2 {
		t.Errorf("StatusCounts[0] = %+v, want at_risk x2", d.StatusCounts[0])
	}

	if len(d.IndustryCounts) != 2 {
		t.Fatalf("IndustryCounts = %v, want 2 buckets", d.IndustryCounts)
	}
	if d.IndustryCounts[0].Name != "Retail" || d.IndustryCounts[0].Count != 2 {
		t.Errorf("IndustryCounts[0] = %+v, want Retail x2", d.IndustryCounts[0])
	}
}

func TestDashboardEmpty(t *testing.T) {
	cs := setupCustomerStore(t)

	d, err := cs.Dashboard(context.Background(), 0)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TotalCustomers != 0 || d.TotalARR != 0 || d.AtRiskCount != 0 {
		t.Errorf("expected zero aggregates, got %+v", d)
	}
	if len(d.StatusCounts) != 0 {
		t.Errorf("StatusCounts = %v, want empty", d.StatusCounts)
	}
}
