package admin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/retainhq/retain/internal/api"
	"github.com/retainhq/retain/internal/api/admin"
	"github.com/retainhq/retain/internal/api/customers"
	"github.com/retainhq/retain/internal/domain"
	"github.com/retainhq/retain/internal/store"
	"github.com/retainhq/retain/internal/testhelpers"
)

func setupServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	db := testhelpers.NewMigratedDB(t)

	s := store.New(db)
	mux := http.NewServeMux()
	admin.RegisterRoutes(mux, s)
	customers.RegisterRoutes(mux, s)

	handler := api.Chain(mux, api.RequestID(), api.RequestLog(s.Requests))
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, s
}

func post(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", http.NoBody)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestReset(t *testing.T) {
	srv, s := setupServer(t)
	ctx := context.Background()

	// A user created before the reset must survive it.
	user, err := s.Users.Create(ctx, "keep@retain.dev", "Keep Me", "a-long-password", domain.RoleMember)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	body := bytes.NewBufferString(`{"name":"Doomed Co"}`)
	createResp, err := http.Post(srv.URL+"/api/v1/customers", "application/json", body)
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	_ = createResp.Body.Close()

	resp := post(t, srv.URL+"/_retain/reset")
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// The manually created customer is gone, replaced by seed data.
	result, err := s.Customers.Query(ctx, domain.Query{Filter: domain.Filter{Search: "Doomed"}})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.Total != 0 {
		t.Errorf("found %d doomed customers after reset", result.Total)
	}

	all, err := s.Customers.Query(ctx, domain.Query{})
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if all.Total == 0 {
		t.Error("expected seeded customers after reset")
	}

	if _, err := s.Users.Get(ctx, user.ID); err != nil {
		t.Errorf("user did not survive reset: %v", err)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	srv, s := setupServer(t)
	ctx := context.Background()

	resp := post(t, srv.URL+"/_retain/seed")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first seed: expected 200, got %d", resp.StatusCode)
	}

	first, err := s.Customers.Query(ctx, domain.Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if first.Total == 0 {
		t.Fatal("expected seeded customers")
	}

	resp = post(t, srv.URL+"/_retain/seed")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second seed: expected 200, got %d", resp.StatusCode)
	}

	second, err := s.Customers.Query(ctx, domain.Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if second.Total != first.Total {
		t.Errorf("customer count changed from %d to %d on repeat seed", first.Total, second.Total)
	}

	seeded, err := s.Users.GetByEmail(ctx, "avery@retain.dev")
	if err != nil {
		t.Fatalf("seeded user missing: %v", err)
	}
	if seeded.Role != domain.RoleAdmin {
		t.Errorf("role = %q, want admin", seeded.Role)
	}
}

func TestRequestsListsRecordedTraffic(t *testing.T) {
	srv, _ := setupServer(t)

	body := bytes.NewBufferString(`{"name":"Logged Co"}`)
	createResp, err := http.Post(srv.URL+"/api/v1/customers", "application/json", body)
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	_ = createResp.Body.Close()
	corrID := createResp.Header.Get("X-Correlation-Id")

	resp, err := http.Get(srv.URL + "/_retain/requests")
	if err != nil {
		t.Fatalf("get requests: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var page struct {
		Results []domain.RequestLogEntry `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Results) != 1 {
		t.Fatalf("expected 1 recorded request, got %d", len(page.Results))
	}

	e := page.Results[0]
	if e.Method != http.MethodPost || e.Path != "/api/v1/customers" {
		t.Errorf("recorded %s %s, want POST /api/v1/customers", e.Method, e.Path)
	}
	if e.StatusCode != http.StatusCreated {
		t.Errorf("statusCode = %d, want 201", e.StatusCode)
	}
	if e.CorrelationID != corrID {
		t.Errorf("correlationId = %q, want %q", e.CorrelationID, corrID)
	}
	if !strings.Contains(e.RequestBody, "Logged Co") {
		t.Errorf("requestBody = %q, want the posted JSON", e.RequestBody)
	}
	if !strings.Contains(e.ResponseBody, "Logged Co") {
		t.Errorf("responseBody = %q, want the created record", e.ResponseBody)
	}
}

func TestRequestsSkipsAdminTraffic(t *testing.T) {
	srv, _ := setupServer(t)

	resp := post(t, srv.URL+"/_retain/seed")
	_ = resp.Body.Close()

	listResp, err := http.Get(srv.URL + "/_retain/requests")
	if err != nil {
		t.Fatalf("get requests: %v", err)
	}
	defer func() { _ = listResp.Body.Close() }()

	var page struct {
		Results []domain.RequestLogEntry `json:"results"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Results) != 0 {
		t.Errorf("admin traffic was recorded: %+v", page.Results)
	}
}

func TestResetClearsRequestLog(t *testing.T) {
	srv, s := setupServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/customers")
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	_ = resp.Body.Close()

	entries, _, _, err := s.Requests.List(context.Background(), 10, "")
	if err != nil {
		t.Fatalf("list requests: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected recorded traffic before reset")
	}

	resetResp := post(t, srv.URL+"/_retain/reset")
	_ = resetResp.Body.Close()

	entries, _, _, err = s.Requests.List(context.Background(), 10, "")
	if err != nil {
		t.Fatalf("list requests after reset: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("request log survived reset: %+v", entries)
	}
}
