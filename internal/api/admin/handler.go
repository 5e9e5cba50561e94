package admin

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/retainhq/retain/internal/api"
	"github.com/retainhq/retain/internal/seed"
	"github.com/retainhq/retain/internal/store"
)

// Handler serves the admin API at /_retain/.
type Handler struct {
	s *store.Store
}

// dataTableNames lists the data tables in foreign-key-safe deletion order.
// Users and sessions are deliberately preserved so a reset does not log
// everyone out.
var dataTableNames = []string{
	"request_log",
	"imports",
	"exports",
	"segments",
	"customers",
}

// Reset drops all customer data and re-runs seeds.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := ResetData(r.Context(), h.s.DB); err != nil {
		corrID := api.CorrelationID(r.Context())
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SeedData runs seed data without dropping existing data first.
func (h *Handler) SeedData(w http.ResponseWriter, r *http.Request) {
	if err := seed.Seed(r.Context(), h.s.DB); err != nil {
		corrID := api.CorrelationID(r.Context())
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(
			fmt.Sprintf("failed to seed: %s", err), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Requests returns recorded API requests, newest first, with cursor-based
// pagination.
func (h *Handler) Requests(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	after := r.URL.Query().Get("after")

	entries, hasMore, nextAfter, err := h.s.Requests.List(r.Context(), limit, after)
	if err != nil {
		corrID := api.CorrelationID(r.Context())
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	resp := api.CollectionResponse{Results: make([]any, 0, len(entries))}
	for _, e := range entries {
		resp.Results = append(resp.Results, e)
	}
	if hasMore {
		resp.Paging = &api.Paging{Next: &api.PagingNext{After: nextAfter}}
	}

	api.WriteJSON(w, http.StatusOK, resp)
}

// ResetData clears all data tables and re-seeds. Exported for reuse by tests
// and other callers.
func ResetData(ctx context.Context, db *sql.DB) error {
	for _, table := range dataTableNames {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil { //nolint:gosec // table names are hardcoded constants
			return fmt.Errorf("clear table %s: %w", table, err)
		}
	}
	return seed.Seed(ctx, db)
}
