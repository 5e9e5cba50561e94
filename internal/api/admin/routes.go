package admin

import (
	"net/http"

	"github.com/retainhq/retain/internal/store"
)

// RegisterRoutes registers all admin API endpoints on the mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{s: s}

	mux.HandleFunc("POST /_retain/reset", h.Reset)
	mux.HandleFunc("POST /_retain/seed", h.SeedData)
	mux.HandleFunc("GET /_retain/requests", h.Requests)
}
