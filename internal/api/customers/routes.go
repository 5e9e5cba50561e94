package customers

import (
	"net/http"

	"github.com/retainhq/retain/internal/store"
)

// RegisterRoutes registers all customer endpoints on the mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("GET /api/v1/customers", h.List)
	mux.HandleFunc("POST /api/v1/customers", h.Create)
	mux.HandleFunc("POST /api/v1/customers/search", h.Search)
	mux.HandleFunc("GET /api/v1/customers/industries", h.Industries)
	mux.HandleFunc("GET /api/v1/customers/{customerId}", h.Get)
	mux.HandleFunc("PATCH /api/v1/customers/{customerId}", h.Update)
	mux.HandleFunc("DELETE /api/v1/customers/{customerId}", h.Archive)
	mux.HandleFunc("GET /api/v1/dashboard", h.Dashboard)
}
