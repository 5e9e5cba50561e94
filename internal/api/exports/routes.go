package exports

import (
	"net/http"

	"github.com/retainhq/retain/internal/store"
)

// RegisterRoutes adds all export endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("POST /api/v1/exports", h.Start)
	mux.HandleFunc("GET /api/v1/exports/{exportId}", h.GetStatus)
	mux.HandleFunc("GET /api/v1/exports/{exportId}/download", h.Download)
}
