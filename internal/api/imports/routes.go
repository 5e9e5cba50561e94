package imports

import (
	"net/http"

	"github.com/retainhq/retain/internal/store"
)

// RegisterRoutes adds all import endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("POST /api/v1/imports", h.Start)
	mux.HandleFunc("GET /api/v1/imports/{importId}", h.Get)
}
