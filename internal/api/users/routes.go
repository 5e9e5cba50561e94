package users

import (
	"net/http"

	"github.com/retainhq/retain/internal/store"
)

// RegisterRoutes adds all user endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("GET /api/v1/users", h.List)
	mux.HandleFunc("GET /api/v1/users/{userId}", h.Get)
}
