package segments

import (
	"net/http"

	"github.com/retainhq/retain/internal/store"
)

// RegisterRoutes adds all segment endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("GET /api/v1/segments", h.List)
	mux.HandleFunc("POST /api/v1/segments", h.Create)
	mux.HandleFunc("GET /api/v1/segments/{segmentId}", h.Get)
	mux.HandleFunc("PATCH /api/v1/segments/{segmentId}", h.Update)
	mux.HandleFunc("DELETE /api/v1/segments/{segmentId}", h.Archive)
	mux.HandleFunc("GET /api/v1/segments/{segmentId}/customers", h.Customers)
}
