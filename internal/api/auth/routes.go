package auth

import (
	"net/http"

	"github.com/retainhq/retain/internal/session"
)

// RegisterRoutes registers all authentication endpoints on the mux.
func RegisterRoutes(mux *http.ServeMux, sessions *session.Manager) {
	h := &Handler{sessions: sessions}

	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/v1/auth/me", h.Me)
}
