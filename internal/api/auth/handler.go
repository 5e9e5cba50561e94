package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/retainhq/retain/internal/api"
	"github.com/retainhq/retain/internal/session"
)

// Handler handles authentication HTTP requests.
type Handler struct {
	sessions *session.Manager
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	User      any    `json:"user"`
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON", corrID, nil))
		return
	}
	if req.Email == "" || req.Password == "" {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("email and password are required", corrID, nil))
		return
	}

	user, token, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			api.WriteError(w, http.StatusUnauthorized, api.NewUnauthorizedError("Invalid email or password", corrID))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresIn: int64(h.sessions.TTL().Seconds()),
		User:      user,
	})
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	header := r.Header.Get("Authorization")
	token := ""
	if len(header) > len("Bearer ") {
		token = header[len("Bearer "):]
	}

	if err := h.sessions.Logout(r.Context(), token); err != nil {
		if errors.Is(err, session.ErrInvalidToken) {
			api.WriteError(w, http.StatusUnauthorized, api.NewUnauthorizedError("Invalid token", corrID))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	user := api.UserFromContext(r.Context())
	if user == nil {
		api.WriteError(w, http.StatusUnauthorized, api.NewUnauthorizedError("Authentication required", corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, user)
}
