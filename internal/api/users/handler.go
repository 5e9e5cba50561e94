// Package users serves the account directory used to assign customer owners.
package users

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/retainhq/retain/internal/api"
	"github.com/retainhq/retain/internal/store"
)

// Handler handles user HTTP requests.
type Handler struct {
	store *store.Store
}

// List handles GET /api/v1/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	after := r.URL.Query().Get("after")

	users, hasMore, nextAfter, err := h.store.Users.List(r.Context(), limit, after)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	results := make([]any, len(users))
	for i, u := range users {
		results[i] = u
	}

	resp := api.CollectionResponse{Results: results}
	if hasMore {
		resp.Paging = &api.Paging{
			Next: &api.PagingNext{After: nextAfter},
		}
	}

	api.WriteJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/users/{userId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	corrID := api.CorrelationID(r.Context())

	user, err := h.store.Users.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("User not found", corrID))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, user)
}
