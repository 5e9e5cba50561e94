package customers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/retainhq/retain/internal/api"
	"github.com/retainhq/retain/internal/domain"
	"github.com/retainhq/retain/internal/store"
)

const defaultRenewalWindowDays = 90

// Search handles POST /api/v1/customers/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	var q domain.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON", corrID, nil))
		return
	}

	result, err := h.store.Customers.Query(r.Context(), q)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidFilterRange) {
			api.WriteError(w, http.StatusBadRequest, api.NewRangeError(err.Error(), corrID))
			return
		}
		var validationErr *store.ValidationError
		if errors.As(err, &validationErr) {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError(validationErr.Message, corrID, []api.ErrorDetail{
				{Message: validationErr.Message},
			}))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, result)
}

// Dashboard handles GET /api/v1/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	days := defaultRenewalWindowDays
	if v := r.URL.Query().Get("renewalWindowDays"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError("renewalWindowDays must be a positive integer", corrID, nil))
			return
		}
		days = n
	}

	dashboard, err := h.store.Customers.Dashboard(r.Context(), days)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, dashboard)
}
