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

// Handler handles customer HTTP requests.
type Handler struct {
	store *store.Store
}

// Create handles POST /api/v1/customers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	var input domain.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON", corrID, nil))
		return
	}

	customer, err := h.store.Customers.Create(r.Context(), input)
	if err != nil {
		var validationErr *store.ValidationError
		if errors.As(err, &validationErr) {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError(validationErr.Message, corrID, nil))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusCreated, customer)
}

// Get handles GET /api/v1/customers/{customerId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	customerID := r.PathValue("customerId")
	corrID := api.CorrelationID(r.Context())

	customer, err := h.store.Customers.Get(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Customer not found", corrID))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, customer)
}

// List handles GET /api/v1/customers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	opts := domain.ListOpts{
		Limit:    limit,
		After:    r.URL.Query().Get("after"),
		Archived: r.URL.Query().Get("archived") == "true",
	}

	page, err := h.store.Customers.List(r.Context(), opts)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	results := make([]any, len(page.Results))
	for i, customer := range page.Results {
		results[i] = customer
	}

	resp := api.CollectionResponse{Results: results}
	if page.HasMore {
		resp.Paging = &api.Paging{
			Next: &api.PagingNext{After: page.After},
		}
	}

	api.WriteJSON(w, http.StatusOK, resp)
}

// Update handles PATCH /api/v1/customers/{customerId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	customerID := r.PathValue("customerId")
	corrID := api.CorrelationID(r.Context())

	var patch domain.CustomerPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON", corrID, nil))
		return
	}

	customer, err := h.store.Customers.Update(r.Context(), customerID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Customer not found", corrID))
			return
		}
		var validationErr *store.ValidationError
		if errors.As(err, &validationErr) {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError(validationErr.Message, corrID, nil))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, customer)
}

// Archive handles DELETE /api/v1/customers/{customerId}.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	customerID := r.PathValue("customerId")
	corrID := api.CorrelationID(r.Context())

	if err := h.store.Customers.Archive(r.Context(), customerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Customer not found", corrID))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Industries handles GET /api/v1/customers/industries.
func (h *Handler) Industries(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	industries, err := h.store.Customers.Industries(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	results := make([]any, len(industries))
	for i, industry := range industries {
		results[i] = industry
	}

	api.WriteJSON(w, http.StatusOK, api.CollectionResponse{Results: results})
}
