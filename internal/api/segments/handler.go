package segments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/retainhq/retain/internal/api"
	"github.com/retainhq/retain/internal/domain"
	"github.com/retainhq/retain/internal/store"
)

// Handler handles saved segment HTTP requests.
type Handler struct {
	store *store.Store
}

// Create handles POST /api/v1/segments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	var input domain.SegmentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON", corrID, nil))
		return
	}

	seg, err := h.store.Segments.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidFilterRange) {
			api.WriteError(w, http.StatusBadRequest, api.NewRangeError(err.Error(), corrID))
			return
		}
		var vErr *store.ValidationError
		if errors.As(err, &vErr) {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError(vErr.Message, corrID, nil))
			return
		}
		if errors.Is(err, store.ErrConflict) {
			api.WriteError(w, http.StatusConflict, api.NewConflictError(err.Error(), corrID))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusCreated, seg)
}

// Get handles GET /api/v1/segments/{segmentId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	segmentID := r.PathValue("segmentId")
	corrID := api.CorrelationID(r.Context())

	seg, err := h.store.Segments.Get(r.Context(), segmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Segment not found", corrID))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, seg)
}

// List handles GET /api/v1/segments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	after := r.URL.Query().Get("after")

	page, err := h.store.Segments.List(r.Context(), limit, after)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	results := make([]any, len(page.Results))
	for i, seg := range page.Results {
		results[i] = seg
	}

	resp := api.CollectionResponse{Results: results}
	if page.HasMore {
		resp.Paging = &api.Paging{
			Next: &api.PagingNext{After: page.After},
		}
	}

	api.WriteJSON(w, http.StatusOK, resp)
}

// Update handles PATCH /api/v1/segments/{segmentId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	segmentID := r.PathValue("segmentId")
	corrID := api.CorrelationID(r.Context())

	var patch domain.SegmentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON", corrID, nil))
		return
	}

	seg, err := h.store.Segments.Update(r.Context(), segmentID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Segment not found", corrID))
			return
		}
		if errors.Is(err, domain.ErrInvalidFilterRange) {
			api.WriteError(w, http.StatusBadRequest, api.NewRangeError(err.Error(), corrID))
			return
		}
		var vErr *store.ValidationError
		if errors.As(err, &vErr) {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError(vErr.Message, corrID, nil))
			return
		}
		if errors.Is(err, store.ErrConflict) {
			api.WriteError(w, http.StatusConflict, api.NewConflictError(err.Error(), corrID))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, seg)
}

// Archive handles DELETE /api/v1/segments/{segmentId}.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	segmentID := r.PathValue("segmentId")
	corrID := api.CorrelationID(r.Context())

	if err := h.store.Segments.Archive(r.Context(), segmentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Segment not found", corrID))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Customers handles GET /api/v1/segments/{segmentId}/customers. It runs the
// segment's saved filter and sort against the live customer collection.
func (h *Handler) Customers(w http.ResponseWriter, r *http.Request) {
	segmentID := r.PathValue("segmentId")
	corrID := api.CorrelationID(r.Context())

	seg, err := h.store.Segments.Get(r.Context(), segmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Segment not found", corrID))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	q := domain.Query{Filter: seg.Filter, Sort: seg.Sort}
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError("limit must be a positive integer", corrID, nil))
			return
		}
		q.Limit = parsed
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError("offset must not be negative", corrID, nil))
			return
		}
		q.Offset = parsed
	}

	result, err := h.store.Customers.Query(r.Context(), q)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, result)
}
