package exports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/retainhq/retain/internal/api"
	"github.com/retainhq/retain/internal/domain"
	"github.com/retainhq/retain/internal/export"
	"github.com/retainhq/retain/internal/listview"
	"github.com/retainhq/retain/internal/store"
)

// exportPageSize bounds each store query while gathering the full result set.
const exportPageSize = 500

// Handler handles export HTTP requests.
type Handler struct {
	store *store.Store
}

// exportRequest is the JSON body for starting an export. Exactly one of
// query and ids selects the records: query exports a filtered view, ids
// exports an explicit selection sorted by the top-level sort.
type exportRequest struct {
	Name    string        `json:"name,omitempty"`
	Format  string        `json:"format"`
	Columns []string      `json:"columns,omitempty"`
	Query   *domain.Query `json:"query,omitempty"`
	IDs     []string      `json:"ids,omitempty"`
	Sort    *domain.Sort  `json:"sort,omitempty"`
}

// statusResponse represents the export status API response.
type statusResponse struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	Format    string        `json:"format"`
	Columns   []string      `json:"columns"`
	Result    *exportResult `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
}

type exportResult struct {
	RecordCount int    `json:"recordCount"`
	DownloadURL string `json:"downloadUrl"`
}

func status(exp *store.Export) statusResponse {
	resp := statusResponse{
		ID:        exp.ID,
		Status:    exp.State,
		Format:    exp.Format,
		Columns:   exp.Columns,
		Error:     exp.Error,
		CreatedAt: exp.CreatedAt,
		UpdatedAt: exp.UpdatedAt,
	}
	if exp.State == store.ExportStateComplete {
		resp.Result = &exportResult{
			RecordCount: exp.RecordCount,
			DownloadURL: "/api/v1/exports/" + exp.ID + "/download",
		}
	}
	return resp
}

// Start handles POST /api/v1/exports. Documents are generated synchronously;
// the job record still moves through PENDING so clients can poll the same
// status endpoint they would against a queued backend.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON", corrID, nil))
		return
	}

	if req.Format == "" {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("format is required", corrID, nil))
		return
	}
	if len(req.IDs) > 0 && req.Query != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("ids and query are mutually exclusive", corrID, nil))
		return
	}

	columns := req.Columns
	if len(columns) == 0 {
		columns = domain.ExportFields
	}
	for _, col := range columns {
		if !domain.ValidExportField(col) {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError(
				fmt.Sprintf("unknown export column %q", col), corrID, nil))
			return
		}
	}

	// Reject bad filters and sorts before creating the job record.
	if req.Query != nil {
		if err := req.Query.Filter.Validate(); err != nil {
			api.WriteError(w, http.StatusBadRequest, api.NewRangeError(err.Error(), corrID))
			return
		}
		if req.Query.Sort.Field != "" {
			if err := req.Query.Sort.Validate(); err != nil {
				api.WriteError(w, http.StatusBadRequest, api.NewValidationError(err.Error(), corrID, nil))
				return
			}
		}
	}
	if req.Sort != nil {
		if err := req.Sort.Validate(); err != nil {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError(err.Error(), corrID, nil))
			return
		}
	}

	reqJSON, _ := json.Marshal(req)

	exp, err := h.store.Exports.Create(r.Context(), req.Format, columns, reqJSON)
	if err != nil {
		var vErr *store.ValidationError
		if errors.As(err, &vErr) {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError(vErr.Message, corrID, nil))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	records, err := h.gather(r.Context(), req)
	if err != nil {
		_ = h.store.Exports.Fail(r.Context(), exp.ID, err.Error())
		if failed, getErr := h.store.Exports.Get(r.Context(), exp.ID); getErr == nil {
			api.WriteJSON(w, http.StatusAccepted, status(failed))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	data, err := render(req, columns, records)
	if err != nil {
		_ = h.store.Exports.Fail(r.Context(), exp.ID, err.Error())
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	if err := h.store.Exports.Complete(r.Context(), exp.ID, data, len(records)); err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	done, err := h.store.Exports.Get(r.Context(), exp.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusAccepted, status(done))
}

// gather collects the customers the request selects, already in export order.
func (h *Handler) gather(ctx context.Context, req exportRequest) ([]domain.Customer, error) {
	if len(req.IDs) > 0 {
		records := make([]domain.Customer, 0, len(req.IDs))
		for _, id := range req.IDs {
			c, err := h.store.Customers.Get(ctx, id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return nil, fmt.Errorf("customer %s not found", id)
				}
				return nil, err
			}
			records = append(records, *c)
		}
		sort := domain.DefaultSort()
		if req.Sort != nil {
			sort = *req.Sort
		}
		return listview.SortCustomers(records, sort), nil
	}

	q := domain.Query{}
	if req.Query != nil {
		q = *req.Query
	}
	q.Limit = exportPageSize
	q.Offset = 0

	var records []domain.Customer
	for {
		page, err := h.store.Customers.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, c := range page.Results {
			records = append(records, *c)
		}
		if len(records) >= page.Total || len(page.Results) == 0 {
			return records, nil
		}
		q.Offset += len(page.Results)
	}
}

func render(req exportRequest, columns []string, records []domain.Customer) ([]byte, error) {
	rows := make([][]string, len(records))
	for i, c := range records {
		row := make([]string, len(columns))
		for j, col := range columns {
			v, err := domain.FieldValue(c, col)
			if err != nil {
				return nil, err
			}
			row[j] = v
		}
		rows[i] = row
	}

	if req.Format == store.ExportFormatPDF {
		title := req.Name
		if title == "" {
			title = "Customer export"
		}
		return export.PDF(title, columns, rows)
	}
	return export.CSV(columns, rows)
}

// GetStatus handles GET /api/v1/exports/{exportId}.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	exportID := r.PathValue("exportId")
	corrID := api.CorrelationID(r.Context())

	exp, err := h.store.Exports.Get(r.Context(), exportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Export not found", corrID))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, status(exp))
}

// Download handles GET /api/v1/exports/{exportId}/download.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	exportID := r.PathValue("exportId")
	corrID := api.CorrelationID(r.Context())

	exp, err := h.store.Exports.Get(r.Context(), exportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Export not found", corrID))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	if exp.State != store.ExportStateComplete {
		api.WriteError(w, http.StatusConflict, api.NewConflictError(
			fmt.Sprintf("export is %s, not %s", exp.State, store.ExportStateComplete), corrID))
		return
	}

	contentType := "text/csv"
	if exp.Format == store.ExportFormatPDF {
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "customers-"+exp.ID+"."+exp.Format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.ResultData)
}
