package imports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/retainhq/retain/internal/api"
	"github.com/retainhq/retain/internal/domain"
	"github.com/retainhq/retain/internal/store"
)

// maxUploadBytes bounds the multipart form held in memory.
const maxUploadBytes = 32 << 20

// Handler handles import HTTP requests.
type Handler struct {
	store *store.Store
}

// Start handles POST /api/v1/imports. It accepts a multipart form with a
// single "file" part holding a CSV whose header names customer fields. Rows
// are imported one by one; rejected rows are recorded with their line number
// and never abort the rest of the file.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid multipart form data", corrID, nil))
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("CSV file is required", corrID, nil))
		return
	}
	defer func() { _ = file.Close() }()

	imp, err := h.store.Imports.Create(r.Context(), fileHeader.Filename)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}
	if err := h.store.Imports.UpdateState(r.Context(), imp.ID, store.ImportStateProcessing); err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	reader := csv.NewReader(file)

	columns, err := reader.Read()
	if err != nil {
		_ = h.store.Imports.Finish(r.Context(), imp.ID, 0, 0,
			[]store.ImportError{{Line: 1, Message: "failed to read CSV header"}})
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Failed to read CSV header", corrID, nil))
		return
	}
	for i := range columns {
		columns[i] = strings.TrimSpace(columns[i])
	}

	line := 1
	total := 0
	imported := 0
	var rowErrs []store.ImportError

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		total++
		if err != nil {
			rowErrs = append(rowErrs, store.ImportError{Line: line, Message: err.Error()})
			continue
		}

		input, err := rowToInput(columns, record)
		if err != nil {
			rowErrs = append(rowErrs, store.ImportError{Line: line, Message: err.Error()})
			continue
		}

		if _, err := h.store.Customers.Create(r.Context(), input); err != nil {
			msg := err.Error()
			var vErr *store.ValidationError
			if errors.As(err, &vErr) {
				msg = vErr.Message
			}
			rowErrs = append(rowErrs, store.ImportError{Line: line, Message: msg})
			continue
		}
		imported++
	}

	if err := h.store.Imports.Finish(r.Context(), imp.ID, total, imported, rowErrs); err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	result, err := h.store.Imports.Get(r.Context(), imp.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, result)
}

// rowToInput maps one CSV record onto a customer input using the header
// columns. Unknown columns are ignored so exports from other systems can be
// fed back in without trimming.
func rowToInput(columns, record []string) (domain.CustomerInput, error) {
	var input domain.CustomerInput
	for i, col := range columns {
		if i >= len(record) {
			break
		}
		value := strings.TrimSpace(record[i])
		switch {
		case strings.EqualFold(col, "name"):
			input.Name = value
		case strings.EqualFold(col, "industry"):
			input.Industry = value
		case strings.EqualFold(col, "healthScore"):
			if value == "" {
				continue
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return input, fmt.Errorf("invalid healthScore %q", value)
			}
			input.HealthScore = n
		case strings.EqualFold(col, "arr"):
			if value == "" {
				continue
			}
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return input, fmt.Errorf("invalid arr %q", value)
			}
			input.ARR = f
		case strings.EqualFold(col, "status"):
			input.Status = value
		case strings.EqualFold(col, "renewalDate"):
			input.RenewalDate = value
		}
	}
	return input, nil
}

// Get handles GET /api/v1/imports/{importId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	importID := r.PathValue("importId")
	corrID := api.CorrelationID(r.Context())

	imp, err := h.store.Imports.Get(r.Context(), importID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewNotFoundError("Import not found", corrID))
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.NewInternalError(err.Error(), corrID))
		return
	}

	api.WriteJSON(w, http.StatusOK, imp)
}
