package conformance_test

import (
	"net/http"
	"testing"
)

// TestImports_CSVRoundTrip verifies that a clean CSV imports every row and
// the new customers land in the live collection.
func TestImports_CSVRoundTrip(t *testing.T) {
	resetServer(t)

	csv := "name,industry,healthScore,arr,status,renewalDate\n" +
		"Import One,Software,70,42000,active,2026-12-01\n" +
		"Import Two,Retail,40,15000,at_risk,\n"

	resp := uploadCSV(t, "customers.csv", csv)
	mustStatus(t, resp, http.StatusOK)

	body := readJSON(t, resp)
	assertStringField(t, body, "state", "DONE")
	assertStringField(t, body, "filename", "customers.csv")
	assertNumberField(t, body, "totalRows", 2)
	assertNumberField(t, body, "importedRows", 2)
	if errs := assertIsArray(t, body, "errors"); len(errs) != 0 {
		t.Errorf("expected no row errors, got %v", errs)
	}

	if total := searchTotal(t, map[string]any{"filter": map[string]any{"search": "Import"}}); total != 2 {
		t.Errorf("expected 2 imported customers in search, got %d", total)
	}

	// The job stays fetchable by ID.
	id := assertIsString(t, body, "id")
	resp = doRequest(t, http.MethodGet, "/api/v1/imports/"+id, nil)
	mustStatus(t, resp, http.StatusOK)
	again := readJSON(t, resp)
	assertStringField(t, again, "state", "DONE")
	assertNumberField(t, again, "importedRows", 2)
}

// TestImports_RowErrorsRecorded verifies that rejected rows are recorded with
// their line numbers and never abort the rest of the file.
func TestImports_RowErrorsRecorded(t *testing.T) {
	resetServer(t)

	csv := "name,industry,healthScore,arr,status\n" +
		"Feldspar Mining,Mining,50,9000,active\n" +
		"Gypsum Labs,Software,abc,1000,active\n" +
		",Retail,20,500,active\n"

	resp := uploadCSV(t, "mixed.csv", csv)
	mustStatus(t, resp, http.StatusOK)

	body := readJSON(t, resp)
	assertStringField(t, body, "state", "FAILED")
	assertNumberField(t, body, "totalRows", 3)
	assertNumberField(t, body, "importedRows", 1)

	errs := assertIsArray(t, body, "errors")
	if len(errs) != 2 {
		t.Fatalf("expected 2 row errors, got %d: %v", len(errs), errs)
	}
	assertNumberField(t, toObject(t, errs[0]), "line", 3)
	assertNumberField(t, toObject(t, errs[1]), "line", 4)

	// The good row made it in.
	if total := searchTotal(t, map[string]any{"filter": map[string]any{"search": "Feldspar"}}); total != 1 {
		t.Errorf("expected the valid row to import, got %d matches", total)
	}
}

// TestImports_UnknownColumnsIgnored verifies that extra CSV columns are
// skipped so exports from other systems can be fed back in.
func TestImports_UnknownColumnsIgnored(t *testing.T) {
	resetServer(t)

	csv := "name,widget,arr\n" +
		"Import Three,whatever,500\n"

	resp := uploadCSV(t, "extra.csv", csv)
	mustStatus(t, resp, http.StatusOK)

	body := readJSON(t, resp)
	assertStringField(t, body, "state", "DONE")
	assertNumberField(t, body, "importedRows", 1)
}

// TestImports_MissingFile verifies that a form without a file part is
// rejected.
func TestImports_MissingFile(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodPost, "/api/v1/imports", map[string]any{"file": "not a form"})
	mustStatus(t, resp, http.StatusBadRequest)

	body := readJSON(t, resp)
	assertAPIError(t, body, "VALIDATION_ERROR")
}

// TestImports_GetNotFound verifies 404 for unknown import IDs.
func TestImports_GetNotFound(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodGet, "/api/v1/imports/999999", nil)
	mustStatus(t, resp, http.StatusNotFound)

	body := readJSON(t, resp)
	assertAPIError(t, body, "OBJECT_NOT_FOUND")
}
