package conformance_test

import (
	"net/http"
	"slices"
	"testing"
)

// TestSegments_CreateAndGet verifies that a saved segment round-trips with
// its filter and sort.
func TestSegments_CreateAndGet(t *testing.T) {
	resetServer(t)

	created := createSegment(t, map[string]any{
		"name":        "Software accounts",
		"description": "Everything in the Software industry",
		"filter":      map[string]any{"industries": []string{"Software"}},
		"sort":        map[string]any{"field": "arr", "direction": "DESCENDING"},
	})
	id := assertIsString(t, created, "id")

	resp := doRequest(t, http.MethodGet, "/api/v1/segments/"+id, nil)
	mustStatus(t, resp, http.StatusOK)

	body := readJSON(t, resp)
	assertStringField(t, body, "name", "Software accounts")
	assertStringField(t, body, "description", "Everything in the Software industry")
	assertBoolField(t, body, "archived", false)
	assertISOTimestamp(t, assertIsString(t, body, "createdAt"))

	filter := assertIsObject(t, body, "filter")
	industries := assertIsArray(t, filter, "industries")
	if len(industries) != 1 || industries[0] != "Software" {
		t.Errorf("expected saved industries [Software], got %v", industries)
	}

	sort := assertIsObject(t, body, "sort")
	assertStringField(t, sort, "field", "arr")
	assertStringField(t, sort, "direction", "DESCENDING")
}

// TestSegments_CreateDefaultsSort verifies that a segment saved without a
// sort falls back to name ascending.
func TestSegments_CreateDefaultsSort(t *testing.T) {
	resetServer(t)

	created := createSegment(t, map[string]any{
		"name":   "Unsorted segment",
		"filter": map[string]any{"search": "health"},
	})

	sort := assertIsObject(t, created, "sort")
	assertStringField(t, sort, "field", "name")
	assertStringField(t, sort, "direction", "ASCENDING")
}

// TestSegments_CreateValidation verifies name, range, and sort validation.
func TestSegments_CreateValidation(t *testing.T) {
	resetServer(t)

	// Missing name.
	resp := doRequest(t, http.MethodPost, "/api/v1/segments", map[string]any{
		"filter": map[string]any{"search": "x"},
	})
	mustStatus(t, resp, http.StatusBadRequest)
	assertAPIError(t, readJSON(t, resp), "VALIDATION_ERROR")

	// Inverted range inside the saved filter.
	resp = doRequest(t, http.MethodPost, "/api/v1/segments", map[string]any{
		"name":   "Bad range",
		"filter": map[string]any{"arrMin": 5000, "arrMax": 100},
	})
	mustStatus(t, resp, http.StatusBadRequest)
	body := readJSON(t, resp)
	assertAPIError(t, body, "VALIDATION_ERROR")
	assertStringField(t, body, "subCategory", "INVALID_RANGE")

	// Unknown sort field.
	resp = doRequest(t, http.MethodPost, "/api/v1/segments", map[string]any{
		"name": "Bad sort",
		"sort": map[string]any{"field": "bogus", "direction": "ASCENDING"},
	})
	mustStatus(t, resp, http.StatusBadRequest)
	assertAPIError(t, readJSON(t, resp), "VALIDATION_ERROR")
}

// TestSegments_DuplicateName verifies that segment names are unique.
func TestSegments_DuplicateName(t *testing.T) {
	resetServer(t)

	createSegment(t, map[string]any{"name": "Renewal watch"})

	resp := doRequest(t, http.MethodPost, "/api/v1/segments", map[string]any{"name": "Renewal watch"})
	mustStatus(t, resp, http.StatusConflict)

	body := readJSON(t, resp)
	assertAPIError(t, body, "CONFLICT")
}

// TestSegments_List verifies listing live segments.
func TestSegments_List(t *testing.T) {
	resetServer(t)

	createSegment(t, map[string]any{"name": "First segment"})
	createSegment(t, map[string]any{"name": "Second segment"})

	resp := doRequest(t, http.MethodGet, "/api/v1/segments", nil)
	mustStatus(t, resp, http.StatusOK)

	body := readJSON(t, resp)
	names := resultNames(t, assertIsArray(t, body, "results"))
	for _, want := range []string{"First segment", "Second segment"} {
		if !slices.Contains(names, want) {
			t.Errorf("expected segment %q in list, got %v", want, names)
		}
	}
}

// TestSegments_Update verifies partial updates to a saved segment.
func TestSegments_Update(t *testing.T) {
	resetServer(t)

	created := createSegment(t, map[string]any{
		"name":   "At risk",
		"filter": map[string]any{"healthMax": 50},
	})
	id := assertIsString(t, created, "id")

	resp := doRequest(t, http.MethodPatch, "/api/v1/segments/"+id, map[string]any{
		"name":   "At risk, low spend",
		"filter": map[string]any{"healthMax": 50, "arrMax": 50000},
	})
	mustStatus(t, resp, http.StatusOK)

	body := readJSON(t, resp)
	assertStringField(t, body, "name", "At risk, low spend")
	filter := assertIsObject(t, body, "filter")
	assertNumberField(t, filter, "arrMax", 50000)

	// An inverted range in the patch is rejected and the segment keeps its
	// previous filter.
	resp = doRequest(t, http.MethodPatch, "/api/v1/segments/"+id, map[string]any{
		"filter": map[string]any{"healthMin": 90, "healthMax": 10},
	})
	mustStatus(t, resp, http.StatusBadRequest)
	errBody := readJSON(t, resp)
	assertAPIError(t, errBody, "VALIDATION_ERROR")
	assertStringField(t, errBody, "subCategory", "INVALID_RANGE")

	resp = doRequest(t, http.MethodGet, "/api/v1/segments/"+id, nil)
	mustStatus(t, resp, http.StatusOK)
	body = readJSON(t, resp)
	filter = assertIsObject(t, body, "filter")
	assertNumberField(t, filter, "arrMax", 50000)
}

// TestSegments_Archive verifies that archived segments leave the list but
// 404 on direct access is reserved for unknown IDs.
func TestSegments_Archive(t *testing.T) {
	resetServer(t)

	created := createSegment(t, map[string]any{"name": "Short lived"})
	id := assertIsString(t, created, "id")

	resp := doRequest(t, http.MethodDelete, "/api/v1/segments/"+id, nil)
	mustStatus(t, resp, http.StatusNoContent)
	_ = resp.Body.Close()

	resp = doRequest(t, http.MethodGet, "/api/v1/segments", nil)
	mustStatus(t, resp, http.StatusOK)
	names := resultNames(t, assertIsArray(t, readJSON(t, resp), "results"))
	if slices.Contains(names, "Short lived") {
		t.Errorf("archived segment still listed: %v", names)
	}

	// Archiving twice is a 404.
	resp = doRequest(t, http.MethodDelete, "/api/v1/segments/"+id, nil)
	mustStatus(t, resp, http.StatusNotFound)
	_ = resp.Body.Close()
}

// TestSegments_NotFound verifies 404s for unknown segment IDs.
func TestSegments_NotFound(t *testing.T) {
	resetServer(t)

	for _, path := range []string{
		"/api/v1/segments/999999",
		"/api/v1/segments/999999/customers",
	} {
		resp := doRequest(t, http.MethodGet, path, nil)
		mustStatus(t, resp, http.StatusNotFound)
		assertAPIError(t, readJSON(t, resp), "OBJECT_NOT_FOUND")
	}
}

// TestSegments_CustomersRunsSavedView verifies that the segment's customers
// endpoint applies the saved filter and sort to the live collection.
func TestSegments_CustomersRunsSavedView(t *testing.T) {
	resetServer(t)

	created := createSegment(t, map[string]any{
		"name":   "Software by health",
		"filter": map[string]any{"industries": []string{"Software"}},
		"sort":   map[string]any{"field": "health_score", "direction": "DESCENDING"},
	})
	id := assertIsString(t, created, "id")

	resp := doRequest(t, http.MethodGet, "/api/v1/segments/"+id+"/customers", nil)
	mustStatus(t, resp, http.StatusOK)

	body := readJSON(t, resp)
	assertNumberField(t, body, "total", 4)
	names := resultNames(t, assertIsArray(t, body, "results"))
	want := []string{"Harbor Software", "beacon analytics", "datawise", "opal systems"}
	if !slices.Equal(names, want) {
		t.Errorf("expected segment view %v, got %v", want, names)
	}

	// The saved view reflects later edits to the collection.
	createCustomer(t, map[string]any{
		"name":        "Zenith Code",
		"industry":    "Software",
		"healthScore": 99,
	})
	resp = doRequest(t, http.MethodGet, "/api/v1/segments/"+id+"/customers", nil)
	mustStatus(t, resp, http.StatusOK)
	body = readJSON(t, resp)
	assertNumberField(t, body, "total", 5)
	names = resultNames(t, assertIsArray(t, body, "results"))
	if len(names) == 0 || names[0] != "Zenith Code" {
		t.Errorf("expected new healthiest customer first, got %v", names)
	}
}

// TestSegments_CustomersPagination verifies limit and offset on the segment
// view.
func TestSegments_CustomersPagination(t *testing.T) {
	resetServer(t)

	created := createSegment(t, map[string]any{"name": "Everything"})
	id := assertIsString(t, created, "id")

	resp := doRequest(t, http.MethodGet, "/api/v1/segments/"+id+"/customers?limit=10&offset=10", nil)
	mustStatus(t, resp, http.StatusOK)

	body := readJSON(t, resp)
	assertNumberField(t, body, "total", 15)
	if results := assertIsArray(t, body, "results"); len(results) != 5 {
		t.Errorf("expected 5 results on the final page, got %d", len(results))
	}

	resp = doRequest(t, http.MethodGet, "/api/v1/segments/"+id+"/customers?limit=0", nil)
	mustStatus(t, resp, http.StatusBadRequest)
	assertAPIError(t, readJSON(t, resp), "VALIDATION_ERROR")
}
