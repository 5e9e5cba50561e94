package conformance_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"
	"time"
)

// doRequest makes an authenticated HTTP request to the test server and
// returns the response. The caller is responsible for closing the body.
func doRequest(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	return doRequestToken(t, method, path, body, authToken)
}

// doRequestNoAuth makes a request without an Authorization header.
func doRequestNoAuth(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	return doRequestToken(t, method, path, body, "")
}

// doRequestToken makes a request with an explicit bearer token. An empty
// token sends no Authorization header.
func doRequestToken(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, serverURL+path, bodyReader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// uploadCSV posts a CSV file as a multipart form to the imports endpoint.
func uploadCSV(t *testing.T, filename, content string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, serverURL+"/api/v1/imports", &buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/v1/imports: %v", err)
	}
	return resp
}

// readJSON reads the response body and unmarshals it into a map.
func readJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(b, &result); err != nil {
		t.Fatalf("unmarshal response (status %d): body=%s err=%v", resp.StatusCode, string(b), err)
	}
	return result
}

// readBody reads and returns the raw response body.
func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return b
}

// mustStatus asserts the HTTP response has the expected status code.
func mustStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d; body=%s", expected, resp.StatusCode, string(b))
	}
}

// resetServer calls POST /_retain/reset to return the customer data to its
// seeded state. Users and sessions survive, so the shared token stays valid.
func resetServer(t *testing.T) {
	t.Helper()
	resp := doRequest(t, http.MethodPost, "/_retain/reset", nil)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("reset server failed: status=%d body=%s", resp.StatusCode, string(b))
	}
}

// assertAPIError validates the response matches the standard error envelope.
func assertAPIError(t *testing.T, body map[string]any, expectedCategory string) {
	t.Helper()
	assertStringField(t, body, "status", "error")
	assertFieldPresent(t, body, "message")
	assertFieldPresent(t, body, "correlationId")
	if expectedCategory != "" {
		assertStringField(t, body, "category", expectedCategory)
	}
}

// assertFieldPresent checks that a key exists in the map.
func assertFieldPresent(t *testing.T, m map[string]any, key string) {
	t.Helper()
	if _, ok := m[key]; !ok {
		t.Errorf("expected field %q to be present, got keys: %v", key, mapKeys(m))
	}
}

// assertFieldAbsent checks that a key does not exist in the map.
func assertFieldAbsent(t *testing.T, m map[string]any, key string) {
	t.Helper()
	if _, ok := m[key]; ok {
		t.Errorf("expected field %q to be absent, got value: %v", key, m[key])
	}
}

// assertStringField checks that a key exists and has the expected string value.
func assertStringField(t *testing.T, m map[string]any, key, expected string) {
	t.Helper()
	v, ok := m[key]
	if !ok {
		t.Errorf("expected field %q to be present", key)
		return
	}
	s, ok := v.(string)
	if !ok {
		t.Errorf("expected field %q to be string, got %T", key, v)
		return
	}
	if s != expected {
		t.Errorf("field %q: expected %q, got %q", key, expected, s)
	}
}

// assertBoolField checks that a key exists and has the expected boolean value.
func assertBoolField(t *testing.T, m map[string]any, key string, expected bool) {
	t.Helper()
	v, ok := m[key]
	if !ok {
		t.Errorf("expected field %q to be present", key)
		return
	}
	b, ok := v.(bool)
	if !ok {
		t.Errorf("expected field %q to be bool, got %T", key, v)
		return
	}
	if b != expected {
		t.Errorf("field %q: expected %v, got %v", key, expected, b)
	}
}

// assertNumberField checks that a key exists and has the expected numeric value.
func assertNumberField(t *testing.T, m map[string]any, key string, expected float64) {
	t.Helper()
	v, ok := m[key]
	if !ok {
		t.Errorf("expected field %q to be present", key)
		return
	}
	f, ok := v.(float64)
	if !ok {
		t.Errorf("expected field %q to be number, got %T", key, v)
		return
	}
	if f != expected {
		t.Errorf("field %q: expected %v, got %v", key, expected, f)
	}
}

// assertIsString checks that a field is a string and returns its value.
func assertIsString(t *testing.T, m map[string]any, key string) string {
	t.Helper()
	v, ok := m[key]
	if !ok {
		t.Errorf("expected field %q to be present", key)
		return ""
	}
	s, ok := v.(string)
	if !ok {
		t.Errorf("expected field %q to be string, got %T", key, v)
		return ""
	}
	return s
}

// assertIsNumber checks that a field is a JSON number and returns it.
func assertIsNumber(t *testing.T, m map[string]any, key string) float64 {
	t.Helper()
	v, ok := m[key]
	if !ok {
		t.Errorf("expected field %q to be present", key)
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		t.Errorf("expected field %q to be number, got %T", key, v)
		return 0
	}
	return f
}

// assertIsArray checks that a field is a JSON array and returns it.
func assertIsArray(t *testing.T, m map[string]any, key string) []any {
	t.Helper()
	v, ok := m[key]
	if !ok {
		t.Errorf("expected field %q to be present", key)
		return nil
	}
	a, ok := v.([]any)
	if !ok {
		t.Errorf("expected field %q to be array, got %T", key, v)
		return nil
	}
	return a
}

// assertIsObject checks that a field is a JSON object and returns it.
func assertIsObject(t *testing.T, m map[string]any, key string) map[string]any {
	t.Helper()
	v, ok := m[key]
	if !ok {
		t.Errorf("expected field %q to be present", key)
		return nil
	}
	o, ok := v.(map[string]any)
	if !ok {
		t.Errorf("expected field %q to be object, got %T", key, v)
		return nil
	}
	return o
}

// assertISOTimestamp checks that a string value is a valid ISO 8601 timestamp.
func assertISOTimestamp(t *testing.T, value string) {
	t.Helper()
	if value == "" {
		t.Error("expected non-empty ISO timestamp")
		return
	}
	formats := []string{
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		time.RFC3339,
		time.RFC3339Nano,
	}
	for _, f := range formats {
		if _, err := time.Parse(f, value); err == nil {
			return
		}
	}
	t.Errorf("value %q is not a valid ISO 8601 timestamp", value)
}

// assertPaging checks that the response has a valid paging structure.
func assertPaging(t *testing.T, body map[string]any) {
	t.Helper()
	paging := assertIsObject(t, body, "paging")
	if paging == nil {
		return
	}
	next := assertIsObject(t, paging, "next")
	if next == nil {
		return
	}
	assertFieldPresent(t, next, "after")
}

// assertCustomerShape validates the core fields of a customer response.
func assertCustomerShape(t *testing.T, obj map[string]any) {
	t.Helper()
	assertIsString(t, obj, "id")
	assertIsString(t, obj, "name")
	assertISOTimestamp(t, assertIsString(t, obj, "createdAt"))
	assertISOTimestamp(t, assertIsString(t, obj, "updatedAt"))
	assertBoolField(t, obj, "archived", false)
}

// toObject converts a slice element to a map.
func toObject(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected object, got %T", v)
	}
	return m
}

// resultNames extracts the name field from each element of a results array.
func resultNames(t *testing.T, results []any) []string {
	t.Helper()
	names := make([]string, 0, len(results))
	for _, v := range results {
		names = append(names, assertIsString(t, toObject(t, v), "name"))
	}
	return names
}

// resultIDs extracts the id field from each element of a results array.
func resultIDs(t *testing.T, results []any) []string {
	t.Helper()
	ids := make([]string, 0, len(results))
	for _, v := range results {
		ids = append(ids, assertIsString(t, toObject(t, v), "id"))
	}
	return ids
}

// createCustomer is a helper that creates a customer and returns the
// response body.
func createCustomer(t *testing.T, input map[string]any) map[string]any {
	t.Helper()
	resp := doRequest(t, http.MethodPost, "/api/v1/customers", input)
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		t.Fatalf("create customer: status=%d body=%s", resp.StatusCode, string(b))
	}
	return readJSON(t, resp)
}

// createSegment is a helper that creates a segment and returns the
// response body.
func createSegment(t *testing.T, input map[string]any) map[string]any {
	t.Helper()
	resp := doRequest(t, http.MethodPost, "/api/v1/segments", input)
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		t.Fatalf("create segment: status=%d body=%s", resp.StatusCode, string(b))
	}
	return readJSON(t, resp)
}

// searchCustomers posts a search query and returns the parsed response.
func searchCustomers(t *testing.T, query map[string]any) map[string]any {
	t.Helper()
	resp := doRequest(t, http.MethodPost, "/api/v1/customers/search", query)
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		t.Fatalf("search customers: status=%d body=%s", resp.StatusCode, string(b))
	}
	return readJSON(t, resp)
}

// searchTotal runs a search and returns only the total count.
func searchTotal(t *testing.T, query map[string]any) int {
	t.Helper()
	body := searchCustomers(t, query)
	return int(assertIsNumber(t, body, "total"))
}

// mapKeys returns the keys of a map for diagnostic output.
func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
