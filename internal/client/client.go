// Package client is a thin JSON client for the retain HTTP API. It decodes
// the server's error envelope into APIError values and implements
// fetch.Source, so the terminal client can load customers through it with
// the same semantics an in-process store would have.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/retainhq/retain/internal/domain"
)

// searchPageSize matches the server's maximum search limit, so an unbounded
// fetch pages through the collection in as few requests as possible.
const searchPageSize = 500

// APIError is the server's error envelope decoded from a non-2xx response.
type APIError struct {
	StatusCode    int
	Message       string
	Category      string
	SubCategory   string
	CorrelationID string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: %s: %s", e.Category, e.Message)
}

// Client talks to a running retain server. The zero value is not usable;
// create one with New. Login stores the session token on the client, so a
// single Client is a logged-in session handle.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns the current session token, or "" before login.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken installs an existing session token, replacing any previous one.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"`
	User      *domain.User `json:"user"`
}

// Login authenticates and stores the returned session token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return resp.User, nil
}

// Logout invalidates the session server-side and clears the stored token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Me returns the user the session token belongs to.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchCustomers runs a single search request and returns one page plus the
// filtered total.
func (c *Client) SearchCustomers(ctx context.Context, q domain.Query) (*domain.QueryResult, error) {
	var result domain.QueryResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/customers/search", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchCustomers implements fetch.Source. A query with an explicit limit
// returns that single page; a query without one pages through the server's
// search endpoint until the whole filtered set has been collected.
func (c *Client) FetchCustomers(ctx context.Context, q domain.Query) ([]domain.Customer, error) {
	if q.Limit > 0 {
		result, err := c.SearchCustomers(ctx, q)
		if err != nil {
			return nil, err
		}
		return flatten(result.Results), nil
	}

	var records []domain.Customer
	q.Limit = searchPageSize
	q.Offset = 0
	for {
		page, err := c.SearchCustomers(ctx, q)
		if err != nil {
			return nil, err
		}
		records = append(records, flatten(page.Results)...)
		if len(records) >= page.Total || len(page.Results) == 0 {
			return records, nil
		}
		q.Offset += len(page.Results)
	}
}

// Dashboard returns renewal aggregates for the given window in days. A
// window of 0 uses the server default.
func (c *Client) Dashboard(ctx context.Context, renewalWindowDays int) (*domain.Dashboard, error) {
	path := "/api/v1/dashboard"
	if renewalWindowDays > 0 {
		path = fmt.Sprintf("%s?renewalWindowDays=%d", path, renewalWindowDays)
	}
	var dash domain.Dashboard
	if err := c.do(ctx, http.MethodGet, path, nil, &dash); err != nil {
		return nil, err
	}
	return &dash, nil
}

// Healthz reports whether the server is reachable and its database is up.
func (c *Client) Healthz(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// do sends one JSON request. A nil out discards the response body; non-2xx
// responses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// decodeAPIError turns an error response into an *APIError, falling back to
// the raw body when the envelope does not parse.
func decodeAPIError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var envelope struct {
		Message       string `json:"message"`
		Category      string `json:"category"`
		SubCategory   string `json:"subCategory"`
		CorrelationID string `json:"correlationId"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Message == "" {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	return &APIError{
		StatusCode:    resp.StatusCode,
		Message:       envelope.Message,
		Category:      envelope.Category,
		SubCategory:   envelope.SubCategory,
		CorrelationID: envelope.CorrelationID,
	}
}

func flatten(in []*domain.Customer) []domain.Customer {
	out := make([]domain.Customer, 0, len(in))
	for _, c := range in {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}
