package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retainhq/retain/internal/domain"
	"github.com/retainhq/retain/internal/session"
)

type contextKey int

const (
	correlationIDKey contextKey = iota
	userKey
)

// CorrelationID returns the correlation ID from the request context.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// UserFromContext returns the authenticated user, or nil on unauthenticated
// routes.
func UserFromContext(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(userKey).(*domain.User); ok {
		return u
	}
	return nil
}

// Recovery returns middleware that recovers from panics and returns a 500
// error in the standard envelope.
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("panic recovered",
						"error", rec,
						"method", r.Method,
						"path", r.URL.Path,
					)
					corrID := CorrelationID(r.Context())
					WriteError(w, http.StatusInternalServerError, NewInternalError("Internal Server Error", corrID))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID returns middleware that generates a UUID v4 correlation ID,
// stores it in the request context, and adds it to the response headers.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			ctx := context.WithValue(r.Context(), correlationIDKey, id)
			w.Header().Set("X-Correlation-Id", id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionExempt reports whether a path is reachable without a token: the
// login endpoint, the health check, and the admin surface.
func sessionExempt(r *http.Request) bool {
	if r.URL.Path == "/healthz" {
		return true
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/v1/auth/login" {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/_retain/")
}

// Session returns middleware that validates the Bearer token against the
// session manager and stores the authenticated user in the request context.
func Session(mgr *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessionExempt(r) {
				next.ServeHTTP(w, r)
				return
			}

			corrID := CorrelationID(r.Context())
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header {
				WriteError(w, http.StatusUnauthorized, NewUnauthorizedError("Authentication credentials not found", corrID))
				return
			}

			user, err := mgr.Validate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, session.ErrSessionExpired):
					WriteError(w, http.StatusUnauthorized, NewUnauthorizedError("Session expired", corrID))
				case errors.Is(err, session.ErrInvalidToken):
					WriteError(w, http.StatusUnauthorized, NewUnauthorizedError("Invalid token", corrID))
				default:
					WriteError(w, http.StatusInternalServerError, NewInternalError(err.Error(), corrID))
				}
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// JSONContentType returns middleware that sets the Content-Type header to
// application/json. Handlers that serve files overwrite it before writing.
func JSONContentType() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			next.ServeHTTP(w, r)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	code int
}

// WriteHeader captures the status code and delegates to the wrapped writer.
func (sw *statusWriter) WriteHeader(code int) {
	sw.code = code
	sw.ResponseWriter.WriteHeader(code)
}

// Logging returns middleware that logs each request with slog.
func Logging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(sw, r)
			slog.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.code,
				"duration", time.Since(start).String(),
				"correlationId", CorrelationID(r.Context()),
			)
		})
	}
}

// RequestRecorder persists request log entries.
type RequestRecorder interface {
	Record(ctx context.Context, e domain.RequestLogEntry) error
}

// bodyCaptureLimit caps how much of a request or response body lands in the
// request log.
const bodyCaptureLimit = 4096

// captureWriter records the status code and up to bodyCaptureLimit bytes of
// the response body, but only while the response is JSON.
type captureWriter struct {
	http.ResponseWriter
	code int
	body bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.code = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(p []byte) (int, error) {
	if strings.HasPrefix(cw.Header().Get("Content-Type"), "application/json") {
		if remaining := bodyCaptureLimit - cw.body.Len(); remaining > 0 {
			cw.body.Write(p[:min(len(p), remaining)])
		}
	}
	return cw.ResponseWriter.Write(p)
}

// RequestLog returns middleware that records API traffic for the admin
// debugging endpoint. Admin routes themselves are not recorded, and bodies
// are kept only for JSON payloads, truncated to bodyCaptureLimit bytes.
// Recorder failures are logged and never fail the request.
func RequestLog(rec RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/_retain/") {
				next.ServeHTTP(w, r)
				return
			}

			var reqBody []byte
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") && r.Body != nil {
				reqBody, _ = io.ReadAll(io.LimitReader(r.Body, bodyCaptureLimit))
				r.Body = struct {
					io.Reader
					io.Closer
				}{io.MultiReader(bytes.NewReader(reqBody), r.Body), r.Body}
			}

			start := time.Now()
			cw := &captureWriter{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(cw, r)

			entry := domain.RequestLogEntry{
				Method:        r.Method,
				Path:          r.URL.Path,
				StatusCode:    cw.code,
				RequestBody:   string(reqBody),
				ResponseBody:  cw.body.String(),
				DurationMs:    time.Since(start).Milliseconds(),
				CorrelationID: CorrelationID(r.Context()),
			}

			// The record must land even when the client has gone away.
			ctx := context.WithoutCancel(r.Context())
			if err := rec.Record(ctx, entry); err != nil {
				slog.Warn("record request", "error", err, "path", r.URL.Path)
			}
		})
	}
}

// Chain applies middleware in order so that the first middleware is the
// outermost handler.
func Chain(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
