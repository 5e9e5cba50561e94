package api

import (
	"database/sql"
	"net/http"
)

// Healthz returns a handler for GET /healthz that reports liveness and
// database reachability. It is exempt from session auth so load balancers
// and the CLI can probe it without credentials.
func Healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			corrID := CorrelationID(r.Context())
			WriteError(w, http.StatusServiceUnavailable, NewInternalError("Database unavailable", corrID))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
