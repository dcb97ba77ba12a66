package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/bryanwahyu/threatdesk/internal/metrics"
)

// Metrics tracks request counters on m.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.RequestsTotal.Add(1)
			m.RequestsInProgress.Add(1)
			defer m.RequestsInProgress.Add(-1)

			wrapped := wrap(w)
			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
				m.RequestsSuccess.Add(1)
			} else {
				m.RequestsFailed.Add(1)
			}
		})
	}
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m.Snapshot())
	}
}
