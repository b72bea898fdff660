// internal/api/middleware.go
package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"garage-backoffice/internal/common/auth"
	"garage-backoffice/internal/common/logger"
	"garage-backoffice/internal/common/metrics"
	"garage-backoffice/internal/common/observability"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps the server-sent events stream working through the wrapper.
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// withTelemetry logs each request and records its duration in both metric
// systems, keyed by the mux route pattern.
func withTelemetry(log logger.Logger, obs *observability.Observability, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		duration := time.Since(start)
		status := fmt.Sprintf("%d", recorder.status)

		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method, status).Observe(duration.Seconds())
		if obs != nil {
			obs.RecordRequest(r.Context(), route, status)
			obs.RecordRequestDuration(r.Context(), duration, route)
		}

		log.Info("HTTP request", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      recorder.status,
			"duration_ms": duration.Milliseconds(),
		})
	})
}

// requireAdmin gates a handler behind a bearer token checked against the
// credential authorizer.
func requireAdmin(authorizer auth.Authorizer, log logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentification requise"})
			return
		}

		ok, err := authorizer.Authorize(r.Context(), token)
		if err != nil {
			log.Error("Admin authorization check failed", map[string]interface{}{
				"error": err.Error(),
			})
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Vérification des droits impossible"})
			return
		}
		if !ok {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Accès refusé"})
			return
		}

		next(w, r)
	}
}
