package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/autopeer-io/otahub/internal/otahub/auth"
	"github.com/autopeer-io/otahub/pkg/log"
)

const requestIDHeader = "X-Request-ID"

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestLogger attaches a request scoped logger to the context and
// logs each request once it has been served.
func withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		logger := log.WithValues("requestID", id, "method", r.Method, "path", r.URL.Path)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(log.WithContext(r.Context(), logger)))

		logger.Debug("Request served", "status", rec.status, "elapsed", time.Since(start))
	})
}

// requireCredential rejects requests whose credential header does not
// satisfy authn.
func requireCredential(authn auth.Authenticator, header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := authn.VerifyCredential(r.Context(), r.Header.Get(header)); err != nil {
				log.FromContext(r.Context()).Info("Rejected credential", "reason", err.Error())
				writeError(w, r, http.StatusUnauthorized, detailUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
