package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/autopeer-io/otahub/pkg/log"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.FromContext(r.Context()).Error(err, "Failed to write response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeJSON(w, r, status, errorResponse{Detail: detail})
}

// writeServiceError renders err from a service call.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, event string) {
	status, detail := errorStatus(err, event)
	writeError(w, r, status, detail)
}

// decodeBody reads one JSON document into dst and validates it. Any
// failure is a 422, as for a body that is well formed but incomplete.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return validateRequest(dst)
}
