package handler

import (
	"encoding/json"
	"net/http"

	"github.com/prepview-ai/session-core/internal/middleware"
)

// errorResponse is the error envelope for every handler failure. The
// correlation id lets a caller quote the failing request back to us.
type errorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response tagged with the request's
// correlation id.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{
		Error:         message,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}
