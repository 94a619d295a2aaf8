package httpapi

import (
	"encoding/json"
	"net/http"

	"graded/pkg/types"
)

// HTTPError lets a service error choose its own response status. Errors
// without it fall back to the broker-error mapping in gradeErrorStatus.
type HTTPError interface {
	error
	StatusCode() int
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// writeJSONError emits the uniform error payload with the status echoed in
// the body, so CLI clients can report it without reading headers.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
