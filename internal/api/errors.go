package api

import (
	"encoding/json"
	"net/http"
)

// Error is the JSON body of every non-2xx response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned in Error.Code.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeInternal    = "internal_error"
	ErrCodeUnavailable = "service_unavailable"
)

// codeForStatus maps the statuses the handlers emit to their error code.
var codeForStatus = map[int]string{
	http.StatusBadRequest:          ErrCodeBadRequest,
	http.StatusNotFound:            ErrCodeNotFound,
	http.StatusInternalServerError: ErrCodeInternal,
	http.StatusServiceUnavailable:  ErrCodeUnavailable,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	//nolint:errcheck // client may have gone away
	json.NewEncoder(w).Encode(v)
}

// writeError writes an Error body whose code follows from status.
func writeError(w http.ResponseWriter, status int, message string) {
	code, ok := codeForStatus[status]
	if !ok {
		code = ErrCodeInternal
	}
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}
