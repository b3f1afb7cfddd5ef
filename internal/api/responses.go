package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Error codes returned in ErrorResponse.Code.
const (
	ErrBadRequest    = "bad_request"
	ErrInvalidBody   = "invalid_body"
	ErrTooLarge      = "payload_too_large"
	ErrValidation    = "validation_error"
	ErrNotFound      = "not_found"
	ErrTranscription = "transcription_error"
	ErrAnalysis      = "analysis_error"
	ErrPersistence   = "persistence_error"
	ErrInternal      = "internal_error"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Envelope is the success body: a human-readable message plus the payload.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// WriteData writes a success envelope.
func WriteData(w http.ResponseWriter, status int, msg string, data any) {
	WriteJSON(w, status, Envelope{Message: msg, Data: data})
}

// ErrorResponse is the standard error response body. Missing lists absent
// analysis keys; Data carries a partial result the caller may still want.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Detail  string   `json:"detail,omitempty"`
	Missing []string `json:"missing,omitempty"`
	Data    any      `json:"data,omitempty"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

// WriteErrorWithCode writes a JSON error response with a machine-readable code.
func WriteErrorWithCode(w http.ResponseWriter, status int, code, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// WriteErrorDetail writes a JSON error response with detail.
func WriteErrorDetail(w http.ResponseWriter, status int, code, msg, detail string) {
	WriteJSON(w, status, ErrorResponse{Error: msg, Code: code, Detail: detail})
}

// QueryString extracts a non-empty, trimmed string query parameter.
func QueryString(r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", false
	}
	return v, true
}
