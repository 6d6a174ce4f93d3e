package apperr

import (
	"encoding/json"
	"net/http"
	"time"
)

// Envelope is the canonical error response body.
type Envelope struct {
	Error Detail `json:"error"`
}

// Detail carries the stable code, human-readable message and optional
// field-level details.
type Detail struct {
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Details   map[string][]string `json:"details,omitempty"`
	Timestamp string              `json:"timestamp"`
}

// Envelope builds the response body for the error.
func (e *Error) Envelope() Envelope {
	return Envelope{
		Error: Detail{
			Code:      e.Code(),
			Message:   e.Message(),
			Details:   e.Details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// WriteJSON writes the error envelope with the derived status code.
func WriteJSON(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status())
	_ = json.NewEncoder(w).Encode(e.Envelope())
}
