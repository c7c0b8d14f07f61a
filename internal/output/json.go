package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSON writes data as indented JSON. Every --json result goes through it.
func JSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ErrorResponse replaces the result of a --json command that failed. Task is
// the "path:line" id the failure is about, set for missing and stale tasks.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Error   string         `json:"error"`
	Task    string         `json:"task,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// JSONError writes resp. A write error is dropped; the command has already
// failed.
func JSONError(w io.Writer, resp ErrorResponse) {
	_ = JSON(w, resp)
}

// BatchResult is the outcome for one id of a batch toggle or delete.
type BatchResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}
