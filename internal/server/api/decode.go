package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// decodeJSON reads exactly one JSON object into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &APIError{Code: CodeValidationError, Message: "request body too large"}
		}
		return &APIError{Code: CodeValidationError, Message: fmt.Sprintf("invalid request body: %v", err)}
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		return &APIError{Code: CodeValidationError, Message: "request body must contain a single JSON object"}
	}
	return nil
}
