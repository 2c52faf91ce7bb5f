package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/models"
	"github.com/go-chi/chi/v5/middleware"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeInternalError   = "INTERNAL_ERROR"
)

// APIError is an error that knows how it is rendered on the wire.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// HTTPStatusCode returns the status that goes with e.Code.
func (e *APIError) HTTPStatusCode() int {
	switch e.Code {
	case CodeValidationError:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenExpired:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError maps service and codec sentinels to an APIError. Anything it
// does not recognise becomes an opaque internal error.
func FromError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrMalformedEncoding):
		return &APIError{Code: CodeValidationError, Message: err.Error()}
	case errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrRefreshTokenExpired):
		return &APIError{Code: CodeTokenExpired, Message: "token expired"}
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return &APIError{Code: CodeUnauthorized, Message: "unauthorized"}
	case errors.Is(err, common.ErrorNotFound):
		return &APIError{Code: CodeNotFound, Message: "not found"}
	case errors.Is(err, common.ErrConflict):
		return &APIError{Code: CodeConflict, Message: "conflict"}
	default:
		return &APIError{Code: CodeInternalError, Message: "internal error"}
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError renders err as ErrorResponse with the request id attached.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	e := FromError(err)
	WriteJSON(w, e.HTTPStatusCode(), models.ErrorResponse{
		Code:      e.Code,
		Message:   e.Message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
