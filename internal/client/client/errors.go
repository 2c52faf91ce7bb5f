package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/afterlight/internal/common"
)

var (
	ErrUnavailable           = errors.New("server unavailable")
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)

// Error codes returned by the server in the ErrorResponse body.
const (
	codeValidationError = "VALIDATION_ERROR"
	codeUnauthorized    = "UNAUTHORIZED"
	codeTokenExpired    = "TOKEN_EXPIRED"
	codeNotFound        = "NOT_FOUND"
	codeConflict        = "CONFLICT"
	codeInternalError   = "INTERNAL_ERROR"
)

// ResponseError is a non-2xx reply from the server.
type ResponseError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *ResponseError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (request %s)", e.Code, e.Message, e.RequestID)
	}
	return e.Code + ": " + e.Message
}

// Unwrap maps the error code to a common sentinel.
func (e *ResponseError) Unwrap() error {
	switch e.Code {
	case codeValidationError:
		return common.ErrorValidation
	case codeUnauthorized:
		return common.ErrorUnauthorized
	case codeTokenExpired:
		return common.ErrTokenExpired
	case codeNotFound:
		return common.ErrorNotFound
	case codeConflict:
		return common.ErrConflict
	default:
		return common.ErrorInternal
	}
}
