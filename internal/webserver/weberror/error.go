package weberror

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// An Error is rendered as {"message": "..."} with Code as HTTP status.
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
}

// New returns an Error.
func New(code int, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// BadRequest rejects a malformed seal or verify payload.
func BadRequest(message string) error {
	return New(http.StatusBadRequest, message)
}

// Unauthorized rejects a request without the API token.
func Unauthorized() error {
	return New(http.StatusUnauthorized, "authorization failed")
}

// NotFound reports a missing entity, e.g. NotFound("item").
func NotFound(entity string) error {
	return New(http.StatusNotFound, entity+" not found")
}

// Internal renders an index or storage fault.
func Internal(err error) error {
	return New(http.StatusInternalServerError, err.Error())
}

// StatusCode returns the status carried by err or its cause, 500 otherwise.
func StatusCode(err error) int {
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.Code
	}
	return http.StatusInternalServerError
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}
