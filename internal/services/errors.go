package services

import (
	"errors"
	"net/http"

	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

// HTTPStatus maps a service error onto the status code returned to clients.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, chaterrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, chaterrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, chaterrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, chaterrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chaterrors.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, chaterrors.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, chaterrors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, chaterrors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode is the machine readable code sent next to the error message.
func ErrorCode(err error) string {
	if errors.Is(err, chaterrors.ErrHistoryUnavailable) {
		return "HISTORY_UNAVAILABLE"
	}
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestEntityTooLarge:
		return "TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

// PublicMessage is the error text safe to show a client. Server faults are
// reported generically.
func PublicMessage(err error) string {
	if errors.Is(err, chaterrors.ErrHistoryUnavailable) {
		return chaterrors.ErrHistoryUnavailable.Error()
	}
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "server error"
	}
	return err.Error()
}

func invalid(msg string) error {
	return &inputError{msg: msg}
}

// inputError carries a field level message and matches ErrInvalidInput.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Is(target error) bool { return target == chaterrors.ErrInvalidInput }
