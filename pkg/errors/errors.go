// Package chaterrors holds the sentinel errors shared by services and handlers.
package chaterrors

import "errors"

// Common errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTooLarge           = errors.New("file too large")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrAlreadyExists      = errors.New("already exists")
	ErrHistoryUnavailable = errors.New("history unavailable")
	ErrRateLimited        = errors.New("rate limited")
)
