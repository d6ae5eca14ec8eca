package picstash

import "errors"

var (
	// ErrNotFound is returned when a blob is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrSigning is returned when signed-URL issuance fails, typically because
	// the active credentials lack delegated signing rights
	ErrSigning = errors.New("signing failed")
	// ErrUnauthorized is returned when signed-URL verification fails
	ErrUnauthorized = errors.New("unauthorized")
)
