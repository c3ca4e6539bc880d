package services

import "errors"

// Business-rule failures. Handlers map these to HTTP status codes; anything
// not in this list is treated as an internal error.
var (
	ErrValidation         = errors.New("all fields are required")
	ErrDuplicateUser      = errors.New("user already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrUnauthorized       = errors.New("user not registered or token malfunctioned")
	ErrProvider           = errors.New("completion provider error")
)
