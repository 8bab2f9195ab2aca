package service

import "errors"

// Service errors. The API layer maps them to status codes.
var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password, so callers cannot discover registered addresses.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
