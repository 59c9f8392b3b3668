package models

import "errors"

var (
	// ErrNotFound is returned when a referenced user id does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateKey is returned when a write would violate the unique
	// constraint on email or username.
	ErrDuplicateKey = errors.New("email or username already taken")
	// ErrInvalidInput is returned when a request carries a malformed field.
	ErrInvalidInput = errors.New("invalid input")
)
