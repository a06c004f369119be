package services

import "errors"

// Service-level failures. Handlers map these onto HTTP statuses; anything
// not listed here surfaces as an internal error.
var (
	// ErrEmailTaken is returned when registering with an email that is
	// already present.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password, deliberately indistinguishable to avoid user enumeration.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrUserNotFound is returned when a user id resolves to nothing.
	ErrUserNotFound = errors.New("user not found")

	// ErrTaskNotFound is returned when a task id resolves to nothing.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNotTaskOwner is returned when a task exists but belongs to a
	// different user than the path claims.
	ErrNotTaskOwner = errors.New("access denied: insufficient permissions")

	// Validation failures.
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleTooLong       = errors.New("title must be 200 characters or less")
	ErrDescriptionTooLong = errors.New("description must be 1000 characters or less")
)
