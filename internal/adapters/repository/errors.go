package repository

import "errors"

var (
	// ErrPetNotFound is returned for unknown pet ids.
	ErrPetNotFound = errors.New("pet not found")
	// ErrInvalidFixture is returned when a fixture record fails validation.
	ErrInvalidFixture = errors.New("invalid fixture")
)
