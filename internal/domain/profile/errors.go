package profile

import "errors"

// Sentinel errors returned by Reader.Read.
var (
	// ErrProfileNotFound means the store holds no document for the user. The
	// caller cannot score and should offer a retry.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrPreferencesMissing means the user never finished the preference step.
	// Callers fall back to neutral scores.
	ErrPreferencesMissing = errors.New("preferences missing")
	// ErrInvalidPreferences means stored preferences failed validation. Callers
	// handle it like ErrPreferencesMissing.
	ErrInvalidPreferences = errors.New("invalid preferences")

	// ErrNoDocument is returned by Store implementations for unknown users.
	ErrNoDocument = errors.New("no profile document")
)
