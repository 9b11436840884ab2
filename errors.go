package inkwell

import "errors"

var (
	// ErrInvalidCredentials is returned by login when the username is unknown
	// or the password does not match. The two cases are not distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccessDenied is returned by a mutating operation invoked without a
	// session, or with a session lacking the needed role or ownership.
	ErrAccessDenied = errors.New("access denied")

	// ErrValidation is returned when a required field is missing or a
	// transition is requested from the wrong state. Wrap it with the detail:
	// fmt.Errorf("%w: title is required", ErrValidation).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when the referenced post or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUpload is returned when a file upload failed or no file was supplied.
	ErrUpload = errors.New("upload failed")
)
