package clubs

import "errors"

var (
	// ErrInvalidName is returned when the club name is missing
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidSlug is returned when the slug is missing
	ErrInvalidSlug = errors.New("slug is required")

	// ErrInvalidEmail is returned when the email is missing
	ErrInvalidEmail = errors.New("email is required")

	// ErrInvalidPhone is returned when the phone is missing
	ErrInvalidPhone = errors.New("phone is required")

	// ErrClubNotFound is returned when no club matches the lookup
	ErrClubNotFound = errors.New("club not found")
)
