package customers

import "errors"

var (
	// ErrCustomerNotFound is returned when no customer matches the lookup.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrMissingClubID is returned when a request has no club scope.
	ErrMissingClubID = errors.New("club_id is required")

	// ErrMissingPhone is returned when a customer has no phone number.
	ErrMissingPhone = errors.New("phone is required")

	// ErrInvalidName is returned when the name is empty.
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidStatus is returned for statuses outside the funnel.
	ErrInvalidStatus = errors.New("invalid customer status")
)
