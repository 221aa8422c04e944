package bookings

import (
	"errors"
	"fmt"
)

var (
	// ErrBookingNotFound is returned when no booking matches the lookup.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrMissingClubID is returned when a request has no club scope.
	ErrMissingClubID = errors.New("club_id is required")

	// ErrMissingResource is returned when no resource name is given.
	ErrMissingResource = errors.New("resource_name is required")

	// ErrInvalidTimeRange is returned when end_time is not after start_time.
	ErrInvalidTimeRange = errors.New("end_time must be after start_time")

	// ErrInvalidBookingType is returned for unknown booking types.
	ErrInvalidBookingType = errors.New("invalid booking type")

	// ErrInvalidStatus is returned for statuses outside the lifecycle.
	ErrInvalidStatus = errors.New("invalid booking status")

	// errCodeCollision signals a confirmation code uniqueness violation;
	// the service regenerates the code and retries.
	errCodeCollision = errors.New("confirmation code collision")
)

// ConflictError reports that the requested slot overlaps an active
// booking of the same resource.
type ConflictError struct {
	Resource string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("'%s' is already booked for the requested time slot", e.Resource)
}

// IsConflict reports whether err is a slot conflict.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// InvalidTransitionError reports an illegal lifecycle move.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition booking from %s to %s", e.From, e.To)
}
