package notifications

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification id has no row.
	ErrNotificationNotFound = errors.New("notifications: notification not found")
	// ErrNoManagerPhone is returned when an escalation or lead alert has no
	// manager number to go to. The text is read back to callers verbatim.
	ErrNoManagerPhone = errors.New("No manager phone number configured")
	// ErrNotRetryable is returned when retrying a notification that is not
	// failed or bounced.
	ErrNotRetryable = errors.New("notifications: only failed or bounced notifications can be retried")
	// ErrSenderNotConfigured is returned when no SMS sender is wired.
	ErrSenderNotConfigured = errors.New("notifications: sms sender not configured")
)
