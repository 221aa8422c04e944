package conversations

import "errors"

var (
	// ErrConversationNotFound is returned when no conversation matches.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrMissingCallID is returned when the provider call id is empty.
	ErrMissingCallID = errors.New("call id is required")

	// errDuplicateCallID signals the unique call_id constraint; the
	// tracker re-reads the existing conversation instead of failing.
	errDuplicateCallID = errors.New("duplicate call id")
)
