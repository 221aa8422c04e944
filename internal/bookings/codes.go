package bookings

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// NewConfirmationCode returns an 8-character uppercase hex code read
// back to callers over the phone.
func NewConfirmationCode() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		panic("bookings: rand unavailable: " + err.Error())
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}
