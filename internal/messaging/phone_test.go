package messaging

import "testing"

func TestNormalizeE164(t *testing.T) {
	if got := NormalizeE164(" +46 (70) 123-45 67 "); got != "+46701234567" {
		t.Fatalf("unexpected normalized phone %q", got)
	}
	if got := NormalizeE164("+15551234567"); got != "+15551234567" {
		t.Fatalf("unexpected normalized phone %q", got)
	}
	if got := NormalizeE164(" "); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := NormalizeE164("abc"); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestSanitizePhone(t *testing.T) {
	if got := sanitizePhone(" +1 (555) 123-4567 "); got != "15551234567" {
		t.Fatalf("unexpected digits %q", got)
	}
	if got := sanitizePhone(""); got != "" {
		t.Fatalf("expected empty digits, got %q", got)
	}
}
