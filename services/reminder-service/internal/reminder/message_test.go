package reminder

import (
	"strings"
	"testing"
	"time"
)

func TestComposeReminder_WallClockInSalonLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Istanbul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 11:30 UTC is 14:30 in Istanbul.
	at := time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC)

	msg := ComposeReminder("Ayşe Yılmaz", at, loc)
	if !strings.Contains(msg, "(14:30)") {
		t.Fatalf("expected Istanbul wall-clock time in message, got %q", msg)
	}
	if !strings.HasPrefix(msg, "Sayın Ayşe Yılmaz") {
		t.Fatalf("expected salutation with customer name, got %q", msg)
	}
}

func TestComposeReminder_NilLocationFallsBackToUTC(t *testing.T) {
	at := time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC)
	msg := ComposeReminder("Mehmet Demir", at, nil)
	if !strings.Contains(msg, "(11:30)") {
		t.Fatalf("expected UTC time in message, got %q", msg)
	}
}
