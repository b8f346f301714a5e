package config

import (
	"testing"
	"time"
)

func TestBool(t *testing.T) {
	t.Setenv("FLAG_SET", "true")
	t.Setenv("FLAG_BAD", "yep")

	if !Bool("FLAG_SET", false) {
		t.Fatal("expected true for FLAG_SET")
	}
	if Bool("FLAG_MISSING", false) {
		t.Fatal("expected fallback false for missing key")
	}
	if !Bool("FLAG_BAD", true) {
		t.Fatal("expected fallback for unparseable value")
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("D_SET", "90s")
	t.Setenv("D_BAD", "ninety")
	t.Setenv("D_NEG", "-5m")

	if got := Duration("D_SET", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
	if got := Duration("D_MISSING", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := Duration("D_BAD", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad value, got %s", got)
	}
	if got := Duration("D_NEG", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for non-positive value, got %s", got)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("N_SET", "7")
	if got := Int("N_SET", 3); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := Int("N_MISSING", 3); got != 3 {
		t.Fatalf("expected fallback, got %d", got)
	}
}

func TestPort(t *testing.T) {
	t.Setenv("P_BAD", "70000")
	if _, err := Port("P_BAD", "8080"); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
	p, err := Port("P_MISSING", "8086")
	if err != nil || p != "8086" {
		t.Fatalf("expected fallback port, got %q err %v", p, err)
	}
}
