package util

import (
	"errors"
	"testing"
	"time"
)

func TestNewIDIsUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == "" || a == b {
		t.Fatalf("expected distinct ids, got %q and %q", a, b)
	}
}

func TestNormalizeEmail(t *testing.T) {
	addr, err := NormalizeEmail(" Guest@Example.com ")
	if err != nil {
		t.Fatalf("expected valid email: %v", err)
	}
	if addr != "guest@example.com" {
		t.Fatalf("expected lowercased email, got %q", addr)
	}

	if _, err := NormalizeEmail("Guest <guest@example.com>"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail for display name, got %v", err)
	}
	if _, err := NormalizeEmail("not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-12-24")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", d)
	}

	for _, in := range []string{"", "24/12/2025", "2025-13-01"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("expected ErrInvalidDate for %q, got %v", in, err)
		}
	}
}

