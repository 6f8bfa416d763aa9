package contact

import (
	"errors"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	v := NewValidator()

	got, err := v.NormalizeEmail("  Asha.Rao@Example.COM ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "asha.rao@example.com" {
		t.Fatalf("expected lower-cased email, got %q", got)
	}

	for _, bad := range []string{"not-an-email", "Asha <asha@example.com>", "asha@localhost"} {
		if _, err := v.NormalizeEmail(bad); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("expected ErrInvalidEmail for %q, got %v", bad, err)
		}
	}

	if got, err := v.NormalizeEmail(""); err != nil || got != "" {
		t.Fatalf("expected empty email to pass through, got %q %v", got, err)
	}
}

func TestNormalizeMobile(t *testing.T) {
	v := NewValidator()

	got, err := v.NormalizeMobile("+91 (98450) 12-345")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "+919845012345" {
		t.Fatalf("expected separators stripped, got %q", got)
	}

	for _, bad := range []string{"12345", "98450x12345", "9+845012345", "1234567890123456"} {
		if _, err := v.NormalizeMobile(bad); !errors.Is(err, ErrInvalidMobile) {
			t.Fatalf("expected ErrInvalidMobile for %q, got %v", bad, err)
		}
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("+91-98450 12345"); got != "919845012345" {
		t.Fatalf("expected digits only, got %q", got)
	}
}
