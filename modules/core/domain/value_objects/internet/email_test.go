package internet

import "testing"

func TestNewEmail(t *testing.T) {
	t.Run("accepts plain address and lowercases it", func(t *testing.T) {
		email, err := NewEmail("Reporter@Example.COM")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := email.Value(); got != "reporter@example.com" {
			t.Fatalf("unexpected value: got=%q", got)
		}
		if got := email.Domain(); got != "example.com" {
			t.Fatalf("unexpected domain: got=%q", got)
		}
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		email, err := NewEmail("  ombudsman@acme.org  ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := email.Value(); got != "ombudsman@acme.org" {
			t.Fatalf("unexpected value: got=%q", got)
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		if _, err := NewEmail(""); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("rejects display-name forms", func(t *testing.T) {
		if _, err := NewEmail("Case Desk <desk@acme.org>"); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("rejects addresses without a domain", func(t *testing.T) {
		if _, err := NewEmail("not-an-email"); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestEmailIsZero(t *testing.T) {
	var zero Email
	if !zero.IsZero() {
		t.Fatalf("zero value should report IsZero")
	}

	email, err := NewEmail("desk@acme.org")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email.IsZero() {
		t.Fatalf("parsed email should not report IsZero")
	}
}
