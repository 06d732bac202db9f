package person

import (
	"testing"

	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	tenantID := uuid.New()
	p := New(tenantID, TypeEmployee, SourceHRIS, "  Nina ", " Vale ")

	if p.ID() == uuid.Nil {
		t.Fatalf("expected generated id")
	}
	if p.TenantID() != tenantID {
		t.Fatalf("unexpected tenant id")
	}
	if p.Status() != StatusActive {
		t.Fatalf("new persons start ACTIVE, got %s", p.Status())
	}
	if p.FirstName() != "Nina" || p.LastName() != "Vale" {
		t.Fatalf("names not trimmed: %q %q", p.FirstName(), p.LastName())
	}
	if p.DisplayName() != "Nina Vale" {
		t.Fatalf("display name should default to full name, got %q", p.DisplayName())
	}
	if p.IsMerged() || p.IsAnonymous() || p.IsZero() {
		t.Fatalf("unexpected flags on fresh person")
	}
}

func TestNewAnonymous(t *testing.T) {
	p := NewAnonymous(uuid.New())

	if p.Type() != TypeAnonymous {
		t.Fatalf("unexpected type: %s", p.Type())
	}
	if p.Source() != SourceIntake {
		t.Fatalf("unexpected source: %s", p.Source())
	}
	if p.DisplayName() != "Anonymous" {
		t.Fatalf("unexpected display name: %q", p.DisplayName())
	}
	if !p.IsAnonymous() {
		t.Fatalf("expected IsAnonymous")
	}
}

func TestMarkMerged(t *testing.T) {
	original := New(uuid.New(), TypeExternal, SourceManual, "Sam", "Osei")
	survivor := uuid.New()

	merged := original.MarkMerged(survivor)

	if !merged.IsMerged() {
		t.Fatalf("expected MERGED status")
	}
	if merged.MergedIntoID() != survivor {
		t.Fatalf("unexpected merge pointer: %s", merged.MergedIntoID())
	}
	if original.IsMerged() {
		t.Fatalf("value receiver must leave the original untouched")
	}
	if merged.Type() != original.Type() || merged.Source() != original.Source() {
		t.Fatalf("type and source must survive the merge marker")
	}
}

func TestSetDisplayNameFallsBackToFullName(t *testing.T) {
	p := New(uuid.New(), TypeEmployee, SourceHRIS, "Nina", "Vale").SetDisplayName("N. Vale")
	if p.DisplayName() != "N. Vale" {
		t.Fatalf("unexpected display name: %q", p.DisplayName())
	}

	cleared := p.SetDisplayName("   ")
	if cleared.DisplayName() != "Nina Vale" {
		t.Fatalf("blank display name should fall back, got %q", cleared.DisplayName())
	}
}

func TestEnumValidity(t *testing.T) {
	for _, tc := range []struct {
		name  string
		valid bool
		check func() bool
	}{
		{"employee type", true, Type("EMPLOYEE").IsValid},
		{"unknown type", false, Type("ROBOT").IsValid},
		{"hris source", true, Source("HRIS").IsValid},
		{"unknown source", false, Source("IMPORT").IsValid},
		{"merged status", true, Status("MERGED").IsValid},
		{"unknown status", false, Status("GONE").IsValid},
	} {
		if got := tc.check(); got != tc.valid {
			t.Fatalf("%s: expected valid=%v, got %v", tc.name, tc.valid, got)
		}
	}
}
