package domain

import "testing"

func TestNewSessionGeneratesID(t *testing.T) {
	s1 := NewSession("", "user-1")
	s2 := NewSession("", "user-1")

	if s1.ID == "" {
		t.Fatalf("expected generated id")
	}
	if s1.ID == s2.ID {
		t.Fatalf("expected distinct ids, got %s twice", s1.ID)
	}
	if s1.UserID != "user-1" {
		t.Fatalf("UserID = %q, want %q", s1.UserID, "user-1")
	}
	if s1.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be set")
	}
}

func TestNewSessionKeepsID(t *testing.T) {
	s := NewSession("fixed", "")

	if s.ID != "fixed" {
		t.Fatalf("ID = %q, want %q", s.ID, "fixed")
	}
}
