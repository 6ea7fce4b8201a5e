package plugins

import (
	"errors"
	"testing"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/adapter"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ultimate-member", "ultimate-member"},
		{"UltimateMember", "ultimate-member"},
		{"um", "ultimate-member"},
		{"buddypress", "buddypress"},
		{" BP ", "buddypress"},
		{"buddy-press", "buddypress"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Canonical(tt.input)
			if err != nil {
				t.Fatalf("Canonical(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Canonical(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNew_UnknownPlugin(t *testing.T) {
	_, err := New("paid-memberships-pro", adapter.Deps{})
	if !errors.Is(err, adapter.ErrUnknownPlugin) {
		t.Errorf("New() error = %v, expected ErrUnknownPlugin", err)
	}
}

func TestNew(t *testing.T) {
	for _, slug := range []string{"um", "bp"} {
		a, err := New(slug, adapter.Deps{})
		if err != nil {
			t.Fatalf("New(%q) returned error: %v", slug, err)
		}
		canonical, _ := Canonical(slug)
		if a.Slug() != canonical {
			t.Errorf("New(%q).Slug() = %q, expected %q", slug, a.Slug(), canonical)
		}
	}
}

func TestSlugs(t *testing.T) {
	got := Slugs()
	if len(got) != 2 || got[0] != "buddypress" || got[1] != "ultimate-member" {
		t.Errorf("Slugs() = %v, expected [buddypress ultimate-member]", got)
	}
}
