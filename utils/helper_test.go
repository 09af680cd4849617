package utils

import (
	"testing"
	"time"
)

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Jordan.Smith@Example.ORG ")
	if err != nil {
		t.Fatalf("NormalizeEmail error: %v", err)
	}
	if got != "jordan.smith@example.org" {
		t.Fatalf("normalized = %q, want jordan.smith@example.org", got)
	}
}

func TestNormalizeEmail_RejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "   ", "missing-at.example.org", "a@b", "spaces in@example.org"} {
		if _, err := NormalizeEmail(in); err == nil {
			t.Fatalf("NormalizeEmail(%q) expected error", in)
		}
	}
}

func TestNormalizePhoneNumber(t *testing.T) {
	got, err := NormalizePhoneNumber("(816) 555-0123", CountryCode)
	if err != nil {
		t.Fatalf("NormalizePhoneNumber error: %v", err)
	}
	if got != "+18165550123" {
		t.Fatalf("normalized = %q, want +18165550123", got)
	}
}

func TestNormalizePhoneNumber_EmptyStaysEmpty(t *testing.T) {
	got, err := NormalizePhoneNumber("   ", CountryCode)
	if err != nil || got != "" {
		t.Fatalf("got %q, %v; want empty string and nil error", got, err)
	}
}

func TestNormalizePhoneNumber_RejectsInvalid(t *testing.T) {
	for _, in := range []string{"not a phone", "12345"} {
		if _, err := NormalizePhoneNumber(in, CountryCode); err == nil {
			t.Fatalf("NormalizePhoneNumber(%q) expected error", in)
		}
	}
}

func TestParseSourceTime_Layouts(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", "2025-06-01T10:30:00-05:00", time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)},
		{"offset without colon", "2025-06-01T10:30:00.000-0500", time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)},
		{"datetime", "2025-06-01 10:30:00", time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)},
		{"date only", "2025-06-01", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSourceTime(tc.in)
			if err != nil {
				t.Fatalf("ParseSourceTime(%q) error: %v", tc.in, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("ParseSourceTime(%q) = %s, want %s", tc.in, got, tc.want)
			}
			if got.Location() != time.UTC {
				t.Fatalf("ParseSourceTime(%q) location = %v, want UTC", tc.in, got.Location())
			}
		})
	}
}

func TestParseSourceTime_Rejects(t *testing.T) {
	for _, in := range []string{"", "  ", "06/01/2025", "yesterday"} {
		if _, err := ParseSourceTime(in); err == nil {
			t.Fatalf("ParseSourceTime(%q) expected error", in)
		}
	}
}
