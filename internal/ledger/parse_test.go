package ledger

import (
	"errors"
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.34", "12.34"},
		{"12,5", "12.5"},
		{" 3 ", "3"},
		{"-4", "0"},
		{"abc", "0"},
		{"", "0"},
	}
	for _, tt := range tests {
		got := ParseAmount(tt.in)
		if !got.Equal(dec(tt.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2024-03-04T10:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseTimestamp RFC3339 = %s", got)
	}

	local, err := ParseTimestamp("2024-03-04")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local.Location() != time.Local || local.Day() != 4 {
		t.Errorf("ParseTimestamp date = %s, want local 2024-03-04", local)
	}

	_, err = ParseTimestamp("yesterday-ish")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("ParseTimestamp garbage err = %v, want ErrValidation", err)
	}
}
