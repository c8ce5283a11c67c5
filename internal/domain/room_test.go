package domain

import (
	"strings"
	"testing"
)

func TestParseRoomID(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		err  error
	}{
		{"simple", "standup", nil},
		{"max length", strings.Repeat("a", MaxRoomIDLen), nil},
		{"empty", "", ErrRoomIDEmpty},
		{"too long", strings.Repeat("a", MaxRoomIDLen+1), ErrRoomIDTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ParseRoomID(tc.raw)
			if err != tc.err {
				t.Fatalf("ParseRoomID(%q) err = %v, want %v", tc.raw, err, tc.err)
			}
			if err == nil && string(id) != tc.raw {
				t.Errorf("ParseRoomID(%q) = %q", tc.raw, id)
			}
		})
	}
}

func TestNewClientIDUnique(t *testing.T) {
	a, b := NewClientID(), NewClientID()
	if a == "" || b == "" {
		t.Fatal("ids must be non-empty")
	}
	if a == b {
		t.Errorf("consecutive ids collided: %s", a)
	}
}
