package chat

import (
	"errors"
	"testing"

	"aquatallyon/internal/domain/week"
)

// TestParseSessionArgs tests the comma separated session format.
func TestParseSessionArgs(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantOrder int
		wantDay   string
		wantTime  string
		wantErr   bool
	}{
		{"trimmed", " 2 , Sunday ,Ride, ECP , 06:00 ", 2, "Sunday", "06:00", false},
		{"out of range order kept", "99, Sunday, Ride, ECP, 06:00", 99, "Sunday", "06:00", false},
		{"too few fields", "2, Sunday, Ride, ECP", 0, "", "", true},
		{"extra fields join the location", "2, Sunday, Ride, ECP, Gate 2, 06:00", 2, "Sunday", "06:00", false},
		{"blank time", "1, Monday, Swim, USC Pool,", 1, "Monday", "", false},
		{"zero order kept", "0, Sunday, Ride, ECP, 06:00", 0, "Sunday", "06:00", false},
		{"negative order kept", "-3, Sunday, Ride, ECP, 06:00", -3, "Sunday", "06:00", false},
		{"empty field", "2, Sunday, , ECP, 06:00", 0, "", "", true},
		{"non numeric order", "first, Sunday, Ride, ECP, 06:00", 0, "", "", true},
		{"empty", "", 0, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, fields, err := ParseSessionArgs(tt.raw)
			if tt.wantErr {
				var vErr *week.ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected *week.ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if order != tt.wantOrder || fields.Day != tt.wantDay || fields.Time != tt.wantTime {
				t.Errorf("got %d %+v", order, fields)
			}
		})
	}
}

// TestParseSessionArgs_Location tests that commas after the activity stay in the location.
func TestParseSessionArgs_Location(t *testing.T) {
	_, fields, err := ParseSessionArgs("3, Sunday, Ride, ECP, Gate 2, Car park, 06:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.Location != "ECP, Gate 2, Car park" || fields.Time != "06:00" {
		t.Errorf("got %+v", fields)
	}
}

// TestParseSessionArgs_ReportsEveryField tests that a bad order and a blank field are both named.
func TestParseSessionArgs_ReportsEveryField(t *testing.T) {
	_, _, err := ParseSessionArgs("x, , Ride, ECP, 06:00")
	var vErr *week.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := vErr.FieldErrors["order"]; !ok {
		t.Error("order not reported")
	}
	if _, ok := vErr.FieldErrors["day"]; !ok {
		t.Error("day not reported")
	}
}

// TestParseOrder tests position parsing.
func TestParseOrder(t *testing.T) {
	for raw, want := range map[string]int{" 3 ": 3, "0": 0, "-1": -1} {
		if n, err := ParseOrder(raw); err != nil || n != want {
			t.Errorf("ParseOrder(%q) = %d, %v, want %d", raw, n, err, want)
		}
	}
	for _, raw := range []string{"", "two", "1.5"} {
		if _, err := ParseOrder(raw); err == nil {
			t.Errorf("ParseOrder(%q) should fail", raw)
		}
	}
}

// TestPolicies tests the organizer policies.
func TestPolicies(t *testing.T) {
	if !(AllowAll{}).CanManage(1) {
		t.Error("AllowAll should allow")
	}
	a := NewAllowlist(42, 7)
	if !a.CanManage(42) || a.CanManage(8) {
		t.Error("Allowlist mismatch")
	}
	if NewAllowlist().CanManage(42) {
		t.Error("empty Allowlist should deny")
	}
}
