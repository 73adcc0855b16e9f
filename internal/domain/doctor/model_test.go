package doctor

import (
	"errors"
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:15", 9*60 + 15, false},
		{"23:59", 23*60 + 59, false},
		{"24:00", 0, true},
		{"9:00", 0, true},
		{"09:60", 0, true},
		{"0900", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
			}
			if got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestValidDate(t *testing.T) {
	for _, d := range []string{"2025-06-02", "2024-02-29"} {
		if !ValidDate(d) {
			t.Errorf("expected %q to be valid", d)
		}
	}
	for _, d := range []string{"2025-6-2", "2025-02-30", "02-06-2025", "", "2025-06-02T00:00"} {
		if ValidDate(d) {
			t.Errorf("expected %q to be invalid", d)
		}
	}
}

func TestParseHours_Defaults(t *testing.T) {
	h, err := ParseHours("", "", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != DefaultHours {
		t.Errorf("expected default hours, got %+v", h)
	}

	h, err = ParseHours("08:00", "", "", "20:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Morning.Start != MustClock("08:00") || h.Morning.End != MustClock("13:00") {
		t.Errorf("unexpected morning session %+v", h.Morning)
	}
	if h.Evening.End != MustClock("20:00") {
		t.Errorf("unexpected evening end %s", h.Evening.End)
	}
}

func TestParseHours_Invalid(t *testing.T) {
	_, err := ParseHours("9am", "", "", "")
	if !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestHours_Validate(t *testing.T) {
	s := func(a, b string) Session { return Session{Start: MustClock(a), End: MustClock(b)} }
	tests := []struct {
		name    string
		hours   Hours
		wantErr bool
	}{
		{"defaults", DefaultHours, false},
		{"empty morning", Hours{Morning: s("09:00", "09:00"), Evening: s("17:00", "21:00")}, false},
		{"both empty", Hours{Morning: s("00:00", "00:00"), Evening: s("00:00", "00:00")}, false},
		{"adjacent sessions", Hours{Morning: s("09:00", "13:00"), Evening: s("13:00", "17:00")}, false},
		{"inverted morning", Hours{Morning: s("13:00", "09:00"), Evening: s("17:00", "21:00")}, true},
		{"inverted evening", Hours{Morning: s("09:00", "13:00"), Evening: s("21:00", "17:00")}, true},
		{"overlap", Hours{Morning: s("09:00", "13:00"), Evening: s("12:00", "15:00")}, true},
		{"off grid start", Hours{Morning: s("09:10", "13:00"), Evening: s("17:00", "21:00")}, true},
		{"off grid end", Hours{Morning: s("09:00", "12:50"), Evening: s("17:00", "21:00")}, false},
		{"off grid empty session", Hours{Morning: s("09:00", "13:00"), Evening: s("17:05", "17:05")}, false},
		{"overlap with empty evening", Hours{Morning: s("09:00", "13:00"), Evening: s("10:00", "10:00")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hours.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidProfile) {
					t.Fatalf("expected ErrInvalidProfile, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSession_Empty(t *testing.T) {
	if !(Session{Start: 600, End: 600}).Empty() {
		t.Error("expected equal bounds to be empty")
	}
	if !(Session{Start: 700, End: 600}).Empty() {
		t.Error("expected inverted bounds to be empty")
	}
	if (Session{Start: 600, End: 615}).Empty() {
		t.Error("expected a 15 minute session to be non-empty")
	}
}

func TestProfile_IsUnavailable(t *testing.T) {
	p := &Profile{UnavailableDates: []string{"2025-06-02", "2025-06-09"}}
	if !p.IsUnavailable("2025-06-09") {
		t.Error("expected 2025-06-09 to be unavailable")
	}
	if p.IsUnavailable("2025-06-03") {
		t.Error("expected 2025-06-03 to be available")
	}
}
