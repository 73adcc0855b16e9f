package doctor

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound       = errors.New("doctor not found")
	ErrInvalidProfile = errors.New("invalid doctor profile")
	ErrInvalidDate    = errors.New("invalid date")
)

// DateLayout is the civil date format used everywhere in the booking core.
const DateLayout = "2006-01-02"

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// SessionGrid is the alignment, in minutes, required of a non-empty
// session's start. It matches the booking grid.
const SessionGrid Clock = 15

// Clock is a wall-clock time of day in minutes since midnight.
type Clock int

// ParseClock parses a strict 24h "HH:MM" value.
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("time %q: expected HH:MM", s)
	}
	h, okH := twoDigits(s[0], s[1])
	m, okM := twoDigits(s[3], s[4])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, fmt.Errorf("time %q: expected HH:MM", s)
	}
	return Clock(h*60 + m), nil
}

// MustClock is ParseClock for constants.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Session is a half-open working window [Start, End).
type Session struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// Empty reports whether the session yields no slots.
func (s Session) Empty() bool { return s.Start >= s.End }

// Hours is the per-day working configuration, identical for every day.
type Hours struct {
	Morning Session `json:"morning"`
	Evening Session `json:"evening"`
}

// DefaultHours applies when a profile is stored without explicit hours.
var DefaultHours = Hours{
	Morning: Session{Start: MustClock("09:00"), End: MustClock("13:00")},
	Evening: Session{Start: MustClock("17:00"), End: MustClock("21:00")},
}

// ParseHours builds Hours from four HH:MM strings. An empty string takes the
// matching value from DefaultHours.
func ParseHours(morningStart, morningEnd, eveningStart, eveningEnd string) (Hours, error) {
	var h Hours
	fields := []struct {
		raw string
		def Clock
		dst *Clock
	}{
		{morningStart, DefaultHours.Morning.Start, &h.Morning.Start},
		{morningEnd, DefaultHours.Morning.End, &h.Morning.End},
		{eveningStart, DefaultHours.Evening.Start, &h.Evening.Start},
		{eveningEnd, DefaultHours.Evening.End, &h.Evening.End},
	}
	for _, f := range fields {
		if f.raw == "" {
			*f.dst = f.def
			continue
		}
		c, err := ParseClock(f.raw)
		if err != nil {
			return Hours{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
		}
		*f.dst = c
	}
	return h, nil
}

// Validate enforces the profile write policy: a session may be empty
// (Start == End) but never inverted, a non-empty session starts on the
// SessionGrid, and two non-empty sessions must not overlap, morning first.
func (h Hours) Validate() error {
	if h.Morning.Start > h.Morning.End {
		return fmt.Errorf("%w: morning session starts after it ends (%s > %s)",
			ErrInvalidProfile, h.Morning.Start, h.Morning.End)
	}
	if h.Evening.Start > h.Evening.End {
		return fmt.Errorf("%w: evening session starts after it ends (%s > %s)",
			ErrInvalidProfile, h.Evening.Start, h.Evening.End)
	}
	for _, s := range []struct {
		name string
		sess Session
	}{{"morning", h.Morning}, {"evening", h.Evening}} {
		if !s.sess.Empty() && s.sess.Start%SessionGrid != 0 {
			return fmt.Errorf("%w: %s session start %s is not on a %d minute boundary",
				ErrInvalidProfile, s.name, s.sess.Start, SessionGrid)
		}
	}
	if !h.Morning.Empty() && !h.Evening.Empty() && h.Morning.End > h.Evening.Start {
		return fmt.Errorf("%w: morning session (ends %s) overlaps evening session (starts %s)",
			ErrInvalidProfile, h.Morning.End, h.Evening.Start)
	}
	return nil
}

// Profile is a doctor's availability configuration. It is owned by the staff
// directory; the booking core only reads it, apart from the unavailable-date
// toggle.
type Profile struct {
	DoctorID         string    `json:"doctor_id"`
	Name             string    `json:"name"`
	Specialization   string    `json:"specialization,omitempty"`
	Hours            Hours     `json:"hours"`
	UnavailableDates []string  `json:"unavailable_dates"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsUnavailable reports whether the whole day is blacked out.
func (p *Profile) IsUnavailable(date string) bool {
	for _, d := range p.UnavailableDates {
		if d == date {
			return true
		}
	}
	return false
}

// Action is the outcome of an unavailable-date toggle.
type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
)
