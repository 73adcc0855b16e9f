package scheduling

import (
	"time"

	"github.com/clinic/clinic/internal/domain/doctor"
)

// SlotInterval is the fixed booking grid.
const SlotInterval = 15 * time.Minute

var slotStep = doctor.Clock(SlotInterval / time.Minute)

// Slot is one bookable grid position. It is never persisted.
type Slot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// GenerateSlots lays the 15-minute grid over each session, morning first.
// Sessions are half-open: a slot starting at End is never produced, and a
// session whose length is not a multiple of the interval keeps its last
// whole-start slot. A session with Start >= End contributes nothing.
func GenerateSlots(date string, morning, evening doctor.Session) []Slot {
	slots := make([]Slot, 0, sessionLen(morning)+sessionLen(evening))
	for _, s := range [...]doctor.Session{morning, evening} {
		for t := s.Start; t < s.End; t += slotStep {
			slots = append(slots, Slot{Date: date, Time: t.String()})
		}
	}
	return slots
}

func sessionLen(s doctor.Session) int {
	if s.Empty() {
		return 0
	}
	return int((s.End - s.Start + slotStep - 1) / slotStep)
}

// SlotTimes projects slots onto their HH:MM values, keeping order.
func SlotTimes(slots []Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time
	}
	return out
}

// OnGrid reports whether c falls on a slot boundary.
func OnGrid(c doctor.Clock) bool {
	return c%slotStep == 0
}
