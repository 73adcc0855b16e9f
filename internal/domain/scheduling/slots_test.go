package scheduling

import (
	"reflect"
	"testing"

	"github.com/clinic/clinic/internal/domain/doctor"
)

func session(start, end string) doctor.Session {
	return doctor.Session{Start: doctor.MustClock(start), End: doctor.MustClock(end)}
}

func TestGenerateSlots_TwoSessions(t *testing.T) {
	slots := GenerateSlots("2025-06-02", session("09:00", "09:30"), session("17:00", "17:30"))

	want := []string{"09:00", "09:15", "17:00", "17:15"}
	if got := SlotTimes(slots); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	for _, s := range slots {
		if s.Date != "2025-06-02" {
			t.Errorf("expected slot date 2025-06-02, got %s", s.Date)
		}
	}
}

func TestGenerateSlots_CountAndOrder(t *testing.T) {
	for _, start := range []string{"00:00", "08:45", "09:00", "13:30"} {
		for _, minutes := range []int{15, 30, 60, 240} {
			s := doctor.MustClock(start)
			sess := doctor.Session{Start: s, End: s + doctor.Clock(minutes)}
			slots := GenerateSlots("2025-06-02", sess, doctor.Session{})

			if len(slots) != minutes/15 {
				t.Fatalf("%s +%dm: expected %d slots, got %d", start, minutes, minutes/15, len(slots))
			}
			prev := doctor.Clock(-1)
			for _, sl := range slots {
				c := doctor.MustClock(sl.Time)
				if c <= prev {
					t.Fatalf("%s +%dm: slots not strictly increasing: %v", start, minutes, SlotTimes(slots))
				}
				if c == sess.End {
					t.Fatalf("%s +%dm: session end %s was emitted", start, minutes, sess.End)
				}
				prev = c
			}
		}
	}
}

func TestGenerateSlots_EmptySessions(t *testing.T) {
	if got := GenerateSlots("2025-06-02", session("09:00", "09:00"), session("17:00", "17:30")); len(got) != 2 {
		t.Errorf("expected only evening slots for an empty morning, got %v", SlotTimes(got))
	}
	if got := GenerateSlots("2025-06-02", session("13:00", "09:00"), session("21:00", "17:00")); len(got) != 0 {
		t.Errorf("expected no slots for inverted sessions, got %v", SlotTimes(got))
	}
}

func TestGenerateSlots_PartialTail(t *testing.T) {
	got := SlotTimes(GenerateSlots("2025-06-02", session("09:00", "09:20"), doctor.Session{}))
	want := []string{"09:00", "09:15"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGenerateSlots_DefaultHours(t *testing.T) {
	slots := GenerateSlots("2025-06-02", doctor.DefaultHours.Morning, doctor.DefaultHours.Evening)
	if len(slots) != 32 {
		t.Fatalf("expected 32 slots for the default hours, got %d", len(slots))
	}
	if slots[0].Time != "09:00" || slots[15].Time != "12:45" || slots[16].Time != "17:00" || slots[31].Time != "20:45" {
		t.Errorf("unexpected boundaries: %v", SlotTimes(slots))
	}
}

func TestOnGrid(t *testing.T) {
	for _, s := range []string{"00:00", "09:15", "12:30", "23:45"} {
		if !OnGrid(doctor.MustClock(s)) {
			t.Errorf("expected %s to be on grid", s)
		}
	}
	for _, s := range []string{"09:05", "09:10", "23:59"} {
		if OnGrid(doctor.MustClock(s)) {
			t.Errorf("expected %s to be off grid", s)
		}
	}
}
