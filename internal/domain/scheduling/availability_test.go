package scheduling

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/platform/keylock"
)

const testDate = "2025-06-02"

type fixture struct {
	doctors  *doctor.MemoryRepo
	ledger   *MemoryRepo
	resolver *Resolver
	booking  *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{doctors: doctor.NewMemoryRepo(), ledger: NewMemoryRepo()}
	f.resolver = NewResolver(f.doctors, f.ledger)
	f.booking = NewCoordinator(f.ledger, keylock.NewSharded(0), zerolog.Nop())

	f.addDoctor(t, "doc-1", doctor.Hours{
		Morning: session("09:00", "09:30"),
		Evening: session("17:00", "17:30"),
	})
	return f
}

func (f *fixture) addDoctor(t *testing.T, id string, hours doctor.Hours) {
	t.Helper()
	if err := f.doctors.Upsert(context.Background(), &doctor.Profile{DoctorID: id, Name: "Dr. " + id, Hours: hours}); err != nil {
		t.Fatalf("upsert doctor: %v", err)
	}
}

func (f *fixture) book(t *testing.T, doctorID, tm string) *Appointment {
	t.Helper()
	a, err := f.booking.Book(context.Background(), BookingRequest{
		DoctorID: doctorID, StudentID: "stu-1", Date: testDate, Time: tm, Reason: "checkup",
	})
	if err != nil {
		t.Fatalf("book %s: %v", tm, err)
	}
	return a
}

func (f *fixture) slots(t *testing.T, doctorID string) []string {
	t.Helper()
	got, err := f.resolver.AvailableSlots(context.Background(), doctorID, testDate)
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}
	return got
}

func TestResolver_NoBookings(t *testing.T) {
	f := newFixture(t)
	want := []string{"09:00", "09:15", "17:00", "17:15"}
	if got := f.slots(t, "doc-1"); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestResolver_BookThenCancel(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "doc-1", "09:00")

	want := []string{"09:15", "17:00", "17:15"}
	if got := f.slots(t, "doc-1"); !reflect.DeepEqual(got, want) {
		t.Errorf("after booking expected %v, got %v", want, got)
	}

	if _, err := f.booking.Cancel(context.Background(), a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	want = []string{"09:00", "09:15", "17:00", "17:15"}
	if got := f.slots(t, "doc-1"); !reflect.DeepEqual(got, want) {
		t.Errorf("after cancel expected %v, got %v", want, got)
	}
}

func TestResolver_CompletedStillOccupies(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "doc-1", "17:00")
	if _, err := f.booking.Complete(context.Background(), a.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	want := []string{"09:00", "09:15", "17:15"}
	if got := f.slots(t, "doc-1"); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestResolver_UnavailableDate(t *testing.T) {
	f := newFixture(t)
	f.book(t, "doc-1", "09:15")
	if _, err := f.doctors.ToggleUnavailableDate(context.Background(), "doc-1", testDate); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	got := f.slots(t, "doc-1")
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list on a blacked-out date, got %#v", got)
	}

	// The booking made before the blackout is kept.
	if a, _ := f.ledger.FindActive(context.Background(), "doc-1", testDate, "09:15"); a == nil {
		t.Error("expected existing appointment to survive the blackout")
	}
}

func TestResolver_DoctorNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.resolver.AvailableSlots(context.Background(), "ghost", testDate)
	if !errors.Is(err, doctor.ErrNotFound) {
		t.Fatalf("expected doctor.ErrNotFound, got %v", err)
	}
}

func TestResolver_InvalidInput(t *testing.T) {
	f := newFixture(t)
	for _, date := range []string{"", "2025-13-01", "06/02/2025"} {
		if _, err := f.resolver.AvailableSlots(context.Background(), "doc-1", date); !errors.Is(err, ErrValidation) {
			t.Errorf("date %q: expected ErrValidation, got %v", date, err)
		}
	}
	if _, err := f.resolver.AvailableSlots(context.Background(), "", testDate); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for missing doctor, got %v", err)
	}
}

func TestResolver_SubsetOfCandidatesAndDisjointFromTaken(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "doc-2", doctor.DefaultHours)
	for _, tm := range []string{"09:00", "10:30", "12:45", "17:00", "20:45"} {
		f.book(t, "doc-2", tm)
	}

	candidates := map[string]bool{}
	for _, s := range GenerateSlots(testDate, doctor.DefaultHours.Morning, doctor.DefaultHours.Evening) {
		candidates[s.Time] = true
	}
	taken, _ := f.ledger.TakenTimes(context.Background(), "doc-2", testDate)
	takenSet := map[string]bool{}
	for _, tm := range taken {
		takenSet[tm] = true
	}

	got := f.slots(t, "doc-2")
	if len(got) != len(candidates)-len(taken) {
		t.Errorf("expected %d free slots, got %d", len(candidates)-len(taken), len(got))
	}
	for _, tm := range got {
		if !candidates[tm] {
			t.Errorf("slot %s is not a candidate", tm)
		}
		if takenSet[tm] {
			t.Errorf("slot %s is taken", tm)
		}
	}
}

func TestResolver_OverlappingLegacyProfile(t *testing.T) {
	f := newFixture(t)
	// Written straight to the store, as a profile predating write validation.
	f.addDoctor(t, "legacy", doctor.Hours{
		Morning: session("09:00", "10:00"),
		Evening: session("09:30", "10:30"),
	})

	want := []string{"09:00", "09:15", "09:30", "09:45", "10:00", "10:15"}
	if got := f.slots(t, "legacy"); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func (f *fixture) mustProfile(t *testing.T, id string) *doctor.Profile {
	t.Helper()
	p, err := f.doctors.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get doctor %s: %v", id, err)
	}
	return p
}
