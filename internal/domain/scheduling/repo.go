package scheduling

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/doctor"
)

// AppointmentRepository is the booking ledger.
type AppointmentRepository interface {
	// Insert stores a new appointment. It must fail with ErrSlotConflict when
	// an active appointment already holds the same doctor/date/time, even if
	// the caller skipped FindActive.
	Insert(ctx context.Context, a *Appointment) error
	// FindActive returns the non-cancelled appointment at the triple, or nil.
	FindActive(ctx context.Context, doctorID, date, tm string) (*Appointment, error)
	// TakenTimes returns the times of all non-cancelled appointments on date.
	TakenTimes(ctx context.Context, doctorID, date string) ([]string, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// SetStatus moves the appointment to `to` only if its current status is
	// one of `from`. It returns ErrInvalidTransition when the guard fails.
	SetStatus(ctx context.Context, id uuid.UUID, to Status, from ...Status) (*Appointment, error)
	ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID string, limit, offset int) ([]*Appointment, int, error)
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// CompleteElapsed marks Scheduled appointments strictly before date/time
	// as Completed and returns how many changed.
	CompleteElapsed(ctx context.Context, date, tm string) (int64, error)
}

// ProfileReader is the part of the staff directory the resolver needs.
type ProfileReader interface {
	Get(ctx context.Context, id string) (*doctor.Profile, error)
}

func statusIn(s Status, set []Status) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
