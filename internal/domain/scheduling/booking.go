package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/platform/keylock"
)

// Coordinator owns every write to the ledger.
type Coordinator struct {
	appointments AppointmentRepository
	locks        keylock.Locker
	logger       zerolog.Logger
}

func NewCoordinator(appointments AppointmentRepository, locks keylock.Locker, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		appointments: appointments,
		locks:        locks,
		logger:       logger.With().Str("component", "booking").Logger(),
	}
}

func (req *BookingRequest) normalize() {
	req.DoctorID = strings.TrimSpace(req.DoctorID)
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Reason = strings.TrimSpace(req.Reason)
	req.DoctorName = strings.TrimSpace(req.DoctorName)
	req.StudentName = strings.TrimSpace(req.StudentName)
}

func (req *BookingRequest) validate() error {
	var missing []string
	if req.DoctorID == "" {
		missing = append(missing, "doctor_id")
	}
	if req.StudentID == "" {
		missing = append(missing, "student_id")
	}
	if req.Date == "" {
		missing = append(missing, "date")
	}
	if req.Time == "" {
		missing = append(missing, "time")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if !doctor.ValidDate(req.Date) {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrValidation, req.Date)
	}
	c, err := doctor.ParseClock(req.Time)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !OnGrid(c) {
		return fmt.Errorf("%w: time %s is not on the %s grid", ErrValidation, req.Time, SlotInterval)
	}
	return nil
}

// Book reserves the doctor/date/time triple for a student. The existence
// check and the insert run under a lock keyed by the triple, and the ledger's
// unique constraint rejects any insert that slips past it, so concurrent
// calls for one triple produce exactly one appointment.
//
// Book does not consult working hours or unavailable dates; callers pick
// from Resolver.AvailableSlots.
func (c *Coordinator) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}

	log := c.logger.With().
		Str("doctor_id", req.DoctorID).
		Str("date", req.Date).
		Str("time", req.Time).
		Logger()

	unlock, err := c.locks.Lock(ctx, slotKey(req.DoctorID, req.Date, req.Time))
	if err != nil {
		return nil, fmt.Errorf("lock slot: %w", err)
	}
	defer unlock()

	existing, err := c.appointments.FindActive(ctx, req.DoctorID, req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Info().Str("held_by", existing.ID.String()).Msg("slot conflict")
		return nil, ErrSlotConflict
	}

	a := &Appointment{
		ID:          uuid.New(),
		DoctorID:    req.DoctorID,
		StudentID:   req.StudentID,
		DoctorName:  req.DoctorName,
		StudentName: req.StudentName,
		Reason:      req.Reason,
		Date:        req.Date,
		Time:        req.Time,
		Status:      StatusScheduled,
	}
	if err := c.appointments.Insert(ctx, a); err != nil {
		if errors.Is(err, ErrSlotConflict) {
			log.Warn().Msg("slot conflict caught by storage constraint")
		}
		return nil, err
	}
	log.Info().Str("appointment_id", a.ID.String()).Str("student_id", a.StudentID).Msg("appointment booked")
	return a, nil
}

// Cancel frees the slot. Cancelling a cancelled appointment succeeds without
// a write; a completed appointment cannot be cancelled.
func (c *Coordinator) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return c.transition(ctx, id, StatusCancelled)
}

// Complete marks a scheduled appointment as held. The slot stays occupied.
func (c *Coordinator) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return c.transition(ctx, id, StatusCompleted)
}

func (c *Coordinator) transition(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	a, err := c.appointments.SetStatus(ctx, id, to, StatusScheduled)
	if errors.Is(err, ErrInvalidTransition) {
		// Not Scheduled any more: repeating the same transition is a no-op.
		cur, gerr := c.appointments.GetByID(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if cur.Status == to {
			return cur, nil
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, to)
	}
	if err != nil {
		return nil, err
	}
	c.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", a.DoctorID).
		Str("date", a.Date).
		Str("time", a.Time).
		Str("status", string(to)).
		Msg("appointment status changed")
	return a, nil
}

func (c *Coordinator) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return c.appointments.GetByID(ctx, id)
}

func (c *Coordinator) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]*Appointment, int, error) {
	return c.appointments.ListByStudent(ctx, studentID, limit, offset)
}

func (c *Coordinator) ListByDoctor(ctx context.Context, doctorID string, limit, offset int) ([]*Appointment, int, error) {
	return c.appointments.ListByDoctor(ctx, doctorID, limit, offset)
}

func (c *Coordinator) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return c.appointments.List(ctx, limit, offset)
}

// Delete is the administrative hard delete. It bypasses the status machine.
func (c *Coordinator) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.appointments.Delete(ctx, id); err != nil {
		return err
	}
	c.logger.Warn().Str("appointment_id", id.String()).Msg("appointment deleted")
	return nil
}
