package scheduling

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrSlotConflict        = errors.New("this slot has already been booked, please choose another")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

// Active reports whether an appointment in this status occupies its slot.
func (s Status) Active() bool { return s != StatusCancelled }

// Appointment is one row of the booking ledger. DoctorName and StudentName
// are copies taken at booking time and are never refreshed from the
// directory.
type Appointment struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    string    `json:"doctor_id"`
	StudentID   string    `json:"student_id"`
	DoctorName  string    `json:"doctor_name"`
	StudentName string    `json:"student_name"`
	Reason      string    `json:"reason"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BookingRequest is the input of Coordinator.Book.
type BookingRequest struct {
	DoctorID    string `json:"doctor_id"`
	StudentID   string `json:"student_id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Reason      string `json:"reason"`
	DoctorName  string `json:"doctor_name"`
	StudentName string `json:"student_name"`
}

func slotKey(doctorID, date, tm string) string {
	return doctorID + "|" + date + "|" + tm
}
