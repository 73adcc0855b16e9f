package scheduling

import (
	"context"
	"fmt"

	"github.com/clinic/clinic/internal/domain/doctor"
)

// Resolver computes bookable slots for a doctor on a date.
type Resolver struct {
	doctors      ProfileReader
	appointments AppointmentRepository
}

func NewResolver(doctors ProfileReader, appointments AppointmentRepository) *Resolver {
	return &Resolver{doctors: doctors, appointments: appointments}
}

// AvailableSlots returns the free HH:MM slots, morning then evening, each
// ascending. A blacked-out date yields an empty list without touching the
// ledger. A missing doctor is reported as doctor.ErrNotFound.
//
// The result is a snapshot; Coordinator.Book re-checks the slot.
func (r *Resolver) AvailableSlots(ctx context.Context, doctorID, date string) ([]string, error) {
	if doctorID == "" {
		return nil, fmt.Errorf("%w: doctor_id is required", ErrValidation)
	}
	if !doctor.ValidDate(date) {
		return nil, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrValidation, date)
	}

	p, err := r.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if p.IsUnavailable(date) {
		return []string{}, nil
	}

	candidates := GenerateSlots(date, p.Hours.Morning, p.Hours.Evening)
	taken, err := r.appointments.TakenTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	skip := make(map[string]struct{}, len(taken)+len(candidates))
	for _, t := range taken {
		skip[t] = struct{}{}
	}
	free := make([]string, 0, len(candidates))
	for _, s := range candidates {
		if _, ok := skip[s.Time]; ok {
			continue
		}
		// Overlapping legacy sessions could repeat a time.
		skip[s.Time] = struct{}{}
		free = append(free, s.Time)
	}
	return free, nil
}
