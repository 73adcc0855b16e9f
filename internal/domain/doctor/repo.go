package doctor

import "context"

// Repository is the staff-directory view of doctor profiles.
type Repository interface {
	// Get returns ErrNotFound when no profile exists for id.
	Get(ctx context.Context, id string) (*Profile, error)
	List(ctx context.Context, limit, offset int) ([]*Profile, int, error)
	// Upsert writes hours and display fields. Unavailable dates are left as
	// they are; they change only through ToggleUnavailableDate.
	Upsert(ctx context.Context, p *Profile) error
	// ToggleUnavailableDate must add or remove date as a single atomic
	// storage operation, never a read-modify-write of the whole profile.
	ToggleUnavailableDate(ctx context.Context, id, date string) (Action, error)
	// Delete removes the profile and its unavailable dates. Appointments are
	// not touched; they keep their snapshot of the doctor's name.
	Delete(ctx context.Context, id string) error
}
