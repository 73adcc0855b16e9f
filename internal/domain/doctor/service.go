package doctor

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Profile, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Upsert validates hours against the write policy before storing them.
func (s *Service) Upsert(ctx context.Context, p *Profile) error {
	p.DoctorID = strings.TrimSpace(p.DoctorID)
	p.Name = strings.TrimSpace(p.Name)
	if p.DoctorID == "" {
		return fmt.Errorf("%w: doctor_id is required", ErrInvalidProfile)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if err := p.Hours.Validate(); err != nil {
		return err
	}
	return s.repo.Upsert(ctx, p)
}

// Delete removes a doctor from the directory. Booked appointments stay in
// the ledger.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

// ToggleUnavailableDate blacks out date if it is open, or reopens it if it
// was blacked out. Existing appointments on that date are left untouched.
func (s *Service) ToggleUnavailableDate(ctx context.Context, id, date string) (Action, error) {
	if !ValidDate(date) {
		return "", fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, date)
	}
	if id == "" {
		return "", ErrNotFound
	}
	return s.repo.ToggleUnavailableDate(ctx, id, date)
}

// UnavailableDates returns the doctor's blacked-out dates in ascending order.
func (s *Service) UnavailableDates(ctx context.Context, id string) ([]string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dates := append([]string{}, p.UnavailableDates...)
	sort.Strings(dates)
	return dates, nil
}
