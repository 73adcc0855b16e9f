package doctor

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo keeps profiles in process memory. Used by the memory storage
// backend and by tests.
type MemoryRepo struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{profiles: make(map[string]*Profile)}
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

func (m *MemoryRepo) List(_ context.Context, limit, offset int) ([]*Profile, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		all = append(all, clone(p))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].DoctorID < all[j].DoctorID
	})

	total := len(all)
	if offset >= total {
		return []*Profile{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (m *MemoryRepo) Upsert(_ context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := clone(p)
	if existing, ok := m.profiles[p.DoctorID]; ok {
		stored.UnavailableDates = existing.UnavailableDates
	} else {
		stored.UnavailableDates = nil
	}
	stored.UpdatedAt = time.Now()
	m.profiles[p.DoctorID] = stored
	p.UpdatedAt = stored.UpdatedAt
	p.UnavailableDates = append([]string(nil), stored.UnavailableDates...)
	return nil
}

func (m *MemoryRepo) ToggleUnavailableDate(_ context.Context, id, date string) (Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return "", ErrNotFound
	}
	for i, d := range p.UnavailableDates {
		if d == date {
			p.UnavailableDates = append(p.UnavailableDates[:i:i], p.UnavailableDates[i+1:]...)
			return ActionRemoved, nil
		}
	}
	p.UnavailableDates = append(p.UnavailableDates, date)
	sort.Strings(p.UnavailableDates)
	return ActionAdded, nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(m.profiles, id)
	return nil
}

func clone(p *Profile) *Profile {
	c := *p
	c.UnavailableDates = append([]string(nil), p.UnavailableDates...)
	return &c
}
