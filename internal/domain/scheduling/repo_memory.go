package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-process ledger. The active index plays the role of
// the partial unique index in the SQL and document stores.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Appointment
	active map[string]uuid.UUID
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[uuid.UUID]*Appointment),
		active: make(map[string]uuid.UUID),
	}
}

func (m *MemoryRepo) Insert(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := slotKey(a.DoctorID, a.Date, a.Time)
	if a.Status.Active() {
		if _, taken := m.active[key]; taken {
			return ErrSlotConflict
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	stored := *a
	m.byID[a.ID] = &stored
	if a.Status.Active() {
		m.active[key] = a.ID
	}
	return nil
}

func (m *MemoryRepo) FindActive(_ context.Context, doctorID, date, tm string) (*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.active[slotKey(doctorID, date, tm)]
	if !ok {
		return nil, nil
	}
	a := *m.byID[id]
	return &a, nil
}

func (m *MemoryRepo) TakenTimes(_ context.Context, doctorID, date string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var times []string
	for _, a := range m.byID {
		if a.DoctorID == doctorID && a.Date == date && a.Status.Active() {
			times = append(times, a.Time)
		}
	}
	sort.Strings(times)
	return times, nil
}

func (m *MemoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	c := *a
	return &c, nil
}

func (m *MemoryRepo) SetStatus(_ context.Context, id uuid.UUID, to Status, from ...Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if !statusIn(a.Status, from) {
		return nil, ErrInvalidTransition
	}
	m.setStatusLocked(a, to, time.Now())
	c := *a
	return &c, nil
}

func (m *MemoryRepo) setStatusLocked(a *Appointment, to Status, now time.Time) {
	key := slotKey(a.DoctorID, a.Date, a.Time)
	if a.Status.Active() && !to.Active() && m.active[key] == a.ID {
		delete(m.active, key)
	}
	a.Status = to
	a.UpdatedAt = now
}

func (m *MemoryRepo) ListByStudent(_ context.Context, studentID string, limit, offset int) ([]*Appointment, int, error) {
	items, total := m.list(func(a *Appointment) bool { return a.StudentID == studentID }, limit, offset)
	return items, total, nil
}

func (m *MemoryRepo) ListByDoctor(_ context.Context, doctorID string, limit, offset int) ([]*Appointment, int, error) {
	items, total := m.list(func(a *Appointment) bool { return a.DoctorID == doctorID }, limit, offset)
	return items, total, nil
}

func (m *MemoryRepo) List(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	items, total := m.list(func(*Appointment) bool { return true }, limit, offset)
	return items, total, nil
}

// list returns one page of matches, newest first (date desc, then time
// desc), and the total number of matches.
func (m *MemoryRepo) list(match func(*Appointment) bool, limit, offset int) ([]*Appointment, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Appointment
	for _, a := range m.byID {
		if match(a) {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time > out[j].Time
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	total := len(out)
	if offset >= total {
		return []*Appointment{}, total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], total
}

func (m *MemoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	key := slotKey(a.DoctorID, a.Date, a.Time)
	if m.active[key] == id {
		delete(m.active, key)
	}
	delete(m.byID, id)
	return nil
}

func (m *MemoryRepo) CompleteElapsed(_ context.Context, date, tm string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var n int64
	for _, a := range m.byID {
		if a.Status != StatusScheduled {
			continue
		}
		if a.Date < date || (a.Date == date && a.Time < tm) {
			m.setStatusLocked(a, StatusCompleted, now)
			n++
		}
	}
	return n, nil
}
