package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/storage"
)

const pgUniqueViolation = "23505"

type appointmentRepoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns the postgres ledger. Double booking is prevented by the
// partial unique index appointments_active_slot_idx on
// (doctor_id, date, time) WHERE status <> 'Cancelled'.
func NewRepoPG(pool *pgxpool.Pool) AppointmentRepository { return &appointmentRepoPG{pool: pool} }

const apptCols = `id, doctor_id, student_id, doctor_name, student_name, reason,
	date, time, status, created_at, updated_at`

func (r *appointmentRepoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var (
		a      Appointment
		status string
	)
	err := row.Scan(&a.ID, &a.DoctorID, &a.StudentID, &a.DoctorName, &a.StudentName, &a.Reason,
		&a.Date, &a.Time, &status, &a.CreatedAt, &a.UpdatedAt)
	a.Status = Status(status)
	return &a, err
}

func (r *appointmentRepoPG) Insert(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, student_id, doctor_name, student_name, reason, date, time, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (doctor_id, date, time) WHERE status <> 'Cancelled' DO NOTHING
		RETURNING created_at, updated_at`,
		a.ID, a.DoctorID, a.StudentID, a.DoctorName, a.StudentName, a.Reason,
		a.Date, a.Time, string(a.Status),
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSlotConflict
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrSlotConflict
		}
		return storage.Wrap("insert appointment", err)
	}
	return nil
}

func (r *appointmentRepoPG) FindActive(ctx context.Context, doctorID, date, tm string) (*Appointment, error) {
	a, err := r.scanAppt(r.pool.QueryRow(ctx, `SELECT `+apptCols+` FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND time = $3 AND status <> 'Cancelled'`, doctorID, date, tm))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.Wrap("find active appointment", err)
	}
	return a, nil
}

func (r *appointmentRepoPG) TakenTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT time FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND status <> 'Cancelled' ORDER BY time`, doctorID, date)
	if err != nil {
		return nil, storage.Wrap("taken times", err)
	}
	times, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, storage.Wrap("taken times", err)
	}
	return times, nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := r.scanAppt(r.pool.QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, storage.Wrap("get appointment", err)
	}
	return a, nil
}

func (r *appointmentRepoPG) SetStatus(ctx context.Context, id uuid.UUID, to Status, from ...Status) (*Appointment, error) {
	guard := make([]string, len(from))
	for i, s := range from {
		guard[i] = string(s)
	}
	a, err := r.scanAppt(r.pool.QueryRow(ctx, `
		UPDATE appointments SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
		RETURNING `+apptCols, id, string(to), guard))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.Wrap("set appointment status", err)
	}
	// Nothing updated: either the row is gone or the guard failed.
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrInvalidTransition
}

func (r *appointmentRepoPG) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "WHERE student_id = $1", []any{studentID}, limit, offset)
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "WHERE doctor_id = $1", []any{doctorID}, limit, offset)
}

func (r *appointmentRepoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "", nil, limit, offset)
}

func (r *appointmentRepoPG) list(ctx context.Context, where string, args []any, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments `+where, args...).Scan(&total); err != nil {
		return nil, 0, storage.Wrap("count appointments", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM appointments %s
		ORDER BY date DESC, time DESC, created_at DESC LIMIT $%d OFFSET $%d`, apptCols, where, n+1, n+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, storage.Wrap("list appointments", err)
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, 0, storage.Wrap("scan appointment", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storage.Wrap("iterate appointments", err)
	}
	return items, total, nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return storage.Wrap("delete appointment", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// CompleteElapsed relies on date and time being stored as zero-padded text,
// so lexical order matches chronological order.
func (r *appointmentRepoPG) CompleteElapsed(ctx context.Context, date, tm string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET status = 'Completed', updated_at = NOW()
		WHERE status = 'Scheduled' AND (date < $1 OR (date = $1 AND time < $2))`, date, tm)
	if err != nil {
		return 0, storage.Wrap("complete elapsed appointments", err)
	}
	return tag.RowsAffected(), nil
}
