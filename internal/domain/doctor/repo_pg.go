package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/storage"
)

const pgForeignKeyViolation = "23503"

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &doctorRepoPG{pool: pool} }

const doctorCols = `d.id, d.name, d.specialization,
	d.morning_start, d.morning_end, d.evening_start, d.evening_end,
	COALESCE((SELECT array_agg(u.date ORDER BY u.date) FROM doctor_unavailable_dates u WHERE u.doctor_id = d.id), '{}'),
	d.updated_at`

func (r *doctorRepoPG) scanProfile(row pgx.Row) (*Profile, error) {
	var (
		p      Profile
		ms, me string
		es, ee string
	)
	if err := row.Scan(&p.DoctorID, &p.Name, &p.Specialization,
		&ms, &me, &es, &ee, &p.UnavailableDates, &p.UpdatedAt); err != nil {
		return nil, err
	}
	hours, err := ParseHours(ms, me, es, ee)
	if err != nil {
		return nil, fmt.Errorf("doctor %s: %w", p.DoctorID, err)
	}
	p.Hours = hours
	return &p, nil
}

func (r *doctorRepoPG) Get(ctx context.Context, id string) (*Profile, error) {
	p, err := r.scanProfile(r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors d WHERE d.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storage.Wrap("get doctor", err)
	}
	return p, nil
}

func (r *doctorRepoPG) List(ctx context.Context, limit, offset int) ([]*Profile, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&total); err != nil {
		return nil, 0, storage.Wrap("count doctors", err)
	}
	rows, err := r.pool.Query(ctx, `SELECT `+doctorCols+` FROM doctors d ORDER BY d.name, d.id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, storage.Wrap("list doctors", err)
	}
	defer rows.Close()
	var items []*Profile
	for rows.Next() {
		p, err := r.scanProfile(rows)
		if err != nil {
			return nil, 0, storage.Wrap("scan doctor", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storage.Wrap("iterate doctors", err)
	}
	return items, total, nil
}

func (r *doctorRepoPG) Upsert(ctx context.Context, p *Profile) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, name, specialization, morning_start, morning_end, evening_start, evening_end)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			specialization = EXCLUDED.specialization,
			morning_start = EXCLUDED.morning_start,
			morning_end = EXCLUDED.morning_end,
			evening_start = EXCLUDED.evening_start,
			evening_end = EXCLUDED.evening_end,
			updated_at = NOW()
		RETURNING updated_at,
			COALESCE((SELECT array_agg(u.date ORDER BY u.date) FROM doctor_unavailable_dates u WHERE u.doctor_id = $1), '{}')`,
		p.DoctorID, p.Name, p.Specialization,
		p.Hours.Morning.Start.String(), p.Hours.Morning.End.String(),
		p.Hours.Evening.Start.String(), p.Hours.Evening.End.String(),
	).Scan(&p.UpdatedAt, &p.UnavailableDates)
	if err != nil {
		return storage.Wrap("upsert doctor", err)
	}
	return nil
}

// ToggleUnavailableDate locks the doctor row, then runs delete-or-insert as
// one statement. The row lock serialises concurrent toggles of the same
// doctor, so two requests for one date always resolve to added then removed.
func (r *doctorRepoPG) ToggleUnavailableDate(ctx context.Context, id, date string) (Action, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", storage.Wrap("begin toggle", err)
	}
	defer tx.Rollback(ctx)

	var one int
	err = tx.QueryRow(ctx, `SELECT 1 FROM doctors WHERE id = $1 FOR UPDATE`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", storage.Wrap("lock doctor", err)
	}

	var removed bool
	err = tx.QueryRow(ctx, toggleSQL, id, date).Scan(&removed)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return "", ErrNotFound
		}
		return "", storage.Wrap("toggle unavailable date", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", storage.Wrap("commit toggle", err)
	}
	if removed {
		return ActionRemoved, nil
	}
	return ActionAdded, nil
}

// Delete relies on ON DELETE CASCADE to drop the unavailable dates.
func (r *doctorRepoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return storage.Wrap("delete doctor", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// toggleSQL yields true when a row was removed.
const toggleSQL = `
	WITH removed AS (
		DELETE FROM doctor_unavailable_dates WHERE doctor_id = $1 AND date = $2
		RETURNING 1
	), inserted AS (
		INSERT INTO doctor_unavailable_dates (doctor_id, date)
		SELECT $1, $2 WHERE NOT EXISTS (SELECT 1 FROM removed)
		ON CONFLICT DO NOTHING
		RETURNING 1
	)
	SELECT EXISTS (SELECT 1 FROM removed)`
