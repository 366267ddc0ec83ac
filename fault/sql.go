package fault

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("fault not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Fault, error) {
	var f Fault
	err := r.db.GetContext(ctx, &f, getByIDQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return f, ErrNotFound
	}
	return f, err
}

const getByIDQuery = `SELECT * FROM faults WHERE id = $1`

func (r *Repository) GetOpen(ctx context.Context) ([]Fault, error) {
	var faults []Fault
	err := r.db.SelectContext(ctx, &faults, getOpenQuery)
	return faults, err
}

const getOpenQuery = `SELECT * FROM faults WHERE status = 'Open' ORDER BY start_time ASC`

// LatestForScooter returns the most recent fault for a scooter,
// regardless of status.
func (r *Repository) LatestForScooter(ctx context.Context, scooterID string) (Fault, error) {
	var f Fault
	err := r.db.GetContext(ctx, &f, latestForScooterQuery, scooterID)
	if errors.Is(err, sql.ErrNoRows) {
		return f, ErrNotFound
	}
	return f, err
}

const latestForScooterQuery = `
SELECT * FROM faults WHERE scooter_id = $1
ORDER BY start_time DESC
LIMIT 1
`

// Upsert records a fault report. If the scooter already has an open
// fault its notes are replaced; otherwise a new open fault is created.
// Done in a transaction so two concurrent reports cannot open two
// faults for the same scooter.
func (r *Repository) Upsert(ctx context.Context, scooterID, notes string, reportedAt time.Time) (Fault, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Fault{}, err
	}
	defer tx.Rollback()

	var f Fault
	err = tx.GetContext(ctx, &f, openFaultForUpdateQuery, scooterID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = tx.GetContext(ctx, &f, insertFaultQuery, uuid.New(), scooterID, reportedAt, notes)
		if err != nil {
			return Fault{}, err
		}
	case err != nil:
		return Fault{}, err
	default:
		err = tx.GetContext(ctx, &f, updateNotesQuery, notes, f.ID)
		if err != nil {
			return Fault{}, err
		}
	}

	return f, tx.Commit()
}

const openFaultForUpdateQuery = `
SELECT * FROM faults WHERE scooter_id = $1 AND status = 'Open'
ORDER BY start_time DESC
LIMIT 1
FOR UPDATE
`

const insertFaultQuery = `
INSERT INTO faults (id, scooter_id, start_time, status, notes)
VALUES ($1, $2, $3, 'Open', $4)
RETURNING *
`

const updateNotesQuery = `UPDATE faults SET notes = $1 WHERE id = $2 RETURNING *`

// Resolve closes a fault with the engineer's resolution text.
func (r *Repository) Resolve(ctx context.Context, id uuid.UUID, resolution string, resolvedAt time.Time) (Fault, error) {
	var f Fault
	err := r.db.GetContext(ctx, &f, resolveQuery, resolution, resolvedAt, id)
	if errors.Is(err, sql.ErrNoRows) {
		return f, ErrNotFound
	}
	return f, err
}

const resolveQuery = `
UPDATE faults SET status = 'Resolved', resolution = $1, end_time = $2
WHERE id = $3
RETURNING *
`
