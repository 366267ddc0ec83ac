package scooter

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound      = errors.New("scooter not found")
	ErrInvalidStatus = errors.New("invalid scooter status")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetScooter(ctx context.Context, id string) (Scooter, error) {
	var s Scooter
	err := r.db.GetContext(ctx, &s, getScooterQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

const getScooterQuery = `SELECT * FROM scooters WHERE id = $1`

func (r *Repository) GetScooters(ctx context.Context) ([]Scooter, error) {
	var scooters []Scooter
	err := r.db.SelectContext(ctx, &scooters, getScootersQuery)
	return scooters, err
}

const getScootersQuery = `SELECT * FROM scooters ORDER BY id`

// UpdateStatus persists a lifecycle state. The status value is validated
// here as well as at the hub so a buggy caller cannot write an unknown
// state into the fleet table.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	res, err := r.db.ExecContext(ctx, updateStatusQuery, status, id)
	if err != nil {
		return err
	}
	return checkFound(res)
}

const updateStatusQuery = `UPDATE scooters SET status = $1 WHERE id = $2`

func (r *Repository) UpdateLocation(ctx context.Context, id string, lat, lng float64) error {
	res, err := r.db.ExecContext(ctx, updateLocationQuery, lat, lng, id)
	if err != nil {
		return err
	}
	return checkFound(res)
}

const updateLocationQuery = `UPDATE scooters SET location = point($1, $2) WHERE id = $3`

func (r *Repository) UpdateIPAddress(ctx context.Context, id, ip string) error {
	res, err := r.db.ExecContext(ctx, updateIPQuery, ip, id)
	if err != nil {
		return err
	}
	return checkFound(res)
}

const updateIPQuery = `UPDATE scooters SET ip_address = $1 WHERE id = $2`

// UpdateDetails overwrites the provisioning attributes of a scooter.
func (r *Repository) UpdateDetails(ctx context.Context, id string, make, colour string, costMin float64, battery int) error {
	res, err := r.db.ExecContext(ctx, updateDetailsQuery, make, colour, costMin, battery, id)
	if err != nil {
		return err
	}
	return checkFound(res)
}

const updateDetailsQuery = `
UPDATE scooters SET make = $1, colour = $2, cost_min = $3, battery_percentage = $4
WHERE id = $5`

// SetFaultNotes records the outstanding fault text shown to engineers.
func (r *Repository) SetFaultNotes(ctx context.Context, id, notes string) error {
	res, err := r.db.ExecContext(ctx, setFaultNotesQuery, notes, id)
	if err != nil {
		return err
	}
	return checkFound(res)
}

const setFaultNotesQuery = `UPDATE scooters SET fault_notes = NULLIF($1, '') WHERE id = $2`

func checkFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
