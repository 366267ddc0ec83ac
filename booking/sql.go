package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound      = errors.New("booking not found")
	ErrOverlap       = errors.New("booking overlaps with existing booking")
	ErrNotActive     = errors.New("booking is not active")
	ErrCannotCancel  = errors.New("cannot cancel booking that has already started")
	ErrNotAuthorized = errors.New("not authorized to modify this booking")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, getByIDQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Booking{}, ErrNotFound
	}
	return b, err
}

const getByIDQuery = `SELECT * FROM bookings WHERE id = $1`

// Create inserts a new Active booking after checking for overlaps inside
// a transaction. The FOR UPDATE lock on overlapping rows means two
// concurrent creations for the same scooter and window cannot both
// commit.
func (r *Repository) Create(ctx context.Context, b *Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var overlappingIDs []uuid.UUID
	err = tx.SelectContext(ctx, &overlappingIDs, checkOverlapQuery, b.ScooterID, b.StartTime, b.EndTime)
	if err != nil {
		return err
	}
	if len(overlappingIDs) > 0 {
		return ErrOverlap
	}

	err = tx.GetContext(ctx, b, createBookingQuery,
		b.ID, b.Email, b.ScooterID, b.StartTime, b.EndTime, b.Cost, b.DepositCost)
	if err != nil {
		return err
	}

	return tx.Commit()
}

const checkOverlapQuery = `
SELECT id FROM bookings
WHERE scooter_id = $1
  AND status = 'Active'
  AND start_time < $3
  AND end_time > $2
FOR UPDATE
`

const createBookingQuery = `
INSERT INTO bookings (id, email, scooter_id, start_time, end_time, cost, deposit_cost, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'Active')
RETURNING *
`

// Cancel is the once-only Active → Cancelled transition. A booking that
// already reached a terminal state is returned via ErrNotActive.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) (Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, cancelBookingQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return r.terminalStateError(ctx, id)
	}
	return b, err
}

const cancelBookingQuery = `
UPDATE bookings SET status = 'Cancelled'
WHERE id = $1 AND status = 'Active'
RETURNING *
`

// Start stamps the actual start time. Guarded on Active so a terminal
// booking can never be restarted.
func (r *Repository) Start(ctx context.Context, id uuid.UUID, actualStart time.Time) (Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, startBookingQuery, actualStart, id)
	if errors.Is(err, sql.ErrNoRows) {
		return r.terminalStateError(ctx, id)
	}
	return b, err
}

const startBookingQuery = `
UPDATE bookings SET actual_start = $1
WHERE id = $2 AND status = 'Active'
RETURNING *
`

// Complete is the once-only Active → Complete transition, stamping the
// actual end time and final cost. Repeating it returns ErrNotActive
// instead of mutating the row, which is what makes end-booking
// idempotent from the caller's perspective.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID, actualEnd time.Time, cost float64) (Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, completeBookingQuery, actualEnd, cost, id)
	if errors.Is(err, sql.ErrNoRows) {
		return r.terminalStateError(ctx, id)
	}
	return b, err
}

const completeBookingQuery = `
UPDATE bookings SET status = 'Complete', actual_end = $1, cost = $2
WHERE id = $3 AND status = 'Active'
RETURNING *
`

// terminalStateError distinguishes "no such booking" from "booking is no
// longer Active" after a guarded update matched zero rows.
func (r *Repository) terminalStateError(ctx context.Context, id uuid.UUID) (Booking, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	return b, ErrNotActive
}

// GetForCustomer fetches all bookings for a customer, newest window
// first.
func (r *Repository) GetForCustomer(ctx context.Context, email string) ([]Booking, error) {
	var bookings []Booking
	err := r.db.SelectContext(ctx, &bookings, getForCustomerQuery, email)
	return bookings, err
}

const getForCustomerQuery = `SELECT * FROM bookings WHERE email = $1 ORDER BY start_time DESC`

// GetForScooter fetches all bookings ever made against a scooter.
func (r *Repository) GetForScooter(ctx context.Context, scooterID string) ([]Booking, error) {
	var bookings []Booking
	err := r.db.SelectContext(ctx, &bookings, getForScooterQuery, scooterID)
	return bookings, err
}

const getForScooterQuery = `SELECT * FROM bookings WHERE scooter_id = $1 ORDER BY start_time ASC`

// GetActive fetches every Active booking. The hourly sweep and the 5s
// status poll both drive off this set.
func (r *Repository) GetActive(ctx context.Context) ([]Booking, error) {
	var bookings []Booking
	err := r.db.SelectContext(ctx, &bookings, getActiveQuery)
	return bookings, err
}

const getActiveQuery = `SELECT * FROM bookings WHERE status = 'Active' ORDER BY start_time ASC`

// GetBookedSlots fetches the booked time windows across the fleet.
func (r *Repository) GetBookedSlots(ctx context.Context) ([]TimeSlot, error) {
	var slots []TimeSlot
	err := r.db.SelectContext(ctx, &slots, getBookedSlotsQuery)
	return slots, err
}

const getBookedSlotsQuery = `
SELECT scooter_id, start_time, end_time, status FROM bookings
WHERE status = 'Active'
ORDER BY start_time ASC
`

// SetCalendarID stores the external calendar entry id for a booking.
func (r *Repository) SetCalendarID(ctx context.Context, id uuid.UUID, calendarID string) (Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, setCalendarIDQuery, calendarID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Booking{}, ErrNotFound
	}
	return b, err
}

const setCalendarIDQuery = `
UPDATE bookings SET calendar_id = NULLIF($1, '')
WHERE id = $2
RETURNING *
`
