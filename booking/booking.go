// Package booking holds the booking lifecycle model and its persistence
// repository. A booking is Active from creation and moves to Complete or
// Cancelled exactly once; terminal states never reverse.
package booking

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "Active"
	StatusComplete  Status = "Complete"
	StatusCancelled Status = "Cancelled"
)

// PreBookingLead is how long before the scheduled start the hub promotes
// the scooter to Booked.
const PreBookingLead = 10 * time.Minute

type Booking struct {
	ID        uuid.UUID `db:"id"`
	Email     string    `db:"email"`
	ScooterID string    `db:"scooter_id"`

	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`

	// Actual times are null until the ride is realized.
	ActualStart sql.NullTime `db:"actual_start"`
	ActualEnd   sql.NullTime `db:"actual_end"`

	Cost        float64 `db:"cost"`
	DepositCost float64 `db:"deposit_cost"`

	Status Status `db:"status"`

	// CalendarID is an opaque id linking the booking to an external
	// calendar entry; the hub stores it and never interprets it.
	CalendarID sql.NullString `db:"calendar_id"`
}

// InPreWindow reports whether now falls in [start − PreBookingLead, start).
func (b Booking) InPreWindow(now time.Time) bool {
	lead := b.StartTime.Add(-PreBookingLead)
	return !now.Before(lead) && now.Before(b.StartTime)
}

// InActiveWindow reports whether now falls in [start, end].
func (b Booking) InActiveWindow(now time.Time) bool {
	return !now.Before(b.StartTime) && !now.After(b.EndTime)
}

// Expired reports whether the scheduled end has passed on a booking that
// is still Active. The hourly sweep force-completes these.
func (b Booking) Expired(now time.Time) bool {
	return b.Status == StatusActive && now.After(b.EndTime)
}

// Details is the JSON shape a booking takes on the persistence API and in
// hub command responses. Times are RFC 3339 strings; actual times are
// empty until set.
type Details struct {
	BookingID   uuid.UUID `json:"bookingID"`
	Email       string    `json:"email"`
	ScooterID   string    `json:"scooterID"`
	Start       string    `json:"startDateTime"`
	End         string    `json:"endDateTime"`
	ActualStart string    `json:"actualStartDateTime,omitempty"`
	ActualEnd   string    `json:"actualEndDateTime,omitempty"`
	Cost        float64   `json:"cost"`
	DepositCost float64   `json:"depositCost"`
	Status      Status    `json:"status"`
	CalendarID  string    `json:"calendarID,omitempty"`
}

// ToDetails converts the stored row into its wire shape.
func (b Booking) ToDetails() Details {
	d := Details{
		BookingID:   b.ID,
		Email:       b.Email,
		ScooterID:   b.ScooterID,
		Start:       b.StartTime.Format(time.RFC3339),
		End:         b.EndTime.Format(time.RFC3339),
		Cost:        b.Cost,
		DepositCost: b.DepositCost,
		Status:      b.Status,
	}
	if b.ActualStart.Valid {
		d.ActualStart = b.ActualStart.Time.Format(time.RFC3339)
	}
	if b.ActualEnd.Valid {
		d.ActualEnd = b.ActualEnd.Time.Format(time.RFC3339)
	}
	if b.CalendarID.Valid {
		d.CalendarID = b.CalendarID.String
	}
	return d
}

// Window parses the scheduled start/end back out of the wire shape for
// clients (the hub's loops, the agent session) that do window math.
func (d Details) Window() (start, end time.Time, err error) {
	start, err = time.Parse(time.RFC3339, d.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = time.Parse(time.RFC3339, d.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// TimeSlot is a booked window for availability queries.
type TimeSlot struct {
	ScooterID string    `db:"scooter_id" json:"scooterID"`
	StartTime time.Time `db:"start_time" json:"startDateTime"`
	EndTime   time.Time `db:"end_time" json:"endDateTime"`
	Status    Status    `db:"status" json:"status"`
}
