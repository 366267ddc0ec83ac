// Package fault holds the fault log: one row per reported scooter
// defect, open until an engineer resolves it.
package fault

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen     Status = "Open"
	StatusResolved Status = "Resolved"
)

type Fault struct {
	ID        uuid.UUID `db:"id"`
	ScooterID string    `db:"scooter_id"`
	StartTime time.Time `db:"start_time"`
	Status    Status    `db:"status"`

	Notes      string         `db:"notes"`
	Resolution sql.NullString `db:"resolution"`
	EndTime    sql.NullTime   `db:"end_time"`
}

// Details is the JSON shape of a fault on the persistence API and in hub
// responses.
type Details struct {
	FaultID    uuid.UUID `json:"faultID"`
	ScooterID  string    `json:"scooterID"`
	Start      string    `json:"startDateTime"`
	Status     Status    `json:"status"`
	Notes      string    `json:"faultNotes"`
	Resolution string    `json:"resolution,omitempty"`
	End        string    `json:"endDateTime,omitempty"`
}

func (f Fault) ToDetails() Details {
	d := Details{
		FaultID:   f.ID,
		ScooterID: f.ScooterID,
		Start:     f.StartTime.Format(time.RFC3339),
		Status:    f.Status,
		Notes:     f.Notes,
	}
	if f.Resolution.Valid {
		d.Resolution = f.Resolution.String
	}
	if f.EndTime.Valid {
		d.End = f.EndTime.Time.Format(time.RFC3339)
	}
	return d
}
