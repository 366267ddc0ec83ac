// Package scooter holds the scooter fleet model: the lifecycle state
// machine enforced by the hub and the persistence repository used by the
// store API tier.
package scooter

import (
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// Scooter is the hub-authoritative record for one scooter. The agent on
// board only caches a copy of its own row for display.
type Scooter struct {
	// ID is the physical label painted on the scooter (e.g. "SCTR-004").
	// It is what riders type in and what every command payload carries.
	ID     string `db:"id"`
	Make   string `db:"make"`
	Colour string `db:"colour"`

	Location pgtype.Point `db:"location"`

	// CostMin is the rental cost per minute of use.
	CostMin           float64 `db:"cost_min"`
	BatteryPercentage int     `db:"battery_percentage"`

	Status Status `db:"status"`

	// IPAddress is where the on-board agent listens for hub pushes.
	IPAddress string `db:"ip_address"`

	FaultNotes sql.NullString `db:"fault_notes"`
}

// Details is the JSON shape a scooter takes on the persistence API and in
// hub command responses.
type Details struct {
	ScooterID         string  `json:"scooterID"`
	Make              string  `json:"make"`
	Colour            string  `json:"colour"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	CostMin           float64 `json:"costMin"`
	BatteryPercentage int     `json:"batteryPercentage"`
	Status            Status  `json:"status"`
	IPAddress         string  `json:"ipAddress"`
	FaultNotes        string  `json:"faultNotes,omitempty"`
}

// Status is the scooter lifecycle state. Values outside this set never
// appear on the wire or in the database.
type Status string

const (
	StatusAvailable   Status = "Available"
	StatusBooked      Status = "Booked"
	StatusInUse       Status = "In Use"
	StatusNeedsRepair Status = "Needs Repair"
	// StatusRepairing is a scooter-local display state shown while an
	// engineer is working; the hub only ever stores it transiently.
	StatusRepairing Status = "Repairing"
)

// Valid reports whether s is one of the five lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusBooked, StatusInUse, StatusNeedsRepair, StatusRepairing:
		return true
	}
	return false
}

// Event is a lifecycle trigger. Transitions are a pure function of
// (status, event) so the machine is exhaustively testable.
type Event string

const (
	// EventBookingWindow fires when the reconciliation loop sees the
	// current time enter a booking's pre-start or active window.
	EventBookingWindow Event = "booking-window"
	// EventStartRide fires on a validated start-booking command.
	EventStartRide Event = "start-ride"
	// EventEndRide fires on end-booking; it always lands on Available so
	// a repeated end cannot strand the scooter.
	EventEndRide Event = "end-ride"
	// EventFaultReported fires on a fault report from the scooter or a
	// customer and is legal from any state.
	EventFaultReported Event = "fault-reported"
	// EventRepairStarted fires when an engineer begins work.
	EventRepairStarted Event = "repair-started"
	// EventFaultResolved fires when the fault record is resolved.
	EventFaultResolved Event = "fault-resolved"
)

// ErrIllegalTransition reports an event that is not legal in the current
// state. The carrying status and event are in the message.
type ErrIllegalTransition struct {
	From  Status
	Event Event
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("scooter: illegal transition: %s on %q", e.Event, e.From)
}

var transitions = map[Event]map[Status]Status{
	EventBookingWindow: {
		StatusAvailable: StatusBooked,
		StatusBooked:    StatusBooked,
	},
	EventStartRide: {
		StatusAvailable: StatusInUse,
		StatusBooked:    StatusInUse,
	},
	EventEndRide: {
		StatusInUse:     StatusAvailable,
		StatusBooked:    StatusAvailable,
		StatusAvailable: StatusAvailable,
	},
	EventFaultReported: {
		StatusAvailable:   StatusNeedsRepair,
		StatusBooked:      StatusNeedsRepair,
		StatusInUse:       StatusNeedsRepair,
		StatusNeedsRepair: StatusNeedsRepair,
		StatusRepairing:   StatusNeedsRepair,
	},
	EventRepairStarted: {
		StatusNeedsRepair: StatusRepairing,
	},
	EventFaultResolved: {
		StatusNeedsRepair: StatusAvailable,
		StatusRepairing:   StatusAvailable,
	},
}

// Transition returns the state reached by applying event to from. An
// event with no row for the current state returns the state unchanged
// plus an *ErrIllegalTransition.
func Transition(from Status, event Event) (Status, error) {
	if next, ok := transitions[event][from]; ok {
		return next, nil
	}
	return from, &ErrIllegalTransition{From: from, Event: event}
}
