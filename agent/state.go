// Package agent implements the on-board scooter process: a cache of the
// scooter's own record, a listener for hub pushes, a rider session with
// automatic expiry, and battery telemetry.
package agent

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/semanticallynull/scootershare/scooter"
)

// Display renders on the scooter's handlebar screen. The hardware
// driver implements it; tests and headless runs use LogDisplay.
type Display interface {
	ShowStatus(status scooter.Status)
	Flash(message string)
}

// LogDisplay writes display updates to the log instead of a screen.
type LogDisplay struct {
	Log *slog.Logger
}

func (d LogDisplay) ShowStatus(status scooter.Status) {
	d.Log.Info("display status", "status", status)
}

func (d LogDisplay) Flash(message string) {
	d.Log.Info("display flash", "message", message)
}

// State is the agent's cached copy of its own scooter record. The hub
// stays authoritative; the cache exists so the display keeps working
// when the link is down.
type State struct {
	mu      sync.Mutex
	info    scooter.Details
	display Display
}

func NewState(scooterID string, display Display) *State {
	return &State{
		info:    scooter.Details{ScooterID: scooterID, Status: scooter.StatusAvailable},
		display: display,
	}
}

// ApplyInfo replaces the cached record, typically after a reload from
// the hub.
func (s *State) ApplyInfo(info scooter.Details) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = info
	s.display.ShowStatus(info.Status)
}

// ApplyStatus records a status pushed by the hub. It updates the cache
// and display only; reporting back to the hub here would echo the push
// in a loop.
func (s *State) ApplyStatus(status scooter.Status) error {
	if !status.Valid() {
		return fmt.Errorf("agent: invalid status %q", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.Status = status
	s.display.ShowStatus(status)
	return nil
}

func (s *State) SetBattery(percentage int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.BatteryPercentage = percentage
}

func (s *State) Info() scooter.Details {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

func (s *State) Status() scooter.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info.Status
}

func (s *State) ScooterID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info.ScooterID
}

// Flash runs the find-my-scooter display cycle and restores the
// current status afterwards.
func (s *State) Flash() {
	s.mu.Lock()
	status := s.info.Status
	s.mu.Unlock()
	s.display.Flash("HERE I AM")
	s.display.ShowStatus(status)
}
