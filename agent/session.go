package agent

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/semanticallynull/scootershare/booking"
	"github.com/semanticallynull/scootershare/scooter"
)

var (
	ErrBadCredentials  = errors.New("agent: wrong email or password")
	ErrAlreadyLoggedIn = errors.New("agent: a session is already active")
	ErrNoSession       = errors.New("agent: no active session")
)

// Session is the rider session on the handlebar UI. Logging in verifies
// credentials with the hub, resolves the rider's booking on this
// scooter, and starts the ride; the session then lives until logout or
// until the booked end time passes, whichever comes first.
type Session struct {
	Log   *slog.Logger
	Hub   *HubClient
	State *State

	// Now is the clock; nil means time.Now.
	Now func() time.Time

	mu        sync.Mutex
	active    bool
	loggingIn bool
	email     string
	bookingID uuid.UUID
	end       time.Time
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login authenticates the rider and starts their booked ride. The
// password is hashed on the scooter so it never crosses the radio link
// in the clear.
func (s *Session) Login(ctx context.Context, email, password string) (booking.Details, error) {
	// Claim the session before the network calls so a second login
	// attempt cannot slip past the guard while this one is in flight.
	s.mu.Lock()
	if s.active || s.loggingIn {
		s.mu.Unlock()
		return booking.Details{}, ErrAlreadyLoggedIn
	}
	s.loggingIn = true
	s.mu.Unlock()

	b, err := s.login(ctx, email, password)

	s.mu.Lock()
	s.loggingIn = false
	if err == nil {
		s.active = true
		s.email = email
		s.bookingID = b.BookingID
		s.end = b.end
	}
	s.mu.Unlock()

	if err != nil {
		return booking.Details{}, err
	}
	s.Log.Info("rider logged in", "email", email, "bookingID", b.BookingID, "until", b.end)
	return b.Details, nil
}

type startedRide struct {
	booking.Details
	end time.Time
}

func (s *Session) login(ctx context.Context, email, password string) (startedRide, error) {
	ld, err := s.Hub.LoginDetails(ctx, email)
	if err != nil {
		return startedRide{}, err
	}
	sum := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(ld.Password)) != 1 {
		return startedRide{}, ErrBadCredentials
	}

	scooterID := s.State.ScooterID()
	id, err := s.Hub.BookingID(ctx, email, scooterID)
	if err != nil {
		return startedRide{}, err
	}

	b, err := s.Hub.StartBooking(ctx, id, email, scooterID)
	if err != nil {
		return startedRide{}, err
	}
	_, end, err := b.Window()
	if err != nil {
		return startedRide{}, err
	}

	if err := s.State.ApplyStatus(scooter.StatusInUse); err != nil {
		return startedRide{}, err
	}

	return startedRide{Details: b, end: end}, nil
}

// Logout ends the ride and clears the session.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return ErrNoSession
	}
	id := s.bookingID
	s.mu.Unlock()

	if _, err := s.Hub.EndBooking(ctx, id); err != nil {
		return err
	}
	s.clear()
	s.Log.Info("rider logged out", "bookingID", id)
	return nil
}

// Active reports whether a rider session is live.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Watch forces a logout once the booked end time passes. It checks
// every second so an expired session never outlives its booking by
// more than a tick.
func (s *Session) Watch(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expireIfDue(ctx)
		}
	}
}

func (s *Session) expireIfDue(ctx context.Context) {
	s.mu.Lock()
	due := s.active && !s.now().Before(s.end)
	id := s.bookingID
	s.mu.Unlock()
	if !due {
		return
	}

	s.Log.Info("session expired, ending ride", "bookingID", id)
	if _, err := s.Hub.EndBooking(ctx, id); err != nil {
		// The hourly sweep completes the booking if the hub stays
		// unreachable; lock the scooter locally regardless.
		s.Log.Error("failed to end expired booking", "bookingID", id, "error", err)
	}
	s.clear()
}

func (s *Session) clear() {
	s.mu.Lock()
	s.active = false
	s.email = ""
	s.bookingID = uuid.UUID{}
	s.end = time.Time{}
	s.mu.Unlock()

	if err := s.State.ApplyStatus(scooter.StatusAvailable); err != nil {
		s.Log.Error("failed to reset display status", "error", err)
	}
}
