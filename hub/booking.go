package hub

import (
	"context"
	"math"
	"time"

	"github.com/semanticallynull/scootershare/booking"
	"github.com/semanticallynull/scootershare/scooter"
	"github.com/semanticallynull/scootershare/store"
)

type addBookingRequest struct {
	Email       string  `json:"email"`
	ScooterID   string  `json:"scooter_id"`
	Start       string  `json:"start_datetime"`
	End         string  `json:"end_datetime"`
	Cost        float64 `json:"cost"`
	DepositCost float64 `json:"deposit_cost"`
}

func (s *Server) addBooking(ctx context.Context, payload []byte) (any, error) {
	var req addBookingRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Email == "" || req.ScooterID == "" {
		return nil, errorf("missing email or scooter_id")
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		return nil, errorf("invalid start_datetime")
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		return nil, errorf("invalid end_datetime")
	}
	if !end.After(start) {
		return nil, errorf("end_datetime must be after start_datetime")
	}

	return s.store.AddBooking(ctx, store.AddBookingRequest{
		Email:       req.Email,
		ScooterID:   req.ScooterID,
		Start:       start.Format(time.RFC3339),
		End:         end.Format(time.RFC3339),
		Cost:        req.Cost,
		DepositCost: req.DepositCost,
	})
}

type bookingIDRequest struct {
	BookingID string `json:"booking_id"`
}

func (s *Server) cancelBooking(ctx context.Context, payload []byte) (any, error) {
	var req bookingIDRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	id, err := parseBookingID(req.BookingID)
	if err != nil {
		return nil, err
	}
	return s.store.CancelBooking(ctx, id)
}

func (s *Server) getBookingDetails(ctx context.Context, payload []byte) (any, error) {
	var req bookingIDRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	id, err := parseBookingID(req.BookingID)
	if err != nil {
		return nil, err
	}
	return s.store.GetBooking(ctx, id)
}

type startBookingRequest struct {
	BookingID string `json:"booking_id"`
	Email     string `json:"email"`
	ScooterID string `json:"scooter_id"`
}

// startBooking validates the claimed booking against the stored one
// before any state changes: a mismatched email or scooter, a booking
// that is not Active, or a clock outside the booked window all fail
// with nothing mutated.
func (s *Server) startBooking(ctx context.Context, payload []byte) (any, error) {
	var req startBookingRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	id, err := parseBookingID(req.BookingID)
	if err != nil {
		return nil, err
	}

	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Email != req.Email || b.ScooterID != req.ScooterID {
		return nil, errorf("booking does not match customer and scooter")
	}
	if b.Status != booking.StatusActive {
		return nil, errorf("booking is not active")
	}

	start, end, err := b.Window()
	if err != nil {
		return nil, err
	}
	now := s.now()
	if now.Before(start) || now.After(end) {
		return nil, errorf("booking window has not started or has passed")
	}

	sc, err := s.store.GetScooter(ctx, b.ScooterID)
	if err != nil {
		return nil, err
	}
	next, err := scooter.Transition(sc.Status, scooter.EventStartRide)
	if err != nil {
		return nil, errorf("scooter is not available to start: %s", sc.Status)
	}

	started, err := s.store.StartBooking(ctx, id, now)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.UpdateScooterStatus(ctx, sc.ScooterID, next); err != nil {
		return nil, err
	}
	s.pushStatus(ctx, s.log, sc.IPAddress, next)

	return started, nil
}

// endBooking charges for the ride and releases the scooter. The
// completion write is status-guarded in the store, so a repeat of the
// command sees the booking already terminal and returns it unchanged
// without a second charge.
func (s *Server) endBooking(ctx context.Context, payload []byte) (any, error) {
	var req bookingIDRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	id, err := parseBookingID(req.BookingID)
	if err != nil {
		return nil, err
	}

	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != booking.StatusActive {
		return b, nil
	}
	if b.ActualStart == "" {
		return nil, errorf("booking was never started")
	}

	sc, err := s.store.GetScooter(ctx, b.ScooterID)
	if err != nil {
		return nil, err
	}

	// The scooter is held from the scheduled start regardless of when
	// the rider actually unlocked it, so that is where the meter runs
	// from.
	start, _, err := b.Window()
	if err != nil {
		return nil, err
	}
	now := s.now()
	cost := rideCost(start, now, sc.CostMin)

	// Complete first: the Active guard on this write is the point of
	// exactly-once charging. Everything after it is logged, not rolled
	// back, if it fails.
	completed, err := s.store.CompleteBooking(ctx, id, now, cost)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.AddTransaction(ctx, b.Email, cost, now); err != nil {
		s.log.Error("reconciliation needed: booking completed but transaction not recorded",
			"bookingID", id, "email", b.Email, "cost", cost, "error", err)
		return completed, nil
	}

	cust, err := s.store.GetCustomer(ctx, b.Email)
	if err == nil {
		_, err = s.store.UpdateCustomerFunds(ctx, b.Email, cust.Funds-cost)
	}
	if err != nil {
		s.log.Error("reconciliation needed: booking charged but funds not deducted",
			"bookingID", id, "email", b.Email, "cost", cost, "error", err)
		return completed, nil
	}

	next, err := scooter.Transition(sc.Status, scooter.EventEndRide)
	if err == nil {
		if _, err := s.store.UpdateScooterStatus(ctx, sc.ScooterID, next); err != nil {
			s.log.Error("failed to release scooter after ride", "scooterID", sc.ScooterID, "error", err)
		} else {
			s.pushStatus(ctx, s.log, sc.IPAddress, next)
		}
	}

	return completed, nil
}

// rideCost charges whole started minutes at the per-minute rate,
// rounded to cents.
func rideCost(start, end time.Time, costMin float64) float64 {
	minutes := math.Ceil(end.Sub(start).Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return math.Round(minutes*costMin*100) / 100
}

type emailRequest struct {
	Email string `json:"email"`
}

func (s *Server) getAllBookings(ctx context.Context, payload []byte) (any, error) {
	var req emailRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Email == "" {
		return nil, errorf("missing email")
	}
	return s.store.GetBookingsForCustomer(ctx, req.Email)
}

func (s *Server) getBookedSlots(ctx context.Context, payload []byte) (any, error) {
	return s.store.GetBookedSlots(ctx)
}

type getBookingIDRequest struct {
	Email     string `json:"email"`
	ScooterID string `json:"scooter_id"`
}

// getBookingID resolves which booking a rider standing at a scooter is
// trying to use: the customer's Active booking on that scooter whose
// window covers now.
func (s *Server) getBookingID(ctx context.Context, payload []byte) (any, error) {
	var req getBookingIDRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Email == "" || req.ScooterID == "" {
		return nil, errorf("missing email or scooter_id")
	}

	bookings, err := s.store.GetBookingsForCustomer(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var matches []booking.Details
	for _, b := range bookings {
		if b.ScooterID != req.ScooterID || b.Status != booking.StatusActive {
			continue
		}
		start, end, err := b.Window()
		if err != nil {
			continue
		}
		if !now.Before(start.Add(-booking.PreBookingLead)) && !now.After(end) {
			matches = append(matches, b)
		}
	}

	switch len(matches) {
	case 0:
		return nil, errorf("No booking found")
	case 1:
		return map[string]string{"bookingID": matches[0].BookingID.String()}, nil
	default:
		return nil, errorf("Multiple bookings found")
	}
}

type scooterIDRequest struct {
	ScooterID string `json:"scooter_id"`
}

func (s *Server) getBookingsForScooter(ctx context.Context, payload []byte) (any, error) {
	var req scooterIDRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.ScooterID == "" {
		return nil, errorf("missing scooter_id")
	}
	return s.store.GetBookingsForScooter(ctx, req.ScooterID)
}

type setBookingCalendarRequest struct {
	BookingID  string `json:"booking_id"`
	CalendarID string `json:"calendar_id"`
}

func (s *Server) setBookingCalendar(ctx context.Context, payload []byte) (any, error) {
	var req setBookingCalendarRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	id, err := parseBookingID(req.BookingID)
	if err != nil {
		return nil, err
	}
	if req.CalendarID == "" {
		return nil, errorf("missing calendar_id")
	}
	return s.store.SetBookingCalendarID(ctx, id, req.CalendarID)
}
