package store

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/semanticallynull/scootershare/booking"
)

// AddBookingRequest is the creation payload. Times are RFC 3339.
type AddBookingRequest struct {
	Email       string  `json:"email"`
	ScooterID   string  `json:"scooterID"`
	Start       string  `json:"startDateTime"`
	End         string  `json:"endDateTime"`
	Cost        float64 `json:"cost"`
	DepositCost float64 `json:"depositCost"`
}

func (c *Client) GetBooking(ctx context.Context, id uuid.UUID) (booking.Details, error) {
	var d booking.Details
	err := c.get(ctx, "/booking/"+id.String(), &d)
	return d, err
}

func (c *Client) AddBooking(ctx context.Context, req AddBookingRequest) (booking.Details, error) {
	var d booking.Details
	err := c.do(ctx, "POST", "/booking", req, &d)
	return d, err
}

func (c *Client) CancelBooking(ctx context.Context, id uuid.UUID) (booking.Details, error) {
	var d booking.Details
	err := c.do(ctx, "DELETE", "/booking/"+id.String(), nil, &d)
	return d, err
}

func (c *Client) StartBooking(ctx context.Context, id uuid.UUID, actualStart time.Time) (booking.Details, error) {
	body := map[string]string{"actualStartDateTime": actualStart.Format(time.RFC3339)}
	var d booking.Details
	err := c.do(ctx, "PUT", "/booking/"+id.String()+"/start", body, &d)
	return d, err
}

// CompleteBooking marks the booking Complete with its final cost. The
// service guards on the booking still being Active, which is what makes
// a repeated end-booking harmless.
func (c *Client) CompleteBooking(ctx context.Context, id uuid.UUID, actualEnd time.Time, cost float64) (booking.Details, error) {
	body := map[string]any{
		"actualEndDateTime": actualEnd.Format(time.RFC3339),
		"cost":              cost,
	}
	var d booking.Details
	err := c.do(ctx, "PUT", "/booking/"+id.String()+"/complete", body, &d)
	return d, err
}

func (c *Client) GetBookingsForCustomer(ctx context.Context, email string) ([]booking.Details, error) {
	var ds []booking.Details
	err := c.get(ctx, "/booking/customer/"+url.PathEscape(email), &ds)
	return ds, err
}

func (c *Client) GetBookingsForScooter(ctx context.Context, scooterID string) ([]booking.Details, error) {
	var ds []booking.Details
	err := c.get(ctx, "/booking/scooter/"+url.PathEscape(scooterID), &ds)
	return ds, err
}

func (c *Client) GetActiveBookings(ctx context.Context) ([]booking.Details, error) {
	var ds []booking.Details
	err := c.get(ctx, "/booking/active", &ds)
	return ds, err
}

func (c *Client) GetBookedSlots(ctx context.Context) ([]booking.TimeSlot, error) {
	var slots []booking.TimeSlot
	err := c.get(ctx, "/booking/booked-slots", &slots)
	return slots, err
}

func (c *Client) SetBookingCalendarID(ctx context.Context, id uuid.UUID, calendarID string) (booking.Details, error) {
	body := map[string]string{"calendarID": calendarID}
	var d booking.Details
	err := c.do(ctx, "PUT", "/booking/"+id.String()+"/calendar", body, &d)
	return d, err
}
