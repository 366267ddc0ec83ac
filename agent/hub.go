package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/semanticallynull/scootershare/booking"
	"github.com/semanticallynull/scootershare/customer"
	"github.com/semanticallynull/scootershare/fault"
	"github.com/semanticallynull/scootershare/scooter"
	"github.com/semanticallynull/scootershare/wire"
)

// HubError is a structured error response from the hub, surfaced to the
// rider verbatim.
type HubError struct {
	Message string
}

func (e *HubError) Error() string { return e.Message }

// HubClient is the agent's view of the hub: every interaction is one
// command envelope over a fresh connection.
type HubClient struct {
	Addr   string
	client wire.Client
}

func NewHubClient(addr string) *HubClient {
	return &HubClient{
		Addr: addr,
		client: wire.Client{
			DialTimeout: 5 * time.Second,
			IOTimeout:   10 * time.Second,
		},
	}
}

func (h *HubClient) call(ctx context.Context, command string, payload, out any) error {
	resp, err := h.client.Call(ctx, h.Addr, command, payload)
	if err != nil {
		return err
	}

	var hubErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp, &hubErr); err == nil && hubErr.Error != "" {
		return &HubError{Message: hubErr.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("agent: malformed hub response to %s: %w", command, err)
	}
	return nil
}

// Reload fetches the scooter's authoritative record.
func (h *HubClient) Reload(ctx context.Context, scooterID string) (scooter.Details, error) {
	var d scooter.Details
	err := h.call(ctx, "GSD", map[string]string{"scooter_id": scooterID}, &d)
	return d, err
}

// RegisterIP tells the hub where this agent is listening.
func (h *HubClient) RegisterIP(ctx context.Context, scooterID, ip string) error {
	payload := map[string]string{"scooter_id": scooterID, "scooter_ip": ip}
	return h.call(ctx, "USI", payload, nil)
}

// ReportStatus pushes a locally originated status change, for example a
// rider reporting a fault from the handlebar UI.
func (h *HubClient) ReportStatus(ctx context.Context, scooterID string, status scooter.Status) error {
	payload := map[string]any{"scooter_id": scooterID, "status": status}
	return h.call(ctx, "USS", payload, nil)
}

// ReportLocation pushes a GPS fix.
func (h *HubClient) ReportLocation(ctx context.Context, scooterID string, lat, lng float64) error {
	payload := map[string]any{"scooter_id": scooterID, "latitude": lat, "longitude": lng}
	return h.call(ctx, "USL", payload, nil)
}

// ReportDetails pushes the full provisioning record, which is how
// battery level reaches the hub.
func (h *HubClient) ReportDetails(ctx context.Context, info scooter.Details) error {
	payload := map[string]any{
		"scooter_id":         info.ScooterID,
		"make":               info.Make,
		"colour":             info.Colour,
		"cost_min":           info.CostMin,
		"battery_percentage": info.BatteryPercentage,
	}
	return h.call(ctx, "USD", payload, nil)
}

// ReportFault files a fault report for this scooter.
func (h *HubClient) ReportFault(ctx context.Context, scooterID, notes string) (fault.Details, error) {
	var d fault.Details
	payload := map[string]string{"scooter_id": scooterID, "fault_notes": notes}
	err := h.call(ctx, "RSF", payload, &d)
	return d, err
}

// LoginDetails fetches the stored credentials for a rider logging in at
// the scooter.
func (h *HubClient) LoginDetails(ctx context.Context, email string) (customer.LoginDetails, error) {
	var ld customer.LoginDetails
	err := h.call(ctx, "GLD", map[string]string{"email": email}, &ld)
	return ld, err
}

func (h *HubClient) Customer(ctx context.Context, email string) (customer.Customer, error) {
	var c customer.Customer
	err := h.call(ctx, "GCD", map[string]string{"email": email}, &c)
	return c, err
}

// BookingID resolves the rider's current booking on this scooter.
func (h *HubClient) BookingID(ctx context.Context, email, scooterID string) (uuid.UUID, error) {
	var resp struct {
		BookingID uuid.UUID `json:"bookingID"`
	}
	payload := map[string]string{"email": email, "scooter_id": scooterID}
	if err := h.call(ctx, "GBI", payload, &resp); err != nil {
		return uuid.UUID{}, err
	}
	return resp.BookingID, nil
}

func (h *HubClient) Booking(ctx context.Context, id uuid.UUID) (booking.Details, error) {
	var d booking.Details
	err := h.call(ctx, "GBD", map[string]string{"booking_id": id.String()}, &d)
	return d, err
}

func (h *HubClient) StartBooking(ctx context.Context, id uuid.UUID, email, scooterID string) (booking.Details, error) {
	var d booking.Details
	payload := map[string]string{
		"booking_id": id.String(),
		"email":      email,
		"scooter_id": scooterID,
	}
	err := h.call(ctx, "SB", payload, &d)
	return d, err
}

func (h *HubClient) EndBooking(ctx context.Context, id uuid.UUID) (booking.Details, error) {
	var d booking.Details
	err := h.call(ctx, "EB", map[string]string{"booking_id": id.String()}, &d)
	return d, err
}
