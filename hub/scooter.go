package hub

import (
	"context"
	"fmt"

	"github.com/semanticallynull/scootershare/scooter"
	"github.com/semanticallynull/scootershare/store"
)

func (s *Server) getScooterDetails(ctx context.Context, payload []byte) (any, error) {
	var req scooterIDRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.ScooterID == "" {
		return nil, errorf("missing scooter_id")
	}
	return s.store.GetScooter(ctx, req.ScooterID)
}

type updateStatusRequest struct {
	ScooterID string         `json:"scooter_id"`
	Status    scooter.Status `json:"status"`
}

func (s *Server) updateScooterStatus(ctx context.Context, payload []byte) (any, error) {
	var req updateStatusRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.ScooterID == "" {
		return nil, errorf("missing scooter_id")
	}
	if !req.Status.Valid() {
		return nil, errorf("invalid status: %s", req.Status)
	}
	return s.store.UpdateScooterStatus(ctx, req.ScooterID, req.Status)
}

type reportFaultRequest struct {
	ScooterID  string `json:"scooter_id"`
	FaultNotes string `json:"fault_notes"`
}

// reportScooterFault takes a scooter out of service, records the fault,
// and notifies every engineer plus operations. Mail failures do not fail
// the command; the fault record is already durable.
func (s *Server) reportScooterFault(ctx context.Context, payload []byte) (any, error) {
	var req reportFaultRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.ScooterID == "" || req.FaultNotes == "" {
		return nil, errorf("missing scooter_id or fault_notes")
	}

	sc, err := s.store.GetScooter(ctx, req.ScooterID)
	if err != nil {
		return nil, err
	}

	// Fault reports are legal from every lifecycle state.
	next, _ := scooter.Transition(sc.Status, scooter.EventFaultReported)
	if _, err := s.store.UpdateScooterStatus(ctx, sc.ScooterID, next); err != nil {
		return nil, err
	}
	s.pushStatus(ctx, s.log, sc.IPAddress, next)

	f, err := s.store.ReportFault(ctx, req.ScooterID, req.FaultNotes)
	if err != nil {
		return nil, err
	}

	engineers, err := s.store.EngineerEmails(ctx)
	if err != nil {
		s.log.Error("failed to look up engineer emails for fault notice", "scooterID", req.ScooterID, "error", err)
		engineers = nil
	}
	to := append(engineers, s.opsEmail)
	body := fmt.Sprintf("Scooter %s has been reported faulty.\n\nNotes: %s\nReported: %s\n", f.ScooterID, f.Notes, f.Start)
	if err := s.mail.Send(to, fmt.Sprintf("Fault reported on scooter %s", f.ScooterID), body); err != nil {
		s.log.Error("failed to send fault notice", "scooterID", req.ScooterID, "error", err)
	}

	return f, nil
}

func (s *Server) getAllScooters(ctx context.Context, payload []byte) (any, error) {
	return s.store.GetAllScooters(ctx)
}

type updateLocationRequest struct {
	ScooterID string  `json:"scooter_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (s *Server) updateScooterLocation(ctx context.Context, payload []byte) (any, error) {
	var req updateLocationRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.ScooterID == "" {
		return nil, errorf("missing scooter_id")
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return nil, errorf("invalid coordinates")
	}
	if err := s.store.UpdateScooterLocation(ctx, req.ScooterID, req.Latitude, req.Longitude); err != nil {
		return nil, err
	}
	return map[string]string{"message": "location updated"}, nil
}

type updateIPRequest struct {
	ScooterID string `json:"scooter_id"`
	ScooterIP string `json:"scooter_ip"`
}

func (s *Server) updateScooterIP(ctx context.Context, payload []byte) (any, error) {
	var req updateIPRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.ScooterID == "" || req.ScooterIP == "" {
		return nil, errorf("missing scooter_id or scooter_ip")
	}
	if err := s.store.UpdateScooterIP(ctx, req.ScooterID, req.ScooterIP); err != nil {
		return nil, err
	}
	return map[string]string{"message": "ip updated"}, nil
}

// findMyScooter relays a locate request to the scooter's agent, which
// flashes its display so the rider can spot it.
func (s *Server) findMyScooter(ctx context.Context, payload []byte) (any, error) {
	var req scooterIDRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.ScooterID == "" {
		return nil, errorf("missing scooter_id")
	}

	sc, err := s.store.GetScooter(ctx, req.ScooterID)
	if err != nil {
		return nil, err
	}
	if sc.IPAddress == "" {
		return nil, errorf("scooter has no registered address")
	}
	if err := s.agents.Locate(ctx, agentAddr(sc.IPAddress, s.agentPort)); err != nil {
		s.metrics.pushFailures.Inc()
		return nil, errorf("scooter is unreachable")
	}
	return map[string]bool{"success": true}, nil
}

type updateScooterDetailsRequest struct {
	ScooterID         string  `json:"scooter_id"`
	Make              string  `json:"make"`
	Colour            string  `json:"colour"`
	CostMin           float64 `json:"cost_min"`
	BatteryPercentage int     `json:"battery_percentage"`
}

func (s *Server) updateScooterDetails(ctx context.Context, payload []byte) (any, error) {
	var req updateScooterDetailsRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.ScooterID == "" {
		return nil, errorf("missing scooter_id")
	}
	if req.BatteryPercentage < 0 || req.BatteryPercentage > 100 {
		return nil, errorf("battery_percentage out of range")
	}
	return s.store.UpdateScooterDetails(ctx, req.ScooterID, store.UpdateScooterDetailsRequest{
		Make:              req.Make,
		Colour:            req.Colour,
		CostMin:           req.CostMin,
		BatteryPercentage: req.BatteryPercentage,
	})
}
