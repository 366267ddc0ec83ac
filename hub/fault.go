package hub

import (
	"context"

	"github.com/google/uuid"

	"github.com/semanticallynull/scootershare/scooter"
)

type faultIDRequest struct {
	FaultID string `json:"fault_id"`
}

func (s *Server) getFaultByID(ctx context.Context, payload []byte) (any, error) {
	var req faultIDRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(req.FaultID)
	if err != nil {
		return nil, errorf("invalid fault_id")
	}
	return s.store.GetFault(ctx, id)
}

func (s *Server) getOpenFaults(ctx context.Context, payload []byte) (any, error) {
	return s.store.GetOpenFaults(ctx)
}

func (s *Server) getFaultByScooter(ctx context.Context, payload []byte) (any, error) {
	var req scooterIDRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.ScooterID == "" {
		return nil, errorf("missing scooter_id")
	}
	return s.store.GetFaultForScooter(ctx, req.ScooterID)
}

// updateScooterFault records or refreshes the fault notes without the
// status change and notifications that a full fault report carries.
func (s *Server) updateScooterFault(ctx context.Context, payload []byte) (any, error) {
	var req reportFaultRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.ScooterID == "" || req.FaultNotes == "" {
		return nil, errorf("missing scooter_id or fault_notes")
	}
	return s.store.ReportFault(ctx, req.ScooterID, req.FaultNotes)
}

type resolveFaultRequest struct {
	FaultID    string `json:"fault_id"`
	Resolution string `json:"resolution"`
}

// resolveScooterFault closes the fault record and returns the scooter to
// service.
func (s *Server) resolveScooterFault(ctx context.Context, payload []byte) (any, error) {
	var req resolveFaultRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(req.FaultID)
	if err != nil {
		return nil, errorf("invalid fault_id")
	}
	if req.Resolution == "" {
		return nil, errorf("missing resolution")
	}

	f, err := s.store.ResolveFault(ctx, id, req.Resolution)
	if err != nil {
		return nil, err
	}

	sc, err := s.store.GetScooter(ctx, f.ScooterID)
	if err != nil {
		return nil, err
	}
	if next, err := scooter.Transition(sc.Status, scooter.EventFaultResolved); err == nil {
		if _, err := s.store.UpdateScooterStatus(ctx, sc.ScooterID, next); err != nil {
			return nil, err
		}
		s.pushStatus(ctx, s.log, sc.IPAddress, next)
	}

	return f, nil
}
