package hub

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type transactionIDRequest struct {
	TransactionID string `json:"transaction_id"`
}

func (s *Server) getTransactionDetails(ctx context.Context, payload []byte) (any, error) {
	var req transactionIDRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return nil, errorf("invalid transaction_id")
	}
	return s.store.GetTransaction(ctx, id)
}

type addTransactionRequest struct {
	Email    string  `json:"email"`
	Amount   float64 `json:"transaction_amount"`
	DateTime string  `json:"transaction_datetime"`
}

func (s *Server) addTransaction(ctx context.Context, payload []byte) (any, error) {
	var req addTransactionRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Email == "" {
		return nil, errorf("missing email")
	}

	occurredAt := s.now()
	if req.DateTime != "" {
		t, err := time.Parse(time.RFC3339, req.DateTime)
		if err != nil {
			return nil, errorf("invalid transaction_datetime")
		}
		occurredAt = t
	}
	return s.store.AddTransaction(ctx, req.Email, req.Amount, occurredAt)
}

func (s *Server) getCustomerTransactions(ctx context.Context, payload []byte) (any, error) {
	var req emailRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Email == "" {
		return nil, errorf("missing email")
	}
	return s.store.GetCustomerTransactions(ctx, req.Email)
}
