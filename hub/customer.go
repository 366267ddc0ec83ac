package hub

import (
	"context"
	"fmt"

	"github.com/semanticallynull/scootershare/store"
)

func (s *Server) getCustomerDetails(ctx context.Context, payload []byte) (any, error) {
	var req emailRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Email == "" {
		return nil, errorf("missing email")
	}
	return s.store.GetCustomer(ctx, req.Email)
}

func (s *Server) getLoginDetails(ctx context.Context, payload []byte) (any, error) {
	var req emailRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Email == "" {
		return nil, errorf("missing email")
	}
	return s.store.GetLoginDetails(ctx, req.Email)
}

type registerCustomerRequest struct {
	Email        string  `json:"email"`
	PasswordHash string  `json:"password_hash"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	PhoneNo      string  `json:"phone_no"`
	Funds        float64 `json:"funds"`
}

func (s *Server) registerCustomer(ctx context.Context, payload []byte) (any, error) {
	var req registerCustomerRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Email == "" || req.PasswordHash == "" {
		return nil, errorf("missing email or password_hash")
	}
	return s.store.RegisterCustomer(ctx, store.RegisterCustomerRequest{
		Email:        req.Email,
		PasswordHash: req.PasswordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNo:      req.PhoneNo,
		Funds:        req.Funds,
	})
}

func (s *Server) deleteCustomer(ctx context.Context, payload []byte) (any, error) {
	var req emailRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Email == "" {
		return nil, errorf("missing email")
	}
	if err := s.store.DeleteCustomer(ctx, req.Email); err != nil {
		return nil, err
	}
	return map[string]string{"message": "customer deleted"}, nil
}

type updateFundsRequest struct {
	Email string  `json:"email"`
	Funds float64 `json:"funds"`
}

func (s *Server) updateCustomerFunds(ctx context.Context, payload []byte) (any, error) {
	var req updateFundsRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Email == "" {
		return nil, errorf("missing email")
	}
	if req.Funds < 0 {
		return nil, errorf("funds cannot be negative")
	}
	return s.store.UpdateCustomerFunds(ctx, req.Email, req.Funds)
}

func (s *Server) getAllCustomers(ctx context.Context, payload []byte) (any, error) {
	return s.store.GetAllCustomers(ctx)
}

type updateCustomerDetailsRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhoneNo   string `json:"phone_no"`
}

func (s *Server) updateCustomerDetails(ctx context.Context, payload []byte) (any, error) {
	var req updateCustomerDetailsRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Email == "" {
		return nil, errorf("missing email")
	}
	return s.store.UpdateCustomerDetails(ctx, req.Email, req.FirstName, req.LastName, req.PhoneNo)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
	URL   string `json:"url"`
}

// forgotPassword mails the customer a reset link, copying operations.
// The account must exist; the link itself is minted by the front end.
func (s *Server) forgotPassword(ctx context.Context, payload []byte) (any, error) {
	var req forgotPasswordRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Email == "" || req.URL == "" {
		return nil, errorf("missing email or url")
	}

	cust, err := s.store.GetCustomer(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Hi %s,\n\nA password reset was requested for your account. Follow this link to choose a new password:\n\n%s\n\nIf you did not request this, you can ignore this message.\n", cust.FirstName, req.URL)
	if err := s.mail.Send([]string{cust.Email, s.opsEmail}, "Password reset", body); err != nil {
		s.log.Error("failed to send password reset email", "email", cust.Email, "error", err)
		return nil, errorf("failed to send reset email")
	}

	return map[string]string{"message": "success"}, nil
}
