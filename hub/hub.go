// Package hub implements the central coordinating process: the command
// dispatcher every front-end and scooter agent talks to, and the
// reconciliation loops that keep fleet state consistent with the
// booking schedule.
package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/semanticallynull/scootershare/booking"
	"github.com/semanticallynull/scootershare/customer"
	"github.com/semanticallynull/scootershare/fault"
	"github.com/semanticallynull/scootershare/internal/mail"
	"github.com/semanticallynull/scootershare/scooter"
	"github.com/semanticallynull/scootershare/store"
	"github.com/semanticallynull/scootershare/transaction"
	"github.com/semanticallynull/scootershare/wire"
)

// Store is the persistence surface the hub depends on. *store.Client is
// the production implementation; tests substitute a fake.
type Store interface {
	GetBooking(ctx context.Context, id uuid.UUID) (booking.Details, error)
	AddBooking(ctx context.Context, req store.AddBookingRequest) (booking.Details, error)
	CancelBooking(ctx context.Context, id uuid.UUID) (booking.Details, error)
	StartBooking(ctx context.Context, id uuid.UUID, actualStart time.Time) (booking.Details, error)
	CompleteBooking(ctx context.Context, id uuid.UUID, actualEnd time.Time, cost float64) (booking.Details, error)
	GetBookingsForCustomer(ctx context.Context, email string) ([]booking.Details, error)
	GetBookingsForScooter(ctx context.Context, scooterID string) ([]booking.Details, error)
	GetActiveBookings(ctx context.Context) ([]booking.Details, error)
	GetBookedSlots(ctx context.Context) ([]booking.TimeSlot, error)
	SetBookingCalendarID(ctx context.Context, id uuid.UUID, calendarID string) (booking.Details, error)

	GetCustomer(ctx context.Context, email string) (customer.Customer, error)
	GetLoginDetails(ctx context.Context, email string) (customer.LoginDetails, error)
	RegisterCustomer(ctx context.Context, req store.RegisterCustomerRequest) (customer.Customer, error)
	DeleteCustomer(ctx context.Context, email string) error
	UpdateCustomerFunds(ctx context.Context, email string, funds float64) (customer.Customer, error)
	GetAllCustomers(ctx context.Context) ([]customer.Customer, error)
	UpdateCustomerDetails(ctx context.Context, email, firstName, lastName, phoneNo string) (customer.Customer, error)
	EngineerEmails(ctx context.Context) ([]string, error)

	GetScooter(ctx context.Context, id string) (scooter.Details, error)
	GetAllScooters(ctx context.Context) ([]scooter.Details, error)
	UpdateScooterStatus(ctx context.Context, id string, status scooter.Status) (scooter.Details, error)
	UpdateScooterLocation(ctx context.Context, id string, lat, lng float64) error
	UpdateScooterIP(ctx context.Context, id, ip string) error
	UpdateScooterDetails(ctx context.Context, id string, req store.UpdateScooterDetailsRequest) (scooter.Details, error)

	GetTransaction(ctx context.Context, id uuid.UUID) (transaction.Transaction, error)
	AddTransaction(ctx context.Context, email string, amount float64, occurredAt time.Time) (transaction.Transaction, error)
	GetCustomerTransactions(ctx context.Context, email string) ([]transaction.Transaction, error)

	GetFault(ctx context.Context, id uuid.UUID) (fault.Details, error)
	GetOpenFaults(ctx context.Context) ([]fault.Details, error)
	GetFaultForScooter(ctx context.Context, scooterID string) (fault.Details, error)
	ReportFault(ctx context.Context, scooterID, notes string) (fault.Details, error)
	ResolveFault(ctx context.Context, id uuid.UUID, resolution string) (fault.Details, error)
}

// AgentPusher delivers hub-originated commands to a scooter's on-board
// agent. Both calls are best-effort: an unreachable scooter is logged,
// never retried, and never rolls back persisted state.
type AgentPusher interface {
	PushStatus(ctx context.Context, addr string, status scooter.Status) error
	Locate(ctx context.Context, addr string) error
}

type Config struct {
	Logger *slog.Logger
	Store  Store
	Agents AgentPusher
	Mail   mail.Sender

	// AgentPort is the fixed TCP port every scooter agent listens on;
	// the host comes from the scooter's recorded IP address.
	AgentPort int

	// OpsEmail is copied on every fault and password-reset message.
	OpsEmail string

	Metrics *Metrics

	// Now is the clock; nil means time.Now. Injected for window math in
	// tests.
	Now func() time.Time
}

type handlerFunc func(ctx context.Context, payload []byte) (any, error)

// Server is the hub dispatcher: it accepts exactly one connection at a
// time, serves one command envelope on it, and loops. The serialized
// accept loop is what provides mutual exclusion over the hub's
// in-process state.
type Server struct {
	log      *slog.Logger
	store    Store
	agents   AgentPusher
	mail     mail.Sender
	opsEmail string

	agentPort int
	metrics   *Metrics
	now       func() time.Time

	routes map[string]handlerFunc
}

func NewServer(cfg Config) *Server {
	s := &Server{
		log:       cfg.Logger,
		store:     cfg.Store,
		agents:    cfg.Agents,
		mail:      cfg.Mail,
		opsEmail:  cfg.OpsEmail,
		agentPort: cfg.AgentPort,
		metrics:   cfg.Metrics,
		now:       cfg.Now,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.mail == nil {
		s.mail = mail.Discard{}
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.routes = map[string]handlerFunc{
		// Booking.
		"AB":    s.addBooking,
		"CB":    s.cancelBooking,
		"SB":    s.startBooking,
		"EB":    s.endBooking,
		"GBD":   s.getBookingDetails,
		"GAB":   s.getAllBookings,
		"GABS":  s.getBookedSlots,
		"GBI":   s.getBookingID,
		"GABFS": s.getBookingsForScooter,
		"SBG":   s.setBookingCalendar,
		// Customer.
		"GCD": s.getCustomerDetails,
		"GLD": s.getLoginDetails,
		"RNC": s.registerCustomer,
		"DC":  s.deleteCustomer,
		"UCF": s.updateCustomerFunds,
		"GAC": s.getAllCustomers,
		"UCD": s.updateCustomerDetails,
		"FP":  s.forgotPassword,
		// Scooter.
		"GSD": s.getScooterDetails,
		"USS": s.updateScooterStatus,
		"RSF": s.reportScooterFault,
		"GAS": s.getAllScooters,
		"USL": s.updateScooterLocation,
		"USI": s.updateScooterIP,
		"FMS": s.findMyScooter,
		"USD": s.updateScooterDetails,
		// Transaction.
		"GTD":  s.getTransactionDetails,
		"ANT":  s.addTransaction,
		"GACT": s.getCustomerTransactions,
		// Fault log.
		"GFBI": s.getFaultByID,
		"GOF":  s.getOpenFaults,
		"GFBS": s.getFaultByScooter,
		"USF":  s.updateScooterFault,
		"RESF": s.resolveScooterFault,
	}

	return s
}

// connTimeout bounds one full request/response exchange so a stalled
// peer cannot wedge the single serving thread forever.
const connTimeout = 30 * time.Second

// Serve accepts and fully serves one connection at a time until ctx is
// cancelled. There is deliberately no per-connection goroutine.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		lis.Close()
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("hub: accept: %w", err)
		}
		s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	log := s.log.With(slog.String("remote", conn.RemoteAddr().String()))

	if err := conn.SetDeadline(time.Now().Add(connTimeout)); err != nil {
		log.Error("failed to set connection deadline", "error", err)
		return
	}

	body, err := wire.Receive(conn)
	if err != nil {
		log.Error("failed to receive request", "error", err)
		return
	}

	req, err := wire.DecodeRequest(body)
	if err != nil {
		// Malformed JSON: drop the connection without a response. The
		// caller owns its timeout.
		log.Error("failed to decode request envelope", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, connTimeout)
	defer cancel()

	resp := s.dispatch(ctx, log, req)
	if err := wire.Send(conn, resp); err != nil {
		log.Error("failed to send response", "command", req.Command, "error", err)
	}
}

func (s *Server) dispatch(ctx context.Context, log *slog.Logger, req wire.Request) []byte {
	handler, ok := s.routes[req.Command]
	if !ok {
		log.Warn("unknown command", "command", req.Command)
		s.metrics.unknownCommands.Inc()
		return wire.ErrorBody("Unknown command")
	}

	s.metrics.commands.WithLabelValues(req.Command).Inc()
	log.Info("handling command", "command", req.Command)

	result, err := handler(ctx, req.Payload)
	if err != nil {
		s.metrics.commandErrors.WithLabelValues(req.Command).Inc()
		return s.errorResponse(log, req.Command, err)
	}

	resp, err := json.Marshal(result)
	if err != nil {
		log.Error("failed to encode response", "command", req.Command, "error", err)
		return wire.ErrorBody("internal error")
	}
	return resp
}

// errorResponse turns a handler error into the structured {"error": ...}
// shape. Validation and business-rule failures carry their message;
// anything else is logged and reported generically.
func (s *Server) errorResponse(log *slog.Logger, command string, err error) []byte {
	var cmdErr *commandError
	if errors.As(err, &cmdErr) {
		return wire.ErrorBody(cmdErr.msg)
	}

	var apiErr *store.APIError
	if errors.As(err, &apiErr) {
		return wire.ErrorBody(apiErr.Message)
	}
	if errors.Is(err, store.ErrNotFound) {
		return wire.ErrorBody("not found")
	}

	log.Error("command failed", "command", command, "error", err)
	return wire.ErrorBody("internal error")
}

// commandError is a validation or business-rule failure whose message is
// returned to the caller verbatim.
type commandError struct {
	msg string
}

func (e *commandError) Error() string { return e.msg }

func errorf(format string, args ...any) error {
	return &commandError{msg: fmt.Sprintf(format, args...)}
}

func decodePayload(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return errorf("invalid payload: %v", err)
	}
	return nil
}

func parseBookingID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.UUID{}, errorf("missing booking_id")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, errorf("invalid booking_id")
	}
	return id, nil
}

// agentAddr builds the agent endpoint from a scooter's recorded IP.
func agentAddr(ip string, port int) string {
	return net.JoinHostPort(ip, fmt.Sprint(port))
}

// pushStatus notifies the scooter's agent of a new status, best-effort.
func (s *Server) pushStatus(ctx context.Context, log *slog.Logger, ip string, status scooter.Status) {
	if ip == "" {
		return
	}
	if err := s.agents.PushStatus(ctx, agentAddr(ip, s.agentPort), status); err != nil {
		s.metrics.pushFailures.Inc()
		log.Warn("failed to push status to scooter agent", "addr", ip, "status", status, "error", err)
	}
}
