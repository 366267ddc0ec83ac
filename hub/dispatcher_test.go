package hub

import (
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/goccy/go-json"

	"github.com/semanticallynull/scootershare/booking"
	"github.com/semanticallynull/scootershare/customer"
	"github.com/semanticallynull/scootershare/scooter"
	"github.com/semanticallynull/scootershare/store"
	"github.com/semanticallynull/scootershare/wire"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestConfig(fs *fakeStore) (Config, *fakePusher, *fakeMail, *fakeClock) {
	pusher := &fakePusher{}
	sender := &fakeMail{}
	clk := &fakeClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	cfg := Config{
		Logger:    testLogger(),
		Store:     fs,
		Agents:    pusher,
		Mail:      sender,
		AgentPort: 65001,
		OpsEmail:  "ops@example.com",
		Now:       clk.Now,
	}
	return cfg, pusher, sender, clk
}

func decodeError(t *testing.T, resp []byte) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp, &body); err != nil {
		t.Fatalf("decode response %s: %v", resp, err)
	}
	return body.Error
}

func TestUnknownCommand(t *testing.T) {
	cfg, _, _, _ := newTestConfig(newFakeStore())
	addr := startTestHub(t, NewServer(cfg))

	resp := call(t, addr, "ZZ", nil)
	if got := decodeError(t, resp); got != "Unknown command" {
		t.Fatalf("error = %q, want %q", got, "Unknown command")
	}
}

func TestMalformedEnvelopeDropsConnection(t *testing.T) {
	cfg, _, _, _ := newTestConfig(newFakeStore())
	addr := startTestHub(t, NewServer(cfg))

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := wire.Send(conn, []byte("{not json")); err != nil {
		t.Fatalf("send: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = wire.Receive(conn)
	if err == nil {
		t.Fatal("got a response to a malformed envelope, want the connection dropped")
	}
	var werr *wire.Error
	if !errors.As(err, &werr) || werr.Kind != wire.KindClosed {
		t.Fatalf("err = %v, want closed connection", err)
	}
}

func TestStartBookingMismatchMutatesNothing(t *testing.T) {
	fs := newFakeStore()
	cfg, pusher, _, clk := newTestConfig(fs)

	fs.scooters["SCTR-1"] = scooter.Details{ScooterID: "SCTR-1", Status: scooter.StatusBooked, CostMin: 0.5, IPAddress: "10.0.0.1"}
	start := clk.Now()
	b, _ := fs.AddBooking(t.Context(), bookingReq("alice@example.com", "SCTR-1", start, start.Add(30*time.Minute), 0))

	addr := startTestHub(t, NewServer(cfg))

	resp := call(t, addr, "SB", map[string]string{
		"booking_id": b.BookingID.String(),
		"email":      "alice@example.com",
		"scooter_id": "SCTR-9",
	})
	if got := decodeError(t, resp); got == "" {
		t.Fatalf("mismatched start succeeded: %s", resp)
	}

	if got := fs.scooterStatus("SCTR-1"); got != scooter.StatusBooked {
		t.Errorf("scooter status = %q, want untouched %q", got, scooter.StatusBooked)
	}
	stored, _ := fs.GetBooking(t.Context(), b.BookingID)
	if stored.ActualStart != "" {
		t.Errorf("booking gained an actual start: %s", spew.Sdump(stored))
	}
	if len(pusher.pushed()) != 0 {
		t.Errorf("agent was notified on a failed start: %v", pusher.pushed())
	}
}

func TestRideChargesExactlyOnce(t *testing.T) {
	fs := newFakeStore()
	cfg, _, _, clk := newTestConfig(fs)

	fs.scooters["SCTR-1"] = scooter.Details{ScooterID: "SCTR-1", Status: scooter.StatusBooked, CostMin: 0.5, IPAddress: "10.0.0.1"}
	fs.customers["alice@example.com"] = customerWithFunds("alice@example.com", 100)
	start := clk.Now()
	b, _ := fs.AddBooking(t.Context(), bookingReq("alice@example.com", "SCTR-1", start, start.Add(30*time.Minute), 0))

	addr := startTestHub(t, NewServer(cfg))

	resp := call(t, addr, "SB", map[string]string{
		"booking_id": b.BookingID.String(),
		"email":      "alice@example.com",
		"scooter_id": "SCTR-1",
	})
	if got := decodeError(t, resp); got != "" {
		t.Fatalf("start failed: %s", got)
	}
	if got := fs.scooterStatus("SCTR-1"); got != scooter.StatusInUse {
		t.Fatalf("scooter status after start = %q, want %q", got, scooter.StatusInUse)
	}

	clk.Advance(35 * time.Minute)

	resp = call(t, addr, "EB", map[string]string{"booking_id": b.BookingID.String()})
	var done booking.Details
	if err := json.Unmarshal(resp, &done); err != nil {
		t.Fatalf("decode end response %s: %v", resp, err)
	}
	if done.Status != booking.StatusComplete {
		t.Fatalf("booking status = %q, want %q", done.Status, booking.StatusComplete)
	}
	if done.Cost != 17.5 {
		t.Errorf("cost = %v, want 17.5 for a 35 minute ride at 0.5/min", done.Cost)
	}
	if got := fs.transactionCount(); got != 1 {
		t.Fatalf("transaction count = %d, want 1", got)
	}
	cust, _ := fs.GetCustomer(t.Context(), "alice@example.com")
	if cust.Funds != 82.5 {
		t.Errorf("funds = %v, want 82.5", cust.Funds)
	}
	if got := fs.scooterStatus("SCTR-1"); got != scooter.StatusAvailable {
		t.Errorf("scooter status after end = %q, want %q", got, scooter.StatusAvailable)
	}

	// A repeated end must not charge again.
	resp = call(t, addr, "EB", map[string]string{"booking_id": b.BookingID.String()})
	if err := json.Unmarshal(resp, &done); err != nil {
		t.Fatalf("decode repeat end response %s: %v", resp, err)
	}
	if done.Status != booking.StatusComplete {
		t.Errorf("repeat end status = %q, want %q", done.Status, booking.StatusComplete)
	}
	if got := fs.transactionCount(); got != 1 {
		t.Errorf("transaction count after repeat end = %d, want 1", got)
	}
	cust, _ = fs.GetCustomer(t.Context(), "alice@example.com")
	if cust.Funds != 82.5 {
		t.Errorf("funds after repeat end = %v, want 82.5", cust.Funds)
	}
}

func TestGetBookingIDNoMatch(t *testing.T) {
	fs := newFakeStore()
	cfg, _, _, _ := newTestConfig(fs)
	addr := startTestHub(t, NewServer(cfg))

	resp := call(t, addr, "GBI", map[string]string{
		"email":      "nobody@example.com",
		"scooter_id": "SCTR-1",
	})
	if got := decodeError(t, resp); got != "No booking found" {
		t.Fatalf("error = %q, want %q", got, "No booking found")
	}
}

func TestReportFaultNotifiesEngineers(t *testing.T) {
	fs := newFakeStore()
	cfg, pusher, sender, _ := newTestConfig(fs)

	fs.scooters["SCTR-1"] = scooter.Details{ScooterID: "SCTR-1", Status: scooter.StatusAvailable, IPAddress: "10.0.0.1"}
	fs.engineers = []string{"eng1@example.com", "eng2@example.com"}

	addr := startTestHub(t, NewServer(cfg))

	resp := call(t, addr, "RSF", map[string]string{
		"scooter_id":  "SCTR-1",
		"fault_notes": "brake lever loose",
	})
	if got := decodeError(t, resp); got != "" {
		t.Fatalf("fault report failed: %s", got)
	}

	if got := fs.scooterStatus("SCTR-1"); got != scooter.StatusNeedsRepair {
		t.Errorf("scooter status = %q, want %q", got, scooter.StatusNeedsRepair)
	}
	if len(pusher.pushed()) != 1 || !strings.HasSuffix(pusher.pushed()[0], string(scooter.StatusNeedsRepair)) {
		t.Errorf("agent pushes = %v, want one Needs Repair push", pusher.pushed())
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != 1 {
		t.Fatalf("mails sent = %d, want 1", len(sender.sent))
	}
	if got := sender.sent[0].To; len(got) != 3 || got[2] != "ops@example.com" {
		t.Errorf("recipients = %v, want both engineers plus ops", got)
	}
}

func TestResolveFaultReturnsScooterToService(t *testing.T) {
	fs := newFakeStore()
	cfg, _, _, _ := newTestConfig(fs)

	fs.scooters["SCTR-1"] = scooter.Details{ScooterID: "SCTR-1", Status: scooter.StatusNeedsRepair}
	f, _ := fs.ReportFault(t.Context(), "SCTR-1", "brake lever loose")

	addr := startTestHub(t, NewServer(cfg))

	resp := call(t, addr, "RESF", map[string]string{
		"fault_id":   f.FaultID.String(),
		"resolution": "lever replaced",
	})
	if got := decodeError(t, resp); got != "" {
		t.Fatalf("resolve failed: %s", got)
	}
	if got := fs.scooterStatus("SCTR-1"); got != scooter.StatusAvailable {
		t.Errorf("scooter status = %q, want %q", got, scooter.StatusAvailable)
	}
}

func bookingReq(email, scooterID string, start, end time.Time, cost float64) store.AddBookingRequest {
	return store.AddBookingRequest{
		Email:     email,
		ScooterID: scooterID,
		Start:     start.Format(time.RFC3339),
		End:       end.Format(time.RFC3339),
		Cost:      cost,
	}
}

func customerWithFunds(email string, funds float64) customer.Customer {
	return customer.Customer{Email: email, Funds: funds, Role: customer.RoleCustomer}
}
