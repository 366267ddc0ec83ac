package hub

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/semanticallynull/scootershare/booking"
	"github.com/semanticallynull/scootershare/customer"
	"github.com/semanticallynull/scootershare/fault"
	"github.com/semanticallynull/scootershare/scooter"
	"github.com/semanticallynull/scootershare/store"
	"github.com/semanticallynull/scootershare/transaction"
	"github.com/semanticallynull/scootershare/wire"
)

// fakeStore is an in-memory Store for dispatcher and reconciler tests.
// The guarded writes mirror the real service: completing or cancelling
// anything not Active fails.
type fakeStore struct {
	mu sync.Mutex

	bookings  map[uuid.UUID]booking.Details
	scooters  map[string]scooter.Details
	customers map[string]customer.Customer
	faults    map[uuid.UUID]fault.Details
	txns      []transaction.Transaction
	engineers []string

	statusUpdates []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		bookings:  make(map[uuid.UUID]booking.Details),
		scooters:  make(map[string]scooter.Details),
		customers: make(map[string]customer.Customer),
		faults:    make(map[uuid.UUID]fault.Details),
	}
}

func notActive() error {
	return &store.APIError{StatusCode: 409, Message: "booking is not active"}
}

func (f *fakeStore) GetBooking(_ context.Context, id uuid.UUID) (booking.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return booking.Details{}, store.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) AddBooking(_ context.Context, req store.AddBookingRequest) (booking.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := booking.Details{
		BookingID:   uuid.New(),
		Email:       req.Email,
		ScooterID:   req.ScooterID,
		Start:       req.Start,
		End:         req.End,
		Cost:        req.Cost,
		DepositCost: req.DepositCost,
		Status:      booking.StatusActive,
	}
	f.bookings[b.BookingID] = b
	return b, nil
}

func (f *fakeStore) CancelBooking(_ context.Context, id uuid.UUID) (booking.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return booking.Details{}, store.ErrNotFound
	}
	if b.Status != booking.StatusActive {
		return booking.Details{}, notActive()
	}
	b.Status = booking.StatusCancelled
	f.bookings[id] = b
	return b, nil
}

func (f *fakeStore) StartBooking(_ context.Context, id uuid.UUID, actualStart time.Time) (booking.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return booking.Details{}, store.ErrNotFound
	}
	if b.Status != booking.StatusActive {
		return booking.Details{}, notActive()
	}
	b.ActualStart = actualStart.Format(time.RFC3339)
	f.bookings[id] = b
	return b, nil
}

func (f *fakeStore) CompleteBooking(_ context.Context, id uuid.UUID, actualEnd time.Time, cost float64) (booking.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return booking.Details{}, store.ErrNotFound
	}
	if b.Status != booking.StatusActive {
		return booking.Details{}, notActive()
	}
	b.Status = booking.StatusComplete
	b.ActualEnd = actualEnd.Format(time.RFC3339)
	b.Cost = cost
	f.bookings[id] = b
	return b, nil
}

func (f *fakeStore) GetBookingsForCustomer(_ context.Context, email string) ([]booking.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []booking.Details
	for _, b := range f.bookings {
		if b.Email == email {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) GetBookingsForScooter(_ context.Context, scooterID string) ([]booking.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []booking.Details
	for _, b := range f.bookings {
		if b.ScooterID == scooterID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) GetActiveBookings(context.Context) ([]booking.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []booking.Details
	for _, b := range f.bookings {
		if b.Status == booking.StatusActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) GetBookedSlots(context.Context) ([]booking.TimeSlot, error) {
	return nil, nil
}

func (f *fakeStore) SetBookingCalendarID(_ context.Context, id uuid.UUID, calendarID string) (booking.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return booking.Details{}, store.ErrNotFound
	}
	b.CalendarID = calendarID
	f.bookings[id] = b
	return b, nil
}

func (f *fakeStore) GetCustomer(_ context.Context, email string) (customer.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[email]
	if !ok {
		return customer.Customer{}, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) GetLoginDetails(_ context.Context, email string) (customer.LoginDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[email]
	if !ok {
		return customer.LoginDetails{}, store.ErrNotFound
	}
	return customer.LoginDetails{Email: c.Email, Password: c.PasswordHash, Role: c.Role}, nil
}

func (f *fakeStore) RegisterCustomer(_ context.Context, req store.RegisterCustomerRequest) (customer.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := customer.Customer{
		Email:        req.Email,
		PasswordHash: req.PasswordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNo:      req.PhoneNo,
		Funds:        req.Funds,
		Role:         customer.RoleCustomer,
	}
	f.customers[c.Email] = c
	return c, nil
}

func (f *fakeStore) DeleteCustomer(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.customers[email]; !ok {
		return store.ErrNotFound
	}
	delete(f.customers, email)
	return nil
}

func (f *fakeStore) UpdateCustomerFunds(_ context.Context, email string, funds float64) (customer.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[email]
	if !ok {
		return customer.Customer{}, store.ErrNotFound
	}
	c.Funds = funds
	f.customers[email] = c
	return c, nil
}

func (f *fakeStore) GetAllCustomers(context.Context) ([]customer.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []customer.Customer
	for _, c := range f.customers {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) UpdateCustomerDetails(_ context.Context, email, firstName, lastName, phoneNo string) (customer.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[email]
	if !ok {
		return customer.Customer{}, store.ErrNotFound
	}
	c.FirstName, c.LastName, c.PhoneNo = firstName, lastName, phoneNo
	f.customers[email] = c
	return c, nil
}

func (f *fakeStore) EngineerEmails(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engineers, nil
}

func (f *fakeStore) GetScooter(_ context.Context, id string) (scooter.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.scooters[id]
	if !ok {
		return scooter.Details{}, store.ErrNotFound
	}
	return sc, nil
}

func (f *fakeStore) GetAllScooters(context.Context) ([]scooter.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []scooter.Details
	for _, sc := range f.scooters {
		out = append(out, sc)
	}
	return out, nil
}

func (f *fakeStore) UpdateScooterStatus(_ context.Context, id string, status scooter.Status) (scooter.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.scooters[id]
	if !ok {
		return scooter.Details{}, store.ErrNotFound
	}
	sc.Status = status
	f.scooters[id] = sc
	f.statusUpdates = append(f.statusUpdates, id+":"+string(status))
	return sc, nil
}

func (f *fakeStore) UpdateScooterLocation(_ context.Context, id string, lat, lng float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.scooters[id]
	if !ok {
		return store.ErrNotFound
	}
	sc.Latitude, sc.Longitude = lat, lng
	f.scooters[id] = sc
	return nil
}

func (f *fakeStore) UpdateScooterIP(_ context.Context, id, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.scooters[id]
	if !ok {
		return store.ErrNotFound
	}
	sc.IPAddress = ip
	f.scooters[id] = sc
	return nil
}

func (f *fakeStore) UpdateScooterDetails(_ context.Context, id string, req store.UpdateScooterDetailsRequest) (scooter.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.scooters[id]
	if !ok {
		return scooter.Details{}, store.ErrNotFound
	}
	sc.Make, sc.Colour = req.Make, req.Colour
	sc.CostMin, sc.BatteryPercentage = req.CostMin, req.BatteryPercentage
	f.scooters[id] = sc
	return sc, nil
}

func (f *fakeStore) GetTransaction(_ context.Context, id uuid.UUID) (transaction.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.txns {
		if t.ID == id {
			return t, nil
		}
	}
	return transaction.Transaction{}, store.ErrNotFound
}

func (f *fakeStore) AddTransaction(_ context.Context, email string, amount float64, occurredAt time.Time) (transaction.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := transaction.Transaction{ID: uuid.New(), Email: email, Amount: amount, OccurredAt: occurredAt}
	f.txns = append(f.txns, t)
	return t, nil
}

func (f *fakeStore) GetCustomerTransactions(_ context.Context, email string) ([]transaction.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []transaction.Transaction
	for _, t := range f.txns {
		if t.Email == email {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) GetFault(_ context.Context, id uuid.UUID) (fault.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.faults[id]
	if !ok {
		return fault.Details{}, store.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) GetOpenFaults(context.Context) ([]fault.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fault.Details
	for _, d := range f.faults {
		if d.Status == fault.StatusOpen {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) GetFaultForScooter(_ context.Context, scooterID string) (fault.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.faults {
		if d.ScooterID == scooterID {
			return d, nil
		}
	}
	return fault.Details{}, store.ErrNotFound
}

func (f *fakeStore) ReportFault(_ context.Context, scooterID, notes string) (fault.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, d := range f.faults {
		if d.ScooterID == scooterID && d.Status == fault.StatusOpen {
			d.Notes = notes
			f.faults[id] = d
			return d, nil
		}
	}
	d := fault.Details{
		FaultID:   uuid.New(),
		ScooterID: scooterID,
		Start:     time.Now().Format(time.RFC3339),
		Status:    fault.StatusOpen,
		Notes:     notes,
	}
	f.faults[d.FaultID] = d
	return d, nil
}

func (f *fakeStore) ResolveFault(_ context.Context, id uuid.UUID, resolution string) (fault.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.faults[id]
	if !ok {
		return fault.Details{}, store.ErrNotFound
	}
	d.Status = fault.StatusResolved
	d.Resolution = resolution
	f.faults[id] = d
	return d, nil
}

func (f *fakeStore) transactionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.txns)
}

func (f *fakeStore) scooterStatus(id string) scooter.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scooters[id].Status
}

// fakePusher records agent pushes.
type fakePusher struct {
	mu       sync.Mutex
	statuses []string
	locates  []string
}

func (f *fakePusher) PushStatus(_ context.Context, addr string, status scooter.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, addr+":"+string(status))
	return nil
}

func (f *fakePusher) Locate(_ context.Context, addr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locates = append(f.locates, addr)
	return nil
}

func (f *fakePusher) pushed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.statuses...)
}

// fakeMail records sent messages.
type fakeMail struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      []string
	Subject string
}

func (f *fakeMail) Send(to []string, subject, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Subject: subject})
	return nil
}

// startTestHub serves a Server on loopback and returns its address.
func startTestHub(t *testing.T, s *Server) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return lis.Addr().String()
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func call(t *testing.T, addr, command string, payload any) []byte {
	t.Helper()
	c := wire.Client{}
	resp, err := c.Call(context.Background(), addr, command, payload)
	if err != nil {
		t.Fatalf("call %s: %v", command, err)
	}
	return resp
}
