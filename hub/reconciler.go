package hub

import (
	"context"
	"log/slog"
	"time"

	"github.com/semanticallynull/scootershare/booking"
	"github.com/semanticallynull/scootershare/scooter"
)

const (
	// DefaultPollInterval is how often the status poll reconciles fleet
	// state against the booking schedule.
	DefaultPollInterval = 5 * time.Second
	// DefaultSweepInterval is how often expired Active bookings are
	// force-completed.
	DefaultSweepInterval = time.Hour
)

// Reconciler runs the hub's background loops. The status poll owns
// lastPushed exclusively: no handler ever touches it, so the loop needs
// no locking.
type Reconciler struct {
	log     *slog.Logger
	store   Store
	agents  AgentPusher
	metrics *Metrics

	agentPort     int
	pollInterval  time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	// lastPushed maps scooter id to the status most recently pushed to
	// its agent, so unchanged state is not re-sent every tick.
	lastPushed map[string]scooter.Status
}

func NewReconciler(cfg Config) *Reconciler {
	r := &Reconciler{
		log:           cfg.Logger,
		store:         cfg.Store,
		agents:        cfg.Agents,
		metrics:       cfg.Metrics,
		agentPort:     cfg.AgentPort,
		pollInterval:  DefaultPollInterval,
		sweepInterval: DefaultSweepInterval,
		now:           cfg.Now,
		lastPushed:    make(map[string]scooter.Status),
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(nil)
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// RunStatusPoll drives the status poll until ctx is cancelled.
func (r *Reconciler) RunStatusPoll(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.PollOnce(ctx)
		}
	}
}

// PollOnce reconciles once: push status changes to agents, and promote
// Available scooters whose booking window (including the pre-start
// lead) has arrived. This loop is the only writer of the
// Available-to-Booked promotion.
func (r *Reconciler) PollOnce(ctx context.Context) {
	scooters, err := r.store.GetAllScooters(ctx)
	if err != nil {
		r.log.Error("status poll: failed to list scooters", "error", err)
		return
	}
	active, err := r.store.GetActiveBookings(ctx)
	if err != nil {
		r.log.Error("status poll: failed to list active bookings", "error", err)
		return
	}

	now := r.now()
	byScooter := make(map[string][]booking.Details, len(active))
	for _, b := range active {
		byScooter[b.ScooterID] = append(byScooter[b.ScooterID], b)
	}

	for _, sc := range scooters {
		status := sc.Status

		if status == scooter.StatusAvailable && r.windowOpen(byScooter[sc.ScooterID], now) {
			next, err := scooter.Transition(status, scooter.EventBookingWindow)
			if err != nil {
				r.log.Error("status poll: illegal promotion", "scooterID", sc.ScooterID, "error", err)
				continue
			}
			if _, err := r.store.UpdateScooterStatus(ctx, sc.ScooterID, next); err != nil {
				r.log.Error("status poll: failed to promote scooter", "scooterID", sc.ScooterID, "error", err)
				continue
			}
			r.metrics.promotions.Inc()
			r.log.Info("promoted scooter for upcoming booking", "scooterID", sc.ScooterID)
			status = next
		}

		if last, ok := r.lastPushed[sc.ScooterID]; !ok || last != status {
			r.push(ctx, sc, status)
		}
	}
}

// windowOpen reports whether any of the scooter's active bookings is in
// its pre-start lead or already underway.
func (r *Reconciler) windowOpen(bookings []booking.Details, now time.Time) bool {
	for _, b := range bookings {
		start, end, err := b.Window()
		if err != nil {
			r.log.Error("status poll: unparseable booking window", "bookingID", b.BookingID, "error", err)
			continue
		}
		if !now.Before(start.Add(-booking.PreBookingLead)) && !now.After(end) {
			return true
		}
	}
	return false
}

func (r *Reconciler) push(ctx context.Context, sc scooter.Details, status scooter.Status) {
	// No cache entry without a delivery; a scooter that registers an
	// address later still gets the current status on the next poll.
	if sc.IPAddress == "" {
		return
	}
	addr := agentAddr(sc.IPAddress, r.agentPort)
	if err := r.agents.PushStatus(ctx, addr, status); err != nil {
		r.metrics.pushFailures.Inc()
		r.log.Warn("status poll: failed to push status", "scooterID", sc.ScooterID, "addr", addr, "error", err)
		return
	}
	r.lastPushed[sc.ScooterID] = status
}

// RunSweep force-completes expired bookings on a fixed interval, with
// one pass at startup to clear anything left over from downtime.
func (r *Reconciler) RunSweep(ctx context.Context) {
	r.SweepOnce(ctx)

	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.SweepOnce(ctx)
		}
	}
}

// SweepOnce completes every Active booking whose scheduled end has
// passed. Swept bookings keep their pre-agreed cost: the rider never
// ended the ride, so there is no usage to meter.
func (r *Reconciler) SweepOnce(ctx context.Context) {
	active, err := r.store.GetActiveBookings(ctx)
	if err != nil {
		r.log.Error("sweep: failed to list active bookings", "error", err)
		return
	}

	now := r.now()
	for _, b := range active {
		_, end, err := b.Window()
		if err != nil {
			r.log.Error("sweep: unparseable booking window", "bookingID", b.BookingID, "error", err)
			continue
		}
		if !now.After(end) {
			continue
		}
		if _, err := r.store.CompleteBooking(ctx, b.BookingID, end, b.Cost); err != nil {
			r.log.Error("sweep: failed to complete expired booking", "bookingID", b.BookingID, "error", err)
			continue
		}
		r.metrics.sweptBookings.Inc()
		r.log.Info("completed expired booking", "bookingID", b.BookingID, "scooterID", b.ScooterID)
		r.release(ctx, b.ScooterID)
	}
}

// release returns a scooter to Available after its booking was swept.
// The status poll picks up the change and notifies the agent.
func (r *Reconciler) release(ctx context.Context, scooterID string) {
	sc, err := r.store.GetScooter(ctx, scooterID)
	if err != nil {
		r.log.Error("sweep: failed to load scooter for release", "scooterID", scooterID, "error", err)
		return
	}
	next, err := scooter.Transition(sc.Status, scooter.EventEndRide)
	if err != nil {
		// Needs Repair and Repairing stay put.
		return
	}
	if next == sc.Status {
		return
	}
	if _, err := r.store.UpdateScooterStatus(ctx, scooterID, next); err != nil {
		r.log.Error("sweep: failed to release scooter", "scooterID", scooterID, "error", err)
	}
}
