package hub

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the hub's Prometheus instruments. A nil registerer
// gives unregistered instruments, which tests use.
type Metrics struct {
	commands        *prometheus.CounterVec
	commandErrors   *prometheus.CounterVec
	unknownCommands prometheus.Counter
	pushFailures    prometheus.Counter
	promotions      prometheus.Counter
	sweptBookings   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_commands_total",
			Help: "Commands dispatched, by command code.",
		}, []string{"command"}),
		commandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_command_errors_total",
			Help: "Commands that returned an error response, by command code.",
		}, []string{"command"}),
		unknownCommands: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_unknown_commands_total",
			Help: "Envelopes carrying an unrecognised command code.",
		}),
		pushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_agent_push_failures_total",
			Help: "Best-effort pushes to scooter agents that failed.",
		}),
		promotions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_booking_promotions_total",
			Help: "Scooters promoted to Booked by the status poll loop.",
		}),
		sweptBookings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_swept_bookings_total",
			Help: "Expired bookings force-completed by the hourly sweep.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.commands,
			m.commandErrors,
			m.unknownCommands,
			m.pushFailures,
			m.promotions,
			m.sweptBookings,
		)
	}
	return m
}
