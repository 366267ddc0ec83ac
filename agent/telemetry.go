package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Telemetry samples the battery on an interval, pushes the level to the
// hub, and surfaces the drain estimate locally.
type Telemetry struct {
	Log      *slog.Logger
	Hub      *HubClient
	State    *State
	Monitor  *BatteryMonitor
	Interval time.Duration
	Now      func() time.Time
}

func (t *Telemetry) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Run reports until ctx is cancelled.
func (t *Telemetry) Run(ctx context.Context) {
	interval := t.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.reportOnce(ctx)
		}
	}
}

// reportOnce takes one battery reading, refreshes the drain estimate,
// and pushes the details to the hub. Real hardware supplies the
// reading; this build reads the cached value, so the loop only reports
// what the hub already set.
func (t *Telemetry) reportOnce(ctx context.Context) (time.Duration, bool) {
	info := t.State.Info()
	t.Monitor.Observe(t.now(), float64(info.BatteryPercentage))

	var remaining time.Duration
	var haveEstimate bool
	rate, err := t.Monitor.DrainRate()
	switch {
	case errors.Is(err, ErrNotEnoughSamples):
		// Not enough history yet.
	case err != nil:
		t.Log.Warn("failed to estimate battery drain", "error", err)
	case rate > 0:
		left, err := t.Monitor.TimeToEmpty()
		if err == nil {
			remaining = left
			haveEstimate = true
			t.Log.Info("battery estimate",
				"level", info.BatteryPercentage,
				"drainPerMinute", rate,
				"timeToEmpty", left.Round(time.Minute))
		}
	default:
		t.Log.Info("battery holding steady", "level", info.BatteryPercentage)
	}

	if err := t.Hub.ReportDetails(ctx, info); err != nil {
		t.Log.Warn("failed to report battery level", "error", err)
	}
	return remaining, haveEstimate
}
