package agent

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

var ErrNotEnoughSamples = errors.New("agent: not enough battery samples")

// maxBatterySamples bounds the regression window; at one sample a
// minute this is two hours of history.
const maxBatterySamples = 120

type batterySample struct {
	at    time.Time
	level float64
}

// BatteryMonitor estimates drain rate from periodic battery readings by
// fitting a line through the recent samples. A single noisy reading
// therefore cannot swing the estimate.
type BatteryMonitor struct {
	mu      sync.Mutex
	samples []batterySample
}

// Observe records a battery level reading taken at the given time.
func (m *BatteryMonitor) Observe(at time.Time, level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, batterySample{at: at, level: level})
	if len(m.samples) > maxBatterySamples {
		m.samples = m.samples[len(m.samples)-maxBatterySamples:]
	}
}

// DrainRate returns the estimated battery drain in percentage points
// per minute, as a positive number. It needs at least two samples.
func (m *BatteryMonitor) DrainRate() (float64, error) {
	m.mu.Lock()
	samples := make([]batterySample, len(m.samples))
	copy(samples, m.samples)
	m.mu.Unlock()

	if len(samples) < 2 {
		return 0, ErrNotEnoughSamples
	}

	series := make(stats.Series, len(samples))
	for i, s := range samples {
		series[i] = stats.Coordinate{
			X: s.at.Sub(samples[0].at).Minutes(),
			Y: s.level,
		}
	}

	fitted, err := stats.LinearRegression(series)
	if err != nil {
		return 0, err
	}

	first, last := fitted[0], fitted[len(fitted)-1]
	if last.X == first.X {
		return 0, ErrNotEnoughSamples
	}
	slope := (last.Y - first.Y) / (last.X - first.X)
	return math.Max(0, -slope), nil
}

// TimeToEmpty projects how long the battery lasts at the current drain
// rate from the most recent reading.
func (m *BatteryMonitor) TimeToEmpty() (time.Duration, error) {
	rate, err := m.DrainRate()
	if err != nil {
		return 0, err
	}
	if rate == 0 {
		return 0, ErrNotEnoughSamples
	}

	m.mu.Lock()
	level := m.samples[len(m.samples)-1].level
	m.mu.Unlock()

	minutes := level / rate
	return time.Duration(minutes * float64(time.Minute)), nil
}
