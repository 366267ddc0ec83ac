package agent

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestDrainRateFromSteadyDischarge(t *testing.T) {
	m := &BatteryMonitor{}
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	// Half a point per minute over twenty minutes.
	for i := 0; i <= 20; i++ {
		m.Observe(start.Add(time.Duration(i)*time.Minute), 80-0.5*float64(i))
	}

	rate, err := m.DrainRate()
	if err != nil {
		t.Fatalf("drain rate: %v", err)
	}
	if math.Abs(rate-0.5) > 0.01 {
		t.Errorf("rate = %v, want 0.5/min", rate)
	}

	ttl, err := m.TimeToEmpty()
	if err != nil {
		t.Fatalf("time to empty: %v", err)
	}
	want := 140 * time.Minute // 70 points left at 0.5/min
	if diff := (ttl - want).Abs(); diff > 2*time.Minute {
		t.Errorf("time to empty = %v, want about %v", ttl, want)
	}
}

func TestDrainRateIgnoresNoise(t *testing.T) {
	m := &BatteryMonitor{}
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	levels := []float64{80, 79.4, 79.1, 78.4, 78.2, 77.3, 77.1, 76.5, 76.1, 75.4}
	for i, level := range levels {
		m.Observe(start.Add(time.Duration(i)*time.Minute), level)
	}

	rate, err := m.DrainRate()
	if err != nil {
		t.Fatalf("drain rate: %v", err)
	}
	if rate < 0.4 || rate > 0.6 {
		t.Errorf("rate = %v, want roughly 0.5/min despite jitter", rate)
	}
}

func TestDrainRateNeedsTwoSamples(t *testing.T) {
	m := &BatteryMonitor{}
	if _, err := m.DrainRate(); !errors.Is(err, ErrNotEnoughSamples) {
		t.Fatalf("err = %v, want ErrNotEnoughSamples", err)
	}

	m.Observe(time.Now(), 80)
	if _, err := m.DrainRate(); !errors.Is(err, ErrNotEnoughSamples) {
		t.Fatalf("err after one sample = %v, want ErrNotEnoughSamples", err)
	}
}

func TestChargingReportsZeroDrain(t *testing.T) {
	m := &BatteryMonitor{}
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	for i := 0; i <= 10; i++ {
		m.Observe(start.Add(time.Duration(i)*time.Minute), 50+float64(i))
	}

	rate, err := m.DrainRate()
	if err != nil {
		t.Fatalf("drain rate: %v", err)
	}
	if rate != 0 {
		t.Errorf("rate = %v, want 0 while charging", rate)
	}
}
