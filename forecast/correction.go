package forecast

import (
	"fmt"
	"time"

	"fte-forecaster/calendar"
)

// CorrectionStrategy names how a corrected value is computed.
type CorrectionStrategy string

// WindowMean replaces the value with the mean of the other observations in
// the rule's window.
const WindowMean CorrectionStrategy = "window_mean"

// Correction replaces the true volume of one known anomalous date before
// evaluation. It is a dated heuristic, not anomaly detection: every rule is
// listed explicitly in configuration.
type Correction struct {
	Date        time.Time
	WindowStart time.Time
	WindowEnd   time.Time
	Strategy    CorrectionStrategy
}

// DefaultCorrections holds the single known anomaly of the 2025 history.
func DefaultCorrections() []Correction {
	return []Correction{{
		Date:        calendar.Date(2025, time.April, 21),
		WindowStart: calendar.Date(2025, time.April, 16),
		WindowEnd:   calendar.Date(2025, time.April, 25),
		Strategy:    WindowMean,
	}}
}

// Validate checks the rule is well formed.
func (c Correction) Validate() error {
	if c.Strategy != WindowMean {
		return fmt.Errorf("unknown correction strategy %q", c.Strategy)
	}
	if c.WindowEnd.Before(c.WindowStart) {
		return fmt.Errorf("correction window for %s ends before it starts", c.Date.Format(calendar.DateLayout))
	}
	if c.Date.Before(c.WindowStart) || c.Date.After(c.WindowEnd) {
		return fmt.Errorf("correction date %s outside its window", c.Date.Format(calendar.DateLayout))
	}
	return nil
}

// applyCorrections returns a copy of truth (aligned with evalDates) with
// every matching rule applied. Window values come from the evaluation window
// only, before any correction. A rule whose window holds no other evaluated
// day leaves the value as is.
func applyCorrections(corrections []Correction, evalDates []time.Time, truth []float64) []float64 {
	out := append([]float64(nil), truth...)
	for _, c := range corrections {
		pos := -1
		for i, d := range evalDates {
			if d.Equal(c.Date) {
				pos = i
				break
			}
		}
		if pos < 0 {
			continue
		}

		sum, n := 0.0, 0
		for i, d := range evalDates {
			if d.Equal(c.Date) || d.Before(c.WindowStart) || d.After(c.WindowEnd) {
				continue
			}
			sum += truth[i]
			n++
		}
		if n > 0 {
			out[pos] = sum / float64(n)
		}
	}
	return out
}
