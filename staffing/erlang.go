// Package staffing converts predicted call volumes into agent requirements
// with the Erlang C queueing model.
package staffing

import (
	"math"
	"time"

	customerrors "fte-forecaster/errors"
	"fte-forecaster/models"
)

const (
	// DefaultIntervalSeconds is one nine-hour business day.
	DefaultIntervalSeconds = 32400
	// DefaultMaxAgents caps the agent search.
	DefaultMaxAgents = 500
	// minErlangs keeps the offered load strictly positive.
	minErlangs = 0.01
)

// Params are the staffing targets applied to every day.
type Params struct {
	TargetWaitSeconds  float64
	TargetServiceLevel float64
	Shrinkage          float64
	IntervalSeconds    float64
	MaxAgents          int
	// AHTOverrideSeconds replaces each series' historical AHT when positive.
	AHTOverrideSeconds float64
}

// DefaultParams returns the planning defaults.
func DefaultParams() Params {
	return Params{
		TargetWaitSeconds:  30,
		TargetServiceLevel: 0.8,
		Shrinkage:          0.3,
		IntervalSeconds:    DefaultIntervalSeconds,
		MaxAgents:          DefaultMaxAgents,
	}
}

// Validate fails fast on values the solver cannot work with.
func (p Params) Validate() error {
	switch {
	case p.TargetWaitSeconds < 0 || math.IsNaN(p.TargetWaitSeconds):
		return invalid("target_wait_seconds", p.TargetWaitSeconds, "must be >= 0")
	case !(p.TargetServiceLevel > 0 && p.TargetServiceLevel <= 1):
		return invalid("target_service_level", p.TargetServiceLevel, "must be in (0, 1]")
	case !(p.Shrinkage >= 0 && p.Shrinkage < 1):
		return invalid("shrinkage", p.Shrinkage, "must be in [0, 1)")
	case !(p.IntervalSeconds > 0):
		return invalid("interval_seconds", p.IntervalSeconds, "must be > 0")
	case p.MaxAgents < 1:
		return invalid("max_agents", p.MaxAgents, "must be >= 1")
	case p.AHTOverrideSeconds < 0:
		return invalid("aht_override_seconds", p.AHTOverrideSeconds, "must be >= 0")
	}
	return nil
}

func invalid(name string, value any, reason string) error {
	return &customerrors.InvalidParameterError{Name: name, Value: value, Reason: reason}
}

// ErlangC returns the probability that an arriving call has to wait, given
// the offered load in erlangs and the number of agents. An unstable system
// (agents <= erlangs) and any numeric overflow both report saturation (1.0).
func ErlangC(erlangs float64, agents int) float64 {
	n := float64(agents)
	if n <= erlangs {
		return 1.0
	}

	// term holds erlangs^k / k!, built incrementally.
	term := 1.0
	sum := 0.0
	for k := 0; k < agents; k++ {
		sum += term
		term *= erlangs / float64(k+1)
	}
	top := term * n / (n - erlangs)
	p := top / (sum + top)
	if math.IsNaN(p) || math.IsInf(p, 0) || math.IsInf(sum, 0) || math.IsInf(top, 0) {
		return 1.0
	}
	return p
}

// ServiceLevel returns the fraction of calls answered within the target
// wait for the given staffing. An overflowing exponential term yields 0.
func ServiceLevel(erlangs float64, agents int, targetWaitSeconds, ahtSeconds float64) float64 {
	decay := math.Exp(-(float64(agents) - erlangs) * (targetWaitSeconds / ahtSeconds))
	if math.IsInf(decay, 0) || math.IsNaN(decay) {
		return 0
	}
	return 1 - ErlangC(erlangs, agents)*decay
}

// EstimateStaffing finds the fewest agents meeting the target service level
// and grosses the result up for shrinkage.
//
// When the search reaches params.MaxAgents without meeting the target, the
// returned estimate is flagged Unresolved, holds the last evaluated staffing,
// and the error is an *errors.UnresolvedStaffingError.
func EstimateStaffing(date time.Time, volume, ahtSeconds float64, params Params) (models.StaffingEstimate, error) {
	if err := params.Validate(); err != nil {
		return models.StaffingEstimate{}, err
	}
	if volume < 0 || math.IsNaN(volume) || math.IsInf(volume, 0) {
		return models.StaffingEstimate{}, invalid("volume", volume, "must be a non-negative number")
	}
	if !(ahtSeconds > 0) || math.IsInf(ahtSeconds, 0) {
		return models.StaffingEstimate{}, invalid("aht_seconds", ahtSeconds, "must be > 0")
	}

	erlangs := math.Max(volume*ahtSeconds/params.IntervalSeconds, minErlangs)

	agents := max(1, int(math.Ceil(erlangs)))
	level := 0.0
	resolved := false
	for ; agents <= params.MaxAgents; agents++ {
		level = ServiceLevel(erlangs, agents, params.TargetWaitSeconds, ahtSeconds)
		if level >= params.TargetServiceLevel {
			resolved = true
			break
		}
	}
	if !resolved {
		// The loop stepped past the cap; report the last agent count tried,
		// or the stable minimum when even that exceeds the cap.
		agents = max(params.MaxAgents, int(math.Ceil(erlangs)))
	}

	est := models.StaffingEstimate{
		Date:                 date,
		PredictedVolume:      volume,
		AHTSeconds:           ahtSeconds,
		Erlangs:              round(erlangs, 2),
		AgentsNet:            agents,
		AgentsAdjusted:       int(math.Ceil(float64(agents) / (1 - params.Shrinkage))),
		AchievedServiceLevel: round(level, 4),
		Unresolved:           !resolved,
	}
	if !resolved {
		return est, &customerrors.UnresolvedStaffingError{
			MaxAgents:            params.MaxAgents,
			Erlangs:              est.Erlangs,
			AchievedServiceLevel: est.AchievedServiceLevel,
		}
	}
	return est, nil
}

func round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
