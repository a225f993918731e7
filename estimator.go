package main

import (
	"math"
	"sort"
	"sync"
	"time"
)

const (
	rateWindow     = 12
	maxAnchorAge   = 3 * time.Hour
	estimateStale  = 30 * time.Minute
	maxRatePerHour = 150.0
	minRatePerHour = 0.1
)

// ChargeEstimate is a time-to-empty or time-to-full guess for the phone.
type ChargeEstimate struct {
	Valid       bool
	Phase       ChargeState
	Hours       float64
	RatePerHour float64
	Samples     int
}

type rateSample struct {
	level float64
	at    time.Time
}

// phaseRate tracks the battery slope for one direction of travel. The
// phone reports whole percents, so a slope is only taken once the level
// has moved from the anchor sample.
type phaseRate struct {
	anchor   rateSample
	ema      float64
	recent   []float64
	accepted int
	lastRate time.Time
}

func (p *phaseRate) reset() {
	*p = phaseRate{}
}

func (p *phaseRate) add(level float64, at time.Time, charging bool) {
	if p.anchor.at.IsZero() || at.Sub(p.anchor.at) > maxAnchorAge || !at.After(p.anchor.at) {
		p.anchor = rateSample{level: level, at: at}
		return
	}
	delta := p.anchor.level - level
	if charging {
		delta = level - p.anchor.level
	}
	if delta < 0.8 {
		if delta < 0 {
			// Moved the wrong way; start over from here.
			p.anchor = rateSample{level: level, at: at}
		}
		return
	}

	slope := delta / at.Sub(p.anchor.at).Hours()
	p.anchor = rateSample{level: level, at: at}
	if slope > maxRatePerHour {
		return
	}
	if len(p.recent) >= 3 {
		if med := median(p.recent); med > 0.05 {
			if ratio := slope / med; ratio > 3.2 || ratio < 0.25 {
				return
			}
		}
	}

	p.accepted++
	if len(p.recent) >= rateWindow {
		copy(p.recent, p.recent[1:])
		p.recent[len(p.recent)-1] = slope
	} else {
		p.recent = append(p.recent, slope)
	}
	if p.accepted == 1 {
		p.ema = slope
	} else {
		alpha := 0.35
		if p.accepted <= 3 {
			alpha = 0.55
		}
		p.ema = alpha*slope + (1-alpha)*p.ema
	}
	p.lastRate = at
}

func (p *phaseRate) rate() float64 {
	if p.accepted == 0 {
		return 0
	}
	if p.accepted < 3 {
		return p.ema
	}
	return 0.55*p.ema + 0.45*median(p.recent)
}

// RateEstimator turns successive readings into a charge or discharge
// rate. Readings in the unknown state are ignored and a change of
// direction starts the new phase from scratch.
type RateEstimator struct {
	mu        sync.Mutex
	phase     ChargeState
	charge    phaseRate
	discharge phaseRate
	lastLevel float64
	lastAt    time.Time
}

func (e *RateEstimator) Record(st PhoneStatus, at time.Time) ChargeEstimate {
	e.mu.Lock()
	defer e.mu.Unlock()

	phase := st.ChargeState()
	if phase != e.phase {
		e.charge.reset()
		e.discharge.reset()
		e.phase = phase
	}
	e.lastLevel = st.Battery
	e.lastAt = at

	switch phase {
	case ChargeCharging:
		e.charge.add(st.Battery, at, true)
	case ChargeDischarging:
		e.discharge.add(st.Battery, at, false)
	}
	return e.estimateLocked(at)
}

func (e *RateEstimator) Estimate(now time.Time) ChargeEstimate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.estimateLocked(now)
}

func (e *RateEstimator) estimateLocked(now time.Time) ChargeEstimate {
	est := ChargeEstimate{Phase: e.phase}
	var p *phaseRate
	var remaining float64
	switch e.phase {
	case ChargeCharging:
		p, remaining = &e.charge, 100-e.lastLevel
	case ChargeDischarging:
		p, remaining = &e.discharge, e.lastLevel
	default:
		return est
	}

	est.Samples = p.accepted
	est.RatePerHour = p.rate()
	if est.RatePerHour < minRatePerHour || remaining <= 0 || p.accepted < 2 {
		return est
	}
	if now.Sub(p.lastRate) > estimateStale {
		return est
	}
	est.Hours = min(remaining/est.RatePerHour, 200)
	est.Valid = true
	return est
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
