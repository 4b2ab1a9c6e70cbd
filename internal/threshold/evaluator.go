package threshold

import (
	"errors"
	"fmt"

	"github.com/blissend/tempwatch/internal/notify"
	"github.com/blissend/tempwatch/internal/probe"
)

// ErrInvalidConfig marks configuration rejected at startup. Fatal: the
// process exits non-zero before entering the loop.
var ErrInvalidConfig = errors.New("invalid threshold config")

// State is the alert state owned by the evaluator.
type State string

const (
	StateNormal   State = "normal"
	StateAlerting State = "alerting"
)

// Breach names the bound an alert tripped, so the clear condition knows
// which side of the dead-band to test.
type Breach string

const (
	BreachNone Breach = ""
	BreachHigh Breach = "high"
	BreachLow  Breach = "low"
)

// Status is the evaluator state carried between ticks. The zero value is
// the implicit prior for the first reading after startup.
type Status struct {
	State  State
	Breach Breach
}

// Zero returns the startup Status: Normal, no breach.
func Zero() Status {
	return Status{State: StateNormal, Breach: BreachNone}
}

// Config holds the alert bounds. Comparisons against Low and High are
// inclusive; Hysteresis is the dead-band an alert must recross to clear.
type Config struct {
	Low        float64
	High       float64
	Hysteresis float64
}

// Validate rejects structurally impossible bounds.
func (c Config) Validate() error {
	if c.Hysteresis < 0 {
		return fmt.Errorf("%w: hysteresis %v is negative", ErrInvalidConfig, c.Hysteresis)
	}
	if c.Low >= c.High {
		return fmt.Errorf("%w: low %v must be below high %v", ErrInvalidConfig, c.Low, c.High)
	}
	return nil
}

// Evaluate compares one reading against the bounds and returns the new
// status plus the transition event, if any. Pure function of (config,
// reading, prior); the caller owns the Status and threads it between calls.
//
// Transitions:
//
//	Normal → Alerting   when value >= High or value <= Low (inclusive)
//	Alerting → Normal   when value recrosses past the bound adjusted by
//	                    the hysteresis gap (value <= High-Hysteresis for a
//	                    high breach, value >= Low+Hysteresis for a low one)
//
// A reading inside the dead-band keeps the alert active — that is the
// anti-flap guarantee.
func Evaluate(c Config, r probe.Reading, prior Status) (Status, *notify.Event) {
	switch prior.State {
	case StateAlerting:
		if cleared(c, r.Value, prior.Breach) {
			next := Status{State: StateNormal, Breach: BreachNone}
			return next, clearedEvent(c, r, prior.Breach)
		}
		return prior, nil

	default: // StateNormal, including the zero value
		if breach := breached(c, r.Value); breach != BreachNone {
			next := Status{State: StateAlerting, Breach: breach}
			return next, raisedEvent(c, r, breach)
		}
		return Status{State: StateNormal, Breach: BreachNone}, nil
	}
}

func breached(c Config, v float64) Breach {
	switch {
	case v >= c.High:
		return BreachHigh
	case v <= c.Low:
		return BreachLow
	default:
		return BreachNone
	}
}

func cleared(c Config, v float64, b Breach) bool {
	switch b {
	case BreachHigh:
		return v <= c.High-c.Hysteresis
	case BreachLow:
		return v >= c.Low+c.Hysteresis
	default:
		return true
	}
}

func raisedEvent(c Config, r probe.Reading, b Breach) *notify.Event {
	bound, word := c.High, "above"
	if b == BreachLow {
		bound, word = c.Low, "below"
	}
	return &notify.Event{
		Severity: notify.SeverityCritical,
		Message: fmt.Sprintf("temperature %v%s at %s is %s the %v%s bound",
			r.Value, r.Unit, site(r), word, bound, r.Unit),
		Reading:    r,
		Transition: notify.TransitionRaised,
		Breach:     string(b),
		At:         r.Timestamp,
	}
}

func clearedEvent(c Config, r probe.Reading, b Breach) *notify.Event {
	bound := c.High
	if b == BreachLow {
		bound = c.Low
	}
	return &notify.Event{
		Severity: notify.SeverityInfo,
		Message: fmt.Sprintf("temperature %v%s at %s is back within the %v%s bound",
			r.Value, r.Unit, site(r), bound, r.Unit),
		Reading:    r,
		Transition: notify.TransitionCleared,
		Breach:     string(b),
		At:         r.Timestamp,
	}
}

func site(r probe.Reading) string {
	if r.Site == "" {
		return "site"
	}
	return r.Site
}
