package notify

import (
	"context"
	"time"

	"github.com/blissend/tempwatch/internal/probe"
)

// Transition names the alert state change an Event describes.
type Transition string

const (
	// TransitionRaised means a reading crossed a bound and an alert began.
	TransitionRaised Transition = "raised"

	// TransitionCleared means a reading recrossed past the hysteresis gap
	// and the alert ended.
	TransitionCleared Transition = "cleared"
)

// Severity levels attached to events.
const (
	SeverityCritical = "critical"
	SeverityInfo     = "info"
)

// Event is a single alert state transition to be delivered. Created by the
// threshold evaluator, consumed by the notifier chain, and dropped after
// delivery or retry exhaustion.
type Event struct {
	Severity   string        `json:"severity"`
	Message    string        `json:"message"`
	Reading    probe.Reading `json:"reading"`
	Transition Transition    `json:"transition"`

	// Breach is the bound involved: "high" | "low".
	Breach string `json:"breach"`

	At time.Time `json:"at"`
}

// Key identifies the event for debounce purposes. Two events with the same
// key inside the debounce window are duplicates.
func (e Event) Key() string {
	return string(e.Transition) + ":" + e.Breach
}

// Notifier delivers alert events. Implementations may retry internally;
// delivery is best-effort and an error means the event was dropped.
type Notifier interface {
	Send(ctx context.Context, e Event) error
}
