package threshold

import (
	"errors"
	"testing"
	"time"

	"github.com/blissend/tempwatch/internal/notify"
	"github.com/blissend/tempwatch/internal/probe"
)

func reading(v float64) probe.Reading {
	return probe.Reading{Timestamp: time.Unix(1700000000, 0).UTC(), Value: v, Unit: "C", Site: "dc-1"}
}

var bounds = Config{Low: 0, High: 80, Hysteresis: 2}

// --- Config.Validate --------------------------------------------------------

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Low: 0, High: 80, Hysteresis: 2}, false},
		{"zero hysteresis ok", Config{Low: 10, High: 20, Hysteresis: 0}, false},
		{"negative hysteresis", Config{Low: 0, High: 80, Hysteresis: -1}, true},
		{"low equals high", Config{Low: 80, High: 80, Hysteresis: 2}, true},
		{"low above high", Config{Low: 90, High: 80, Hysteresis: 2}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

// --- single-step transitions ------------------------------------------------

func TestEvaluate_Transitions(t *testing.T) {
	tests := []struct {
		name       string
		value      float64
		prior      Status
		wantState  State
		wantBreach Breach
		wantEvent  bool
		wantTrans  notify.Transition
	}{
		{"in band stays normal", 40, Zero(), StateNormal, BreachNone, false, ""},
		{"just under high stays normal", 79.9, Zero(), StateNormal, BreachNone, false, ""},
		{"at high bound raises (inclusive)", 80, Zero(), StateAlerting, BreachHigh, true, notify.TransitionRaised},
		{"above high raises", 82, Zero(), StateAlerting, BreachHigh, true, notify.TransitionRaised},
		{"at low bound raises (inclusive)", 0, Zero(), StateAlerting, BreachLow, true, notify.TransitionRaised},
		{"below low raises", -5, Zero(), StateAlerting, BreachLow, true, notify.TransitionRaised},
		{"alerting stays above bound", 85, Status{StateAlerting, BreachHigh}, StateAlerting, BreachHigh, false, ""},
		{"alerting in dead-band does not clear", 79, Status{StateAlerting, BreachHigh}, StateAlerting, BreachHigh, false, ""},
		{"alerting at adjusted bound clears (inclusive)", 78, Status{StateAlerting, BreachHigh}, StateNormal, BreachNone, true, notify.TransitionCleared},
		{"alerting below adjusted bound clears", 77, Status{StateAlerting, BreachHigh}, StateNormal, BreachNone, true, notify.TransitionCleared},
		{"low alert in dead-band does not clear", 1, Status{StateAlerting, BreachLow}, StateAlerting, BreachLow, false, ""},
		{"low alert clears past dead-band", 2, Status{StateAlerting, BreachLow}, StateNormal, BreachNone, true, notify.TransitionCleared},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, ev := Evaluate(bounds, reading(tc.value), tc.prior)

			if next.State != tc.wantState {
				t.Errorf("State = %q, want %q", next.State, tc.wantState)
			}
			if next.Breach != tc.wantBreach {
				t.Errorf("Breach = %q, want %q", next.Breach, tc.wantBreach)
			}
			if tc.wantEvent {
				if ev == nil {
					t.Fatal("expected an event, got nil")
				}
				if ev.Transition != tc.wantTrans {
					t.Errorf("Transition = %q, want %q", ev.Transition, tc.wantTrans)
				}
			} else if ev != nil {
				t.Fatalf("expected no event, got %+v", ev)
			}
		})
	}
}

// --- multi-tick scenarios ---------------------------------------------------

// Bounds [0,80], hysteresis 2, readings [70, 82, 79, 77]:
// exactly one raised and one cleared event, no flapping in between.
func TestEvaluate_HysteresisScenario(t *testing.T) {
	readings := []float64{70, 82, 79, 77}
	wantStates := []State{StateNormal, StateAlerting, StateAlerting, StateNormal}

	st := Zero()
	var raised, cleared int
	for i, v := range readings {
		var ev *notify.Event
		st, ev = Evaluate(bounds, reading(v), st)

		if st.State != wantStates[i] {
			t.Fatalf("reading %v: State = %q, want %q", v, st.State, wantStates[i])
		}
		if ev != nil {
			switch ev.Transition {
			case notify.TransitionRaised:
				raised++
			case notify.TransitionCleared:
				cleared++
			}
		}
	}

	if raised != 1 || cleared != 1 {
		t.Errorf("raised = %d, cleared = %d, want exactly 1 each", raised, cleared)
	}
}

// Readings strictly between the bounds never leave Normal.
func TestEvaluate_InBandNeverAlerts(t *testing.T) {
	st := Zero()
	for _, v := range []float64{0.1, 10, 40, 60, 79.99} {
		var ev *notify.Event
		st, ev = Evaluate(bounds, reading(v), st)
		if st.State != StateNormal || ev != nil {
			t.Fatalf("reading %v: state %q, ev %v — want Normal and no event", v, st.State, ev)
		}
	}
}

// A sustained breach produces exactly one raised event, not one per tick.
func TestEvaluate_NoDuplicateEvents(t *testing.T) {
	st := Zero()
	var events int
	for _, v := range []float64{85, 86, 90, 84} {
		var ev *notify.Event
		st, ev = Evaluate(bounds, reading(v), st)
		if ev != nil {
			events++
		}
	}
	if events != 1 {
		t.Errorf("events = %d, want 1", events)
	}
}

func TestEvaluate_EventContents(t *testing.T) {
	_, ev := Evaluate(bounds, reading(82), Zero())
	if ev == nil {
		t.Fatal("expected event")
	}
	if ev.Severity != notify.SeverityCritical {
		t.Errorf("Severity = %q, want %q", ev.Severity, notify.SeverityCritical)
	}
	if ev.Breach != "high" {
		t.Errorf("Breach = %q, want high", ev.Breach)
	}
	if ev.Reading.Value != 82 {
		t.Errorf("Reading.Value = %v, want 82", ev.Reading.Value)
	}
	if ev.At != ev.Reading.Timestamp {
		t.Errorf("At = %v, want the reading timestamp %v", ev.At, ev.Reading.Timestamp)
	}

	_, clr := Evaluate(bounds, reading(70), Status{StateAlerting, BreachHigh})
	if clr == nil {
		t.Fatal("expected cleared event")
	}
	if clr.Severity != notify.SeverityInfo {
		t.Errorf("cleared Severity = %q, want %q", clr.Severity, notify.SeverityInfo)
	}
}

// With zero hysteresis the clear point coincides with the bound.
func TestEvaluate_ZeroHysteresis(t *testing.T) {
	c := Config{Low: 0, High: 80, Hysteresis: 0}

	st, _ := Evaluate(c, reading(80), Zero())
	if st.State != StateAlerting {
		t.Fatalf("State = %q, want alerting", st.State)
	}
	st, ev := Evaluate(c, reading(79.9), st)
	if st.State != StateNormal || ev == nil {
		t.Fatalf("State = %q, ev = %v — want Normal with cleared event", st.State, ev)
	}
}
