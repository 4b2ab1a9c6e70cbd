package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/blissend/tempwatch/internal/notify"
	"github.com/blissend/tempwatch/internal/probe"
	"github.com/blissend/tempwatch/internal/threshold"
)

// notifyTimeout bounds one delivery (including retries) during normal
// operation.
const notifyTimeout = 2 * time.Minute

// Phase is the orchestrator lifecycle state.
type Phase int32

const (
	PhaseRunning Phase = iota
	PhaseDraining
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseDraining:
		return "draining"
	default:
		return "stopped"
	}
}

// Config wires the poll loop together.
type Config struct {
	Probe      probe.Probe
	Thresholds threshold.Config
	Notifier   notify.Notifier

	// Interval between polls.
	Interval time.Duration

	// DrainTimeout caps how long an in-flight delivery may continue once
	// shutdown has been requested.
	DrainTimeout time.Duration

	// Verbose logs every reading at info level, not just transitions.
	Verbose bool
}

// Runner drives the poll → evaluate → notify loop. Single cooperative
// loop: readings are polled, evaluated, and delivered sequentially; the
// notifier's retry backoff is the only suspension point. The alert Status
// is owned here and threaded through Evaluate — no shared mutable state.
type Runner struct {
	cfg    Config
	status threshold.Status
	phase  atomic.Int32

	// Hooks observe the loop; all optional. Called synchronously from the
	// loop goroutine.
	OnReading    func(probe.Reading, threshold.Status)
	OnEvent      func(notify.Event)
	OnProbeError func(error)

	// newTicker is injectable so tests drive ticks without wall-clock delay.
	newTicker func(d time.Duration) (<-chan time.Time, func())
}

// New creates a Runner. The threshold config must already be validated.
func New(cfg Config) *Runner {
	return &Runner{
		cfg:    cfg,
		status: threshold.Zero(),
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Phase returns the current lifecycle phase.
func (r *Runner) Phase() Phase {
	return Phase(r.phase.Load())
}

// Status returns the current alert status.
func (r *Runner) Status() threshold.Status {
	return r.status
}

// Run polls immediately, then once per interval, until ctx is cancelled.
// On cancellation the loop drains: no new poll starts, the in-flight
// delivery (if any) finishes under DrainTimeout, then Run returns nil.
// A non-transient error from the loop body is fatal and returned.
func (r *Runner) Run(ctx context.Context) error {
	r.phase.Store(int32(PhaseRunning))
	slog.Info("monitor: loop started",
		"interval", r.cfg.Interval,
		"low", r.cfg.Thresholds.Low,
		"high", r.cfg.Thresholds.High,
		"hysteresis", r.cfg.Thresholds.Hysteresis,
	)

	if err := r.tick(ctx); err != nil {
		r.phase.Store(int32(PhaseStopped))
		return err
	}

	tick, stop := r.newTicker(r.cfg.Interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			// tick() runs synchronously, so reaching this select means no
			// delivery is in flight — any draining already finished inside
			// the last tick.
			r.phase.Store(int32(PhaseStopped))
			slog.Info("monitor: stopped")
			return nil

		case <-tick:
			// A tick and cancellation can become ready together; never
			// start a new poll once shutdown has been requested.
			if ctx.Err() != nil {
				continue
			}
			if err := r.tick(ctx); err != nil {
				r.phase.Store(int32(PhaseStopped))
				return err
			}
		}
	}
}

// RunOnce performs a single poll → evaluate → notify pass.
func (r *Runner) RunOnce(ctx context.Context) error {
	r.phase.Store(int32(PhaseRunning))
	err := r.tick(ctx)
	r.phase.Store(int32(PhaseStopped))
	return err
}

// tick executes one loop body. A transient probe failure skips the tick;
// any other error is fatal to the loop.
func (r *Runner) tick(ctx context.Context) error {
	reading, err := r.cfg.Probe.Read(ctx)
	if err != nil {
		if errors.Is(err, probe.ErrUnavailable) {
			slog.Warn("monitor: probe unavailable — skipping tick", "err", err)
			if r.OnProbeError != nil {
				r.OnProbeError(err)
			}
			return nil
		}
		return fmt.Errorf("monitor: probe: %w", err)
	}

	next, ev := threshold.Evaluate(r.cfg.Thresholds, reading, r.status)
	r.status = next

	if r.cfg.Verbose {
		slog.Info("monitor: reading",
			"value", reading.Value,
			"unit", reading.Unit,
			"site", reading.Site,
			"state", next.State,
		)
	} else {
		slog.Debug("monitor: reading", "value", reading.Value, "state", next.State)
	}
	if r.OnReading != nil {
		r.OnReading(reading, next)
	}

	if ev == nil {
		return nil
	}

	slog.Info("monitor: alert transition",
		"transition", ev.Transition,
		"breach", ev.Breach,
		"value", reading.Value,
	)
	if r.OnEvent != nil {
		r.OnEvent(*ev)
	}

	// Delivery is detached from loop cancellation: a shutdown signal must
	// not kill a send mid-flight, it only caps the remainder at DrainTimeout.
	sendCtx, cancel := r.deliveryContext(ctx)
	defer cancel()
	if err := r.cfg.Notifier.Send(sendCtx, *ev); err != nil {
		// Best effort — exhausted retries are logged, monitoring continues.
		slog.Error("monitor: notification dropped", "transition", ev.Transition, "err", err)
	}
	return nil
}

// deliveryContext returns a context for one delivery: bounded by
// notifyTimeout in normal operation, and by DrainTimeout from the moment
// loop shutdown is requested. While the delivery drains past a shutdown
// signal the Runner reports PhaseDraining.
func (r *Runner) deliveryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)

	go func() {
		select {
		case <-sendCtx.Done():
		case <-ctx.Done():
			// CAS so a delivery that finished concurrently with shutdown
			// cannot roll an already stopped Runner back to draining.
			if r.phase.CompareAndSwap(int32(PhaseRunning), int32(PhaseDraining)) {
				slog.Info("monitor: draining in-flight delivery", "timeout", r.cfg.DrainTimeout)
			}
			t := time.NewTimer(r.cfg.DrainTimeout)
			defer t.Stop()
			select {
			case <-sendCtx.Done():
			case <-t.C:
				cancel()
			}
		}
	}()

	return sendCtx, cancel
}
