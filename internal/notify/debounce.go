package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/blissend/tempwatch/internal/state"
)

// Debouncer suppresses an event identical to one delivered within the
// window. Force mode (the -f flag) bypasses suppression so every evaluated
// transition is sent, duplicates included.
type Debouncer struct {
	next   Notifier
	window time.Duration
	force  bool
	store  state.Store
	now    func() time.Time // injectable for deterministic tests
}

// NewDebouncer wraps next with duplicate suppression backed by st.
func NewDebouncer(next Notifier, window time.Duration, force bool, st state.Store) *Debouncer {
	return &Debouncer{
		next:   next,
		window: window,
		force:  force,
		store:  st,
		now:    time.Now,
	}
}

// Send implements Notifier.
func (d *Debouncer) Send(ctx context.Context, e Event) error {
	if d.force || d.window <= 0 {
		return d.deliver(ctx, e)
	}

	key := e.Key()
	at, ok, err := d.store.LastSent(ctx, key)
	if err != nil {
		// A broken state backend must not silence alerts.
		slog.Warn("notify: state lookup failed — delivering anyway", "key", key, "err", err)
		return d.deliver(ctx, e)
	}
	if ok {
		if age := d.now().Sub(at); age < d.window {
			slog.Info("notify: duplicate suppressed",
				"key", key, "age", age, "window", d.window)
			return nil
		}
	}
	return d.deliver(ctx, e)
}

func (d *Debouncer) deliver(ctx context.Context, e Event) error {
	if err := d.next.Send(ctx, e); err != nil {
		return err
	}
	if err := d.store.MarkSent(ctx, e.Key(), d.now()); err != nil {
		slog.Warn("notify: failed to record delivery", "key", e.Key(), "err", err)
	}
	return nil
}
