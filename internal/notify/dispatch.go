package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blissend/tempwatch/internal/config"
)

// Dispatcher fans an event out to every configured webhook target, each
// wrapped in its own Retrier. A target that exhausts its retries is logged
// and the event dropped for that target, so one dead webhook never stalls
// the loop. Send fails only when no target accepted the event: the caller
// must not account the transition as delivered in that case.
type Dispatcher struct {
	targets []*Retrier
	kinds   []string
}

// NewDispatcher builds the delivery fan-out from the notify configuration.
// Webhooks whose URL environment variable is unset are skipped with a
// warning — the container was started without that secret.
func NewDispatcher(cfg config.NotifyConfig) (*Dispatcher, error) {
	d := &Dispatcher{}
	for _, wh := range cfg.Webhooks {
		url := wh.URL()
		if url == "" {
			slog.Warn("notify: webhook url env unset — skipping target",
				"type", wh.Type, "url_env", wh.URLEnv)
			continue
		}
		w, err := NewWebhook(wh.Type, url)
		if err != nil {
			return nil, err
		}
		d.targets = append(d.targets, NewRetrier(w, cfg.MaxAttempts))
		d.kinds = append(d.kinds, wh.Type)
	}
	if len(d.targets) == 0 {
		slog.Warn("notify: no webhook targets configured — alerts will only be logged")
	}
	return d, nil
}

// Targets returns the number of active delivery targets.
func (d *Dispatcher) Targets() int { return len(d.targets) }

// Send implements Notifier.
func (d *Dispatcher) Send(ctx context.Context, e Event) error {
	var delivered int
	var lastErr error
	for i, t := range d.targets {
		if err := t.Send(ctx, e); err != nil {
			lastErr = err
			slog.Error("notify: delivery abandoned",
				"type", d.kinds[i],
				"transition", e.Transition,
				"err", err,
			)
			continue
		}
		delivered++
		slog.Debug("notify: delivered",
			"type", d.kinds[i],
			"transition", e.Transition,
		)
	}
	if delivered == 0 && lastErr != nil {
		return fmt.Errorf("notify: all %d target(s) failed: %w", len(d.targets), lastErr)
	}
	return nil
}
