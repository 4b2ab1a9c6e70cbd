package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the file at path whenever it is rewritten and reports each
// effective reload through onChange. A rewrite that fails to parse or
// validate is dropped and the previous config stays active. Rewrites that
// leave the live-tunable surface untouched (alert bounds, debounce window,
// poll interval) are ignored, so editor churn and secret rotation in the
// surrounding deployment never wake the caller.
//
// Runs until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	prev, err := Load(path)
	if err != nil {
		return fmt.Errorf("config: watch baseline: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}
	slog.Info("config: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Atomic saves replace the inode; re-arm before reading so the
			// next rewrite is not missed.
			_ = watcher.Add(path)

			next, err := Load(path)
			if err != nil {
				slog.Error("config: reload rejected, keeping previous",
					"path", path, "err", err)
				continue
			}
			if !tunablesChanged(prev, next) {
				slog.Debug("config: rewrite left tunables unchanged", "path", path)
				continue
			}

			slog.Info("config: reloaded",
				"low", next.Thresholds.Low,
				"high", next.Thresholds.High,
				"hysteresis", next.Thresholds.Hysteresis,
				"debounce", next.Notify.Debounce,
				"poll_interval", next.Monitor.PollInterval,
			)
			prev = next
			onChange(next)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// tunablesChanged reports whether a reload touches anything the running
// monitor could act on. Probe, webhook, and transport changes need a
// restart regardless, so they do not count.
func tunablesChanged(prev, next *Config) bool {
	return prev.Thresholds != next.Thresholds ||
		prev.Notify.Debounce != next.Notify.Debounce ||
		prev.Monitor.PollInterval != next.Monitor.PollInterval
}
