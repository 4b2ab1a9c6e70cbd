package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/blissend/tempwatch/internal/config"
	"github.com/blissend/tempwatch/internal/metrics"
	"github.com/blissend/tempwatch/internal/monitor"
	"github.com/blissend/tempwatch/internal/notify"
	"github.com/blissend/tempwatch/internal/probe"
	"github.com/blissend/tempwatch/internal/publish"
	"github.com/blissend/tempwatch/internal/state"
	"github.com/blissend/tempwatch/internal/status"
	"github.com/blissend/tempwatch/internal/threshold"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	verbose := flag.Bool("v", false, "log every reading, enable debug output")
	force := flag.Bool("f", false, "force-send every transition, bypassing debounce")
	once := flag.Bool("once", false, "run a single poll-evaluate-notify pass and exit")
	zip := flag.String("zip", "", "geocode the probe location from this US ZIP code")
	highBound := flag.String("threshold", "", "override the high temperature bound")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("tempwatch starting", "config", *configPath, "force", *force, "once", *once)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if *highBound != "" {
		f, err := strconv.ParseFloat(*highBound, 64)
		if err != nil {
			slog.Error("invalid -threshold value", "value", *highBound, "err", err)
			os.Exit(1)
		}
		cfg.Thresholds.High = f
	}

	bounds := threshold.Config{
		Low:        cfg.Thresholds.Low,
		High:       cfg.Thresholds.High,
		Hysteresis: cfg.Thresholds.Hysteresis,
	}
	if err := bounds.Validate(); err != nil {
		slog.Error("invalid thresholds", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"probe", cfg.Probe.Type,
		"poll_interval", cfg.Monitor.PollInterval,
		"low", bounds.Low,
		"high", bounds.High,
		"hysteresis", bounds.Hysteresis,
		"webhooks", len(cfg.Notify.Webhooks),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, err := probe.New(cfg.Probe)
	if err != nil {
		slog.Error("failed to build probe", "err", err)
		os.Exit(1)
	}
	if site := firstNonEmpty(*zip, cfg.Probe.Zip); site != "" {
		l, ok := p.(probe.Locator)
		if !ok {
			slog.Warn("probe does not support ZIP geolocation — ignoring", "zip", site)
		} else if err := l.SetLocation(ctx, site); err != nil {
			slog.Error("failed to geocode location", "zip", site, "err", err)
			os.Exit(1)
		} else {
			slog.Info("probe location set", "zip", site)
		}
	}

	store, closeStore, err := buildStore(ctx, cfg.State)
	if err != nil {
		slog.Error("failed to build state store", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	dispatcher, err := notify.NewDispatcher(cfg.Notify)
	if err != nil {
		slog.Error("failed to build notifier", "err", err)
		os.Exit(1)
	}
	notifier := notify.NewDebouncer(dispatcher, cfg.Notify.Debounce, *force, store)

	var srv *status.Server
	if cfg.Status.Listen != "" {
		srv = status.NewServer(cfg.Status.Listen)
		go func() {
			if err := srv.Run(ctx); err != nil {
				slog.Error("status server stopped", "err", err)
			}
		}()
	}

	var stream *publish.Kafka
	if len(cfg.Stream.Brokers) > 0 {
		stream = publish.NewKafka(cfg.Stream.Brokers, cfg.Stream.Topic)
		defer stream.Close() //nolint:errcheck
		slog.Info("reading stream enabled", "brokers", cfg.Stream.Brokers, "topic", cfg.Stream.Topic)
	}

	runner := monitor.New(monitor.Config{
		Probe:        p,
		Thresholds:   bounds,
		Notifier:     notifier,
		Interval:     cfg.Monitor.PollInterval,
		DrainTimeout: cfg.Monitor.DrainTimeout,
		Verbose:      *verbose,
	})
	runner.OnReading = func(r probe.Reading, st threshold.Status) {
		metrics.ReadingsTotal.Inc()
		metrics.Temperature.Set(r.Value)
		if st.State == threshold.StateAlerting {
			metrics.AlertState.Set(1)
		} else {
			metrics.AlertState.Set(0)
		}
		if srv != nil {
			srv.PublishReading(r, st)
		}
		if stream != nil {
			pubCtx, pubCancel := context.WithTimeout(ctx, 5*time.Second)
			if err := stream.Publish(pubCtx, r); err != nil {
				slog.Warn("reading stream publish failed", "err", err)
			}
			pubCancel()
		}
	}
	runner.OnEvent = func(e notify.Event) {
		metrics.NotificationsTotal.WithLabelValues(string(e.Transition)).Inc()
		if srv != nil {
			srv.PublishEvent(e)
		}
	}
	runner.OnProbeError = func(error) {
		metrics.ProbeErrorsTotal.Inc()
	}

	// Watch config file for hot-reload (logs only in this phase; restarting
	// the container applies changes — it is stateless by design).
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			slog.Info("config hot-reloaded — restart to apply",
				"high", updated.Thresholds.High, "low", updated.Thresholds.Low)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	if *once {
		if err := runner.RunOnce(ctx); err != nil {
			slog.Error("monitor failed", "err", err)
			os.Exit(1)
		}
		slog.Info("tempwatch done")
		return
	}

	if err := runner.Run(ctx); err != nil {
		slog.Error("monitor failed", "err", err)
		os.Exit(1)
	}
	slog.Info("tempwatch shut down")
}

// buildStore picks the debounce state backend from config.
func buildStore(ctx context.Context, cfg config.StateConfig) (state.Store, func(), error) {
	if cfg.Backend == "redis" {
		r, err := state.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword(), cfg.RedisDB, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	}
	return state.NewMemory(), func() {}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
