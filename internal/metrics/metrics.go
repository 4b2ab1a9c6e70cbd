package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReadingsTotal counts successful probe reads.
	ReadingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tempwatch_readings_total",
			Help: "Total number of successful temperature readings",
		},
	)

	// ProbeErrorsTotal counts ticks skipped because the probe was unavailable.
	ProbeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tempwatch_probe_errors_total",
			Help: "Total number of ticks skipped due to probe unavailability",
		},
	)

	// NotificationsTotal counts delivery outcomes per transition.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempwatch_notifications_total",
			Help: "Total number of notification events handed to the notifier",
		},
		[]string{"transition"},
	)

	// Temperature is the most recent reading value.
	Temperature = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tempwatch_temperature",
			Help: "Most recent temperature reading, in the probe's unit",
		},
	)

	// AlertState is 1 while an alert is active, 0 otherwise.
	AlertState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tempwatch_alert_state",
			Help: "Current alert state (0 = normal, 1 = alerting)",
		},
	)
)

// Handler exposes the default registry for the status server's /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
