// Package probe provides temperature sources polled by the monitor loop.
// Each probe reads one scalar measurement per call and reports transient
// failures as ErrUnavailable so the loop can skip the tick and continue.
//
// Implemented probes: OpenWeatherMap (openweather.go), Prometheus exposition
// endpoints such as node exporters (promexp.go), and a deterministic
// synthetic source for local development (synthetic.go). Factory:
// New(config.ProbeConfig) returns the correct Probe.
//
// Authentication (mTLS, API key, bearer token, basic) is handled by the
// shared authRoundTripper in probe.go; individual probes receive a
// pre-configured *http.Client from New().
package probe
