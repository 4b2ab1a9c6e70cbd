// Package status serves the operational HTTP surface: /healthz for the
// container runtime, /status for a JSON snapshot of the last reading and
// alert state, /metrics for Prometheus, and /ws — a WebSocket feed pushing
// every reading and alert transition to connected dashboards.
package status
