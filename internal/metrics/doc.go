// Package metrics registers the tempwatch Prometheus collectors and exposes
// them for the status server's /metrics endpoint.
package metrics
