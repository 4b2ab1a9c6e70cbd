// Package monitor is the poll loop orchestrator: poll → evaluate → notify
// once per interval, with Running → Draining → Stopped lifecycle and
// graceful shutdown that finishes the in-flight delivery but starts no
// new polls.
package monitor
