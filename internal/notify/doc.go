// Package notify delivers alert transitions to Slack, Teams, or generic
// HTTP webhooks. The chain built by main is Debouncer → Dispatcher →
// per-target Retrier → Webhook: duplicates are suppressed inside the
// debounce window (unless forced), each target retries with truncated
// exponential backoff, and exhaustion drops the event — alerting is
// best-effort, the monitor loop never blocks on a dead webhook.
package notify
