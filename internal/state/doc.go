// Package state persists last-delivery times per notification key for
// debounce bookkeeping. The memory backend is the default; the redis
// backend keeps the record across container restarts so a freshly
// restarted monitor does not immediately re-send the alert it just sent.
package state
