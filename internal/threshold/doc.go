// Package threshold turns readings into alert state transitions. Evaluate
// is a pure function: the caller threads the Status between ticks, and the
// hysteresis dead-band prevents flapping on noisy readings near a bound.
package threshold
