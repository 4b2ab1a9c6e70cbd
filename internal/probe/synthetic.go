package probe

import (
	"context"
	"math"
	"time"
)

// Synthetic defaults produce a slow daily-looking swing around room
// temperature, useful for exercising the full pipeline locally.
const (
	syntheticBase      = 72.0
	syntheticAmplitude = 25.0
	syntheticPeriod    = 10 * time.Minute
)

// synthetic generates a deterministic sinusoidal temperature. No I/O, never
// unavailable.
type synthetic struct {
	base      float64
	amplitude float64
	period    time.Duration
	start     time.Time
	now       func() time.Time // injectable for deterministic tests
}

func newSynthetic() *synthetic {
	s := &synthetic{
		base:      syntheticBase,
		amplitude: syntheticAmplitude,
		period:    syntheticPeriod,
		now:       time.Now,
	}
	s.start = s.now()
	return s
}

func (s *synthetic) Read(_ context.Context) (Reading, error) {
	t := s.now()
	elapsed := t.Sub(s.start).Seconds()
	phase := 2 * math.Pi * elapsed / s.period.Seconds()
	return Reading{
		Timestamp: t.UTC(),
		Value:     s.base + s.amplitude*math.Sin(phase),
		Unit:      "F",
		Site:      "synthetic",
	}, nil
}
