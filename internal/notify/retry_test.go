package notify

import (
	"context"
	"errors"
	"testing"
	"time"
)

// flaky is a Notifier that fails the first failN sends.
type flaky struct {
	failN int
	calls int
}

func (f *flaky) Send(_ context.Context, _ Event) error {
	f.calls++
	if f.calls <= f.failN {
		return errors.New("boom")
	}
	return nil
}

// noSleep replaces the retrier's wait so tests run instantly, recording the
// requested delays.
func noSleep(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func identityJitter(d time.Duration) time.Duration { return d }

// --- Delay ------------------------------------------------------------------

func TestDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 32 * time.Second},
		{7, 60 * time.Second}, // capped
		{10, 60 * time.Second},
		{0, 1 * time.Second}, // clamped to first attempt
	}
	for _, tc := range tests {
		if got := Delay(tc.attempt); got != tc.want {
			t.Errorf("Delay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestDefaultJitter_Bounds(t *testing.T) {
	base := 8 * time.Second
	for i := 0; i < 100; i++ {
		d := defaultJitter(base)
		if d < 6*time.Second || d > 10*time.Second {
			t.Fatalf("jitter produced %v, want within ±25%% of %v", d, base)
		}
	}
}

// --- Retrier ----------------------------------------------------------------

func TestRetrier_SucceedsFirstTry(t *testing.T) {
	f := &flaky{}
	var waits []time.Duration
	r := NewRetrier(f, 5)
	r.sleep = noSleep(&waits)

	if err := r.Send(context.Background(), Event{}); err != nil {
		t.Fatalf("Send() = %v, want nil", err)
	}
	if f.calls != 1 || len(waits) != 0 {
		t.Errorf("calls = %d, waits = %v — want 1 call, no waits", f.calls, waits)
	}
}

func TestRetrier_RecoversAfterFailures(t *testing.T) {
	f := &flaky{failN: 2}
	var waits []time.Duration
	r := NewRetrier(f, 5)
	r.jitter = identityJitter
	r.sleep = noSleep(&waits)

	if err := r.Send(context.Background(), Event{}); err != nil {
		t.Fatalf("Send() = %v, want nil", err)
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(waits) != len(want) {
		t.Fatalf("waits = %v, want %v", waits, want)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("waits[%d] = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestRetrier_Exhaustion(t *testing.T) {
	f := &flaky{failN: 100}
	var waits []time.Duration
	r := NewRetrier(f, 3)
	r.jitter = identityJitter
	r.sleep = noSleep(&waits)

	err := r.Send(context.Background(), Event{})
	if err == nil {
		t.Fatal("Send() = nil, want exhaustion error")
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}
	// No wait after the final attempt.
	if len(waits) != 2 {
		t.Errorf("waits = %v, want 2 entries", waits)
	}
}

func TestRetrier_CancelledDuringBackoff(t *testing.T) {
	f := &flaky{failN: 100}
	r := NewRetrier(f, 5)
	r.jitter = identityJitter
	r.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	err := r.Send(context.Background(), Event{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Send() = %v, want context.Canceled", err)
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry after cancellation)", f.calls)
	}
}

func TestNewRetrier_ClampsAttempts(t *testing.T) {
	f := &flaky{failN: 100}
	r := NewRetrier(f, 0)
	r.sleep = func(context.Context, time.Duration) error { return nil }

	_ = r.Send(context.Background(), Event{})
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1", f.calls)
	}
}
