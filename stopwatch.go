package uglc

import "time"

// Stopwatch measures elapsed wall time against a Clock rather than calling
// time.Now directly, so the Driver's per-frame timing logs are
// deterministic under test with a fake clock (SPEC_FULL.md AMBIENT STACK,
// "Logging").
type Stopwatch struct {
	clock Clock
	start time.Time
}

// NewStopwatch creates a Stopwatch reading time from clock, already
// started.
func NewStopwatch(clock Clock) *Stopwatch {
	return &Stopwatch{clock: clock, start: clock.Now()}
}

// Reset restarts the stopwatch from the current clock time.
func (s *Stopwatch) Reset() {
	s.start = s.clock.Now()
}

// Elapsed returns the time since the stopwatch was created or last Reset.
func (s *Stopwatch) Elapsed() time.Duration {
	return s.clock.Now().Sub(s.start)
}
