package feedwatch

import "time"

// Clock supplies debounce timers. Production code uses SystemClock; tests
// inject a fake so coalescing behaviour is exercised without wall-clock
// delays.
type Clock interface {
	NewTimer(d time.Duration) Timer
}

// Timer is the subset of time.Timer the debouncer needs.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// SystemClock is the wall-clock implementation.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) NewTimer(d time.Duration) Timer {
	return systemTimer{time.NewTimer(d)}
}

type systemTimer struct {
	t *time.Timer
}

func (s systemTimer) C() <-chan time.Time { return s.t.C }
func (s systemTimer) Stop() bool          { return s.t.Stop() }
