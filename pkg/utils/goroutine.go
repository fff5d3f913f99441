package utils

import (
	"runtime"
	"testing"
	"time"
)

// GoroutineLeakDetector fails a test when it finishes with materially more
// goroutines than it started with. Session and transport teardown paths
// use it to prove their receive loops actually exit.
type GoroutineLeakDetector struct {
	t             *testing.T
	baseline      int
	allowedGrowth int
	stabilize     time.Duration
}

// NewGoroutineLeakDetector creates a detector with defaults suited to
// short transport tests.
func NewGoroutineLeakDetector(t *testing.T) *GoroutineLeakDetector {
	return &GoroutineLeakDetector{
		t:             t,
		allowedGrowth: 2,
		stabilize:     100 * time.Millisecond,
	}
}

// SetAllowedGrowth permits n extra goroutines at check time, for tests
// whose libraries keep background workers alive.
func (d *GoroutineLeakDetector) SetAllowedGrowth(n int) *GoroutineLeakDetector {
	d.allowedGrowth = n
	return d
}

// Start records the baseline goroutine count
func (d *GoroutineLeakDetector) Start() {
	d.baseline = runtime.NumGoroutine()
}

// Check compares the current count against the baseline, giving exiting
// goroutines a short window to unwind first.
func (d *GoroutineLeakDetector) Check() {
	d.t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		current := runtime.NumGoroutine()
		if current <= d.baseline+d.allowedGrowth {
			return
		}
		if time.Now().After(deadline) {
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			d.t.Errorf("goroutine leak: started with %d, finished with %d\n%s",
				d.baseline, current, buf[:n])
			return
		}
		time.Sleep(d.stabilize)
	}
}
