package configuration

import (
	"sync"
	"time"
)

// debouncer runs fn once the trigger has been quiet for delay. Each trigger restarts the wait.
type debouncer struct {
	delay time.Duration
	fn    func()

	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fn)
		return
	}
	d.timer.Reset(d.delay)
}

// flush runs a pending call immediately.
func (d *debouncer) flush() {
	if d.stop() {
		d.fn()
	}
}

// stop cancels a pending call and reports whether there was one.
func (d *debouncer) stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	return d.timer.Stop()
}
