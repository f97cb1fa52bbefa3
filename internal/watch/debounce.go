package watch

import (
	"context"
	"sync"
	"time"
)

// debouncer calls fire once no call to touch happened for window.
type debouncer struct {
	window time.Duration
	fire   func(detail string)

	mu     sync.Mutex
	timer  *time.Timer
	detail string
}

func newDebouncer(window time.Duration, fire func(detail string)) *debouncer {
	return &debouncer{window: window, fire: fire}
}

func (d *debouncer) touch(detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.schedule(detail)
}

// schedule replaces the pending timer. d.mu must be held.
func (d *debouncer) schedule(detail string) {
	d.detail = detail
	if d.timer != nil {
		d.timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		if d.timer != t {
			// superseded or stopped while waiting for the lock
			d.mu.Unlock()
			return
		}
		last := d.detail
		d.timer = nil
		d.mu.Unlock()
		d.fire(last)
	})
	d.timer = t
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// stopOnDone stops d when ctx ends.
func (d *debouncer) stopOnDone(ctx context.Context) {
	<-ctx.Done()
	d.stop()
}
