package enrich

import (
	"context"
	"sync"
	"time"
)

// SlidingWindow allows at most limit calls in any rolling window.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	calls  []time.Time
	now    func() time.Time
}

// NewSlidingWindow returns a limiter for limit calls per window. A limit of
// zero or less disables limiting.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{limit: limit, window: window, now: time.Now}
}

// reserve records a call if one is available and otherwise returns how long
// until the oldest call leaves the window.
func (w *SlidingWindow) reserve() (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.calls) && !w.calls[i].After(cutoff) {
		i++
	}
	w.calls = w.calls[i:]

	if len(w.calls) < w.limit {
		w.calls = append(w.calls, now)
		return 0, true
	}
	return w.calls[0].Add(w.window).Sub(now), false
}

// Allow records a call and reports true if the window has room.
func (w *SlidingWindow) Allow() bool {
	if w == nil || w.limit <= 0 {
		return true
	}
	_, ok := w.reserve()
	return ok
}

// Wait blocks until a call is allowed or ctx is done.
func (w *SlidingWindow) Wait(ctx context.Context) error {
	if w == nil || w.limit <= 0 {
		return ctx.Err()
	}
	for {
		wait, ok := w.reserve()
		if ok {
			return nil
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InWindow returns the number of calls counted in the current window.
func (w *SlidingWindow) InWindow() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	cutoff := w.now().Add(-w.window)
	n := 0
	for _, t := range w.calls {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}
