package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindowCounter approximates a rolling window with two fixed windows:
// the previous window's count is weighted by how much of it still overlaps
// the rolling interval. A nil counter admits everything.
type SlidingWindowCounter struct {
	mu       sync.Mutex
	curr     int
	prev     int
	start    time.Time
	window   time.Duration
	maxCount int
}

// NewSlidingWindowCounter returns nil when maxCount <= 0.
func NewSlidingWindowCounter(maxCount int, window time.Duration) *SlidingWindowCounter {
	if maxCount <= 0 {
		return nil
	}
	return &SlidingWindowCounter{start: time.Now(), window: window, maxCount: maxCount}
}

// Allow counts a request when the window has room.
func (c *SlidingWindowCounter) Allow() bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.weighted() >= float64(c.maxCount) {
		return false
	}
	c.curr++
	return true
}

// Check reports whether Allow would succeed without counting.
func (c *SlidingWindowCounter) Check() bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.weighted() < float64(c.maxCount)
}

// Consume counts a request when the window has room.
func (c *SlidingWindowCounter) Consume() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.weighted() < float64(c.maxCount) {
		c.curr++
	}
}

// Remaining returns the approximate number of requests left, or -1 for a nil
// counter.
func (c *SlidingWindowCounter) Remaining() int {
	if c == nil {
		return -1
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return max(0, int(float64(c.maxCount)-c.weighted()))
}

// Used returns the weighted request count in the rolling window.
func (c *SlidingWindowCounter) Used() float64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.weighted()
}

// weighted rotates expired windows and returns the effective count. Must be
// called with mu held.
func (c *SlidingWindowCounter) weighted() float64 {
	elapsed := time.Since(c.start)
	if elapsed >= c.window {
		passed := int(elapsed / c.window)
		if passed == 1 {
			c.prev = c.curr
		} else {
			c.prev = 0
		}
		c.curr = 0
		c.start = c.start.Add(time.Duration(passed) * c.window)
		elapsed = time.Since(c.start)
	}

	overlap := float64(c.window-elapsed) / float64(c.window)
	overlap = min(1, max(0, overlap))
	return float64(c.curr) + float64(c.prev)*overlap
}
