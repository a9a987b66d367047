package mjpg

import (
	"sync"
	"time"
)

// fpsWindow is the number of receipt timestamps kept for rate estimation.
const fpsWindow = 10

// staleAfter is how old the newest frame may get before FPS reports zero.
const staleAfter = time.Second

// FrameCache holds the most recent frame of one camera. It outlives the
// connection that fills it, so the last known good frame stays servable
// while the stream reconnects.
type FrameCache struct {
	mu         sync.Mutex
	frame      []byte
	times      []time.Time // receipt times, newest last
	lastAccess time.Time
}

func NewFrameCache() *FrameCache {
	return &FrameCache{}
}

// Store replaces the cached frame and appends its receipt time to the
// sliding window.
func (c *FrameCache) Store(frame []byte, now time.Time) {
	c.mu.Lock()
	c.frame = frame
	c.times = append(c.times, now)
	if n := len(c.times) - fpsWindow; n > 0 {
		c.times = c.times[n:]
	}
	c.mu.Unlock()
}

// Frame returns the latest frame and marks the consumer access time.
func (c *FrameCache) Frame(now time.Time) []byte {
	c.mu.Lock()
	c.lastAccess = now
	frame := c.frame
	c.mu.Unlock()
	return frame
}

// LastAccess returns when a consumer last asked for a frame.
func (c *FrameCache) LastAccess() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAccess
}

// LastFrame returns the receipt time of the newest frame. A cache that
// never received a frame starts counting from the first call, so timeout
// checks measure from connection time rather than the epoch.
func (c *FrameCache) LastFrame(now time.Time) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.times) == 0 {
		c.times = append(c.times, now)
	}
	return c.times[len(c.times)-1]
}

// FPS estimates the stream rate from the timestamp window. It reports zero
// until the window is full and zero again once the newest frame is older
// than staleAfter, which separates "too new to estimate" from "stalled".
func (c *FrameCache) FPS(now time.Time) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.times) < fpsWindow {
		return 0
	}

	newest := c.times[len(c.times)-1]
	if now.Sub(newest) > staleAfter {
		return 0
	}

	return float64(len(c.times)-1) / newest.Sub(c.times[0]).Seconds()
}
