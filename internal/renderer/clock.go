package renderer

import "time"

// AnimationClock converts wall-clock time into progress in [0,100]. It is a
// value: every method returns an updated copy.
type AnimationClock struct {
	Duration time.Duration

	elapsed time.Duration // accumulated across previous runs
	started time.Time     // zero while paused
	last    float64
}

func NewClock(d time.Duration) AnimationClock {
	return AnimationClock{Duration: d}
}

// Running reports whether the clock is accumulating time.
func (c AnimationClock) Running() bool {
	return !c.started.IsZero()
}

// Progress is the last value returned by Advance.
func (c AnimationClock) Progress() float64 {
	return c.last
}

func (c AnimationClock) Start(now time.Time) AnimationClock {
	if !c.Running() {
		c.started = now
	}
	return c
}

func (c AnimationClock) Pause(now time.Time) AnimationClock {
	if c.Running() {
		c.elapsed += nonNegative(now.Sub(c.started))
		c.started = time.Time{}
	}
	return c
}

// Advance returns the clock and progress at now. Progress never decreases,
// even if now goes backwards, and stops at 100.
func (c AnimationClock) Advance(now time.Time) (AnimationClock, float64) {
	if c.Duration <= 0 {
		c.last = 100
		return c, c.last
	}
	total := c.elapsed
	if c.Running() {
		total += nonNegative(now.Sub(c.started))
	}
	p := float64(total) / float64(c.Duration) * 100
	if p > 100 {
		p = 100
	}
	if p > c.last {
		c.last = p
	}
	return c, c.last
}

// Reset returns a stopped clock at progress 0 with the same duration.
func (c AnimationClock) Reset() AnimationClock {
	return NewClock(c.Duration)
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
