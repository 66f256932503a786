package main

import "time"

// AnimationClock advances the displayed frame of an animated image. It is deadline
// based and driven from the game loop; after each advance it rearms with the delay
// of the frame just shown.
type AnimationClock struct {
	armed    bool
	deadline time.Time
	delays   []time.Duration
}

// Arm starts the clock for an image currently showing frame. Single-frame images
// leave the clock disarmed.
func (c *AnimationClock) Arm(now time.Time, delays []time.Duration, frame int) {
	if len(delays) < 2 {
		c.Disarm()
		return
	}
	c.delays = delays
	c.armed = true
	c.deadline = now.Add(c.delayOf(frame))
}

// Disarm stops the clock
func (c *AnimationClock) Disarm() {
	c.armed = false
	c.delays = nil
	c.deadline = time.Time{}
}

// Armed reports whether the clock is ticking
func (c *AnimationClock) Armed() bool {
	return c.armed
}

// Tick returns the next frame index when the deadline for frame has passed.
// At most one frame is advanced per call regardless of how late the call is.
func (c *AnimationClock) Tick(now time.Time, frame int) (int, bool) {
	if !c.armed || now.Before(c.deadline) {
		return frame, false
	}
	next := (frame + 1) % len(c.delays)
	c.deadline = now.Add(c.delayOf(next))
	return next, true
}

// Deadline returns when the next advance is due
func (c *AnimationClock) Deadline() time.Time {
	return c.deadline
}

func (c *AnimationClock) delayOf(frame int) time.Duration {
	if frame < 0 || frame >= len(c.delays) {
		return defaultFrameDelay
	}
	if d := c.delays[frame]; d >= minFrameDelay {
		return d
	}
	return defaultFrameDelay
}
