package kernel

import "time"

// Context is a thread's handle on the kernel. Each thread receives its own
// Context as the first argument of its entry function and must not share it.
type Context struct {
	k *Kernel
	t *Thread
}

func (c *Context) Kernel() *Kernel { return c.k }

func (c *Context) Thread() *Thread { return c.t }

// Now returns the current kernel time.
func (c *Context) Now() Instant { return c.k.arch.Now() }

// Deadline returns the instant d from now, rounded up to the next tick.
func (c *Context) Deadline(d time.Duration) Instant {
	return c.Now().Add(DurationToTicks(d, c.k.arch.TicksPerSecond()))
}

// Yield gives up the rest of the timeslice. The thread goes to the tail
// of its band and runs again once everything ahead of it has had a turn.
func (c *Context) Yield() { c.k.yield(c.t) }

// SleepUntil blocks until the kernel clock reaches deadline. It returns
// immediately if deadline has passed.
func (c *Context) SleepUntil(deadline Instant) { c.k.sleepUntil(c.t, deadline) }

// Sleep blocks for at least d.
func (c *Context) Sleep(d time.Duration) { c.SleepUntil(c.Deadline(d)) }

// CheckPreempt yields if the tick or a wakeup requested a reschedule of
// this core.
func (c *Context) CheckPreempt() {
	if c.k.preemptPending() {
		c.Yield()
	}
}
