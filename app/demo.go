package app

import (
	"errors"
	"fmt"
	"time"

	"kestrel/kernel"
)

const (
	incrPeriod  = time.Second
	pollTimeout = 600 * time.Millisecond
)

// Observation is one reading taken by the poll thread.
type Observation struct {
	Value    int
	TimedOut bool
	At       kernel.Instant
}

func (o Observation) String() string {
	if o.TimedOut {
		return fmt.Sprintf("timeout@%d", o.At)
	}
	return fmt.Sprintf("%d@%d", o.Value, o.At)
}

// Demo is a counter shared by two threads. incr holds the counter for a
// full period while it sleeps and then bumps it; poll tries to read it
// with a timeout shorter than that period.
type Demo struct {
	counter kernel.Mutex[int]

	incr      kernel.Thread
	incrStack kernel.StackStorage
	poll      kernel.Thread
	pollStack kernel.StackStorage

	observe func(Observation)
}

// Start initializes and starts both threads in proc.
func (d *Demo) Start(ctx *kernel.Context, proc *kernel.Process) {
	k := ctx.Kernel()
	opts := kernel.ThreadOptions{Process: proc}
	k.InitThread(&d.poll, d.pollStack.Stack(), "poll", d.pollEntry, 0, opts)
	k.InitThread(&d.incr, d.incrStack.Stack(), "incr", d.incrEntry, 0, opts)
	k.StartThread(&d.poll)
	k.StartThread(&d.incr)
}

func (d *Demo) incrEntry(ctx *kernel.Context, _ uintptr) {
	for {
		g := d.counter.Lock(ctx)
		ctx.Sleep(incrPeriod)
		*g.Value()++
		g.Unlock()
	}
}

func (d *Demo) pollEntry(ctx *kernel.Context, _ uintptr) {
	con := ctx.Kernel().Console()
	for {
		g, err := d.counter.LockUntil(ctx, ctx.Deadline(pollTimeout))
		if errors.Is(err, kernel.ErrTimeout) {
			o := Observation{TimedOut: true, At: ctx.Now()}
			con.WriteLineString("poll: " + o.String())
			d.report(o)
			continue
		}
		o := Observation{Value: *g.Value(), At: ctx.Now()}
		g.Unlock()
		con.WriteLineString("poll: " + o.String())
		d.report(o)
		ctx.Yield()
	}
}

func (d *Demo) report(o Observation) {
	if d.observe != nil {
		d.observe(o)
	}
}
