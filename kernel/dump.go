package kernel

import "fmt"

// Stats are scheduler counters since boot.
type Stats struct {
	ContextSwitches  uint64
	Yields           uint64
	Ticks            uint64
	TimerWakeups     uint64
	MutexContentions uint64
	MutexTimeouts    uint64

	Threads  int
	Ready    int
	Sleeping int
}

// Stats returns a snapshot of the scheduler counters. Like ThreadState it
// must only be called from outside kernel threads, such as a metrics
// scrape.
func (k *Kernel) Stats() Stats {
	if !k.ready.Load() {
		return Stats{}
	}
	g := k.sched.lockRaw(k.arch)
	s := g.Value()
	st := s.stats
	for t := s.threads; t != nil; t = t.allNext {
		st.Threads++
	}
	st.Ready = s.runQueue.len()
	st.Sleeping = s.timers.len()
	g.Unlock()
	return st
}

// DumpThreads writes one line per registered thread to the console.
func (k *Kernel) DumpThreads() {
	g := k.sched.Lock(k.arch)
	s := g.Value()
	var lines []string
	for t := s.threads; t != nil; t = t.allNext {
		lines = append(lines, fmt.Sprintf("- %s (id %d): %s, prio %s, stack %d/%d bytes, process %s",
			t.name, t.id, t.state, t.priority, t.stack.HighWater(), t.stack.Size(), t.process.Name))
	}
	g.Unlock()

	k.logf("thread list:")
	for _, l := range lines {
		k.console.WriteLineString(l)
	}
}

func (k *Kernel) logf(format string, args ...any) {
	k.console.WriteLineString(fmt.Sprintf(format, args...))
}

// fatalf stops the system. It does not return.
func (k *Kernel) fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if k.console != nil {
		k.console.WriteLineString("kernel panic: " + msg)
	}
	k.arch.Panic(msg)
}
