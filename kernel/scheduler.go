package kernel

import "kestrel/kernel/memory"

type coreState struct {
	current        *Thread
	idle           *Thread
	memory         *memory.Config
	preemptPending bool
}

// SchedulerState is all shared kernel state. It is only reachable through
// the scheduler lock.
type SchedulerState struct {
	runQueue runQueue
	timers   timerQueue
	cores    [MaxCPUs]coreState

	threads     *Thread
	threadsTail *Thread
	nextID      uint32

	stats Stats
}

// InitThread prepares t to run entry(ctx, arg) on stack and registers it
// with the kernel in state Unstarted. The caller owns the storage of both
// t and stack; the kernel never allocates them.
func (k *Kernel) InitThread(t *Thread, stack Stack, name string, entry EntryFunc, arg uintptr, opts ThreadOptions) *Thread {
	if t.registered {
		k.fatalf("thread %q initialized twice", t.name)
	}
	if msg := stack.check(); msg != "" {
		k.fatalf("thread %q: %s", name, msg)
	}
	if entry == nil {
		k.fatalf("thread %q: nil entry function", name)
	}
	if !opts.Priority.valid() {
		k.fatalf("thread %q: invalid priority %d", name, opts.Priority)
	}
	proc := opts.Process
	if proc == nil {
		proc = &k.kernelProcess
	}

	stack.paint()
	*t = Thread{
		name:     name,
		state:    StateUnstarted,
		priority: opts.Priority,
		process:  proc,
		stack:    stack,
		entry:    entry,
		arg:      arg,
	}
	t.ctx = Context{k: k, t: t}
	k.arch.InitThreadState(t, func() { k.threadStart(t) })

	g := k.sched.Lock(k.arch)
	s := g.Value()
	s.nextID++
	t.id = s.nextID
	t.registered = true
	if s.threadsTail == nil {
		s.threads = t
	} else {
		s.threadsTail.allNext = t
	}
	s.threadsTail = t
	g.Unlock()
	return t
}

// StartThread moves an Unstarted thread to the tail of its run-queue band.
// Starting a thread twice is fatal.
func (k *Kernel) StartThread(t *Thread) {
	g := k.sched.Lock(k.arch)
	if !t.registered {
		k.fatalf("start of uninitialized thread %q", t.name)
	}
	if t.state != StateUnstarted || t.where != inNothing {
		k.fatalf("thread %q started twice (state %s)", t.name, t.state)
	}
	k.makeReady(g.Value(), t)
	g.Unlock()
}

// ThreadState returns the current state of t. It leaves interrupts
// enabled while it holds the scheduler lock, so it is only for callers
// outside kernel threads (tests, monitors); a tick arriving on the same
// core would spin forever.
func (k *Kernel) ThreadState(t *Thread) State {
	g := k.sched.lockRaw(k.arch)
	st := t.state
	g.Unlock()
	return st
}

// threadStart is the first code every thread runs. The switcher handed
// over the scheduler lock.
func (k *Kernel) threadStart(t *Thread) {
	g := k.sched.adopt(k.arch)
	g.Unlock()
	if !k.arch.InterruptsEnabled() {
		k.arch.EnableInterrupts()
	}
	t.entry(&t.ctx, t.arg)
	k.fatalf("thread %q returned from its entry function", t.name)
}

func (k *Kernel) makeReady(s *SchedulerState, t *Thread) {
	if t.where != inNothing {
		k.fatalf("thread %q made ready while held by container %d", t.name, t.where)
	}
	t.state = StateReady
	t.where = inRunQueue
	s.runQueue.push(t)

	for cpu := range s.cores {
		core := &s.cores[cpu]
		cur := core.current
		if cur == nil || (t.pinned && t.cpu != cpu) {
			continue
		}
		if cur == core.idle || cur.priority < t.priority {
			core.preemptPending = true
		}
	}
	k.arch.SignalEvent()
}

func (k *Kernel) yield(cur *Thread) {
	g := k.sched.Lock(k.arch)
	s := g.Value()
	s.stats.Yields++
	if k.arch.LocalState().PreemptionDisabled() {
		g.Unlock()
		return
	}
	k.checkCurrent(s, cur)
	cur.state = StateReady
	cur.where = inRunQueue
	s.runQueue.push(cur)
	g = k.reschedule(g, cur)
	g.Unlock()
}

func (k *Kernel) sleepUntil(cur *Thread, deadline Instant) {
	g := k.sched.Lock(k.arch)
	if k.arch.Now() >= deadline {
		g.Unlock()
		return
	}
	s := g.Value()
	k.checkCurrent(s, cur)
	if !s.timers.insert(cur, deadline) {
		k.fatalf("thread %q already has a pending timer", cur.name)
	}
	cur.state = StateSleeping
	cur.where = inTimerQueue
	g = k.block(g, cur)
	g.Unlock()
}

// block switches away from cur, which the caller already placed in a wait
// container.
func (k *Kernel) block(g SchedulerGuard, cur *Thread) SchedulerGuard {
	if k.arch.LocalState().PreemptionDisabled() {
		k.fatalf("thread %q blocked with preemption disabled", cur.name)
	}
	return k.reschedule(g, cur)
}

func (k *Kernel) reschedule(g SchedulerGuard, cur *Thread) SchedulerGuard {
	s := g.Value()
	ls := k.arch.LocalState()
	if ls.irqDepth != 1 {
		k.fatalf("thread %q switched while holding a spin lock", cur.name)
	}
	cpu := ls.CPU
	next := s.runQueue.pop(cpu)
	if next == nil {
		k.fatalf("no runnable thread on cpu %d", cpu)
	}
	next.where = inNothing
	if next == cur {
		cur.state = StateRunning
		cur.sliceStart = k.arch.Now()
		s.cores[cpu].preemptPending = false
		return g
	}
	return k.switchTo(g, cur, next)
}

func (k *Kernel) switchTo(g SchedulerGuard, cur, next *Thread) SchedulerGuard {
	s := g.Value()
	cpu := k.arch.LocalState().CPU
	core := &s.cores[cpu]

	next.state = StateRunning
	next.cpu = cpu
	next.sliceStart = k.arch.Now()
	core.current = next
	core.preemptPending = false
	k.installMemory(core, next)
	s.stats.ContextSwitches++

	return k.arch.ContextSwitch(g, cur, next)
}

func (k *Kernel) installMemory(core *coreState, t *Thread) {
	cfg := t.process.Memory
	if cfg == nil || cfg == core.memory {
		return
	}
	k.arch.InstallMemoryConfig(cfg)
	core.memory = cfg
}

func (k *Kernel) checkCurrent(s *SchedulerState, t *Thread) {
	cpu := k.arch.LocalState().CPU
	if s.cores[cpu].current != t {
		k.fatalf("thread %q is not running on cpu %d", t.name, cpu)
	}
}

// Tick is the timer interrupt entry. It wakes every timer entry whose
// deadline is at or before now, in deadline order, and raises preempt
// requests for expired timeslices. Interrupts are already masked.
func (k *Kernel) Tick(now Instant) {
	if !k.ready.Load() {
		return
	}
	g := k.sched.lockRaw(k.arch)
	s := g.Value()
	s.stats.Ticks++

	for t := s.timers.popExpired(now); t != nil; t = s.timers.popExpired(now) {
		s.stats.TimerWakeups++
		switch t.where {
		case inTimerQueue:
			t.where = inNothing
		case inWaitSet:
			t.waitSet.remove(t)
			t.waitSet = nil
			t.where = inNothing
			t.timedOut = true
			s.stats.MutexTimeouts++
		default:
			k.fatalf("timer fired for thread %q outside any wait container", t.name)
		}
		k.makeReady(s, t)
	}

	if k.timeslice > 0 {
		for cpu := range s.cores {
			core := &s.cores[cpu]
			cur := core.current
			if cur == nil || cur == core.idle || now.Sub(cur.sliceStart) < k.timeslice {
				continue
			}
			if p, ok := s.runQueue.best(cpu); ok && p >= cur.priority {
				core.preemptPending = true
			}
		}
	}
	g.Unlock()
}

func (k *Kernel) preemptPending() bool {
	g := k.sched.Lock(k.arch)
	pending := g.Value().cores[k.arch.LocalState().CPU].preemptPending
	g.Unlock()
	return pending
}

// pinIdle binds t to the calling core as its idle thread.
func (k *Kernel) pinIdle(t *Thread) {
	g := k.sched.Lock(k.arch)
	s := g.Value()
	cpu := k.arch.LocalState().CPU
	t.pinned = true
	t.cpu = cpu
	s.cores[cpu].idle = t
	g.Unlock()
}
