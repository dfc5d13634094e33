package hal

import (
	"sync"
	"sync/atomic"

	"kestrel/kernel"
	"kestrel/kernel/memory"
)

// core runs kernel threads as goroutines, one at a time. A thread that is
// switched out parks on its wake channel until it is switched back in.
// Interrupt masking is modelled by irq: it is held whenever interrupts
// are disabled, and interrupt handlers run only while holding it.
type core struct {
	ls kernel.LocalState

	irq     sync.Mutex
	enabled atomic.Bool

	mu      sync.Mutex
	cond    *sync.Cond
	idling  bool
	pending bool

	halt     chan struct{}
	haltOnce sync.Once
	haltMsg  atomic.Value // string

	mem atomic.Pointer[memory.Config]

	panicHandler atomic.Value // func(string)
}

type threadState struct {
	wake    chan struct{}
	run     func()
	started bool
}

// init puts the core in its reset state: interrupts disabled.
func (c *core) init() {
	c.irq.Lock()
	c.cond = sync.NewCond(&c.mu)
	c.halt = make(chan struct{})
}

func (c *core) LocalState() *kernel.LocalState { return &c.ls }

func (c *core) InitThreadState(t *kernel.Thread, entry func()) {
	t.SetArchState(&threadState{wake: make(chan struct{}, 1), run: entry})
}

func stateOf(t *kernel.Thread) *threadState {
	return t.ArchState().(*threadState)
}

func (c *core) resume(t *kernel.Thread) {
	ts := stateOf(t)
	if !ts.started {
		ts.started = true
		go ts.run()
		return
	}
	ts.wake <- struct{}{}
}

func (c *core) ContextSwitch(g kernel.SchedulerGuard, old, next *kernel.Thread) kernel.SchedulerGuard {
	c.resume(next)
	<-stateOf(old).wake
	return g
}

func (c *core) BootstrapSwitch(g kernel.SchedulerGuard, first *kernel.Thread) {
	c.resume(first)
	select {}
}

func (c *core) EnableInterrupts() {
	if !c.enabled.Swap(true) {
		c.irq.Unlock()
	}
}

func (c *core) DisableInterrupts() {
	if c.enabled.Load() {
		c.irq.Lock()
		c.enabled.Store(false)
	}
}

func (c *core) InterruptsEnabled() bool { return c.enabled.Load() }

// Interrupt runs fn as an interrupt handler, waiting until interrupts are
// enabled.
func (c *core) Interrupt(fn func()) {
	c.irq.Lock()
	defer c.irq.Unlock()
	fn()
}

func (c *core) Idle() {
	c.mu.Lock()
	c.idling = true
	c.cond.Broadcast()
	for !c.pending && !c.halted() {
		c.cond.Wait()
	}
	if c.halted() {
		c.mu.Unlock()
		select {}
	}
	c.pending = false
	c.idling = false
	c.mu.Unlock()
}

func (c *core) SignalEvent() {
	c.mu.Lock()
	c.pending = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// WaitIdle blocks until the idle thread is waiting with no event pending,
// or the kernel has halted.
func (c *core) WaitIdle() {
	c.mu.Lock()
	for !(c.idling && !c.pending) && !c.halted() {
		c.cond.Wait()
	}
	c.mu.Unlock()
}

func (c *core) InstallMemoryConfig(cfg *memory.Config) { c.mem.Store(cfg) }

// InstalledMemoryConfig returns the config last installed on the core.
func (c *core) InstalledMemoryConfig() *memory.Config { return c.mem.Load() }

// CheckAccess reports whether the installed config permits kind access to
// [start, end).
func (c *core) CheckAccess(kind memory.RegionType, start, end uintptr) bool {
	cfg := c.mem.Load()
	return cfg != nil && cfg.RangeHasAccess(kind, start, end)
}

// SetPanicHandler installs fn to be called with the message of a kernel
// panic. Without a handler a kernel panic panics the Go program.
func (c *core) SetPanicHandler(fn func(msg string)) {
	c.panicHandler.Store(fn)
}

func (c *core) Panic(msg string) {
	c.haltOnce.Do(func() {
		c.haltMsg.Store(msg)
		c.mu.Lock()
		close(c.halt)
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	if fn, _ := c.panicHandler.Load().(func(string)); fn != nil {
		fn(msg)
		select {}
	}
	panic("kernel panic: " + msg)
}

func (c *core) halted() bool {
	select {
	case <-c.halt:
		return true
	default:
		return false
	}
}

// Halted returns a channel closed once the kernel panics.
func (c *core) Halted() <-chan struct{} { return c.halt }

// HaltMessage returns the message of the kernel panic, if any.
func (c *core) HaltMessage() string {
	msg, _ := c.haltMsg.Load().(string)
	return msg
}
