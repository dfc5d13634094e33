package kernel

import "kestrel/kernel/memory"

// MaxCPUs bounds the per-core state the scheduler keeps.
const MaxCPUs = 4

// Console writes newline-delimited diagnostic lines.
type Console interface {
	WriteLineString(s string)
}

// TickHandler is invoked by a backend from its timer interrupt.
type TickHandler func(now Instant)

// LocalState is per-core kernel state stored by the backend and returned
// by Arch.LocalState for the calling core.
type LocalState struct {
	CPU int

	preemptDisable int
	irqDepth       int
	irqWasEnabled  bool
}

// PreemptionDisabled reports whether a PreemptDisableGuard is held on the core.
func (ls *LocalState) PreemptionDisabled() bool { return ls.preemptDisable > 0 }

// SchedulerGuard is the held scheduler lock.
type SchedulerGuard = SpinLockGuard[SchedulerState]

// Arch is the processor backend the scheduler is written against.
type Arch interface {
	// Name identifies the target in the boot banner.
	Name() string

	// EarlyInit runs before the scheduler exists; tick must be called from
	// the backend's timer interrupt from then on.
	EarlyInit(tick TickHandler)
	// Init runs on the bootstrap thread with interrupts enabled.
	Init()

	LocalState() *LocalState

	// InitThreadState prepares t so that the first switch into it runs
	// entry. entry starts with the scheduler lock held by the switcher.
	InitThreadState(t *Thread, entry func())

	// ContextSwitch saves old, resumes next and returns once old is
	// switched back in. The scheduler lock stays held from the caller's
	// point of view; the returned guard is the one to release.
	ContextSwitch(g SchedulerGuard, old, next *Thread) SchedulerGuard

	// BootstrapSwitch abandons the boot context and resumes first. It
	// never returns.
	BootstrapSwitch(g SchedulerGuard, first *Thread)

	Now() Instant
	TicksPerSecond() uint64

	EnableInterrupts()
	DisableInterrupts()
	InterruptsEnabled() bool

	// Idle waits for an interrupt or a SignalEvent.
	Idle()
	// SignalEvent wakes a core waiting in Idle.
	SignalEvent()

	MemoryHardware() memory.Hardware
	// InstallMemoryConfig applies cfg to the calling core.
	InstallMemoryConfig(cfg *memory.Config)

	Console() Console

	// Panic stops the system. It never returns.
	Panic(msg string)
}
