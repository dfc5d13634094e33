package kernel

import (
	"sync/atomic"
	"time"

	"kestrel/internal/buildinfo"
	"kestrel/kernel/memory"
)

// Config tunes a kernel instance.
type Config struct {
	// Name is printed in the boot banner.
	Name string
	// Timeslice is how long a thread may run before the tick requests a
	// reschedule in favour of an equal or higher priority Ready thread.
	// Zero disables timeslicing.
	Timeslice time.Duration
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{Name: "Kestrel", Timeslice: 10 * time.Millisecond}
}

// Kernel is one kernel image: the scheduler lock and everything it guards.
type Kernel struct {
	arch    Arch
	console Console
	cfg     Config

	timeslice uint64

	sched         SpinLock[SchedulerState]
	kernelProcess Process
	init          *InitState

	ready atomic.Bool
}

// InitState is the static storage Main boots from. Declare it as a
// package-level variable and fill in Config and Main.
type InitState struct {
	Kernel Kernel
	Config Config
	// Main runs on the bootstrap thread once the idle thread exists. It
	// must not return; park it with SleepUntil(Forever) when done.
	Main EntryFunc

	bootstrap      Thread
	bootstrapStack StackStorage
	idle           Thread
	idleStack      StackStorage
}

// Init prepares k to drive a. Main calls it; tests may call it directly.
func (k *Kernel) Init(a Arch, cfg Config) {
	if cfg.Name == "" {
		cfg.Name = DefaultConfig().Name
	}
	k.arch = a
	k.console = a.Console()
	k.cfg = cfg
	k.timeslice = DurationToTicks(cfg.Timeslice, a.TicksPerSecond())
	k.kernelProcess = Process{
		Name:   "kernel",
		Memory: memory.KernelThreadConfig(a.MemoryHardware()),
	}
	k.ready.Store(true)
}

// Arch returns the backend k runs on.
func (k *Kernel) Arch() Arch { return k.arch }

// Console returns the diagnostic line sink.
func (k *Kernel) Console() Console { return k.console }

// Now returns the current kernel time.
func (k *Kernel) Now() Instant { return k.arch.Now() }

// KernelProcess returns the protection domain kernel threads run in.
func (k *Kernel) KernelProcess() *Process { return &k.kernelProcess }

// Main boots the kernel on a and never returns. It turns the calling
// context into the bootstrap thread, which creates the idle thread and
// then runs init.Main.
func Main(a Arch, init *InitState) {
	k := &init.Kernel
	k.Init(a, init.Config)
	k.init = init
	preempt := k.DisablePreemption()

	k.logf("Welcome to %s %s on %s!", k.cfg.Name, buildinfo.Short(), a.Name())

	a.EarlyInit(k.Tick)

	bootstrap := k.InitThread(&init.bootstrap, init.bootstrapStack.Stack(), "bootstrap", bootstrapEntry, 0, ThreadOptions{})
	k.logf("created thread, bootstrapping")

	k.bootstrapScheduler(&preempt, bootstrap)
}

// bootstrapScheduler is a half context switch: there is no previous
// thread to save.
func (k *Kernel) bootstrapScheduler(preempt *PreemptDisableGuard, first *Thread) {
	g := k.sched.Lock(k.arch)
	s := g.Value()
	cpu := k.arch.LocalState().CPU
	core := &s.cores[cpu]

	first.state = StateRunning
	first.cpu = cpu
	first.sliceStart = k.arch.Now()
	core.current = first
	k.installMemory(core, first)
	s.stats.ContextSwitches++

	preempt.Release()
	k.arch.BootstrapSwitch(g, first)
	k.fatalf("bootstrap switch returned")
}

func bootstrapEntry(ctx *Context, _ uintptr) {
	k := ctx.k
	init := k.init
	k.logf("Welcome to the first thread, continuing bootstrap")
	if !k.arch.InterruptsEnabled() {
		k.fatalf("interrupts disabled on entry to the bootstrap thread")
	}

	k.arch.Init()

	k.DumpThreads()
	idle := k.InitThread(&init.idle, init.idleStack.Stack(), "idle", idleEntry, 0, ThreadOptions{Priority: PriorityIdle})
	k.pinIdle(idle)
	k.DumpThreads()
	k.StartThread(idle)

	if init.Main == nil {
		k.fatalf("no main thread entry configured")
	}
	init.Main(ctx, 0)
}

// idleEntry keeps the run queue non-empty. It waits for an event and
// then offers the core to whatever became Ready.
func idleEntry(ctx *Context, _ uintptr) {
	k := ctx.k
	for {
		if !k.arch.InterruptsEnabled() {
			k.fatalf("idle thread running with interrupts disabled")
		}
		k.arch.Idle()
		ctx.Yield()
	}
}
