package kernel

import (
	"unsafe"

	"kestrel/kernel/memory"
)

// State is the scheduling state of a thread.
type State uint8

const (
	StateUnstarted State = iota
	StateReady
	StateRunning
	StateBlocked
	StateSleeping
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "Unstarted"
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateBlocked:
		return "Blocked"
	case StateSleeping:
		return "Sleeping"
	default:
		return "unknown"
	}
}

// Priority selects the run-queue band of a thread. Higher runs first; the
// zero value is PriorityNormal.
type Priority int8

const (
	PriorityIdle Priority = iota - 2
	PriorityLow
	PriorityNormal
	PriorityHigh
)

const numPriorities = int(PriorityHigh-PriorityIdle) + 1

func (p Priority) band() int { return int(p - PriorityIdle) }

func (p Priority) valid() bool { return p >= PriorityIdle && p <= PriorityHigh }

func (p Priority) String() string {
	switch p {
	case PriorityIdle:
		return "idle"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "invalid"
	}
}

// container records which kernel collection currently holds a thread.
type container uint8

const (
	inNothing container = iota // running, unstarted, or mid-transition
	inRunQueue
	inWaitSet
	inTimerQueue
)

// EntryFunc is a thread body. It receives the thread's context and the
// single argument given at initialization. It must never return.
type EntryFunc func(ctx *Context, arg uintptr)

// Process is a protection domain shared by one or more threads.
type Process struct {
	Name   string
	Memory *memory.Config
}

// ThreadOptions tunes InitThread. The zero value is a normal-priority
// thread in the kernel process.
type ThreadOptions struct {
	Priority Priority
	Process  *Process
}

// Thread is a schedulable unit of execution. Its storage is owned by the
// caller (typically a package-level variable); the kernel only initializes it.
type Thread struct {
	name     string
	id       uint32
	state    State
	priority Priority
	process  *Process
	stack    Stack
	entry    EntryFunc
	arg      uintptr
	arch     any
	ctx      Context

	registered bool
	cpu        int
	pinned     bool
	sliceStart Instant

	where   container
	waitSet *threadQueue
	next    *Thread

	timerNext   *Thread
	deadline    Instant
	timerQueued bool
	timedOut    bool

	allNext *Thread
}

// Name returns the name given at initialization.
func (t *Thread) Name() string { return t.name }

// ID returns the kernel-assigned thread id.
func (t *Thread) ID() uint32 { return t.id }

// Priority returns the thread's run-queue band.
func (t *Thread) Priority() Priority { return t.priority }

// Stack returns the thread's stack region.
func (t *Thread) Stack() Stack { return t.stack }

// ArchState returns the backend's saved register state for the thread.
func (t *Thread) ArchState() any { return t.arch }

// SetArchState is called by backends from Arch.InitThreadState.
func (t *Thread) SetArchState(s any) { t.arch = s }

const (
	// KernelStackBytes is the stack size of the bootstrap and idle threads.
	KernelStackBytes = 2048
	// MinStackBytes is the smallest stack InitThread accepts.
	MinStackBytes = 256

	stackAlign = 8
	stackPaint = 0xA5
)

// Stack is a caller-supplied stack region.
type Stack struct {
	mem []byte
}

// NewStack wraps mem as a thread stack.
func NewStack(mem []byte) Stack { return Stack{mem: mem} }

// Base returns the lowest address of the region.
func (s Stack) Base() uintptr {
	if len(s.mem) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&s.mem[0]))
}

// Size returns the region size in bytes.
func (s Stack) Size() int { return len(s.mem) }

// HighWater returns how many bytes from the top of the stack have been
// written since the region was painted.
func (s Stack) HighWater() int {
	for i, b := range s.mem {
		if b != stackPaint {
			return len(s.mem) - i
		}
	}
	return 0
}

func (s Stack) paint() {
	for i := range s.mem {
		s.mem[i] = stackPaint
	}
}

func (s Stack) check() string {
	switch {
	case len(s.mem) < MinStackBytes:
		return "stack smaller than MinStackBytes"
	case len(s.mem)%stackAlign != 0:
		return "stack size not a multiple of 8"
	case s.Base()%stackAlign != 0:
		return "stack base not 8-byte aligned"
	}
	return ""
}

// StackStorage is 8-byte aligned static stack memory of KernelStackBytes.
type StackStorage [KernelStackBytes / 8]uint64

// Stack returns the storage as a Stack.
func (s *StackStorage) Stack() Stack {
	return NewStack(unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8))
}
