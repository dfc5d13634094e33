package kernel

import (
	"runtime"
	"sync/atomic"
)

// BareSpinLock is a busy-waiting lock with no interrupt handling.
type BareSpinLock struct {
	_      [0]func() // prevent accidental copying.
	locked atomic.Bool
}

// TryLock acquires the lock if it is free.
func (l *BareSpinLock) TryLock() bool {
	return l.locked.CompareAndSwap(false, true)
}

// Lock spins until the lock is acquired.
func (l *BareSpinLock) Lock() {
	for !l.TryLock() {
		runtime.Gosched()
	}
}

// Unlock releases the lock and reports whether it was held.
func (l *BareSpinLock) Unlock() bool {
	return l.locked.CompareAndSwap(true, false)
}

// Locked reports whether the lock is held.
func (l *BareSpinLock) Locked() bool { return l.locked.Load() }

// SpinLock protects a value with a BareSpinLock and masks interrupts on
// the acquiring core for the critical section.
type SpinLock[T any] struct {
	bare  BareSpinLock
	value T
}

// SpinLockGuard is proof that a SpinLock is held. Exactly one Unlock must
// follow every Lock.
type SpinLockGuard[T any] struct {
	l   *SpinLock[T]
	a   Arch
	raw bool
}

// Lock disables interrupts on the calling core (if this is the outermost
// spin lock held there) and acquires the lock.
func (l *SpinLock[T]) Lock(a Arch) SpinLockGuard[T] {
	irqSave(a)
	l.bare.Lock()
	return SpinLockGuard[T]{l: l, a: a}
}

// lockRaw acquires the lock without touching interrupt state. It is used
// from interrupt context, where interrupts are already masked, and by
// observers running outside any kernel thread.
func (l *SpinLock[T]) lockRaw(a Arch) SpinLockGuard[T] {
	l.bare.Lock()
	return SpinLockGuard[T]{l: l, a: a, raw: true}
}

// adopt returns a guard for a lock acquired by another thread on this core
// and handed over by a context switch.
func (l *SpinLock[T]) adopt(a Arch) SpinLockGuard[T] {
	if !l.bare.Locked() {
		a.Panic("spinlock: adopting a lock that is not held")
	}
	return SpinLockGuard[T]{l: l, a: a}
}

// Value returns the protected value.
func (g SpinLockGuard[T]) Value() *T { return &g.l.value }

// Unlock releases the lock, then restores the interrupt state saved by the
// outermost acquisition on this core once no spin lock remains held.
func (g SpinLockGuard[T]) Unlock() {
	if !g.l.bare.Unlock() {
		g.a.Panic("spinlock: unlock of a lock that is not held")
		return
	}
	if !g.raw {
		irqRestore(g.a)
	}
}

func irqSave(a Arch) {
	ls := a.LocalState()
	if ls.irqDepth == 0 {
		ls.irqWasEnabled = a.InterruptsEnabled()
		if ls.irqWasEnabled {
			a.DisableInterrupts()
		}
	}
	ls.irqDepth++
}

func irqRestore(a Arch) {
	ls := a.LocalState()
	if ls.irqDepth == 0 {
		a.Panic("spinlock: interrupt nesting underflow")
		return
	}
	ls.irqDepth--
	if ls.irqDepth == 0 && ls.irqWasEnabled {
		ls.irqWasEnabled = false
		a.EnableInterrupts()
	}
}
