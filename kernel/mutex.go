package kernel

import "errors"

// ErrTimeout is returned by LockUntil when the deadline elapses before
// ownership is handed over.
var ErrTimeout = errors.New("kernel: lock deadline elapsed")

// Mutex is a blocking lock protecting a value. Its state is guarded by the
// scheduler lock. Ownership passes directly to the longest waiter on
// release. The zero value is an unlocked mutex.
type Mutex[T any] struct {
	owner   *Thread
	waiters threadQueue
	gen     uint32
	value   T
}

// NewMutex returns an unlocked mutex holding v.
func NewMutex[T any](v T) Mutex[T] {
	return Mutex[T]{value: v}
}

// MutexGuard is proof of ownership of a Mutex. Unlock releases it; further
// calls on the same guard or its copies are no-ops.
type MutexGuard[T any] struct {
	m   *Mutex[T]
	k   *Kernel
	gen uint32
}

// Value returns the protected value.
func (g MutexGuard[T]) Value() *T { return &g.m.value }

// Lock blocks until the calling thread owns m.
func (m *Mutex[T]) Lock(ctx *Context) MutexGuard[T] {
	g, err := m.LockUntil(ctx, Forever)
	if err != nil {
		ctx.k.fatalf("untimed lock by %q returned %v", ctx.t.name, err)
	}
	return g
}

// TryLock takes m only if it is free and has no waiters.
func (m *Mutex[T]) TryLock(ctx *Context) (MutexGuard[T], bool) {
	k, t := ctx.k, ctx.t
	sg := k.sched.Lock(k.arch)
	if m.owner != nil || !m.waiters.empty() {
		sg.Unlock()
		return MutexGuard[T]{}, false
	}
	m.owner = t
	mg := MutexGuard[T]{m: m, k: k, gen: m.gen}
	sg.Unlock()
	return mg, true
}

// LockUntil blocks until the calling thread owns m or deadline elapses,
// whichever comes first. On timeout it returns ErrTimeout and the thread
// is no longer queued on m.
func (m *Mutex[T]) LockUntil(ctx *Context, deadline Instant) (MutexGuard[T], error) {
	k, t := ctx.k, ctx.t
	sg := k.sched.Lock(k.arch)
	if m.owner == nil && m.waiters.empty() {
		m.owner = t
		mg := MutexGuard[T]{m: m, k: k, gen: m.gen}
		sg.Unlock()
		return mg, nil
	}
	if m.owner == t {
		k.fatalf("thread %q locked a mutex it already owns", t.name)
	}
	if deadline != Forever && k.arch.Now() >= deadline {
		sg.Unlock()
		return MutexGuard[T]{}, ErrTimeout
	}

	s := sg.Value()
	k.checkCurrent(s, t)
	s.stats.MutexContentions++
	t.timedOut = false
	t.state = StateBlocked
	t.where = inWaitSet
	t.waitSet = &m.waiters
	m.waiters.push(t)
	if deadline != Forever && !s.timers.insert(t, deadline) {
		k.fatalf("thread %q already has a pending timer", t.name)
	}

	sg = k.block(sg, t)

	if t.timedOut {
		t.timedOut = false
		sg.Unlock()
		return MutexGuard[T]{}, ErrTimeout
	}
	if m.owner != t {
		k.fatalf("thread %q woke without owning the mutex", t.name)
	}
	mg := MutexGuard[T]{m: m, k: k, gen: m.gen}
	sg.Unlock()
	return mg, nil
}

// Unlock releases the mutex, handing it to the longest waiter if any.
func (g MutexGuard[T]) Unlock() {
	if g.m == nil {
		return
	}
	k, m := g.k, g.m
	sg := k.sched.Lock(k.arch)
	if m.gen != g.gen || m.owner == nil {
		sg.Unlock()
		return
	}
	m.gen++
	s := sg.Value()
	w := m.waiters.pop()
	if w == nil {
		m.owner = nil
		sg.Unlock()
		return
	}
	s.timers.remove(w)
	w.where = inNothing
	w.waitSet = nil
	m.owner = w
	k.makeReady(s, w)
	sg.Unlock()
}
