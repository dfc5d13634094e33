package kernel

import (
	"sync"
	"testing"
)

// irqArch records interrupt masking. Methods the spin lock does not use
// are left to the nil embedded interface.
type irqArch struct {
	Arch
	ls       LocalState
	enabled  bool
	disables int
	enables  int
}

func (a *irqArch) LocalState() *LocalState { return &a.ls }
func (a *irqArch) InterruptsEnabled() bool { return a.enabled }
func (a *irqArch) DisableInterrupts() { a.enabled = false; a.disables++ }
func (a *irqArch) EnableInterrupts() { a.enabled = true; a.enables++ }
func (a *irqArch) Panic(msg string) { panic(msg) }

func TestSpinLockRestoresOnLastRelease(t *testing.T) {
	a := &irqArch{enabled: true}
	var l1, l2 SpinLock[int]

	g1 := l1.Lock(a)
	if a.enabled {
		t.Fatalf("interrupts enabled inside critical section")
	}
	g2 := l2.Lock(a)
	*g2.Value() = 7

	g1.Unlock()
	if a.enabled {
		t.Fatalf("first release re-enabled interrupts while another lock is held")
	}
	g2.Unlock()
	if !a.enabled {
		t.Fatalf("last release did not restore enabled interrupts")
	}
	if a.disables != 1 || a.enables != 1 {
		t.Fatalf("disables, enables = %d, %d, want 1, 1", a.disables, a.enables)
	}
	if l2.value != 7 {
		t.Fatalf("value = %d, want 7", l2.value)
	}
}

func TestSpinLockKeepsInterruptsDisabled(t *testing.T) {
	a := &irqArch{enabled: false}
	var l SpinLock[struct{}]

	l.Lock(a).Unlock()
	if a.enabled || a.enables != 0 {
		t.Fatalf("release enabled interrupts that were disabled before the lock")
	}
}

func TestSpinLockRawLeavesInterruptsAlone(t *testing.T) {
	a := &irqArch{enabled: true}
	var l SpinLock[int]

	g := l.lockRaw(a)
	if !a.enabled || a.ls.irqDepth != 0 {
		t.Fatalf("lockRaw touched interrupt state")
	}
	g.Unlock()
	if a.disables != 0 || a.enables != 0 {
		t.Fatalf("disables, enables = %d, %d, want 0, 0", a.disables, a.enables)
	}
}

func TestSpinLockUnlockNotHeldPanics(t *testing.T) {
	a := &irqArch{enabled: true}
	var l SpinLock[int]
	g := l.Lock(a)
	g.Unlock()

	defer func() {
		if recover() == nil {
			t.Fatalf("second Unlock did not panic")
		}
	}()
	g.Unlock()
}

func TestBareSpinLockExcludes(t *testing.T) {
	var l BareSpinLock
	var wg sync.WaitGroup
	n := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				l.Lock()
				n++
				l.Unlock()
			}
		}()
	}
	wg.Wait()
	if n != 8000 {
		t.Fatalf("n = %d, want 8000", n)
	}
	if !l.TryLock() || l.TryLock() {
		t.Fatalf("TryLock did not reflect lock state")
	}
}
