package kernel

// PreemptDisableGuard keeps the scheduler from switching away from the
// current thread on this core until Release. Guards nest.
type PreemptDisableGuard struct {
	ls *LocalState
}

// DisablePreemption returns a guard that must be released exactly once:
//
//	guard := k.DisablePreemption()
//	defer guard.Release()
func (k *Kernel) DisablePreemption() PreemptDisableGuard {
	ls := k.arch.LocalState()
	ls.preemptDisable++
	return PreemptDisableGuard{ls: ls}
}

// Release re-enables preemption. Calls after the first are no-ops.
func (g *PreemptDisableGuard) Release() {
	if g.ls == nil {
		return
	}
	g.ls.preemptDisable--
	g.ls = nil
}
