// Package memory describes per-domain memory access configurations that a
// processor backend installs into its protection hardware.
package memory

import (
	"fmt"
	"strings"
)

// RegionType is a set of access permissions.
type RegionType uint8

const (
	Read RegionType = 1 << iota
	Write
	Execute
)

const (
	ReadOnly            = Read
	ReadWrite           = Read | Write
	ReadExecutable      = Read | Execute
	ReadWriteExecutable = Read | Write | Execute
)

// Has reports whether t grants every permission in want.
func (t RegionType) Has(want RegionType) bool { return t&want == want }

func (t RegionType) String() string {
	if t == 0 {
		return "none"
	}
	var b strings.Builder
	for _, p := range []struct {
		bit RegionType
		c   byte
	}{{Read, 'r'}, {Write, 'w'}, {Execute, 'x'}} {
		if t.Has(p.bit) {
			b.WriteByte(p.c)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Region is the half-open address range [Start, End) with access Type.
type Region struct {
	Type  RegionType
	Start uintptr
	End   uintptr
}

// Size returns the number of bytes in the region.
func (r Region) Size() uintptr { return r.End - r.Start }

func (r Region) contains(start, end uintptr) bool {
	return start >= r.Start && end <= r.End
}

func (r Region) overlaps(start, end uintptr) bool {
	return start < r.End && r.Start < end
}

func (r Region) String() string {
	return fmt.Sprintf("%s %#x-%#x", r.Type, r.Start, r.End)
}
