package memory

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// MaxRegions is the largest table any backend supports.
const MaxRegions = 16

var (
	ErrTooManyRegions = errors.New("memory: more regions than the protection hardware supports")
	ErrEmptyRegion    = errors.New("memory: region end not after start")
	ErrNoAccess       = errors.New("memory: region grants no access")
)

// Hardware is the protection unit a Config is built for.
type Hardware interface {
	// Capacity is the number of regions the unit can hold.
	Capacity() int
	// ValidateRegion rejects regions the unit cannot encode.
	ValidateRegion(r Region) error
}

// Console receives Dump output.
type Console interface {
	WriteLineString(s string)
}

// Config is an immutable table of access regions for one protection
// domain.
type Config struct {
	n       int
	regions [MaxRegions]Region
}

// New validates regions against hw and returns the resulting config. All
// problems are reported together.
func New(hw Hardware, regions ...Region) (*Config, error) {
	capacity := hw.Capacity()
	if capacity > MaxRegions {
		capacity = MaxRegions
	}
	if len(regions) > capacity {
		return nil, fmt.Errorf("%w: %d regions, capacity %d", ErrTooManyRegions, len(regions), capacity)
	}

	var err error
	for i, r := range regions {
		if r.End <= r.Start {
			err = multierr.Append(err, fmt.Errorf("region %d (%s): %w", i, r, ErrEmptyRegion))
			continue
		}
		if r.Type == 0 {
			err = multierr.Append(err, fmt.Errorf("region %d (%s): %w", i, r, ErrNoAccess))
			continue
		}
		if verr := hw.ValidateRegion(r); verr != nil {
			err = multierr.Append(err, fmt.Errorf("region %d (%s): %w", i, r, verr))
		}
	}
	if err != nil {
		return nil, err
	}

	cfg := &Config{n: len(regions)}
	copy(cfg.regions[:], regions)
	return cfg, nil
}

// MustNew is New for package-level configs; it panics on invalid input so
// a bad table stops the program before the kernel starts.
func MustNew(hw Hardware, regions ...Region) *Config {
	cfg, err := New(hw, regions...)
	if err != nil {
		panic(err)
	}
	return cfg
}

// KernelThreadConfig grants kernel threads full access to the whole
// address space.
func KernelThreadConfig(hw Hardware) *Config {
	return MustNew(hw, Region{Type: ReadWriteExecutable, Start: 0, End: ^uintptr(0)})
}

// Len returns the number of regions.
func (c *Config) Len() int { return c.n }

// Region returns region i.
func (c *Config) Region(i int) Region { return c.regions[:c.n][i] }

// Regions returns a copy of the region table.
func (c *Config) Regions() []Region {
	out := make([]Region, c.n)
	copy(out, c.regions[:c.n])
	return out
}

// RangeHasAccess reports whether [start, end) may be accessed with every
// permission in kind. The last region overlapping the range decides, and
// it must cover the whole range. Empty ranges are always accessible.
func (c *Config) RangeHasAccess(kind RegionType, start, end uintptr) bool {
	if end < start {
		return false
	}
	if end == start {
		return true
	}
	for i := c.n - 1; i >= 0; i-- {
		r := c.regions[i]
		if !r.overlaps(start, end) {
			continue
		}
		return r.contains(start, end) && r.Type.Has(kind)
	}
	return false
}

// Dump writes the region table to con.
func (c *Config) Dump(con Console) {
	con.WriteLineString(fmt.Sprintf("memory config: %d regions", c.n))
	for i := 0; i < c.n; i++ {
		con.WriteLineString(fmt.Sprintf("  [%d] %s", i, c.regions[i]))
	}
}
