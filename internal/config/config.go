// Package config loads the kernel and host runner configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"kestrel/kernel"
	"kestrel/kernel/memory"
)

// Config is the top-level file layout.
type Config struct {
	Kernel Kernel `yaml:"kernel"`
	Host   Host   `yaml:"host"`
}

// Kernel configures the kernel image.
type Kernel struct {
	Name           string        `yaml:"name"`
	TicksPerSecond uint64        `yaml:"ticks_per_second"`
	Timeslice      time.Duration `yaml:"timeslice"`
	// MPURegions is the number of protection slots the host backend
	// models.
	MPURegions int `yaml:"mpu_regions"`
	// MemoryRegions is the region table of the demo user process.
	MemoryRegions []Region `yaml:"memory_regions"`
}

// Region is a memory region as written in the config file.
type Region struct {
	Access string  `yaml:"access"`
	Start  Address `yaml:"start"`
	Size   Address `yaml:"size"`
}

// Address accepts decimal or 0x-prefixed hexadecimal integers.
type Address uint64

func (a *Address) UnmarshalYAML(n *yaml.Node) error {
	v, err := strconv.ParseUint(n.Value, 0, 64)
	if err != nil {
		return fmt.Errorf("line %d: address %q: %w", n.Line, n.Value, err)
	}
	*a = Address(v)
	return nil
}

// Host configures the host runner.
type Host struct {
	Ticks       uint64 `yaml:"ticks"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	kc := kernel.DefaultConfig()
	return Config{
		Kernel: Kernel{
			Name:           kc.Name,
			TicksPerSecond: 1000,
			Timeslice:      kc.Timeslice,
			MPURegions:     8,
			MemoryRegions: []Region{
				{Access: "rx", Start: 0x0800_0000, Size: 0x0010_0000},
				{Access: "rw", Start: 0x2000_0000, Size: 0x0001_0000},
			},
		},
		Host: Host{
			LogLevel: "info",
		},
	}
}

// Parse decodes a YAML document over the defaults and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var err error
	if c.Kernel.TicksPerSecond == 0 || c.Kernel.TicksPerSecond > uint64(time.Second) {
		err = multierr.Append(err, fmt.Errorf("kernel.ticks_per_second: %d out of range", c.Kernel.TicksPerSecond))
	}
	if c.Kernel.Timeslice < 0 {
		err = multierr.Append(err, fmt.Errorf("kernel.timeslice: negative duration %s", c.Kernel.Timeslice))
	}
	if c.Kernel.MPURegions <= 0 || c.Kernel.MPURegions > memory.MaxRegions {
		err = multierr.Append(err, fmt.Errorf("kernel.mpu_regions: %d not in 1..%d", c.Kernel.MPURegions, memory.MaxRegions))
	}
	for i, r := range c.Kernel.MemoryRegions {
		if _, perr := ParseAccess(r.Access); perr != nil {
			err = multierr.Append(err, fmt.Errorf("kernel.memory_regions[%d]: %w", i, perr))
		}
		if r.Size == 0 {
			err = multierr.Append(err, fmt.Errorf("kernel.memory_regions[%d]: zero size", i))
		}
	}
	if _, lerr := zap.ParseAtomicLevel(c.Host.LogLevel); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("host.log_level: %w", lerr))
	}
	return err
}

// ParseAccess converts an access string such as "rw" or "rx" to a
// memory.RegionType.
func ParseAccess(s string) (memory.RegionType, error) {
	var t memory.RegionType
	for _, c := range s {
		var bit memory.RegionType
		switch c {
		case 'r':
			bit = memory.Read
		case 'w':
			bit = memory.Write
		case 'x':
			bit = memory.Execute
		default:
			return 0, fmt.Errorf("access %q: unknown permission %q", s, c)
		}
		if t.Has(bit) {
			return 0, fmt.Errorf("access %q: repeated permission %q", s, c)
		}
		t |= bit
	}
	if t == 0 {
		return 0, fmt.Errorf("access %q: no permissions", s)
	}
	return t, nil
}

// KernelConfig returns the kernel.Config part.
func (c Config) KernelConfig() kernel.Config {
	return kernel.Config{Name: c.Kernel.Name, Timeslice: c.Kernel.Timeslice}
}

// Regions converts the configured region table. Validate must have
// succeeded.
func (c Config) Regions() []memory.Region {
	out := make([]memory.Region, 0, len(c.Kernel.MemoryRegions))
	for _, r := range c.Kernel.MemoryRegions {
		t, _ := ParseAccess(r.Access)
		out = append(out, memory.Region{
			Type:  t,
			Start: uintptr(r.Start),
			End:   uintptr(r.Start + r.Size),
		})
	}
	return out
}
