//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"math/bits"
	"runtime"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sys/cpu"

	"kestrel/kernel"
	"kestrel/kernel/memory"
)

// HostConfig configures a host backend. Zero fields take defaults.
type HostConfig struct {
	Name           string
	Clock          clock.Clock
	Logger         *zap.Logger
	TicksPerSecond uint64
	MPURegions     int
}

// Host is a single-core backend running kernel threads as goroutines.
type Host struct {
	core

	name    string
	clk     clock.Clock
	start   time.Time
	hz      uint64
	log     *zap.Logger
	console *ZapConsole
	mpu     ARMv7MMPU

	tick kernel.TickHandler
}

var _ Backend = (*Host)(nil)

// New returns a host backend on the wall clock logging to stderr.
func New() *Host {
	return NewHost(HostConfig{})
}

// NewHost returns a host backend configured by cfg.
func NewHost(cfg HostConfig) *Host {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.TicksPerSecond == 0 {
		cfg.TicksPerSecond = 1000
	}
	if cfg.MPURegions == 0 {
		cfg.MPURegions = 8
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("host (%s/%s)", runtime.GOOS, runtime.GOARCH)
	}

	h := &Host{
		name:    cfg.Name,
		clk:     cfg.Clock,
		start:   cfg.Clock.Now(),
		hz:      cfg.TicksPerSecond,
		log:     cfg.Logger,
		console: NewZapConsole(cfg.Logger.Named("kernel")),
		mpu:     ARMv7MMPU{Regions: cfg.MPURegions},
	}
	h.core.init()
	return h
}

func (h *Host) Name() string { return h.name }

func (h *Host) EarlyInit(tick kernel.TickHandler) {
	h.tick = tick
	h.log.Debug("early init", zap.Uint64("hz", h.hz))
}

func (h *Host) Init() {
	h.log.Debug("init",
		zap.Int("mpu_regions", h.mpu.Regions),
		zap.Strings("cpu_features", CPUFeatures()),
	)
}

// CPUFeatures lists the atomics-related instruction set extensions of the
// host processor that the spin lock's compare-and-swap can use.
func CPUFeatures() []string {
	features := []string{}
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}
	add(cpu.X86.HasSSE2, "sse2")
	add(cpu.X86.HasSSE42, "sse4.2")
	add(cpu.X86.HasAVX2, "avx2")
	add(cpu.X86.HasCX16, "cx16")
	add(cpu.ARM64.HasATOMICS, "lse")
	add(cpu.ARM64.HasCRC32, "crc32")
	add(cpu.ARM64.HasSHA2, "sha2")
	return features
}

func (h *Host) Now() kernel.Instant {
	return kernel.Instant(ticksIn(h.clk.Since(h.start), h.hz))
}

func (h *Host) TicksPerSecond() uint64 { return h.hz }

func (h *Host) MemoryHardware() memory.Hardware { return h.mpu }

func (h *Host) InstallMemoryConfig(cfg *memory.Config) {
	if _, err := EncodeMPUConfig(cfg); err != nil {
		h.Panic(fmt.Sprintf("install memory config: %v", err))
	}
	h.core.InstallMemoryConfig(cfg)
}

func (h *Host) Console() kernel.Console { return h.console }

// Clock returns the clock the backend reads time from.
func (h *Host) Clock() clock.Clock { return h.clk }

// FireTick delivers one timer interrupt at the current time.
func (h *Host) FireTick() {
	if h.tick == nil {
		return
	}
	h.Interrupt(func() { h.tick(h.Now()) })
}

// RunTicker delivers a timer interrupt every tick period until ctx is done
// or maxTicks interrupts were delivered (0 means no limit).
func (h *Host) RunTicker(ctx context.Context, maxTicks uint64) error {
	period := time.Second / time.Duration(h.hz)
	if period <= 0 {
		return fmt.Errorf("invalid tick rate: %d Hz", h.hz)
	}
	t := h.clk.Ticker(period)
	defer t.Stop()

	var n uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.halt:
			return fmt.Errorf("%w: %s", ErrHalted, h.HaltMessage())
		case <-t.C:
			h.FireTick()
			n++
			if maxTicks > 0 && n >= maxTicks {
				return nil
			}
		}
	}
}

// Step advances a mock clock by d, delivers one timer interrupt and waits
// until every thread woken by it has run and the core is idle again.
func (h *Host) Step(d time.Duration) {
	m, ok := h.clk.(*clock.Mock)
	if !ok {
		panic("hal: Step requires a mock clock")
	}
	m.Add(d)
	h.FireTick()
	h.WaitIdle()
}

// ticksIn converts d to whole ticks at hz, rounding down.
func ticksIn(d time.Duration, hz uint64) uint64 {
	if d <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(d), hz)
	if hi >= uint64(time.Second) {
		return ^uint64(0)
	}
	q, _ := bits.Div64(hi, lo, uint64(time.Second))
	return q
}
