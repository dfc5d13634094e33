package app

import (
	"fmt"

	"kestrel/hal"
	"kestrel/kernel"
	"kestrel/kernel/memory"
)

// Config selects what the target main runs.
type Config struct {
	Kernel kernel.Config
	// UserRegions is the memory table of the demo process. When empty the
	// demo threads run in the kernel process.
	UserRegions []memory.Region
	// Observe, if set, receives every reading of the demo's poll thread.
	Observe func(Observation)
}

// System is the static storage of one kernel image and its demo.
type System struct {
	Init kernel.InitState
	Demo Demo

	user    kernel.Process
	hasUser bool
}

// New prepares a system for b and installs the panic reporter. Boot it
// with kernel.Main(b, &s.Init).
func New(b hal.Backend, cfg Config) (*System, error) {
	s := &System{}
	s.Init.Config = cfg.Kernel
	s.Init.Main = s.main
	s.Demo.observe = cfg.Observe

	if len(cfg.UserRegions) > 0 {
		mem, err := memory.New(b.MemoryHardware(), cfg.UserRegions...)
		if err != nil {
			return nil, fmt.Errorf("demo process memory: %w", err)
		}
		s.user = kernel.Process{Name: "demo", Memory: mem}
		s.hasUser = true
	}

	installPanicHandler(b)
	return s, nil
}

// Run boots the system and never returns (TinyGo entrypoint).
func Run(b hal.Backend, cfg Config) {
	s, err := New(b, cfg)
	if err != nil {
		b.Console().WriteLineString("kestrel: " + err.Error())
		b.Panic(err.Error())
	}
	kernel.Main(b, &s.Init)
}

func (s *System) main(ctx *kernel.Context, _ uintptr) {
	proc := ctx.Kernel().KernelProcess()
	if s.hasUser {
		proc = &s.user
		proc.Memory.Dump(ctx.Kernel().Console())
	}
	s.Demo.Start(ctx, proc)
	for {
		ctx.SleepUntil(kernel.Forever)
	}
}
