//go:build tinygo && baremetal

package hal

import (
	"machine"
	"time"

	"kestrel/kernel"
	"kestrel/kernel/memory"
)

const tinyGoTicksPerSecond = 1000

// TinyGo is the microcontroller backend. Kernel threads run as TinyGo
// goroutines; the MPU is programmed on Cortex-M parts.
type TinyGo struct {
	core

	console uartConsole
	mpu     ARMv7MMPU
	start   time.Time
	tick    kernel.TickHandler
}

var _ Backend = (*TinyGo)(nil)

// New returns the backend for the board the binary is built for.
//
// Console: the board's default serial port at 115200 8N1.
func New() *TinyGo {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: 115200})
	t := &TinyGo{
		console: uartConsole{},
		mpu:     ARMv7MMPU{Regions: 8},
		start:   time.Now(),
	}
	t.core.init()
	return t
}

func (t *TinyGo) Name() string { return machine.Device }

func (t *TinyGo) EarlyInit(tick kernel.TickHandler) {
	t.tick = tick
}

// Init starts the tick source. It runs on the bootstrap thread.
func (t *TinyGo) Init() {
	go func() {
		ticker := time.NewTicker(time.Second / tinyGoTicksPerSecond)
		defer ticker.Stop()
		for range ticker.C {
			t.Interrupt(func() { t.tick(t.Now()) })
		}
	}()
}

func (t *TinyGo) Now() kernel.Instant {
	return kernel.Instant(uint64(time.Since(t.start)) / uint64(time.Second/tinyGoTicksPerSecond))
}

func (t *TinyGo) TicksPerSecond() uint64 { return tinyGoTicksPerSecond }

func (t *TinyGo) MemoryHardware() memory.Hardware { return t.mpu }

func (t *TinyGo) InstallMemoryConfig(cfg *memory.Config) {
	regions, err := EncodeMPUConfig(cfg)
	if err != nil {
		t.Panic("install memory config: " + err.Error())
	}
	writeMPU(regions, t.mpu.Regions)
	t.core.InstallMemoryConfig(cfg)
}

func (t *TinyGo) Console() kernel.Console { return t.console }

type uartConsole struct{}

func (uartConsole) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		machine.Serial.WriteByte(s[i])
	}
	machine.Serial.WriteByte('\r')
	machine.Serial.WriteByte('\n')
}
