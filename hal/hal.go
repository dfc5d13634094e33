// Package hal holds the processor backends the kernel runs on. The host
// backend (default build) runs on a regular Go toolchain; the TinyGo
// backend (tinygo && baremetal) runs on a microcontroller.
package hal

import (
	"errors"

	"kestrel/kernel"
	"kestrel/kernel/memory"
)

// Backend is a kernel.Arch plus the hooks the application layer uses.
type Backend interface {
	kernel.Arch

	SetPanicHandler(fn func(msg string))
	Halted() <-chan struct{}
	HaltMessage() string
	InstalledMemoryConfig() *memory.Config
}

// ErrHalted is returned by runners when the kernel panicked.
var ErrHalted = errors.New("kernel halted")
