//go:build tinygo && baremetal && !cortexm

package hal

// writeMPU is a no-op on parts without an ARMv7-M MPU. The installed
// config is still tracked for access checks.
func writeMPU(regions []MPURegion, slots int) {}
