//go:build tinygo && baremetal && cortexm

package hal

import (
	"device/arm"
	"runtime/volatile"
	"unsafe"
)

var (
	mpuCTRL = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000ED94)))
	mpuRNR  = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000ED98)))
	mpuRBAR = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000ED9C)))
	mpuRASR = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000EDA0)))
)

const (
	mpuCTRLEnable     = 1 << 0
	mpuCTRLPrivDefEna = 1 << 2
)

// writeMPU programs regions into slots 0..n-1 and disables the rest.
func writeMPU(regions []MPURegion, slots int) {
	arm.Asm("dmb")
	mpuCTRL.Set(0)
	for i := 0; i < slots; i++ {
		mpuRNR.Set(uint32(i))
		if i < len(regions) {
			mpuRBAR.Set(regions[i].RBAR)
			mpuRASR.Set(regions[i].RASR)
		} else {
			mpuRASR.Set(0)
		}
	}
	mpuCTRL.Set(mpuCTRLEnable | mpuCTRLPrivDefEna)
	arm.Asm("dsb")
	arm.Asm("isb")
}
