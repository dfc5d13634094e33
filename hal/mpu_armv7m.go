package hal

import (
	"errors"
	"fmt"
	"math/bits"

	"kestrel/kernel/memory"
)

// ARMv7-M MPU register bits.
const (
	mpuRBARValid  = 1 << 4
	mpuRASREnable = 1 << 0
	mpuRASRXN     = 1 << 28
	mpuRASRAPRO   = 0b110 << 24 // read-only, privileged and unprivileged
	mpuRASRAPRW   = 0b011 << 24 // full access
	mpuRASRCB     = 0b11 << 16  // normal memory, write-back

	mpuMinRegionBytes = 32
	addressSpaceBytes = 1 << 32
)

var (
	ErrMPURegionSize  = errors.New("mpu: region size must be a power of two of at least 32 bytes")
	ErrMPUAlignment   = errors.New("mpu: region base must be aligned to its size")
	ErrMPUAddress     = errors.New("mpu: region outside the 32-bit address space")
	ErrMPUWriteNoRead = errors.New("mpu: write-only regions are not supported")
)

// ARMv7MMPU describes an ARMv7-M protection unit with Regions slots.
type ARMv7MMPU struct {
	Regions int
}

func (m ARMv7MMPU) Capacity() int { return m.Regions }

func (m ARMv7MMPU) ValidateRegion(r memory.Region) error {
	_, err := mpuSizeField(r)
	if err != nil {
		return err
	}
	if r.Type.Has(memory.Write) && !r.Type.Has(memory.Read) {
		return ErrMPUWriteNoRead
	}
	return nil
}

func wholeAddressSpace(r memory.Region) bool {
	return r.Start == 0 && uint64(r.End) >= addressSpaceBytes-1
}

// mpuSizeField returns the RASR SIZE value (log2(size) - 1).
func mpuSizeField(r memory.Region) (uint32, error) {
	if wholeAddressSpace(r) {
		return 31, nil
	}
	if uint64(r.End) > addressSpaceBytes {
		return 0, ErrMPUAddress
	}
	size := uint64(r.End - r.Start)
	if size < mpuMinRegionBytes || size&(size-1) != 0 {
		return 0, ErrMPURegionSize
	}
	if uint64(r.Start)%size != 0 {
		return 0, ErrMPUAlignment
	}
	return uint32(bits.TrailingZeros64(size) - 1), nil
}

// MPURegion is one region as written to RBAR/RASR.
type MPURegion struct {
	RBAR uint32
	RASR uint32
}

// EncodeMPURegion encodes r for slot index.
func EncodeMPURegion(index int, r memory.Region) (MPURegion, error) {
	if index < 0 || index > 15 {
		return MPURegion{}, fmt.Errorf("mpu: region index %d out of range", index)
	}
	size, err := mpuSizeField(r)
	if err != nil {
		return MPURegion{}, err
	}

	rasr := uint32(mpuRASRCB) | size<<1 | mpuRASREnable
	if !r.Type.Has(memory.Execute) {
		rasr |= mpuRASRXN
	}
	if r.Type.Has(memory.Write) {
		rasr |= mpuRASRAPRW
	} else {
		rasr |= mpuRASRAPRO
	}
	return MPURegion{
		RBAR: uint32(r.Start) | mpuRBARValid | uint32(index),
		RASR: rasr,
	}, nil
}

// EncodeMPUConfig encodes every region of cfg in slot order.
func EncodeMPUConfig(cfg *memory.Config) ([]MPURegion, error) {
	out := make([]MPURegion, 0, cfg.Len())
	for i := 0; i < cfg.Len(); i++ {
		enc, err := EncodeMPURegion(i, cfg.Region(i))
		if err != nil {
			return nil, fmt.Errorf("region %d: %w", i, err)
		}
		out = append(out, enc)
	}
	return out, nil
}
