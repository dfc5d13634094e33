package kernel

import (
	"math"
	"math/bits"
	"time"
)

// Instant is a point on the kernel's monotonic tick clock.
type Instant uint64

// Forever is a deadline that never elapses.
const Forever Instant = math.MaxUint64

// Add returns i advanced by ticks, saturating at Forever.
func (i Instant) Add(ticks uint64) Instant {
	sum, carry := bits.Add64(uint64(i), ticks, 0)
	if carry != 0 {
		return Forever
	}
	return Instant(sum)
}

// Sub returns the number of ticks from j to i, or 0 when j is not before i.
func (i Instant) Sub(j Instant) uint64 {
	if i <= j {
		return 0
	}
	return uint64(i - j)
}

// DurationToTicks converts d to ticks of a clock running at hz, rounding up
// so a deadline computed from it never fires early.
func DurationToTicks(d time.Duration, hz uint64) uint64 {
	if d <= 0 || hz == 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(d), hz)
	if hi >= uint64(time.Second) {
		return math.MaxUint64
	}
	q, r := bits.Div64(hi, lo, uint64(time.Second))
	if r != 0 {
		q++
	}
	return q
}

// TicksToDuration converts ticks of a clock running at hz to a duration,
// rounding down.
func TicksToDuration(ticks, hz uint64) time.Duration {
	if hz == 0 {
		return 0
	}
	hi, lo := bits.Mul64(ticks, uint64(time.Second))
	if hi >= hz {
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, hz)
	if q > math.MaxInt64 {
		return math.MaxInt64
	}
	return time.Duration(q)
}
