package kernel

import (
	"testing"
	"time"
)

func TestDurationToTicksRoundsUp(t *testing.T) {
	tests := []struct {
		d    time.Duration
		hz   uint64
		want uint64
	}{
		{0, 1000, 0},
		{-time.Second, 1000, 0},
		{time.Millisecond, 1000, 1},
		{time.Millisecond + 1, 1000, 2},
		{600 * time.Millisecond, 1000, 600},
		{time.Second, 32768, 32768},
		{time.Millisecond, 32768, 33},
		{time.Second, 0, 0},
		{time.Duration(1<<63 - 1), 1 << 40, 1<<64 - 1},
	}
	for _, tt := range tests {
		if got := DurationToTicks(tt.d, tt.hz); got != tt.want {
			t.Fatalf("DurationToTicks(%v, %d) = %d, want %d", tt.d, tt.hz, got, tt.want)
		}
	}
}

func TestTicksToDuration(t *testing.T) {
	if got := TicksToDuration(1500, 1000); got != 1500*time.Millisecond {
		t.Fatalf("TicksToDuration(1500, 1000) = %v, want 1.5s", got)
	}
	if got := TicksToDuration(1, 3); got != 333333333 {
		t.Fatalf("TicksToDuration(1, 3) = %d, want 333333333", got)
	}
}

func TestInstantArithmetic(t *testing.T) {
	if got := Instant(10).Add(5); got != 15 {
		t.Fatalf("Add() = %d, want 15", got)
	}
	if got := (Forever - 1).Add(10); got != Forever {
		t.Fatalf("Add() near the end = %d, want Forever", got)
	}
	if got := Instant(10).Sub(4); got != 6 {
		t.Fatalf("Sub() = %d, want 6", got)
	}
	if got := Instant(4).Sub(10); got != 0 {
		t.Fatalf("Sub() of a later instant = %d, want 0", got)
	}
}

func TestStackCheck(t *testing.T) {
	var storage StackStorage
	if msg := storage.Stack().check(); msg != "" {
		t.Fatalf("StackStorage check() = %q, want ok", msg)
	}
	if got := storage.Stack().Size(); got != KernelStackBytes {
		t.Fatalf("Size() = %d, want %d", got, KernelStackBytes)
	}

	buf := storage.Stack().mem
	if msg := NewStack(buf[1 : 1+512]).check(); msg == "" {
		t.Fatalf("misaligned base accepted")
	}
	if msg := NewStack(buf[:516]).check(); msg == "" {
		t.Fatalf("unaligned size accepted")
	}
	if msg := NewStack(buf[:64]).check(); msg == "" {
		t.Fatalf("tiny stack accepted")
	}
}

func TestStackHighWater(t *testing.T) {
	var storage StackStorage
	s := storage.Stack()
	s.paint()
	if got := s.HighWater(); got != 0 {
		t.Fatalf("HighWater() after paint = %d, want 0", got)
	}
	s.mem[len(s.mem)-100] = 0
	if got := s.HighWater(); got != 100 {
		t.Fatalf("HighWater() = %d, want 100", got)
	}
}
