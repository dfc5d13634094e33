//go:build !tinygo

package hal

import (
	"runtime"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHostInitReportsCPUFeatures(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	h := NewHost(HostConfig{Clock: clock.NewMock(), Logger: zap.New(obs)})
	h.Init()

	entries := logs.FilterMessage("init").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Contains(t, fields, "cpu_features")
	assert.EqualValues(t, 8, fields["mpu_regions"])

	if runtime.GOARCH == "amd64" {
		// SSE2 is part of the amd64 baseline.
		assert.Contains(t, CPUFeatures(), "sse2")
	}
}

func TestTicksIn(t *testing.T) {
	cases := []struct {
		d    time.Duration
		hz   uint64
		want uint64
	}{
		{0, 1000, 0},
		{-time.Second, 1000, 0},
		{999 * time.Microsecond, 1000, 0},
		{time.Millisecond, 1000, 1},
		{1500 * time.Millisecond, 1000, 1500},
		{time.Second, 32768, 32768},
	}
	for _, c := range cases {
		if got := ticksIn(c.d, c.hz); got != c.want {
			t.Fatalf("ticksIn(%v, %d) = %d, want %d", c.d, c.hz, got, c.want)
		}
	}
}
