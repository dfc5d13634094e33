package app

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"kestrel/hal"
	"kestrel/kernel"
	"kestrel/kernel/memory"
)

var demoRegions = []memory.Region{
	{Type: memory.ReadExecutable, Start: 0x0800_0000, End: 0x0810_0000},
	{Type: memory.ReadWrite, Start: 0x2000_0000, End: 0x2001_0000},
}

func TestCounterDemo(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	h := hal.NewHost(hal.HostConfig{Clock: clock.NewMock(), Logger: zap.New(obs), TicksPerSecond: 1000})

	var mu sync.Mutex
	var seen []string
	accessOK := true
	s, err := New(h, Config{
		Kernel:      kernel.Config{Name: "Demo"},
		UserRegions: demoRegions,
		Observe: func(o Observation) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, o.String())
			if !h.CheckAccess(memory.ReadWrite, 0x2000_0000, 0x2000_0100) || h.CheckAccess(memory.Execute, 0x2000_0000, 0x2000_0100) {
				accessOK = false
			}
		},
	})
	require.NoError(t, err)

	go kernel.Main(h, &s.Init)
	h.WaitIdle()
	for i := 0; i < 37; i++ {
		h.Step(100 * time.Millisecond)
	}

	select {
	case <-h.Halted():
		t.Fatalf("kernel halted: %s", h.HaltMessage())
	default:
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"0@0",
		"timeout@600",
		"1@1000",
		"timeout@1600",
		"2@2000",
		"timeout@2600",
		"3@3000",
		"timeout@3600",
	}, seen)
	assert.NotContains(t, seen, "4@4000", "counter must not reach 4 within the run")
	assert.True(t, accessOK, "poll thread did not run under the demo process memory config")

	st := s.Init.Kernel.Stats()
	assert.Equal(t, uint64(4), st.MutexTimeouts)
	assert.Equal(t, 4, logs.FilterMessageSnippet("poll: timeout@").Len())
	assert.Equal(t, 1, logs.FilterMessage("memory config: 2 regions").Len())
}

func TestNewRejectsOversizedUserTable(t *testing.T) {
	h := hal.NewHost(hal.HostConfig{Clock: clock.NewMock(), MPURegions: 1})
	_, err := New(h, Config{UserRegions: demoRegions})
	require.ErrorIs(t, err, memory.ErrTooManyRegions)
}

func TestPanicReporter(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	h := hal.NewHost(hal.HostConfig{Clock: clock.NewMock(), Logger: zap.New(obs)})
	_, err := New(h, Config{})
	require.NoError(t, err)

	go h.Panic("boom")
	select {
	case <-h.Halted():
	case <-time.After(5 * time.Second):
		t.Fatalf("backend did not halt")
	}
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("Kestrel Panic: boom").Len() == 1 && logs.FilterMessage("stack:").Len() == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "boom", h.HaltMessage())
}
