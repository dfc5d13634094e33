package kstats

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"kestrel/kernel"
)

type fixedSource kernel.Stats

func (s fixedSource) Stats() kernel.Stats { return kernel.Stats(s) }

func TestCollector(t *testing.T) {
	c := NewCollector(fixedSource{
		ContextSwitches: 12,
		MutexTimeouts:   3,
		Threads:         4,
		Ready:           1,
	})

	require.Equal(t, 9, testutil.CollectAndCount(c))

	want := `
# HELP kestrel_scheduler_context_switches_total Context switches since boot.
# TYPE kestrel_scheduler_context_switches_total counter
kestrel_scheduler_context_switches_total 12
# HELP kestrel_scheduler_mutex_timeouts_total Timed mutex waits that expired.
# TYPE kestrel_scheduler_mutex_timeouts_total counter
kestrel_scheduler_mutex_timeouts_total 3
# HELP kestrel_scheduler_threads Registered threads.
# TYPE kestrel_scheduler_threads gauge
kestrel_scheduler_threads 4
# HELP kestrel_scheduler_ready_threads Threads in the run queue.
# TYPE kestrel_scheduler_ready_threads gauge
kestrel_scheduler_ready_threads 1
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(want),
		"kestrel_scheduler_context_switches_total",
		"kestrel_scheduler_mutex_timeouts_total",
		"kestrel_scheduler_threads",
		"kestrel_scheduler_ready_threads",
	))
}
