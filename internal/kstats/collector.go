// Package kstats exports kernel scheduler statistics to Prometheus.
package kstats

import (
	"github.com/prometheus/client_golang/prometheus"

	"kestrel/kernel"
)

const namespace = "kestrel"

// Source is anything that can report scheduler statistics.
type Source interface {
	Stats() kernel.Stats
}

// Collector reads a Source on every scrape.
type Collector struct {
	src Source

	contextSwitches  *prometheus.Desc
	yields           *prometheus.Desc
	ticks            *prometheus.Desc
	timerWakeups     *prometheus.Desc
	mutexContentions *prometheus.Desc
	mutexTimeouts    *prometheus.Desc
	threads          *prometheus.Desc
	ready            *prometheus.Desc
	sleeping         *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(src Source) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "scheduler", name), help, nil, nil)
	}
	return &Collector{
		src:              src,
		contextSwitches:  desc("context_switches_total", "Context switches since boot."),
		yields:           desc("yields_total", "Voluntary timeslice yields since boot."),
		ticks:            desc("ticks_total", "Timer interrupts handled since boot."),
		timerWakeups:     desc("timer_wakeups_total", "Threads woken by the timer queue."),
		mutexContentions: desc("mutex_contentions_total", "Mutex acquisitions that had to wait."),
		mutexTimeouts:    desc("mutex_timeouts_total", "Timed mutex waits that expired."),
		threads:          desc("threads", "Registered threads."),
		ready:            desc("ready_threads", "Threads in the run queue."),
		sleeping:         desc("timer_entries", "Outstanding timer queue entries."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.contextSwitches
	ch <- c.yields
	ch <- c.ticks
	ch <- c.timerWakeups
	ch <- c.mutexContentions
	ch <- c.mutexTimeouts
	ch <- c.threads
	ch <- c.ready
	ch <- c.sleeping
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	gauge := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v))
	}
	counter(c.contextSwitches, st.ContextSwitches)
	counter(c.yields, st.Yields)
	counter(c.ticks, st.Ticks)
	counter(c.timerWakeups, st.TimerWakeups)
	counter(c.mutexContentions, st.MutexContentions)
	counter(c.mutexTimeouts, st.MutexTimeouts)
	gauge(c.threads, st.Threads)
	gauge(c.ready, st.Ready)
	gauge(c.sleeping, st.Sleeping)
}
