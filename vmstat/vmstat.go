// Package vmstat accumulates counters describing a virtual-memory
// core's behavior: page faults handled, evictions by victim kind,
// swap traffic and stack growths, and exposes them as a
// prometheus.Collector in the same NewDesc/Describe/Collect shape as
// the corpus's own systemd.Collector
// (talyz-systemd_exporter/systemd/systemd.go), rather than hand-rolled
// atomics formatted with fmt.Sprintf.
package vmstat

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vmcore"

var (
	faultsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "page_faults_total"),
		"Page faults handled by the fault-and-validation path.", nil, nil,
	)
	evictionsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "evictions_total"),
		"Frame evictions performed by the eviction policy, by victim kind.",
		[]string{"kind"}, nil,
	)
	swapInsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "swap_ins_total"),
		"Pages read back from the swap store.", nil, nil,
	)
	swapOutsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "swap_outs_total"),
		"Pages written out to the swap store.", nil, nil,
	)
	stackGrowthsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "stack_growths_total"),
		"Successful stack-growth faults.", nil, nil,
	)
)

// Stats_t accumulates one address space's (or the whole kernel's)
// running VM counters. The zero value is ready to use and safe to
// register with a prometheus.Registerer.
type Stats_t struct {
	faults       int64
	evictCode    int64
	evictFile    int64
	evictMmap    int64
	swapIns      int64
	swapOuts     int64
	stackGrowths int64
}

// Fault increments the page-fault counter.
func (s *Stats_t) Fault() { atomic.AddInt64(&s.faults, 1) }

// EvictedCode/EvictedFile/EvictedMmap record an eviction by the kind
// of page it reclaimed.
func (s *Stats_t) EvictedCode() { atomic.AddInt64(&s.evictCode, 1) }
func (s *Stats_t) EvictedFile() { atomic.AddInt64(&s.evictFile, 1) }
func (s *Stats_t) EvictedMmap() { atomic.AddInt64(&s.evictMmap, 1) }

// SwapIn/SwapOut record swap traffic.
func (s *Stats_t) SwapIn()  { atomic.AddInt64(&s.swapIns, 1) }
func (s *Stats_t) SwapOut() { atomic.AddInt64(&s.swapOuts, 1) }

// StackGrowth records a successful stack-growth fault.
func (s *Stats_t) StackGrowth() { atomic.AddInt64(&s.stackGrowths, 1) }

// Describe implements prometheus.Collector.
func (s *Stats_t) Describe(ch chan<- *prometheus.Desc) {
	ch <- faultsDesc
	ch <- evictionsDesc
	ch <- swapInsDesc
	ch <- swapOutsDesc
	ch <- stackGrowthsDesc
}

// Collect implements prometheus.Collector, matching
// systemd.Collector.Collect's pattern of reading live state into
// prometheus.MustNewConstMetric at scrape time.
func (s *Stats_t) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(faultsDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&s.faults)))
	ch <- prometheus.MustNewConstMetric(evictionsDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&s.evictCode)), "code")
	ch <- prometheus.MustNewConstMetric(evictionsDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&s.evictFile)), "file")
	ch <- prometheus.MustNewConstMetric(evictionsDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&s.evictMmap)), "mmap")
	ch <- prometheus.MustNewConstMetric(swapInsDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&s.swapIns)))
	ch <- prometheus.MustNewConstMetric(swapOutsDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&s.swapOuts)))
	ch <- prometheus.MustNewConstMetric(stackGrowthsDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&s.stackGrowths)))
}

// Snapshot_t is a point-in-time copy of Stats_t's counters, safe to
// read without racing further updates to the live Stats_t.
type Snapshot_t struct {
	Faults       int64
	EvictCode    int64
	EvictFile    int64
	EvictMmap    int64
	SwapIns      int64
	SwapOuts     int64
	StackGrowths int64
}

// Snapshot returns the current counters.
func (s *Stats_t) Snapshot() Snapshot_t {
	return Snapshot_t{
		Faults:       atomic.LoadInt64(&s.faults),
		EvictCode:    atomic.LoadInt64(&s.evictCode),
		EvictFile:    atomic.LoadInt64(&s.evictFile),
		EvictMmap:    atomic.LoadInt64(&s.evictMmap),
		SwapIns:      atomic.LoadInt64(&s.swapIns),
		SwapOuts:     atomic.LoadInt64(&s.swapOuts),
		StackGrowths: atomic.LoadInt64(&s.stackGrowths),
	}
}
