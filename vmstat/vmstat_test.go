package vmstat

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSnapshotReflectsRecordedEvents(t *testing.T) {
	var s Stats_t
	s.Fault()
	s.Fault()
	s.EvictedCode()
	s.EvictedFile()
	s.EvictedMmap()
	s.EvictedMmap()
	s.SwapIn()
	s.SwapOut()
	s.SwapOut()
	s.StackGrowth()

	got := s.Snapshot()
	want := Snapshot_t{
		Faults:       2,
		EvictCode:    1,
		EvictFile:    1,
		EvictMmap:    2,
		SwapIns:      1,
		SwapOuts:     2,
		StackGrowths: 1,
	}
	if got != want {
		t.Fatalf("Snapshot() = %+v, want %+v", got, want)
	}
}

func TestCollectRegistersAsPrometheusCollector(t *testing.T) {
	var s Stats_t
	s.Fault()
	s.EvictedCode()

	reg := prometheus.NewRegistry()
	if err := reg.Register(&s); err != nil {
		t.Fatalf("Register: %v", err)
	}

	count := testutil.CollectAndCount(&s)
	// faults + 3 eviction-kind series + swap ins + swap outs + stack growths
	if count != 7 {
		t.Fatalf("CollectAndCount() = %d, want 7", count)
	}
}
