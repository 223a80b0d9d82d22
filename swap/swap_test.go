package swap

import (
	"bytes"
	"testing"

	"disk"
	"mem"
)

func fillPage(b byte) *mem.Bytepg_t {
	var pg mem.Bytepg_t
	for i := range pg {
		pg[i] = b
	}
	return &pg
}

func TestSwapOutInRoundTrip(t *testing.T) {
	d := disk.NewMemDisk(SectorsPerPage * 4)
	s := NewStore(d)

	want := fillPage(0x42)
	idx, err := s.SwapOut(want)
	if err != nil {
		t.Fatalf("SwapOut: %v", err)
	}
	if idx != 0 {
		t.Fatalf("first slot should be 0, got %d", idx)
	}

	var got mem.Bytepg_t
	if err := s.SwapIn(idx, &got); err != nil {
		t.Fatalf("SwapIn: %v", err)
	}
	if !bytes.Equal(got[:], want[:]) {
		t.Fatalf("round trip mismatch")
	}
}

func TestSwapInFreesSlotForReuse(t *testing.T) {
	d := disk.NewMemDisk(SectorsPerPage * 1)
	s := NewStore(d)

	p1 := fillPage(1)
	idx1, err := s.SwapOut(p1)
	if err != nil {
		t.Fatalf("SwapOut 1: %v", err)
	}

	if _, err := s.SwapOut(fillPage(2)); err != ErrSwapFull {
		t.Fatalf("expected ErrSwapFull with only one slot occupied, got %v", err)
	}

	var tmp mem.Bytepg_t
	if err := s.SwapIn(idx1, &tmp); err != nil {
		t.Fatalf("SwapIn: %v", err)
	}

	idx2, err := s.SwapOut(fillPage(3))
	if err != nil {
		t.Fatalf("SwapOut after free: %v", err)
	}
	if idx2 != idx1 {
		t.Fatalf("expected freed slot %d to be reused, got %d", idx1, idx2)
	}
}

func TestNewStoreDisabledWithoutDisk(t *testing.T) {
	s := NewStore(nil)
	if _, err := s.SwapOut(fillPage(0)); err != ErrNoSwapDevice {
		t.Fatalf("expected ErrNoSwapDevice, got %v", err)
	}
	var buf mem.Bytepg_t
	if err := s.SwapIn(0, &buf); err != ErrNoSwapDevice {
		t.Fatalf("expected ErrNoSwapDevice, got %v", err)
	}
}

func TestTeardownDisablesStore(t *testing.T) {
	d := disk.NewMemDisk(SectorsPerPage * 2)
	s := NewStore(d)
	s.Teardown()
	if _, err := s.SwapOut(fillPage(9)); err != ErrNoSwapDevice {
		t.Fatalf("expected ErrNoSwapDevice after teardown, got %v", err)
	}
}
