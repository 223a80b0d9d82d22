package fileops

import (
	"testing"

	"defs"
)

func TestMemFileWriteAtGrowsBackingSlice(t *testing.T) {
	f := NewMemFile(nil)
	n, errt := f.WriteAt([]byte("hello"), 3)
	if errt != 0 || n != 5 {
		t.Fatalf("WriteAt: n=%d errt=%v", n, errt)
	}
	if f.Length() != 8 {
		t.Fatalf("Length() = %d, want 8", f.Length())
	}
	got := make([]byte, 5)
	n, errt = f.ReadAt(got, 3)
	if errt != 0 || n != 5 || string(got) != "hello" {
		t.Fatalf("ReadAt: got %q n=%d errt=%v", got, n, errt)
	}
}

func TestMemFileReopenSharesBackingData(t *testing.T) {
	f := NewMemFile(make([]byte, 4))
	second, errt := f.Reopen()
	if errt != 0 {
		t.Fatalf("Reopen: %v", errt)
	}
	if _, errt := f.WriteAt([]byte{0xaa}, 0); errt != 0 {
		t.Fatalf("WriteAt: %v", errt)
	}
	got := make([]byte, 1)
	if _, errt := second.ReadAt(got, 0); errt != 0 || got[0] != 0xaa {
		t.Fatalf("expected reopened handle to see the write, got %v", got)
	}
}

func TestMemFileClosedRejectsIO(t *testing.T) {
	f := NewMemFile(make([]byte, 4))
	f.Close()
	if _, errt := f.ReadAt(make([]byte, 1), 0); errt != -defs.EINVAL {
		t.Fatalf("expected EINVAL after Close, got %v", errt)
	}
	if _, errt := f.WriteAt([]byte{1}, 0); errt != -defs.EINVAL {
		t.Fatalf("expected EINVAL after Close, got %v", errt)
	}
}
