package pagedir

import (
	"testing"

	"mem"
)

func TestInstallPageRejectsDuplicateMapping(t *testing.T) {
	pd := NewSimPageDir()
	var f1, f2 mem.Bytepg_t
	if !pd.InstallPage(0x1000, &f1, true) {
		t.Fatalf("expected first install to succeed")
	}
	if pd.InstallPage(0x1000, &f2, true) {
		t.Fatalf("expected second install at the same page to fail")
	}
	if pd.GetPage(0x1000) != mem.Frame_t(&f1) {
		t.Fatalf("expected original mapping to survive the rejected install")
	}
}

func TestClearPageRemovesMapping(t *testing.T) {
	pd := NewSimPageDir()
	var f mem.Bytepg_t
	pd.InstallPage(0x2000, &f, true)
	pd.ClearPage(0x2000)
	if pd.GetPage(0x2000) != nil {
		t.Fatalf("expected mapping to be gone after ClearPage")
	}
}

func TestDirtyAndAccessedBitsDefaultClear(t *testing.T) {
	pd := NewSimPageDir()
	var f mem.Bytepg_t
	pd.InstallPage(0x3000, &f, true)
	if pd.IsDirty(0x3000) || pd.IsAccessed(0x3000) {
		t.Fatalf("expected a freshly installed mapping to start clean")
	}
	pd.SetDirty(0x3000, true)
	pd.SetAccessed(0x3000, true)
	if !pd.IsDirty(0x3000) || !pd.IsAccessed(0x3000) {
		t.Fatalf("expected SetDirty/SetAccessed to stick")
	}
}

func TestBitsOnUnmappedPageReadFalse(t *testing.T) {
	pd := NewSimPageDir()
	if pd.IsDirty(0x9000) || pd.IsAccessed(0x9000) {
		t.Fatalf("expected an unmapped page to report clean bits")
	}
}
