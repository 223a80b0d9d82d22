// Package spt implements the SupplementalPageTable module: a
// per-process map from user page to the metadata needed to bring that
// page in from its backing file, a zero-fill region, or swap.
// Grounded on original_source/pintos's vm/page.c
// (supp_page_table_init, create_spte_code/create_spte_mmap,
// file_supp_creation, uvaddr_to_spt_entry, free_spte_mmap,
// destroy_spt). Matching spec §5, the table takes no lock of its own:
// it is reachable only from the thread that owns the address space.
package spt

import (
	"errors"

	"bounds"
	"fileops"
	"mem"
	"res"
	"swap"
	"util"
)

// Kind_t is the kind of backing a page has, matching enum spte_type.
type Kind_t int

const (
	// CODE is a swappable, zero-fill-on-demand or already-resident
	// page with no file backing once loaded.
	CODE Kind_t = iota
	// FILE is a read-only (or COW) page backed by an executable file.
	FILE
	// MMAP is a page backed by a memory-mapped file; dirty MMAP pages
	// are written back to their file on eviction or unmap.
	MMAP
)

// Entry_t is one supplemental page table entry, matching struct
// spt_entry.
type Entry_t struct {
	Type  Kind_t
	Upage uintptr

	Frame mem.Frame_t

	File          fileops.File_i
	Ofs           int
	PageReadBytes int
	PageZeroBytes int
	Writable      bool

	Pinned bool

	InSwap  bool
	SwapIdx swap.SlotIdx
}

// ErrOverlap is returned by CreateMmapRegion when part of the
// requested range already has an entry, matching create_spte_mmap's
// "free what we built and return NULL" rollback.
var ErrOverlap = errors.New("spt: region overlaps an existing mapping")

// ErrResourceExceeded is returned when a region spans more pages than
// a single res.Budget_t allows, matching the res.Resadd_noblock guard
// fault.Validator_t and vm.Userbuf_t apply to their own page walks.
var ErrResourceExceeded = errors.New("spt: region too large")

// Table_t is the per-process supplemental page table, matching struct
// hash supp_page_table plus the cmp_spt/supp_hashing comparator pair
// (a Go map keyed by page-aligned address needs neither).
type Table_t struct {
	entries map[uintptr]*Entry_t
}

// NewTable creates an empty supplemental page table, matching
// supp_page_table_init.
func NewTable() *Table_t {
	return &Table_t{entries: make(map[uintptr]*Entry_t)}
}

func pageOf(addr uintptr) uintptr {
	return util.Rounddown(addr, uintptr(mem.PGSIZE))
}

// Find returns the entry covering uvaddr, matching
// uvaddr_to_spt_entry.
func (t *Table_t) Find(uvaddr uintptr) (*Entry_t, bool) {
	e, ok := t.entries[pageOf(uvaddr)]
	return e, ok
}

// CreateCode adds a CODE entry for upage, matching create_spte_code.
func (t *Table_t) CreateCode(upage uintptr) *Entry_t {
	upage = pageOf(upage)
	e := &Entry_t{Type: CODE, Upage: upage, Writable: true}
	t.entries[upage] = e
	return e
}

// CreateFileRegion populates one or more FILE entries covering
// readBytes+zeroBytes starting at upage, matching file_supp_creation.
func (t *Table_t) CreateFileRegion(f fileops.File_i, ofs int, upage uintptr, readBytes, zeroBytes int, writable bool) error {
	upage = pageOf(upage)
	budget := res.NewBudget(res.DefaultBudget)
	for readBytes > 0 || zeroBytes > 0 {
		if budget.Resadd_noblock(bounds.Bounds(bounds.B_SPT_T_CREATE_REGION)) != 0 {
			return ErrResourceExceeded
		}
		pageRead := util.Min(readBytes, mem.PGSIZE)
		pageZero := mem.PGSIZE - pageRead
		e := &Entry_t{
			Type:          FILE,
			Upage:         upage,
			File:          f,
			Ofs:           ofs,
			PageReadBytes: pageRead,
			PageZeroBytes: pageZero,
			Writable:      writable,
		}
		t.entries[upage] = e
		ofs += pageRead
		readBytes -= pageRead
		if zeroBytes > pageZero {
			zeroBytes -= pageZero
		} else {
			zeroBytes = 0
		}
		upage += uintptr(mem.PGSIZE)
	}
	return nil
}

// CreateMmapRegion maps f's first length bytes starting at upage as
// MMAP entries, matching create_spte_mmap. The whole region is rolled
// back if any page in it already has an entry.
func (t *Table_t) CreateMmapRegion(f fileops.File_i, length int, upage uintptr) (*Entry_t, error) {
	upage = pageOf(upage)
	start := upage
	readBytes := length
	var first *Entry_t
	var created []uintptr
	ofs := 0
	budget := res.NewBudget(res.DefaultBudget)

	for readBytes > 0 {
		rollback := func() {
			for _, p := range created {
				delete(t.entries, p)
			}
		}
		if budget.Resadd_noblock(bounds.Bounds(bounds.B_SPT_T_CREATE_REGION)) != 0 {
			rollback()
			return nil, ErrResourceExceeded
		}
		if _, exists := t.entries[upage]; exists {
			rollback()
			return nil, ErrOverlap
		}
		pageRead := util.Min(readBytes, mem.PGSIZE)
		pageZero := mem.PGSIZE - pageRead
		e := &Entry_t{
			Type:          MMAP,
			Upage:         upage,
			File:          f,
			Ofs:           ofs,
			PageReadBytes: pageRead,
			PageZeroBytes: pageZero,
			Writable:      true,
		}
		t.entries[upage] = e
		created = append(created, upage)
		if first == nil {
			first = e
		}
		ofs += pageRead
		readBytes -= pageRead
		upage += uintptr(mem.PGSIZE)
	}
	_ = start
	return first, nil
}

// FreeMmapRegion tears down every entry sharing first's file starting
// at first's upage, writing back dirty pages through dirty, matching
// free_spte_mmap/free_spte. dirty reports whether the hardware dirty
// bit is set for a given upage; callers pass their pagedir.PageDir_i's
// IsDirty method.
func (t *Table_t) FreeMmapRegion(first *Entry_t, dirty func(uintptr) bool, onFrame func(*Entry_t) error) error {
	if first == nil {
		return nil
	}
	readBytes := first.File.Length()
	upage := first.Upage
	budget := res.NewBudget(res.DefaultBudget)
	for readBytes > 0 {
		if budget.Resadd_noblock(bounds.Bounds(bounds.B_SPT_T_FREE_MMAP_REGION)) != 0 {
			return ErrResourceExceeded
		}
		e, ok := t.entries[upage]
		if !ok {
			break
		}
		if e.File == first.File {
			if e.Frame != nil {
				if dirty(e.Upage) {
					if err := writeBack(e); err != nil {
						return err
					}
				}
				if onFrame != nil {
					if err := onFrame(e); err != nil {
						return err
					}
				}
			}
			delete(t.entries, upage)
		}
		readBytes -= e.PageReadBytes
		upage += uintptr(mem.PGSIZE)
	}
	return nil
}

// writeBack flushes e's frame to its backing file, matching
// write_to_disk, serialized on the shared file_lock.
func writeBack(e *Entry_t) error {
	fileops.IOLock.Lock()
	defer fileops.IOLock.Unlock()
	buf := (*e.Frame)[:e.PageReadBytes]
	n, err := e.File.WriteAt(buf, e.Ofs)
	if err != 0 || n != e.PageReadBytes {
		return errors.New("spt: write-back failed")
	}
	return nil
}

// Destroy clears the table, matching destroy_spt. onFrame, if
// non-nil, is invoked for every entry still holding a resident frame
// so the caller can write back and release it before the table is
// discarded. onSwap, if non-nil, is invoked for every entry left
// in_swap (a CODE page evicted to the swap store and never faulted
// back in) so the caller can release its slot; spec §5 requires the
// swap bitmap be cleared for every such entry on process exit, not
// just the ones that happen to still hold a frame.
func (t *Table_t) Destroy(onFrame func(*Entry_t) error, onSwap func(*Entry_t) error) error {
	for _, e := range t.entries {
		switch {
		case e.Frame != nil && onFrame != nil:
			if err := onFrame(e); err != nil {
				return err
			}
		case e.InSwap && onSwap != nil:
			if err := onSwap(e); err != nil {
				return err
			}
		}
	}
	t.entries = make(map[uintptr]*Entry_t)
	return nil
}
