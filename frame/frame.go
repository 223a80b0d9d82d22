// Package frame implements the FrameTable and EvictionPolicy modules:
// the system-wide table of resident frames and the enhanced
// second-chance scan that picks a victim when the frame pool is
// exhausted. Grounded on original_source/pintos's vm/frame.c
// (get_victim_frame, evict_frame, retrieve_frame_of_page, free_frame),
// cross-checked against the clock-hand pin/reference-bit idiom in
// other_examples's UltraSQL buffer/Clock.go.
package frame

import (
	"errors"
	"sync"

	"caller"
	"fileops"
	"mem"
	"oommsg"
	"pagedir"
	"spt"
	"swap"
	"vmstat"
)

// ErrAllPinned is the fatal condition of spec §4.2/§4.3: every frame
// in the table is pinned and none can be evicted, matching Pintos's
// PANIC("Not able to get frame"). The frame table lock is held when
// this is returned; callers must route it to a halt hook rather than
// retry.
var ErrAllPinned = errors.New("frame: every frame pinned, cannot evict")

// ErrSwapExhausted is the fatal condition of spec §4.3/§7: a CODE (or
// promoted FILE) victim needed a swap slot and none was available, or
// no swap device was ever configured. Like ErrAllPinned, this is
// unrecoverable mid-eviction and must be routed to a halt hook.
var ErrSwapExhausted = errors.New("frame: swap exhausted during eviction")

// Owner_i identifies the address space a resident frame belongs to,
// letting the eviction policy clear the owner's page-table mapping
// without the frame package depending on a concrete process type.
type Owner_i interface {
	PageDir() pagedir.PageDir_i
}

// Entry_t is one row of the frame table: the frame itself, the
// address space that owns it and the supplemental page table entry
// describing the page resident in it.
type Entry_t struct {
	FrameAddr mem.Frame_t
	Owner     Owner_i
	Spte      *spt.Entry_t
}

// EvictionPolicy_i picks a victim among the frame table's entries.
// PickVictim is called with the table lock held; it must not block on
// anything but disk I/O performed through swap.Store_t/fileops.IOLock.
type EvictionPolicy_i interface {
	PickVictim(entries []*Entry_t) (*Entry_t, error)
}

// Table_t is the FrameTable: a slice of resident entries backed by a
// mem.UserPool_i, guarded by a single mutex (frame_table_lock) held
// for the duration of allocation-with-eviction, matching spec §5's
// lock-ordering guarantee.
type Table_t struct {
	mu      sync.Mutex
	pool    mem.UserPool_i
	policy  EvictionPolicy_i
	store   *swap.Store_t
	stats   *vmstat.Stats_t
	entries []*Entry_t
}

// NewTable creates a frame table over pool, using policy to pick
// victims when the pool is exhausted and store to swap out CODE pages
// evicted from it.
func NewTable(pool mem.UserPool_i, policy EvictionPolicy_i, store *swap.Store_t) *Table_t {
	return &Table_t{pool: pool, policy: policy, store: store}
}

// SetStats wires the vmstat counters incremented on every eviction and
// swap-out. Separate from NewTable since the stats block and the
// frame table are typically constructed in whichever order the
// integrating package (vm) prefers.
func (t *Table_t) SetStats(s *vmstat.Stats_t) { t.stats = s }

func (t *Table_t) recordEviction(k spt.Kind_t) {
	if t.stats == nil {
		return
	}
	switch k {
	case spt.CODE:
		t.stats.EvictedCode()
	case spt.FILE:
		t.stats.EvictedFile()
	case spt.MMAP:
		t.stats.EvictedMmap()
	}
}

// Lock/Unlock expose frame_table_lock directly. AllocFor and Free take
// the same lock themselves, so a caller holding it must not call them.
func (t *Table_t) Lock()   { t.mu.Lock() }
func (t *Table_t) Unlock() { t.mu.Unlock() }

// AllocFor obtains a frame for spte, evicting another entry if the
// pool is exhausted, matching retrieve_frame_of_page / frame_alloc.
// zero requests a zeroed frame (always true for this pool; kept for
// symmetry with spec §6's alloc_user_frame signature).
func (t *Table_t) AllocFor(owner Owner_i, spte *spt.Entry_t, zero bool) (mem.Frame_t, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.pool.Alloc()
	for !ok {
		if len(t.entries) == 0 {
			t.reportOom()
			return nil, ErrAllPinned
		}
		victim, err := t.policy.PickVictim(t.entries)
		if err == ErrAllPinned {
			t.reportOom()
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		if err := t.evictLocked(victim); err != nil {
			return nil, err
		}
		f, ok = t.pool.Alloc()
	}

	e := &Entry_t{FrameAddr: f, Owner: owner, Spte: spte}
	t.entries = append(t.entries, e)
	return f, nil
}

// reportOom dumps the call stack that drove the frame table empty and
// notifies any listener on oommsg.OomCh. The send does not block, and
// AllocFor returns its error right after without retrying. Mirrors
// how a fatal kernel condition gets surfaced for debugging before the
// PANIC in Pintos's frame_alloc.
func (t *Table_t) reportOom() {
	caller.Callerdump(2)
	select {
	case oommsg.OomCh <- oommsg.Oommsg_t{Need: mem.PGSIZE}:
	default:
	}
}

// Free releases f back to the pool and removes its frame-table entry,
// matching free_frame.
func (t *Table_t) Free(f mem.Frame_t) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, e := range t.entries {
		if e.FrameAddr == f {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}
	t.pool.Free(f)
}

// evictLocked writes back or swaps out victim's page and removes it
// from the table, matching evict_frame. Called with t.mu held.
func (t *Table_t) evictLocked(victim *Entry_t) error {
	pd := victim.Owner.PageDir()
	spte := victim.Spte
	t.recordEviction(spte.Type)

	switch spte.Type {
	case spt.MMAP:
		// MMAP pages are never dirty unless written through their
		// mapping; write back before dropping the frame.
		if pd.IsDirty(spte.Upage) {
			if err := writeBack(spte); err != nil {
				return err
			}
		}
		spte.Frame = nil
	case spt.FILE:
		// A FILE page that's been written becomes indistinguishable
		// from a CODE page: it must go to swap, not back to its
		// read-only executable file.
		spte.Type = spt.CODE
		fallthrough
	case spt.CODE:
		if t.store == nil {
			return ErrSwapExhausted
		}
		idx, err := t.store.SwapOut((*mem.Bytepg_t)(spte.Frame))
		if err == swap.ErrSwapFull || err == swap.ErrNoSwapDevice {
			return ErrSwapExhausted
		}
		if err != nil {
			return err
		}
		spte.SwapIdx = idx
		spte.InSwap = true
		spte.Frame = nil
		if t.stats != nil {
			t.stats.SwapOut()
		}
	default:
		return errors.New("frame: corrupt spt entry")
	}

	pd.ClearPage(spte.Upage)
	t.pool.Free(victim.FrameAddr)
	for i, e := range t.entries {
		if e == victim {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}
	return nil
}

// writeBack flushes spte's frame to its backing file under the shared
// file_lock, matching write_to_disk.
func writeBack(spte *spt.Entry_t) error {
	fileops.IOLock.Lock()
	defer fileops.IOLock.Unlock()
	buf := spte.Frame[:spte.PageReadBytes]
	n, err := spte.File.WriteAt(buf, spte.Ofs)
	if err != 0 || n != spte.PageReadBytes {
		return errors.New("frame: write-back failed")
	}
	return nil
}
