// Package vm ties the supplemental page table, frame table and fault
// validator together into one process address space, the Go-native
// generalization of the teacher's vm/as.go Vm_t (Lock_pmap/Unlock_pmap/
// Userdmap8_inner) to this spec's SPT-based design in place of
// Biscuit's own COW-vmregion design.
package vm

import (
	"errors"
	"sync"

	"defs"
	"fault"
	"fileops"
	"frame"
	"mem"
	"pagedir"
	"spt"
	"swap"
	"vmstat"
)

// Vm_t represents one process address space: its supplemental page
// table, its page directory, and the fault validator built over both.
// The mutex plays the role of Biscuit's pmap lock: a page fault or a
// syscall buffer access holds it for the duration of its SPT lookup
// and frame installation, matching spec §5's requirement that SPT
// lookups run without their own lock but callers still need mutual
// exclusion against concurrent faults in the same process.
type Vm_t struct {
	sync.Mutex

	Spt    *spt.Table_t
	Pd     pagedir.PageDir_i
	Frames *frame.Table_t
	Stats  *vmstat.Stats_t

	Fault *fault.Validator_t

	swap      *swap.Store_t
	pgfltaken bool
}

// SetSwap wires the system-wide swap store used to bring swapped-out
// CODE pages back in. Separate from NewVm because the swap store and
// the address spaces that depend on it are typically constructed in
// the opposite order.
func (as *Vm_t) SetSwap(s *swap.Store_t) { as.swap = s }

// NewVm creates an address space backed by the given frame table and
// page directory.
func NewVm(frames *frame.Table_t, pd pagedir.PageDir_i, stats *vmstat.Stats_t) *Vm_t {
	as := &Vm_t{
		Spt:    spt.NewTable(),
		Pd:     pd,
		Frames: frames,
		Stats:  stats,
	}
	as.Fault = fault.NewValidator(as.Spt, pd, as.installLoadPage)
	frames.SetStats(stats)
	return as
}

// PageDir implements frame.Owner_i so the eviction policy can clear
// this address space's mapping for a victim frame.
func (as *Vm_t) PageDir() pagedir.PageDir_i { return as.Pd }

// LockPmap acquires the address-space mutex and marks that a page
// fault is in progress, matching Lock_pmap.
func (as *Vm_t) LockPmap() {
	as.Lock()
	as.pgfltaken = true
}

// UnlockPmap releases the address-space mutex, matching Unlock_pmap.
func (as *Vm_t) UnlockPmap() {
	as.pgfltaken = false
	as.Unlock()
}

func (as *Vm_t) lockassertPmap() {
	if !as.pgfltaken {
		panic("vm: pmap lock must be held")
	}
}

// Pgfault handles a hardware page fault at uaddr, matching the
// teacher's Sys_pgfault entry point generalized to dispatch through
// fault.Validator_t's valid_up logic: the esp argument lets the
// stack-growth heuristic distinguish a legitimate extension from a
// wild pointer.
func (as *Vm_t) Pgfault(esp, uaddr uintptr) defs.Err_t {
	as.LockPmap()
	defer as.UnlockPmap()

	as.Stats.Fault()

	if e, ok := as.Spt.Find(uaddr); ok {
		e.Pinned = true
		if err := as.installLoadPage(e); err != nil {
			if err == frame.ErrAllPinned || err == frame.ErrSwapExhausted {
				return -mem.ErrNoFrames
			}
			return -defs.EFAULT
		}
		e.Pinned = false
		return 0
	}

	if uaddr+fault.StackHeuristic < esp {
		return -defs.EFAULT
	}
	if !as.Fault.StackGrow(uaddr, false) {
		return -defs.EFAULT
	}
	as.Stats.StackGrowth()
	return 0
}

// installLoadPage brings e's page resident: CODE pages are zeroed or
// swapped back in, FILE/MMAP pages are read from their backing file.
// This is spec's install_load_page operation; it lives here rather
// than in package spt because bringing a page resident requires the
// frame table, and spt must not import frame (frame already imports
// spt for *spt.Entry_t, and Go forbids the cycle that Pintos's single
// translation unit allows for free).
func (as *Vm_t) installLoadPage(e *spt.Entry_t) error {
	as.lockassertPmap()

	if as.Pd.GetPage(e.Upage) != nil {
		return nil
	}

	f, err := as.Frames.AllocFor(as, e, true)
	if err != nil {
		return err
	}

	switch e.Type {
	case spt.CODE:
		if e.InSwap {
			as.swapIn(f, e)
		}
	case spt.FILE, spt.MMAP:
		if err := as.readFromFile(f, e); err != nil {
			as.Frames.Free(f)
			return err
		}
	default:
		as.Frames.Free(f)
		return errors.New("vm: corrupt spt entry")
	}

	if !as.Pd.InstallPage(e.Upage, f, e.Writable) {
		as.Frames.Free(f)
		return errors.New("vm: page already installed")
	}
	e.Frame = f
	return nil
}

func (as *Vm_t) readFromFile(f mem.Frame_t, e *spt.Entry_t) error {
	fileops.IOLock.Lock()
	defer fileops.IOLock.Unlock()
	n, errt := e.File.ReadAt(f[:e.PageReadBytes], e.Ofs)
	if errt != 0 || n != e.PageReadBytes {
		return errors.New("vm: short read loading page")
	}
	for i := e.PageReadBytes; i < e.PageReadBytes+e.PageZeroBytes; i++ {
		f[i] = 0
	}
	return nil
}

// swapIn reads e's swap slot into f through the store wired by
// SetSwap and clears e.InSwap on success. With no store wired, or if
// the read fails, f keeps its zeroed contents and e stays in swap.
func (as *Vm_t) swapIn(f mem.Frame_t, e *spt.Entry_t) {
	if as.swap == nil {
		return
	}
	if err := as.swap.SwapIn(e.SwapIdx, (*mem.Bytepg_t)(f)); err == nil {
		e.InSwap = false
		as.Stats.SwapIn()
	}
}

// LoadFileRegion installs the FILE entries backing one segment of an
// executable, matching the loader's use of file_supp_creation. Exposed
// to the process loader per spec §6.
func (as *Vm_t) LoadFileRegion(f fileops.File_i, ofs int, upage uintptr, readBytes, zeroBytes int, writable bool) error {
	as.Lock()
	defer as.Unlock()
	return as.Spt.CreateFileRegion(f, ofs, upage, readBytes, zeroBytes, writable)
}

// Mmap installs MMAP entries covering f's first length bytes at upage,
// matching the mmap syscall's use of create_spte_mmap. Exposed to
// syscalls per spec §6.
func (as *Vm_t) Mmap(f fileops.File_i, length int, upage uintptr) (*spt.Entry_t, error) {
	as.Lock()
	defer as.Unlock()
	return as.Spt.CreateMmapRegion(f, length, upage)
}

// Munmap tears down the mapping headed by first, writing back dirty
// pages and releasing their frames, matching the munmap syscall's use
// of free_spte_mmap. Exposed to syscalls per spec §6.
func (as *Vm_t) Munmap(first *spt.Entry_t) error {
	as.Lock()
	defer as.Unlock()
	return as.Spt.FreeMmapRegion(first, as.Pd.IsDirty, func(e *spt.Entry_t) error {
		as.Pd.ClearPage(e.Upage)
		as.Frames.Free(e.Frame)
		return nil
	})
}

// Destroy tears down the address space, writing back dirty MMAP/FILE
// pages, releasing their frames, and releasing the swap slot of any
// CODE page still in_swap, matching Uvmfree/destroy_spt. Releasing
// in_swap slots on exit is spec §5's explicit requirement: those
// pages hold no frame to free, but their slot is still occupied until
// something clears it.
func (as *Vm_t) Destroy() error {
	as.Lock()
	defer as.Unlock()
	return as.Spt.Destroy(
		func(e *spt.Entry_t) error {
			if (e.Type == spt.MMAP || (e.Type == spt.FILE && e.Writable)) && as.Pd.IsDirty(e.Upage) {
				fileops.IOLock.Lock()
				_, errt := e.File.WriteAt(e.Frame[:e.PageReadBytes], e.Ofs)
				fileops.IOLock.Unlock()
				if errt != 0 {
					return errors.New("vm: write-back failed during teardown")
				}
			}
			as.Pd.ClearPage(e.Upage)
			as.Frames.Free(e.Frame)
			return nil
		},
		func(e *spt.Entry_t) error {
			if as.swap != nil {
				as.swap.FreeSlot(e.SwapIdx)
			}
			return nil
		},
	)
}
