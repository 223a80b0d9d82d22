// Package mem holds the page-sized types shared by the whole
// virtual-memory core and a reference frame allocator (UserPool_t)
// implementing the pool of physical page frames backing resident
// pages.
//
// This port has no MMU and no real physical memory to drive, so unlike
// the teacher's Physmem_t a frame is just a *Bytepg_t backed by the Go
// heap rather than a direct-mapped physical address. The free-list
// bookkeeping (a singly-linked free list threaded through the slab
// itself) is carried over from Physmem_t._phys_new/_phys_put; frames
// carry an in-use flag, not a reference count.
package mem

import (
	"sync"
	"sync/atomic"

	"defs"
)

// PGSHIFT is the base-2 exponent of the page size.
const PGSHIFT uint = 12

// PGSIZE is the size of a single page in bytes.
const PGSIZE int = 1 << PGSHIFT

// PageSize is the external name for PGSIZE used by other packages.
const PageSize = PGSIZE

// Bytepg_t is a byte-addressed page, the unit moved to and from swap
// and disk.
type Bytepg_t [PGSIZE]uint8

// Frame_t identifies one allocated frame. nil means "no frame", mirroring
// the teacher's use of a zero Pa_t as a sentinel.
type Frame_t *Bytepg_t

// UserPool_i is the external collaborator spec §6 calls
// alloc_user_frame/free_user_frame: a source of zeroed page frames,
// abstracted so frame.Table_t never depends on a concrete allocator.
type UserPool_i interface {
	// Alloc returns a fresh, zeroed frame, or ok == false if the pool
	// is exhausted.
	Alloc() (Frame_t, bool)
	// Free releases a frame back to the pool. Freeing a frame not
	// obtained from this pool is a programming error.
	Free(Frame_t)
	// Cap reports the total number of frames the pool can hand out.
	Cap() int
	// Used reports how many frames are currently allocated.
	Used() int
}

type slot_t struct {
	pg    Bytepg_t
	inuse bool
	nexti uint32
}

// UserPool_t is a fixed-size slab of page frames managed as a free
// list threaded through the slab, the same shape as the teacher's
// Physmem_t free list (_phys_new/_phys_put) with the direct-map and
// per-CPU caching machinery dropped: this port allocates Go memory for
// frames rather than carving up real physical RAM, so there is no
// hardware reason to shard the free list per CPU.
type UserPool_t struct {
	mu      sync.Mutex
	slots   []slot_t
	freei   uint32
	used    int32
}

const poolEmpty = ^uint32(0)

// NewUserPool creates a pool of nframes frames.
func NewUserPool(nframes int) *UserPool_t {
	p := &UserPool_t{
		slots: make([]slot_t, nframes),
		freei: poolEmpty,
	}
	for i := nframes - 1; i >= 0; i-- {
		p.slots[i].nexti = p.freei
		p.freei = uint32(i)
	}
	return p
}

// Alloc implements UserPool_i.
func (p *UserPool_t) Alloc() (Frame_t, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.freei == poolEmpty {
		return nil, false
	}
	idx := p.freei
	s := &p.slots[idx]
	p.freei = s.nexti
	s.inuse = true
	for i := range s.pg {
		s.pg[i] = 0
	}
	atomic.AddInt32(&p.used, 1)
	return Frame_t(&s.pg), true
}

// Free implements UserPool_i.
func (p *UserPool_t) Free(f Frame_t) {
	if f == nil {
		return
	}
	idx := p.indexOf(f)
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &p.slots[idx]
	if !s.inuse {
		panic("mem: double free")
	}
	s.inuse = false
	s.nexti = p.freei
	p.freei = idx
	atomic.AddInt32(&p.used, -1)
}

// Cap implements UserPool_i.
func (p *UserPool_t) Cap() int { return len(p.slots) }

// Used implements UserPool_i.
func (p *UserPool_t) Used() int { return int(atomic.LoadInt32(&p.used)) }

func (p *UserPool_t) indexOf(f Frame_t) uint32 {
	for i := range p.slots {
		if &p.slots[i].pg == (*Bytepg_t)(f) {
			return uint32(i)
		}
	}
	panic("mem: frame does not belong to this pool")
}

// ErrNoFrames is the defs.Err_t a caller should surface when the pool
// is exhausted and eviction still could not free a frame.
var ErrNoFrames = defs.ENOMEM
