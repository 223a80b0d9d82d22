package vm

import (
	"bounds"
	"defs"
	"res"
	"spt"
)

// Userbuf_t assists reading and writing a syscall-supplied buffer a
// page at a time, generalizing the teacher's Userbuf_t (ub_init/
// Uioread/Uiowrite/_tx) to this spec's SPT-backed address space:
// each page touched goes through Vm_t.Pgfault-equivalent loading via
// installLoadPage rather than Biscuit's vmregion/pmap lookup.
type Userbuf_t struct {
	as     *Vm_t
	userva uintptr
	len    int
	off    int
}

// NewUserbuf wraps [uva, uva+n) in as's address space.
func NewUserbuf(as *Vm_t, uva uintptr, n int) *Userbuf_t {
	if n < 0 {
		panic("vm: negative buffer length")
	}
	return &Userbuf_t{as: as, userva: uva, len: n}
}

// Remain reports the number of bytes left to transfer.
func (ub *Userbuf_t) Remain() int { return ub.len - ub.off }

// Uioread copies from user memory into dst, matching Uioread.
func (ub *Userbuf_t) Uioread(dst []uint8) (int, defs.Err_t) {
	return ub.tx(dst, false)
}

// Uiowrite copies src into user memory, matching Uiowrite.
func (ub *Userbuf_t) Uiowrite(src []uint8) (int, defs.Err_t) {
	return ub.tx(src, true)
}

// tx copies min(len(buf), ub.Remain()) bytes, faulting in pages along
// the way and charging one budget unit per page touched so a
// pathological length cannot spin this loop unboundedly, matching
// _tx's res.Resadd_noblock(bounds.Bounds(...)) guard.
func (ub *Userbuf_t) tx(buf []uint8, write bool) (int, defs.Err_t) {
	budget := res.NewBudget(res.DefaultBudget)
	ret := 0
	for len(buf) != 0 && ub.off != ub.len {
		if e := budget.Resadd_noblock(bounds.Bounds(bounds.B_USERBUF_T_TX)); e != 0 {
			return ret, e
		}

		va := ub.userva + uintptr(ub.off)
		pgslice, errt := ub.pageSlice(va, write)
		if errt != 0 {
			return ret, errt
		}

		left := ub.len - ub.off
		if len(pgslice) > left {
			pgslice = pgslice[:left]
		}

		var c int
		if write {
			c = copy(pgslice, buf)
		} else {
			c = copy(buf, pgslice)
		}
		buf = buf[c:]
		ub.off += c
		ret += c
	}
	return ret, 0
}

// pageSlice returns the byte slice of the page containing va,
// starting at va's offset within the page, faulting the page in
// first if necessary, matching Userdmap8_inner's fault-then-map
// sequence.
func (ub *Userbuf_t) pageSlice(va uintptr, write bool) ([]uint8, defs.Err_t) {
	ub.as.LockPmap()
	defer ub.as.UnlockPmap()

	e, ok := ub.as.Spt.Find(va)
	if !ok {
		return nil, -defs.EFAULT
	}
	if write && e.Type == spt.FILE && !e.Writable {
		return nil, -defs.EFAULT
	}
	if ub.as.Pd.GetPage(e.Upage) == nil {
		if err := ub.as.installLoadPage(e); err != nil {
			return nil, -defs.ENOMEM
		}
	}
	frame := ub.as.Pd.GetPage(e.Upage)
	off := int(va - e.Upage)
	return frame[off:], 0
}
