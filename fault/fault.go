// Package fault implements the FaultAndValidation module: the
// page-fault handler's job of proving a syscall-supplied pointer
// refers to mapped or fault-in-able user memory before the kernel
// dereferences it, and the stack-growth heuristic that distinguishes a
// legitimate stack extension from a wild pointer. Grounded on
// original_source/pintos's userprog/syscall.c (validate, valid_up,
// validate_string, unpin_buffer/unpin_str, stack_increase) and on the
// teacher's vm/userbuf.go page-walking shape.
package fault

import (
	"errors"

	"bounds"
	"mem"
	"pagedir"
	"res"
	"spt"
)

// StackHeuristic is how far below esp a faulting address may still be
// considered a stack-growth request, matching STACK_HEURISTIC.
const StackHeuristic = 32

// MaxStackSize bounds how far the stack may grow, matching
// MAX_STACK_SIZE.
const MaxStackSize = 8 << 20

// PhysBase is the top of user address space the stack grows down
// from, matching PHYS_BASE.
const PhysBase = uintptr(1) << 47

// ErrSegFault is returned for any address that cannot be validated or
// faulted in; the caller is expected to terminate the faulting
// process, matching Pintos's exit(NULL) on failed validation.
var ErrSegFault = errors.New("fault: segmentation fault")

// ErrNoSptEntry is returned when an address has no supplemental page
// table entry but the page directory already maps its page, the
// Go-native resolution of spec §9's valid_up ambiguity (see
// SPEC_FULL.md §9): a bare MMU mapping with no entry backing it is
// always a programming error, never silently accepted. An unmapped
// address with no entry is a stack-growth candidate instead.
var ErrNoSptEntry = errors.New("fault: no supplemental page table entry")

// ErrNotWritable names a write through a read-only FILE mapping,
// matching is_writable. No function in this package returns it;
// IsWritable reports the same condition as a bool.
var ErrNotWritable = errors.New("fault: page is not writable")

// LoadPage brings e's page resident, matching install_load_page.
// Implemented by the integrating address-space type, which alone can
// reach both the frame table and the page directory without an import
// cycle between spt and frame.
type LoadPage func(e *spt.Entry_t) error

// Validator_t implements validate/valid_up/validate_string and the
// stack-growth heuristic for one address space.
type Validator_t struct {
	Spt      *spt.Table_t
	Pd       pagedir.PageDir_i
	LoadPage LoadPage
}

// NewValidator returns a validator for one process's address space.
func NewValidator(t *spt.Table_t, pd pagedir.PageDir_i, load LoadPage) *Validator_t {
	return &Validator_t{Spt: t, Pd: pd, LoadPage: load}
}

// Validate checks every page touched by [ptr, ptr+size) is mapped or
// can be faulted in, pinning each as it goes, matching validate. Each
// page walked charges a res.Budget_t unit so a pathological size
// can't spin this loop unboundedly, matching vm.Userbuf_t's guard.
func (v *Validator_t) Validate(esp, ptr uintptr, size int) error {
	budget := res.NewBudget(res.DefaultBudget)
	charge := func() error {
		if e := budget.Resadd_noblock(bounds.Bounds(bounds.B_FAULT_T_VALIDATE)); e != 0 {
			return ErrSegFault
		}
		return nil
	}

	if err := charge(); err != nil {
		return err
	}
	if err := v.validUp(esp, ptr); err != nil {
		return err
	}
	if size != 1 {
		if err := charge(); err != nil {
			return err
		}
		if err := v.validUp(esp, ptr+uintptr(size)-1); err != nil {
			return err
		}
	}
	for i := mem.PGSIZE; i < size; i += mem.PGSIZE {
		if err := charge(); err != nil {
			return err
		}
		if err := v.validUp(esp, ptr+uintptr(i)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateString walks s byte by byte until a NUL, validating and
// pinning every page touched, matching validate_string. read fetches
// one byte of user memory at the given address. The byte-by-byte scan
// is charged against a res.Budget_t so a string with no terminator
// can't hang the kernel walking it forever.
func (v *Validator_t) ValidateString(esp, ptr uintptr, read func(uintptr) (byte, error)) (string, error) {
	if err := v.validUp(esp, ptr); err != nil {
		return "", err
	}
	budget := res.NewBudget(res.DefaultBudget * mem.PGSIZE)
	var out []byte
	for i := uintptr(0); ; i++ {
		if e := budget.Resadd_noblock(bounds.Bounds(bounds.B_FAULT_T_VALIDATE_STRING)); e != 0 {
			return "", ErrSegFault
		}
		if i > 0 && i%uintptr(mem.PGSIZE) == 0 {
			if err := v.validUp(esp, ptr+i); err != nil {
				return "", err
			}
		}
		b, err := read(ptr + i)
		if err != nil {
			return "", ErrSegFault
		}
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out), nil
}

// validUp validates and pins the single page containing ptr, faulting
// it in via LoadPage or growing the stack as needed, matching
// valid_up.
func (v *Validator_t) validUp(esp, ptr uintptr) error {
	if ptr == 0 || ptr >= PhysBase {
		return ErrSegFault
	}

	if e, ok := v.Spt.Find(ptr); ok {
		e.Pinned = true
		if v.Pd.GetPage(e.Upage) == nil {
			if err := v.LoadPage(e); err != nil {
				return ErrSegFault
			}
		}
		return nil
	}

	if v.Pd.GetPage(ptr&^uintptr(mem.PGSIZE-1)) == nil {
		if ptr+StackHeuristic < esp {
			return ErrSegFault
		}
		if !v.StackGrow(ptr, true) {
			return ErrSegFault
		}
		return nil
	}

	return ErrNoSptEntry
}

// IsWritable reports whether ptr lies in a writable mapping, matching
// is_writable (inverted to a query rather than an exit-on-failure
// call, since this port never terminates a process from inside a
// leaf helper).
func (v *Validator_t) IsWritable(ptr uintptr) bool {
	e, ok := v.Spt.Find(ptr)
	if !ok {
		return true
	}
	if e.Type == spt.FILE && !e.Writable {
		return false
	}
	return true
}

// UnpinBuffer clears the pinned bit on every page touched by
// [ptr, ptr+size), matching unpin_buffer.
func (v *Validator_t) UnpinBuffer(ptr uintptr, size int) {
	for i := 0; i < size; i += mem.PGSIZE {
		if e, ok := v.Spt.Find(ptr + uintptr(i)); ok {
			e.Pinned = false
		}
	}
	if size > 0 {
		if e, ok := v.Spt.Find(ptr + uintptr(size) - 1); ok {
			e.Pinned = false
		}
	}
}

// UnpinString unpins every page touched by s, matching unpin_str.
func (v *Validator_t) UnpinString(ptr uintptr, s string) {
	v.UnpinBuffer(ptr, len(s))
}

// StackGrow creates a new CODE page at uaddr's page and faults it in,
// provided doing so would not exceed MaxStackSize, matching
// stack_increase.
func (v *Validator_t) StackGrow(uaddr uintptr, pinned bool) bool {
	if PhysBase-uaddr > MaxStackSize {
		return false
	}
	upage := uaddr &^ uintptr(mem.PGSIZE-1)
	e := v.Spt.CreateCode(upage)
	e.Pinned = pinned
	if err := v.LoadPage(e); err != nil {
		return false
	}
	return true
}
