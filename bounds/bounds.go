// Package bounds names the call sites that walk a caller-supplied byte
// range one page at a time and assigns each a resource cost, consumed
// by package res to bound the walk.
package bounds

// Bounds_t identifies a loop that may iterate once per page of a
// user-supplied range.
type Bounds_t int

const (
	// B_FAULT_T_VALIDATE covers fault.Validator_t.Validate's
	// page-by-page walk of a syscall buffer.
	B_FAULT_T_VALIDATE Bounds_t = iota
	// B_FAULT_T_VALIDATE_STRING covers the byte-by-byte scan for a
	// NUL terminator in fault.Validator_t.ValidateString.
	B_FAULT_T_VALIDATE_STRING
	// B_SPT_T_CREATE_REGION covers spt.Table_t.CreateFileRegion and
	// CreateMmapRegion's per-page entry creation.
	B_SPT_T_CREATE_REGION
	// B_SPT_T_FREE_MMAP_REGION covers spt.Table_t.FreeMmapRegion's
	// per-page teardown walk.
	B_SPT_T_FREE_MMAP_REGION
	// B_USERBUF_T_TX covers vm.Userbuf_t's page-by-page copy loop.
	B_USERBUF_T_TX
)

// cost gives each bounds site the resource units one iteration spends.
// A plain page-touch costs 1; call sites that also perform an I/O hand
// off to the underlying file or disk are priced higher so that a
// pathological caller-supplied length exhausts the budget sooner.
var cost = map[Bounds_t]int{
	B_FAULT_T_VALIDATE:        1,
	B_FAULT_T_VALIDATE_STRING: 1,
	B_SPT_T_CREATE_REGION:     1,
	B_SPT_T_FREE_MMAP_REGION:  2,
	B_USERBUF_T_TX:            1,
}

// Bounds returns the resource cost of one iteration of the named loop.
func Bounds(b Bounds_t) int {
	return cost[b]
}
