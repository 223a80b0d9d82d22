// Package defs holds the small, shared vocabulary used across the
// virtual-memory core: the kernel error-code convention and the
// identifiers that name a thread of execution.
package defs

// Err_t is a kernel error code. Following the rest of the kernel,
// success is 0 and failures are negative; a function that can fail
// returns a positive errno-style constant negated at the call site
// (e.g. "return -defs.EFAULT").
type Err_t int

// Error codes referenced by the fault/validation and paging path.
// Negate these at the return site: "-defs.EFAULT".
const (
	EFAULT       Err_t = 14 /// bad user address
	ENOMEM       Err_t = 12 /// no frame or swap slot available
	ENOHEAP      Err_t = 48 /// kernel resource budget exceeded
	EINVAL       Err_t = 22 /// malformed argument
	ENAMETOOLONG Err_t = 36 /// string exceeded the caller's buffer
	EIO          Err_t = 5  /// underlying file or disk I/O failed
)

// Tid_t names a thread of execution taking a page fault or issuing a
// syscall. The core treats it opaquely; it exists so call sites don't
// need to agree on a concrete thread type.
type Tid_t int
