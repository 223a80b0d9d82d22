// Package fileops names the backing-file collaborator the
// supplemental page table consults to load FILE/MMAP pages and
// write MMAP pages back, grounded on the teacher's Fdops_i-shaped
// duplication/close contract (fd/fd.go's Copyfd/Close_panic) and
// ships an in-memory reference file for tests.
package fileops

import (
	"sync"

	"defs"
)

// File_i is the external file collaborator of spec §6: file_length,
// file_read, file_write_at, file_reopen and file_close. There is no
// separate seek; ReadAt takes the offset file_seek would have set.
type File_i interface {
	Length() int
	ReadAt(buf []byte, ofs int) (int, defs.Err_t)
	WriteAt(buf []byte, ofs int) (int, defs.Err_t)
	// Reopen returns an independent handle sharing the same backing
	// bytes, mirroring fd.Copyfd's duplication contract.
	Reopen() (File_i, defs.Err_t)
	Close() defs.Err_t
}

// IOLock is the shared file_lock of spec §5: every disk and file
// access taken while holding frame_table_lock or swap_lock goes
// through this single mutex, preserving the lock order
// frame_table_lock -> swap_lock -> file_lock.
var IOLock sync.Mutex

// MemFile_t is an in-memory File_i backed by a byte slice, standing in
// for an on-disk file in tests.
type MemFile_t struct {
	mu     *sync.Mutex
	data   *[]byte
	closed *bool
}

// NewMemFile wraps data as a File_i. data is not copied; writes past
// the current length grow it.
func NewMemFile(data []byte) *MemFile_t {
	closed := false
	mu := &sync.Mutex{}
	return &MemFile_t{mu: mu, data: &data, closed: &closed}
}

func (f *MemFile_t) Length() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(*f.data)
}

func (f *MemFile_t) ReadAt(buf []byte, ofs int) (int, defs.Err_t) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if *f.closed {
		return 0, -defs.EINVAL
	}
	if ofs < 0 || ofs >= len(*f.data) {
		return 0, 0
	}
	n := copy(buf, (*f.data)[ofs:])
	return n, 0
}

func (f *MemFile_t) WriteAt(buf []byte, ofs int) (int, defs.Err_t) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if *f.closed {
		return 0, -defs.EINVAL
	}
	need := ofs + len(buf)
	if need > len(*f.data) {
		grown := make([]byte, need)
		copy(grown, *f.data)
		*f.data = grown
	}
	n := copy((*f.data)[ofs:], buf)
	return n, 0
}

// Reopen returns a new handle sharing the same backing slice and lock,
// matching fd.Copyfd: duplication shares state, it does not copy it.
func (f *MemFile_t) Reopen() (File_i, defs.Err_t) {
	return &MemFile_t{mu: f.mu, data: f.data, closed: f.closed}, 0
}

func (f *MemFile_t) Close() defs.Err_t {
	f.mu.Lock()
	defer f.mu.Unlock()
	*f.closed = true
	return 0
}
