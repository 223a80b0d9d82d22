// Package disk names the block-device collaborator the swap store
// reads and writes sectors through, grounded on the teacher's
// ahci_disk_t (ufs/driver.go): a file-backed disk serialized by a
// mutex around seek-then-read/write.
package disk

import (
	"os"
	"sync"

	"defs"
)

// SectorSize is the unit disk_read/disk_write move, matching the
// teacher's fs.BSIZE-per-block convention scaled down to a classic
// 512-byte sector so swap.Store_t can address finer than a full page.
const SectorSize = 512

// Disk_i is the external disk collaborator of spec §6: disk_get,
// disk_size, disk_read, disk_write.
type Disk_i interface {
	// Size reports the disk's capacity in sectors.
	Size() int
	// ReadSector reads exactly SectorSize bytes from sector n into buf.
	ReadSector(n int, buf []byte) defs.Err_t
	// WriteSector writes exactly SectorSize bytes from buf to sector n.
	WriteSector(n int, buf []byte) defs.Err_t
}

// FileDisk_t simulates a disk backed by an *os.File, the same shape
// as ahci_disk_t: a mutex held across the seek-then-read/write pair so
// concurrent sector accesses can't interleave.
type FileDisk_t struct {
	mu   sync.Mutex
	f    *os.File
	nsec int
}

// OpenFileDisk opens (or creates) path as a disk of nsec sectors.
func OpenFileDisk(path string, nsec int) (*FileDisk_t, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(nsec * SectorSize)); err != nil {
		f.Close()
		return nil, err
	}
	return &FileDisk_t{f: f, nsec: nsec}, nil
}

func (d *FileDisk_t) Size() int { return d.nsec }

func (d *FileDisk_t) ReadSector(n int, buf []byte) defs.Err_t {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n < 0 || n >= d.nsec || len(buf) != SectorSize {
		return -defs.EINVAL
	}
	if _, err := d.f.Seek(int64(n*SectorSize), 0); err != nil {
		return -defs.EIO
	}
	if _, err := d.f.Read(buf); err != nil {
		return -defs.EIO
	}
	return 0
}

func (d *FileDisk_t) WriteSector(n int, buf []byte) defs.Err_t {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n < 0 || n >= d.nsec || len(buf) != SectorSize {
		return -defs.EINVAL
	}
	if _, err := d.f.Seek(int64(n*SectorSize), 0); err != nil {
		return -defs.EIO
	}
	if _, err := d.f.Write(buf); err != nil {
		return -defs.EIO
	}
	return 0
}

// Close releases the backing file.
func (d *FileDisk_t) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.Close()
}

// MemDisk_t is an in-memory Disk_i, standing in for a file-backed disk
// in tests that don't need a real file.
type MemDisk_t struct {
	mu   sync.Mutex
	secs [][SectorSize]byte
}

// NewMemDisk returns a disk of nsec zeroed sectors.
func NewMemDisk(nsec int) *MemDisk_t {
	return &MemDisk_t{secs: make([][SectorSize]byte, nsec)}
}

func (d *MemDisk_t) Size() int { return len(d.secs) }

func (d *MemDisk_t) ReadSector(n int, buf []byte) defs.Err_t {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n < 0 || n >= len(d.secs) || len(buf) != SectorSize {
		return -defs.EINVAL
	}
	copy(buf, d.secs[n][:])
	return 0
}

func (d *MemDisk_t) WriteSector(n int, buf []byte) defs.Err_t {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n < 0 || n >= len(d.secs) || len(buf) != SectorSize {
		return -defs.EINVAL
	}
	copy(d.secs[n][:], buf)
	return 0
}
