package disk

import (
	"bytes"
	"os"
	"testing"

	"defs"
)

func TestMemDiskReadWriteRoundTrip(t *testing.T) {
	d := NewMemDisk(4)
	buf := bytes.Repeat([]byte{0x5a}, SectorSize)
	if errt := d.WriteSector(2, buf); errt != 0 {
		t.Fatalf("WriteSector: %v", errt)
	}
	got := make([]byte, SectorSize)
	if errt := d.ReadSector(2, got); errt != 0 {
		t.Fatalf("ReadSector: %v", errt)
	}
	if !bytes.Equal(got, buf) {
		t.Fatalf("round trip mismatch")
	}
	if !bytes.Equal(make([]byte, SectorSize), func() []byte {
		b := make([]byte, SectorSize)
		d.ReadSector(0, b)
		return b
	}()) {
		t.Fatalf("expected untouched sector to read back zeroed")
	}
}

func TestMemDiskRejectsOutOfRangeSector(t *testing.T) {
	d := NewMemDisk(1)
	buf := make([]byte, SectorSize)
	if errt := d.ReadSector(1, buf); errt != -defs.EINVAL {
		t.Fatalf("expected EINVAL for out-of-range sector, got %v", errt)
	}
	if errt := d.WriteSector(-1, buf); errt != -defs.EINVAL {
		t.Fatalf("expected EINVAL for negative sector, got %v", errt)
	}
}

func TestFileDiskPersistsAcrossReopen(t *testing.T) {
	path := t.TempDir() + "/swap.img"
	d, err := OpenFileDisk(path, 4)
	if err != nil {
		t.Fatalf("OpenFileDisk: %v", err)
	}
	buf := bytes.Repeat([]byte{0x7e}, SectorSize)
	if errt := d.WriteSector(1, buf); errt != 0 {
		t.Fatalf("WriteSector: %v", errt)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenFileDisk(path, 4)
	if err != nil {
		t.Fatalf("reopen OpenFileDisk: %v", err)
	}
	defer reopened.Close()
	got := make([]byte, SectorSize)
	if errt := reopened.ReadSector(1, got); errt != 0 {
		t.Fatalf("ReadSector: %v", errt)
	}
	if !bytes.Equal(got, buf) {
		t.Fatalf("expected sector contents to survive across reopen")
	}
	os.Remove(path)
}
