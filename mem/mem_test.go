package mem

import "testing"

func TestUserPoolAllocExhaustsAndRefills(t *testing.T) {
	p := NewUserPool(2)
	f1, ok := p.Alloc()
	if !ok {
		t.Fatalf("expected first alloc to succeed")
	}
	if _, ok := p.Alloc(); !ok {
		t.Fatalf("expected second alloc to succeed")
	}
	if _, ok := p.Alloc(); ok {
		t.Fatalf("expected pool to be exhausted after 2 allocs")
	}
	if p.Used() != 2 {
		t.Fatalf("Used() = %d, want 2", p.Used())
	}

	p.Free(f1)
	if p.Used() != 1 {
		t.Fatalf("Used() after Free = %d, want 1", p.Used())
	}
	if _, ok := p.Alloc(); !ok {
		t.Fatalf("expected alloc to succeed after a Free")
	}
}

func TestUserPoolAllocReturnsZeroedFrame(t *testing.T) {
	p := NewUserPool(1)
	f, _ := p.Alloc()
	f[0] = 0xff
	p.Free(f)
	f2, _ := p.Alloc()
	if f2[0] != 0 {
		t.Fatalf("expected reused frame to be zeroed, got %d", f2[0])
	}
}

func TestUserPoolDoubleFreePanics(t *testing.T) {
	p := NewUserPool(1)
	f, _ := p.Alloc()
	p.Free(f)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected double free to panic")
		}
	}()
	p.Free(f)
}
