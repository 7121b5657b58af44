package memory

import (
	"testing"

	"github.com/wippyai/mci-runtime/errors"
)

func TestArena_AllocAlignment(t *testing.T) {
	a := NewArena(0)
	tests := []struct {
		size, align uint32
	}{
		{3, 1},
		{4, 4},
		{1, 8},
		{12, 4},
		{0, 2},
	}
	for _, tt := range tests {
		ptr, err := a.Alloc(tt.size, tt.align)
		if err != nil {
			t.Fatalf("Alloc(%d, %d): %v", tt.size, tt.align, err)
		}
		if ptr == 0 {
			t.Fatal("Alloc returned null")
		}
		if ptr%tt.align != 0 {
			t.Errorf("ptr %#x not aligned to %d", ptr, tt.align)
		}
	}
	if a.Live() != len(tests) {
		t.Errorf("Live() = %d, want %d", a.Live(), len(tests))
	}
}

func TestArena_BadAlignment(t *testing.T) {
	a := NewArena(0)
	if _, err := a.Alloc(4, 3); err == nil {
		t.Error("expected error for non power-of-two alignment")
	}
}

func TestArena_Limit(t *testing.T) {
	a := NewArena(64)
	if _, err := a.Alloc(40, 4); err != nil {
		t.Fatalf("first alloc: %v", err)
	}
	_, err := a.Alloc(40, 4)
	if errors.CodeOf(err) != errors.CodeOutOfMemory {
		t.Errorf("expected out of memory, got %v", err)
	}
}

func TestArena_ReuseAfterFree(t *testing.T) {
	a := NewArena(0)
	p1, _ := a.Alloc(16, 4)
	p2, _ := a.Alloc(16, 4)
	p3, _ := a.Alloc(16, 4)

	if err := a.WriteU32(p2, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	a.Free(p2, 16, 4)

	p4, err := a.Alloc(8, 4)
	if err != nil {
		t.Fatal(err)
	}
	if p4 != p2 {
		t.Errorf("first fit should reuse %#x, got %#x", p2, p4)
	}
	v, _ := a.ReadU32(p4)
	if v != 0 {
		t.Errorf("reused block not zeroed: %#x", v)
	}

	a.Free(p1, 16, 4)
	a.Free(p3, 16, 4)
	a.Free(p4, 8, 4)
	if a.Live() != 0 {
		t.Errorf("Live() = %d after freeing all", a.Live())
	}
	if a.top != arenaBase {
		t.Errorf("top = %d, want %d after freeing all", a.top, arenaBase)
	}
	if len(a.free) != 0 {
		t.Errorf("free list not collapsed: %v", a.free)
	}
}

func TestArena_FreeUnknownIgnored(t *testing.T) {
	a := NewArena(0)
	p, _ := a.Alloc(4, 4)
	a.Free(0, 4, 4)
	a.Free(p+1, 4, 4)
	if a.Live() != 1 {
		t.Errorf("Live() = %d, want 1", a.Live())
	}
}

func TestArena_Bounds(t *testing.T) {
	a := NewArena(0)
	p, _ := a.Alloc(4, 4)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"read null", func() error { _, err := a.ReadU32(0); return err }},
		{"read past end", func() error { _, err := a.Read(p, 1024); return err }},
		{"write past end", func() error { return a.WriteU32(p+2, 1) }},
		{"u16 past end", func() error { _, err := a.ReadU16(a.Size() - 1); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if errors.KindOf(err) != errors.KindOutOfBounds {
				t.Errorf("expected out of bounds, got %v", err)
			}
		})
	}
}

func TestArena_ReadWrite(t *testing.T) {
	a := NewArena(0)
	p, _ := a.Alloc(8, 4)

	if err := a.WriteU16(p, 0xBEEF); err != nil {
		t.Fatal(err)
	}
	if err := a.WriteU8(p+2, 0x7F); err != nil {
		t.Fatal(err)
	}
	if err := a.WriteU32(p+4, 0x01020304); err != nil {
		t.Fatal(err)
	}
	b, err := a.Read(p, 8)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xEF, 0xBE, 0x7F, 0x00, 0x04, 0x03, 0x02, 0x01}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, b[i], want[i])
		}
	}
	if v, _ := a.ReadU16(p); v != 0xBEEF {
		t.Errorf("ReadU16 = %#x", v)
	}
	if v, _ := a.ReadU8(p + 2); v != 0x7F {
		t.Errorf("ReadU8 = %#x", v)
	}
}

func TestArena_Reset(t *testing.T) {
	a := NewArena(0)
	for i := 0; i < 4; i++ {
		if _, err := a.Alloc(32, 4); err != nil {
			t.Fatal(err)
		}
	}
	a.Reset()
	if a.Live() != 0 || a.Size() != arenaBase {
		t.Errorf("after Reset: live=%d size=%d", a.Live(), a.Size())
	}
}

func TestPool(t *testing.T) {
	a := Get(128)
	if _, err := a.Alloc(100, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Alloc(100, 1); err == nil {
		t.Error("pooled arena should honour its limit")
	}
	Put(a)

	b := Get(0)
	defer Put(b)
	if b.Live() != 0 {
		t.Errorf("pooled arena not reset: live=%d", b.Live())
	}
}
