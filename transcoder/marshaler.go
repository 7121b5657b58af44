package transcoder

import (
	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/mmsys"
)

// Direction is the way a block crosses conventions.
type Direction uint8

const (
	// ToLegacy converts a flat caller's block for a legacy driver.
	ToLegacy Direction = iota
	// ToFlat converts a legacy caller's block for a flat driver.
	ToFlat
)

func (d Direction) String() string {
	if d == ToFlat {
		return "to_flat"
	}
	return "to_legacy"
}

// Marshaler converts parameter blocks between conventions using a
// descriptor table. It holds no per-call state and is safe for concurrent use.
type Marshaler struct {
	table *Table
}

// NewMarshaler creates a marshaler over t. A nil t uses DefaultTable.
func NewMarshaler(t *Table) *Marshaler {
	if t == nil {
		t = DefaultTable()
	}
	return &Marshaler{table: t}
}

// Table returns the marshaler's descriptors.
func (m *Marshaler) Table() *Table {
	return m.table
}

// ToLegacy converts the flat block at addr into a new block in legacy.
// The returned Guard must be released once the driver call is over.
func (m *Marshaler) ToLegacy(kind mmsys.DeviceKind, msg mmsys.Message, flags uint32,
	flat mciruntime.AddressSpace, addr uint32, legacy mciruntime.AddressSpace) (*Guard, error) {
	return m.marshal(ToLegacy, kind, msg, flags, flat, addr, legacy)
}

// ToFlat converts the legacy block at addr into a new block in flat.
func (m *Marshaler) ToFlat(kind mmsys.DeviceKind, msg mmsys.Message, flags uint32,
	legacy mciruntime.AddressSpace, addr uint32, flat mciruntime.AddressSpace) (*Guard, error) {
	return m.marshal(ToFlat, kind, msg, flags, legacy, addr, flat)
}

func (m *Marshaler) marshal(dir Direction, kind mmsys.DeviceKind, msg mmsys.Message, flags uint32,
	src mciruntime.AddressSpace, addr uint32, dst mciruntime.AddressSpace) (*Guard, error) {
	desc, ok := m.table.Lookup(kind, msg)
	if !ok || addr == 0 {
		return &Guard{handle: addr}, nil
	}

	g := &Guard{
		desc:      desc,
		src:       src,
		dst:       dst,
		allocs:    NewAllocationList(),
		srcAddr:   addr,
		srcLegacy: dir == ToFlat,
		kind:      kind,
		flags:     flags,
	}

	var err error
	switch mp := desc.Mapping.(type) {
	case Program:
		err = g.program(mp)
	case Custom:
		err = g.custom(mp)
	}
	if err != nil {
		g.allocs.FreeAndRelease(dst)
		return nil, err
	}
	return g, nil
}

// Guard owns one marshaled block for the length of a driver call.
// Release undoes the marshal: it copies retained results back to the
// caller's block and frees everything allocated in the driver's space.
// A Guard is used by one goroutine and released exactly once.
type Guard struct {
	desc      *Descriptor
	src       mciruntime.AddressSpace
	dst       mciruntime.AddressSpace
	allocs    *AllocationList
	srcAddr   uint32
	handle    uint32
	retBuf    uint32
	retSize   uint32
	flags     uint32
	kind      mmsys.DeviceKind
	srcLegacy bool
	released  bool
}

// Handle returns the address to pass to the driver.
func (g *Guard) Handle() uint32 {
	return g.handle
}

// Mapped reports whether the block was converted. An unmapped guard hands
// the caller's address through unchanged.
func (g *Guard) Mapped() bool {
	return g.desc != nil
}

// Descriptor returns the descriptor used, or nil for an unmapped guard.
func (g *Guard) Descriptor() *Descriptor {
	return g.desc
}

// Release copies back and frees. Calling it again is a no-op.
func (g *Guard) Release() error {
	if g == nil || g.desc == nil || g.released {
		return nil
	}
	g.released = true
	defer g.allocs.FreeAndRelease(g.dst)

	if !g.desc.Retain {
		return nil
	}
	back, err := g.dst.ReadU32(g.handle - 4)
	if err != nil {
		return err
	}
	switch mp := g.desc.Mapping.(type) {
	case Program:
		return g.copyBack(mp, back)
	case Custom:
		return g.releaseCustom(mp, back)
	}
	return nil
}

func (g *Guard) program(p Program) error {
	inSize, outSize := p.Size(g.srcLegacy), p.Size(!g.srcLegacy)

	in, err := readBlock(g.src, g.srcAddr, inSize)
	if err != nil {
		return err
	}
	defer putBlock(in)

	out := getBlock(outSize)
	defer putBlock(out)

	if err := transform(p, *in, g.srcLegacy, *out, g.src, g.dst, true, g.allocs); err != nil {
		return err
	}
	return g.place(*out)
}

// place allocates the driver-side block, writes the hidden back-pointer for
// retained descriptors and stores data at the handle.
func (g *Guard) place(data []byte) error {
	size := uint32(len(data))
	if g.desc.Retain {
		size += 4
	}
	base, err := g.allocs.Alloc(g.dst, size, 4)
	if err != nil {
		return err
	}
	g.handle = base
	if g.desc.Retain {
		if err := g.dst.WriteU32(base, g.srcAddr); err != nil {
			return err
		}
		g.handle = base + 4
	}
	return g.dst.Write(g.handle, data)
}

// copyBack runs p from the driver's block into the caller's block at back.
// String fields in the caller's block keep their original pointers.
func (g *Guard) copyBack(p Program, back uint32) error {
	dstLegacy := !g.srcLegacy

	in, err := readBlock(g.dst, g.handle, p.Size(dstLegacy))
	if err != nil {
		return err
	}
	defer putBlock(in)

	out, err := readBlock(g.src, back, p.Size(g.srcLegacy))
	if err != nil {
		return err
	}
	defer putBlock(out)

	if err := transform(p, *in, dstLegacy, *out, g.dst, g.src, false, nil); err != nil {
		return err
	}
	return g.src.Write(back, *out)
}
