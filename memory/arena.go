package memory

import (
	"encoding/binary"
	"sort"
	"sync"

	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/errors"
)

// DefaultLimit caps an arena created with a zero limit.
const DefaultLimit = 1 << 20

// arenaBase is the first address handed out; everything below it reads as null.
const arenaBase = 8

type span struct {
	addr uint32
	size uint32
}

// Arena is a heap-backed 32-bit address space with a first-fit allocator.
// It backs flat-convention parameter blocks and the strings they point at.
//
// Slices returned by Read alias arena storage and are only valid until the
// next Alloc, which may move the backing array.
type Arena struct {
	mu    sync.Mutex
	data  []byte
	free  []span
	live  map[uint32]uint32
	top   uint32
	limit uint32
}

// NewArena creates an empty arena that never grows past limit bytes.
func NewArena(limit uint32) *Arena {
	if limit == 0 {
		limit = DefaultLimit
	}
	return &Arena{
		data:  make([]byte, arenaBase, 256),
		live:  make(map[uint32]uint32),
		top:   arenaBase,
		limit: limit,
	}
}

// Alloc reserves size bytes aligned to align. Fresh blocks are zeroed.
func (a *Arena) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return 0, errors.New(errors.PhaseMarshal, errors.KindInternal).
			Detail("alignment %d is not a power of two", align).
			Build()
	}
	if size == 0 {
		size = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for i, s := range a.free {
		start := alignUp(s.addr, align)
		end := uint64(start) + uint64(size)
		if end > uint64(s.addr)+uint64(s.size) {
			continue
		}
		a.carve(i, start, uint32(end))
		a.live[start] = size
		clear(a.data[start:end])
		return start, nil
	}

	start := alignUp(a.top, align)
	end := uint64(start) + uint64(size)
	if end > uint64(a.limit) {
		return 0, errors.OutOfMemory(errors.PhaseMarshal, size, align)
	}
	if start > a.top {
		a.insertFree(span{addr: a.top, size: start - a.top})
	}
	if end > uint64(len(a.data)) {
		a.data = append(a.data, make([]byte, int(end)-len(a.data))...)
	}
	clear(a.data[start:end])
	a.top = uint32(end)
	a.live[start] = size
	return start, nil
}

// carve removes [start, end) from free span i, keeping any remainder on either side.
func (a *Arena) carve(i int, start, end uint32) {
	s := a.free[i]
	var rest []span
	if start > s.addr {
		rest = append(rest, span{addr: s.addr, size: start - s.addr})
	}
	if tail := s.addr + s.size; end < tail {
		rest = append(rest, span{addr: end, size: tail - end})
	}
	a.free = append(a.free[:i], append(rest, a.free[i+1:]...)...)
}

// Free releases a block returned by Alloc. Unknown pointers are ignored.
func (a *Arena) Free(ptr, _, _ uint32) {
	if ptr == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	size, ok := a.live[ptr]
	if !ok {
		return
	}
	delete(a.live, ptr)

	if ptr+size == a.top {
		a.top = ptr
		// Pull back over any free span that now touches the top.
		for n := len(a.free); n > 0; n = len(a.free) {
			last := a.free[n-1]
			if last.addr+last.size != a.top {
				break
			}
			a.top = last.addr
			a.free = a.free[:n-1]
		}
		return
	}
	a.insertFree(span{addr: ptr, size: size})
}

// insertFree adds s to the sorted free list and coalesces neighbours.
func (a *Arena) insertFree(s span) {
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].addr > s.addr })
	a.free = append(a.free, span{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = s

	if i+1 < len(a.free) && a.free[i].addr+a.free[i].size == a.free[i+1].addr {
		a.free[i].size += a.free[i+1].size
		a.free = append(a.free[:i+1], a.free[i+2:]...)
	}
	if i > 0 && a.free[i-1].addr+a.free[i-1].size == a.free[i].addr {
		a.free[i-1].size += a.free[i].size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
}

// Live returns the number of blocks currently allocated.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Reset frees every block at once.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = a.data[:arenaBase]
	clear(a.data)
	a.free = a.free[:0]
	clear(a.live)
	a.top = arenaBase
}

// Size returns the number of addressable bytes.
func (a *Arena) Size() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return uint32(len(a.data))
}

func (a *Arena) bounds(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if offset < arenaBase || end > uint64(len(a.data)) {
		return nil, errors.OutOfBounds(errors.PhaseMarshal, offset, length)
	}
	return a.data[offset:end], nil
}

// Read returns length bytes at offset.
func (a *Arena) Read(offset, length uint32) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bounds(offset, length)
}

// Write copies data to offset.
func (a *Arena) Write(offset uint32, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, err := a.bounds(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

func (a *Arena) ReadU8(offset uint32) (uint8, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, err := a.bounds(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (a *Arena) ReadU16(offset uint32) (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, err := a.bounds(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (a *Arena) ReadU32(offset uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, err := a.bounds(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (a *Arena) WriteU8(offset uint32, value uint8) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, err := a.bounds(offset, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

func (a *Arena) WriteU16(offset uint32, value uint16) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, err := a.bounds(offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

func (a *Arena) WriteU32(offset uint32, value uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, err := a.bounds(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}

var (
	_ mciruntime.AddressSpace = (*Arena)(nil)
	_ mciruntime.MemorySizer  = (*Arena)(nil)
)
