package wasmdrv

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/errors"
)

// Memory adapts a guest's linear memory to mciruntime.Memory.
type Memory struct {
	Mem api.Memory
}

func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseDriver, offset, length)
	}
	// Read returns a view; callers may hold the bytes past the next guest call.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseDriver, offset, uint32(len(data)))
	}
	return nil
}

func (m *Memory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.Mem.ReadByte(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseDriver, offset, 1)
	}
	return v, nil
}

func (m *Memory) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.Mem.ReadUint16Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseDriver, offset, 2)
	}
	return v, nil
}

func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.Mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseDriver, offset, 4)
	}
	return v, nil
}

func (m *Memory) WriteU8(offset uint32, value uint8) error {
	if !m.Mem.WriteByte(offset, value) {
		return errors.OutOfBounds(errors.PhaseDriver, offset, 1)
	}
	return nil
}

func (m *Memory) WriteU16(offset uint32, value uint16) error {
	if !m.Mem.WriteUint16Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseDriver, offset, 2)
	}
	return nil
}

func (m *Memory) WriteU32(offset uint32, value uint32) error {
	if !m.Mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseDriver, offset, 4)
	}
	return nil
}

// Size returns the current size of linear memory in bytes.
func (m *Memory) Size() uint32 {
	return m.Mem.Size()
}

// allocator calls the guest's mci_alloc and mci_free exports. It shares the
// driver's call lock so guest code never runs concurrently.
type allocator struct {
	mu      *sync.Mutex
	allocFn api.Function
	freeFn  api.Function
	name    string
}

func (a *allocator) Alloc(size, align uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	results, err := a.allocFn.Call(context.Background(), uint64(size), uint64(align))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseMarshal, errors.KindOutOfMemory, err, "guest allocation trapped")
	}
	if len(results) == 0 || uint32(results[0]) == 0 {
		return 0, errors.OutOfMemory(errors.PhaseMarshal, size, align)
	}
	return uint32(results[0]), nil
}

func (a *allocator) Free(ptr, size, align uint32) {
	if a.freeFn == nil || ptr == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.freeFn.Call(context.Background(), uint64(ptr), uint64(size), uint64(align)); err != nil {
		Logger().Warn("guest free failed",
			zap.String("module", a.name),
			zap.Uint32("ptr", ptr),
			zap.Error(err))
	}
}

// space joins a guest memory and allocator into one address space.
type space struct {
	*Memory
	*allocator
}

var (
	_ mciruntime.Memory       = (*Memory)(nil)
	_ mciruntime.MemorySizer  = (*Memory)(nil)
	_ mciruntime.Allocator    = (*allocator)(nil)
	_ mciruntime.AddressSpace = space{}
)
