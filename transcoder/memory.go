package transcoder

import (
	"sync"

	mciruntime "github.com/wippyai/mci-runtime"
)

// Allocation is one block taken from an address space during a marshal.
type Allocation struct {
	Ptr   uint32
	Size  uint32
	Align uint32
}

// AllocationList records allocations so a failed or finished marshal can
// release all of them at once.
type AllocationList struct {
	allocations []Allocation
}

var allocationListPool = sync.Pool{
	New: func() any {
		return &AllocationList{allocations: make([]Allocation, 0, 8)}
	},
}

func NewAllocationList() *AllocationList {
	return allocationListPool.Get().(*AllocationList)
}

const maxPooledAllocationCapacity = 128

// Release returns to pool. Must call after Free(); list invalid after Release.
func (al *AllocationList) Release() {
	if cap(al.allocations) > maxPooledAllocationCapacity {
		return
	}
	al.Reset()
	allocationListPool.Put(al)
}

func (al *AllocationList) FreeAndRelease(a mciruntime.Allocator) {
	al.Free(a)
	al.Release()
}

func (al *AllocationList) Add(ptr, size, align uint32) {
	al.allocations = append(al.allocations, Allocation{
		Ptr:   ptr,
		Size:  size,
		Align: align,
	})
}

// Alloc allocates from a and records the block.
func (al *AllocationList) Alloc(a mciruntime.Allocator, size, align uint32) (uint32, error) {
	ptr, err := a.Alloc(size, align)
	if err != nil {
		return 0, err
	}
	al.Add(ptr, size, align)
	return ptr, nil
}

// Free releases every recorded block, newest first.
func (al *AllocationList) Free(a mciruntime.Allocator) {
	if a == nil {
		return
	}
	for i := len(al.allocations) - 1; i >= 0; i-- {
		if b := al.allocations[i]; b.Ptr != 0 {
			a.Free(b.Ptr, b.Size, b.Align)
		}
	}
	al.allocations = al.allocations[:0]
}

func (al *AllocationList) Reset() {
	al.allocations = al.allocations[:0]
}

func (al *AllocationList) Count() int {
	return len(al.allocations)
}
