package mciruntime

// Memory is a 32-bit address space that parameter blocks live in.
// Address 0 is the null address and never refers to a block.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
}

// MemorySizer provides the current size of an address space in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator allocates blocks inside an address space
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}

// AddressSpace is a Memory paired with the allocator that owns it.
type AddressSpace interface {
	Memory
	Allocator
}
