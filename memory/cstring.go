package memory

import (
	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/errors"
)

// MaxStringLen bounds the scan for a terminating NUL.
const MaxStringLen = 1 << 16

// ReadCString reads the NUL-terminated string at addr. A null address reads as "".
func ReadCString(mem mciruntime.Memory, addr uint32) (string, error) {
	if addr == 0 {
		return "", nil
	}
	var buf []byte
	for i := uint32(0); i < MaxStringLen; i++ {
		b, err := mem.ReadU8(addr + i)
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
	return "", errors.New(errors.PhaseMarshal, errors.KindOutOfBounds).
		Value(addr).
		Detail("string at %#x is not terminated within %d bytes", addr, MaxStringLen).
		Build()
}

// WriteCString allocates len(s)+1 bytes in as and stores s with its terminator.
func WriteCString(as mciruntime.AddressSpace, s string) (uint32, error) {
	size := uint32(len(s)) + 1
	ptr, err := as.Alloc(size, 1)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, size)
	copy(buf, s)
	if err := as.Write(ptr, buf); err != nil {
		as.Free(ptr, size, 1)
		return 0, err
	}
	return ptr, nil
}

// FreeCString releases a string written by WriteCString. The length is read
// back from memory so the allocator sees the original size.
func FreeCString(as mciruntime.AddressSpace, addr uint32) {
	if addr == 0 {
		return
	}
	s, err := ReadCString(as, addr)
	if err != nil {
		as.Free(addr, 1, 1)
		return
	}
	as.Free(addr, uint32(len(s))+1, 1)
}

// PutBuffer writes s into a caller-owned buffer of size bytes, always leaving
// room for the terminator. It reports whether s had to be truncated.
func PutBuffer(mem mciruntime.Memory, addr, size uint32, s string) (bool, error) {
	if addr == 0 || size == 0 {
		return len(s) > 0, nil
	}
	n := uint32(len(s))
	truncated := false
	if n >= size {
		n = size - 1
		truncated = true
	}
	buf := make([]byte, n+1)
	copy(buf, s[:n])
	if err := mem.Write(addr, buf); err != nil {
		return false, err
	}
	return truncated, nil
}
