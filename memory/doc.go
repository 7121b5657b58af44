// Package memory provides the heap-backed address space used for
// flat-convention parameter blocks, plus helpers for NUL-terminated strings
// stored in any address space.
//
// An Arena hands out 32-bit addresses starting above a small reserved prefix,
// so address 0 always means "no block". Arenas used for a single call are
// taken from and returned to a pool:
//
//	a := memory.Get(0)
//	defer memory.Put(a)
//	ptr, err := memory.WriteCString(a, "mysound.wav")
package memory
