// Package wasmdrv runs legacy-convention drivers compiled to WebAssembly.
//
// A driver module exports its linear memory plus:
//
//	mci_alloc(size, align i32) -> ptr i32
//	mci_free(ptr, size, align i32)         optional
//	mci_send(msg, p1, p2 i32) -> result i32
//	mci_open(device, flags i32) -> i32     optional
//	mci_close()                            optional
//
// The guest memory and allocator form the session's legacy address space, so
// the dispatcher marshals parameter blocks straight into the sandbox. Each
// session gets its own instance; calls into one instance are serialized.
package wasmdrv
