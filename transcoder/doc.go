// Package transcoder converts parameter blocks between the flat and legacy
// calling conventions.
//
// Flat blocks use 4-byte fields throughout. Legacy blocks narrow some
// integers to 2 bytes and live in the legacy driver's own address space, so
// every pointer field has to be re-homed as well.
//
// # Descriptors
//
// Each (device kind, message) pair that carries a block has a Descriptor.
// Lookups fall back to the generic kind. A descriptor's Mapping is either a
// Program, decoded from packed bytecode, or one of the Custom mappings for
// OPEN, INFO and SYSINFO:
//
//	Nibble    Flat    Legacy
//	──────────────────────────
//	0x1       4       2 (signed)
//	0x2       4       2 (unsigned)
//	0x6       4       4 (zeroed)
//	0x7       ptr     ptr (string copied)
//	0x8-0xF   n       n (n = code&7 + 1)
//
// Nibbles are read least significant first; bytecode 0 copies the block
// unchanged.
//
// # Guards
//
// ToLegacy and ToFlat return a Guard holding the converted block:
//
//	g, err := m.ToLegacy(kind, msg, flags, flat, addr, legacy)
//	if err != nil {
//	    return err
//	}
//	defer g.Release()
//	result := drv.Send(ctx, driver.Request{Mem: legacy, P2: g.Handle(), ...})
//
// Retained descriptors prefix the driver-side block with a hidden 4-byte
// back-pointer to the caller's block; Release follows it to copy results
// (status values, rectangles, returned strings) back before freeing.
package transcoder
