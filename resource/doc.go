// Package resource provides a generation-tagged arena for values owned by a
// single registry.
//
// An Arena maps opaque handles to Go values. Each handle carries the
// generation of its slot, so a handle that outlived its value never resolves
// to a newer value that reuses the slot:
//
//	a := resource.NewArena[*Session]()
//
//	h, err := a.Insert(s)
//	s, ok := a.Get(h)     // ok
//	s, ok = a.Remove(h)   // ok, slot freed
//	_, ok = a.Get(h)      // !ok, stale handle
//
// # Observers
//
// Register observers to track lifecycle events:
//
//	a.Subscribe(myObserver)
//
// Observers are called after the arena lock is released, so they may call
// back into the arena.
//
// # Iteration
//
// Each walks live values under the read lock. Handles returns a snapshot for
// iteration that mutates the arena as it goes; values removed after the
// snapshot simply miss on Get.
package resource
