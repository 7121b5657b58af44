package memory

import "sync"

// Arenas above this many bytes are dropped instead of pooled.
const poolMaxArena = 64 << 10

var arenaPool = sync.Pool{
	New: func() any {
		return NewArena(0)
	},
}

// Get returns an empty arena from the pool with the given limit.
func Get(limit uint32) *Arena {
	a := arenaPool.Get().(*Arena)
	if limit == 0 {
		limit = DefaultLimit
	}
	a.limit = limit
	return a
}

// Put resets a and returns it to the pool. a must not be used afterwards.
func Put(a *Arena) {
	if a == nil || a.Size() > poolMaxArena {
		return
	}
	a.Reset()
	arenaPool.Put(a)
}
