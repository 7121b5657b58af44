package transcoder

import "sync"

const (
	// Pool limits to prevent memory bloat
	poolMaxBlock  = 256 // bytes
	poolInitBlock = 64
)

// scratch buffers for building converted blocks
var blockPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, poolInitBlock)
		return &buf
	},
}

// getBlock returns a zeroed buffer of n bytes.
func getBlock(n uint32) *[]byte {
	buf := blockPool.Get().(*[]byte)
	if uint32(cap(*buf)) < n {
		*buf = make([]byte, n)
		return buf
	}
	*buf = (*buf)[:n]
	clear(*buf)
	return buf
}

func putBlock(buf *[]byte) {
	if buf == nil || cap(*buf) > poolMaxBlock {
		return // reject oversized
	}
	*buf = (*buf)[:0]
	blockPool.Put(buf)
}
