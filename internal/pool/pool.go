// Package pool provides shared object pools for the hot paths: frame
// rendering and PTY reads.
package pool

import (
	"strings"
	"sync"
)

// byteSliceSize is the size of pooled PTY read buffers.
const byteSliceSize = 32 * 1024

var stringBuilderPool = sync.Pool{
	New: func() any {
		return &strings.Builder{}
	},
}

// GetStringBuilder returns a reset string builder from the pool.
func GetStringBuilder() *strings.Builder {
	return stringBuilderPool.Get().(*strings.Builder)
}

// PutStringBuilder resets the builder and returns it to the pool.
func PutStringBuilder(sb *strings.Builder) {
	if sb == nil {
		return
	}
	sb.Reset()
	stringBuilderPool.Put(sb)
}

var byteSlicePool = sync.Pool{
	New: func() any {
		buf := make([]byte, byteSliceSize)
		return &buf
	},
}

// GetByteSlice returns a 32KiB buffer for PTY reads.
func GetByteSlice() *[]byte {
	return byteSlicePool.Get().(*[]byte)
}

// PutByteSlice returns a buffer to the pool.
func PutByteSlice(buf *[]byte) {
	if buf == nil || *buf == nil {
		return
	}
	byteSlicePool.Put(buf)
}
