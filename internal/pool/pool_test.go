package pool

import (
	"strings"
	"sync"
	"testing"
)

// TestStringBuilderPool tests that builders come back reset
func TestStringBuilderPool(t *testing.T) {
	sb := GetStringBuilder()
	if sb == nil {
		t.Fatal("GetStringBuilder returned nil")
	}

	sb.WriteString("frame")
	if sb.String() != "frame" {
		t.Errorf("Expected 'frame', got %q", sb.String())
	}
	PutStringBuilder(sb)

	sb2 := GetStringBuilder()
	if sb2.Len() != 0 {
		t.Errorf("String builder should be reset, but has length %d", sb2.Len())
	}
	PutStringBuilder(sb2)
}

// TestStringBuilderPool_Concurrent tests concurrent access to the builder pool
func TestStringBuilderPool_Concurrent(t *testing.T) {
	const goroutines = 10
	const iterations = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				sb := GetStringBuilder()
				sb.WriteString("row")
				if sb.String() != "row" {
					t.Errorf("Goroutine %d iteration %d: unexpected content", id, j)
				}
				PutStringBuilder(sb)
			}
		}(i)
	}

	wg.Wait()
}

// TestByteSlicePool tests the PTY read buffer pool
func TestByteSlicePool(t *testing.T) {
	buf := GetByteSlice()
	if buf == nil {
		t.Fatal("GetByteSlice returned nil")
	}
	if *buf == nil {
		t.Fatal("Byte slice is nil")
	}

	if len(*buf) != byteSliceSize {
		t.Errorf("Expected byte slice length %d, got %d", byteSliceSize, len(*buf))
	}

	copy(*buf, []byte("pty output"))
	PutByteSlice(buf)

	buf2 := GetByteSlice()
	if buf2 == nil {
		t.Fatal("Second GetByteSlice returned nil")
	}
	if len(*buf2) != byteSliceSize {
		t.Errorf("Expected recycled slice length %d, got %d", byteSliceSize, len(*buf2))
	}
	PutByteSlice(buf2)
}

// TestPutNil tests that returning nil pointers is a no-op
func TestPutNil(t *testing.T) {
	PutStringBuilder(nil)
	PutByteSlice(nil)
}

// BenchmarkStringBuilderPool benchmarks the string builder pool
func BenchmarkStringBuilderPool(b *testing.B) {
	b.Run("WithPool", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			sb := GetStringBuilder()
			sb.WriteString("styled cell run")
			_ = sb.String()
			PutStringBuilder(sb)
		}
	})

	b.Run("WithoutPool", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			sb := &strings.Builder{}
			sb.WriteString("styled cell run")
			_ = sb.String()
		}
	})
}

// BenchmarkStringBuilderPool_Parallel benchmarks concurrent pool usage
func BenchmarkStringBuilderPool_Parallel(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			sb := GetStringBuilder()
			sb.WriteString("styled cell run for parallel benchmark")
			_ = sb.String()
			PutStringBuilder(sb)
		}
	})
}

// BenchmarkByteSlicePool benchmarks the PTY read buffer pool
func BenchmarkByteSlicePool(b *testing.B) {
	b.Run("WithPool", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := GetByteSlice()
			copy(*buf, []byte("pty output"))
			PutByteSlice(buf)
		}
	})

	b.Run("WithoutPool", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := make([]byte, byteSliceSize)
			copy(buf, []byte("pty output"))
		}
	})
}
