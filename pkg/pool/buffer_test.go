package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBucketedBufferPool_InvalidBounds(t *testing.T) {
	testCases := []struct {
		name     string
		min, max int64
	}{
		{"Min not power of two", 1000, 4096},
		{"Max not power of two", 1024, 4097},
		{"Max not above min", 4096, 1024},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Panics(t, func() { NewBucketedBufferPool(tc.min, tc.max) })
		})
	}
}

func TestBucketedBufferPool_Get(t *testing.T) {
	bp := NewBucketedBufferPool(4096, 1<<20)

	testCases := []struct {
		name    string
		reqSize int64
		wantLen int
		wantCap int
	}{
		{"Zero", 0, 0, 0},
		{"Negative", -1, 0, 0},
		{"Small json promoted to min bucket", 300, 300, 4096},
		{"Exact bucket", 8192, 8192, 8192},
		{"Between buckets", 70000, 70000, 131072},
		{"Exact max", 1 << 20, 1 << 20, 1 << 20},
		{"Large png is not pooled", 3 << 20, 3 << 20, 3 << 20},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bufPtr := bp.Get(tc.reqSize)
			require.NotNil(t, bufPtr)
			assert.Len(t, *bufPtr, tc.wantLen)
			assert.GreaterOrEqual(t, cap(*bufPtr), tc.wantCap)
			bp.Put(bufPtr)
		})
	}
}

func TestBucketedBufferPool_PutRejectsForeignBuffers(t *testing.T) {
	bp := NewBucketedBufferPool(1024, 4096)

	// Foreign capacities are silently dropped.
	assert.NotPanics(t, func() {
		for _, size := range []int{512, 2000, 8192} {
			b := make([]byte, size)
			bp.Put(&b)
		}
		bp.Put(nil)
	})

	// A pooled buffer comes back with the requested length.
	got := bp.Get(1500)
	assert.Len(t, *got, 1500)
	assert.Equal(t, 2048, cap(*got))
}

func TestFixedBufferPool(t *testing.T) {
	size := int64(256 * 1024)
	fp := NewFixedBufferPool(size)

	ptr := fp.Get()
	assert.Len(t, *ptr, int(size))
	assert.Equal(t, int(size), cap(*ptr))

	// A shortened buffer is restored to full length on the way back.
	*ptr = (*ptr)[:10]
	fp.Put(ptr)
	again := fp.Get()
	assert.Len(t, *again, int(size))

	assert.NotPanics(t, func() {
		small := make([]byte, 10)
		fp.Put(&small)
		fp.Put(nil)
	})
}
