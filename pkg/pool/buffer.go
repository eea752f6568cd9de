package pool

import (
	"fmt"
	"math/bits"
	"sync"
)

// BucketedBufferPool hands out byte slices whose capacity is the next power of
// two at or above the requested size. Requests above the largest bucket are
// allocated fresh and never pooled.
type BucketedBufferPool struct {
	minBucketExp int
	maxBucketExp int
	maxPoolSize  int64
	pools        []sync.Pool
}

// NewBucketedBufferPool creates a pool for sizes between minSize and maxSize.
// Both bounds must be powers of two and minSize must be smaller than maxSize.
func NewBucketedBufferPool(minSize, maxSize int64) *BucketedBufferPool {
	// Bucket bounds are stored as exponents, so both sizes must be 2^n.
	if !isPowerOfTwo(minSize) {
		panic(fmt.Sprintf("minSize %d must be a power of two", minSize))
	}
	if !isPowerOfTwo(maxSize) {
		panic(fmt.Sprintf("maxSize %d must be a power of two", maxSize))
	}
	if maxSize <= minSize {
		panic("maxSize must be greater than minSize")
	}

	// For a power of two the trailing zero count is its exponent:
	// 4096 is 1 followed by 12 zeros in binary, so it maps to bucket 12.
	minExp := bits.TrailingZeros64(uint64(minSize))
	maxExp := bits.TrailingZeros64(uint64(maxSize))

	bp := &BucketedBufferPool{
		minBucketExp: minExp,
		maxBucketExp: maxExp,
		maxPoolSize:  maxSize,
		pools:        make([]sync.Pool, maxExp+1),
	}
	for i := minExp; i <= maxExp; i++ {
		size := int64(1) << i
		bp.pools[i].New = func() any {
			b := make([]byte, int(size))
			return &b
		}
	}
	return bp
}

// Get returns a slice of exactly size bytes backed by a pooled array.
func (bp *BucketedBufferPool) Get(size int64) *[]byte {
	// Empty slices share runtime.zerobase and cost nothing, so they are
	// never pooled.
	if size <= 0 {
		b := make([]byte, 0)
		return &b
	}

	// Oversized requests get a one-off allocation. Pooling them would pin
	// large arrays in memory between runs.
	if size > bp.maxPoolSize {
		b := make([]byte, int(size))
		return &b
	}

	// bits.Len64(size-1) is the exponent of the smallest power of two that
	// holds size: a 700 byte request gives Len64(699) = 10, the 1024 bucket.
	idx := max(bits.Len64(uint64(size-1)), bp.minBucketExp)

	// Sub-slice to the requested length so io.ReadFull and io.CopyBuffer
	// never touch more than the caller asked for.
	bufPtr := bp.pools[idx].Get().(*[]byte)
	*bufPtr = (*bufPtr)[:int(size)]
	return bufPtr
}

// Put returns a buffer obtained from Get. Buffers that do not match a bucket
// capacity are dropped.
func (bp *BucketedBufferPool) Put(bufPtr *[]byte) {
	if bufPtr == nil {
		return
	}
	capacity := int64(cap(*bufPtr))

	// Only buffers that could have come from one of our buckets go back:
	// the capacity must lie within the bucket range and be a power of two.
	if capacity < (int64(1)<<bp.minBucketExp) || capacity > bp.maxPoolSize || !isPowerOfTwo(capacity) {
		return
	}

	// Restore the full length so the next Get can re-slice from capacity.
	*bufPtr = (*bufPtr)[:capacity]
	bp.pools[bits.TrailingZeros64(uint64(capacity))].Put(bufPtr)
}

// FixedBufferPool hands out copy buffers of a single size.
type FixedBufferPool struct {
	size int64
	pool sync.Pool
}

// NewFixedBufferPool creates a pool of size byte buffers.
func NewFixedBufferPool(size int64) *FixedBufferPool {
	return &FixedBufferPool{
		size: size,
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, int(size))
				return &b
			},
		},
	}
}

// Get returns a full length buffer.
func (fp *FixedBufferPool) Get() *[]byte {
	return fp.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool if it has the pool's capacity.
func (fp *FixedBufferPool) Put(b *[]byte) {
	// A resliced or foreign buffer of another capacity is dropped.
	if b == nil || int64(cap(*b)) != fp.size {
		return
	}
	*b = (*b)[:fp.size]
	fp.pool.Put(b)
}
