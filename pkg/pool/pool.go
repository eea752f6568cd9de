// Package pool provides sync.Pool backed byte buffers.
//
// FixedBufferPool hands out copy buffers of one size for io.CopyBuffer.
// BucketedBufferPool hands out whole-file read buffers rounded up to the next
// power of two, so assets of similar size reuse the same backing arrays.
// Items in a sync.Pool are dropped during garbage collection, which makes it
// suitable for short-lived buffers only.
package pool

func isPowerOfTwo(n int64) bool {
	return n > 0 && (n&(n-1)) == 0
}
