package democache

// BackingStore is the next level of the memory hierarchy, following the
// same shape as timing/cache.BackingStore.
type BackingStore interface {
	Read(addr uint64, size int) []byte
	Write(addr uint64, data []byte)
}

// ZeroBackingStore is a trivial BackingStore that always returns zeroed
// data and discards writes. The demo command and tests only care about
// hit/miss/prefetch bookkeeping, never about data values, so this is all
// Cache needs when no real memory model is attached.
type ZeroBackingStore struct{}

// Read returns size zero bytes.
func (ZeroBackingStore) Read(addr uint64, size int) []byte {
	return make([]byte, size)
}

// Write discards data.
func (ZeroBackingStore) Write(addr uint64, data []byte) {}
