// Package host defines the callback contract between a prefetcher and the
// cache it is attached to. It has no implementation of its own: the cache,
// its MSHR, and its address space belong to the host simulator and are
// reached only through this interface (see prefetch/democache for a small
// reference implementation used by tests and the demo command).
package host

// AccessType classifies a demand or prefetch access, mirroring the
// access-type taxonomy a host cache simulator reports alongside a miss.
type AccessType int

const (
	// AccessLoad is an ordinary demand load.
	AccessLoad AccessType = iota
	// AccessRFO is a read-for-ownership (store miss).
	AccessRFO
	// AccessWrite is a writeback or store-allocate access.
	AccessWrite
	// AccessPrefetch is an access issued by a prefetcher rather than the core.
	AccessPrefetch
	// AccessTranslation is a page-table walk access.
	AccessTranslation
)

// Host is the set of read-only queries and callbacks a prefetcher needs from
// the cache it sits behind. Implementations are owned by the simulator;
// a prefetcher never mutates host state directly except through PrefetchLine.
type Host interface {
	// NumSets returns the number of sets in the attached cache.
	NumSets() int
	// NumWays returns the set associativity of the attached cache.
	NumWays() int
	// LogBlockSize returns log2 of the cache block size in bytes.
	LogBlockSize() uint

	// MSHROccupancyRatio returns the fraction of MSHR entries in use, in [0,1].
	MSHROccupancyRatio() float64
	// DRAMBandwidth returns a host-reported DRAM bandwidth utilization sample
	// in the range 0..16 (see spec §4.B.2 for the normalization into [0,1]).
	DRAMBandwidth() int

	// PrefetchLine requests a prefetch of the block at blockAddr (already a
	// block-aligned address, not a block number). fillThisLevel instructs the
	// host to place the fetched line in this cache level rather than only a
	// lower one. It returns false if the prefetch could not be queued (e.g.
	// MSHR/prefetch queue full).
	PrefetchLine(blockAddr uint64, fillThisLevel bool, metadata uint32) bool
}

// Access describes one cache_operate call: a demand (or prefetch-probing)
// access the host is reporting to the prefetcher.
type Access struct {
	// Address is the full byte address of the access.
	Address uint64
	// IP is the instruction pointer of the access, carried through per the
	// interface contract but never consulted for inference (spec Non-goals).
	IP uint64
	// Hit is true if the access hit in the cache.
	Hit bool
	// UsefulPrefetch is true if this access hit a line that had been placed
	// by a prefetch and is now being used for the first time.
	UsefulPrefetch bool
	// Type classifies the access.
	Type AccessType
	// MetadataIn is the opaque+tagged metadata word carried from a prior
	// cache_fill/cache_operate round trip.
	MetadataIn uint32
}

// Fill describes one cache_fill call: the host reporting that a line has
// landed in the cache, whether by demand or by prefetch.
type Fill struct {
	// Address is the full byte address of the filled line.
	Address uint64
	// Set is the cache set index the line landed in.
	Set int
	// Way is the cache way index the line landed in.
	Way int
	// IsPrefetch is true if the line was brought in by a prefetch rather
	// than a demand access.
	IsPrefetch bool
	// EvictedAddr is the address of the line evicted to make room, if any.
	EvictedAddr uint64
	// MetadataIn is the metadata word associated with the fill.
	MetadataIn uint32
}

// Prefetcher is the hook contract every prefetcher in this module
// implements, whether it does real work (Transformer, the selector) or
// stands in for an external one (pythia).
type Prefetcher interface {
	// Initialize zeroes all internal tables and captures host geometry.
	// It must be called exactly once, before any other hook.
	Initialize(h Host)
	// CacheOperate reports a demand access and returns the metadata word to
	// propagate alongside it; it may issue 0..N calls to h.PrefetchLine.
	CacheOperate(a Access) uint32
	// CacheFill reports a completed fill and returns the metadata word to
	// propagate alongside it.
	CacheFill(f Fill) uint32
	// CycleOperate is called once per host cycle for background work
	// (opportunistic prefetch advancement, periodic policy updates).
	CycleOperate()
	// FinalStats is called once at the end of a run; implementations print
	// or otherwise surface their accumulated counters.
	FinalStats()
}

const (
	// sourceMask isolates the two reserved high bits of the metadata word.
	sourceMask uint32 = 0xC000_0000
	// PreserveMask isolates the 30 opaque low bits of the metadata word.
	PreserveMask uint32 = ^sourceMask
)

// TagBit stamps bit into the high two bits of m, clearing the other source
// bit and preserving the low 30 bits untouched. bit must be one of the two
// reserved source bits (e.g. TransformerBit, PythiaBit in package selector).
func TagBit(m uint32, bit uint32) uint32 {
	return (m & PreserveMask) | (bit & sourceMask)
}
