// Package democache is a small reference host.Host implementation built on
// Akita's cache directory, used by the demo command and as a realistic
// harness for exercising the prefetcher core end to end. It is not part of
// the specified prefetcher core (prefetch/host/transformer/selector/pythia)
// — it plays the role the teacher's timing/cache package plays for the
// instruction pipeline: a minimal model of the resource the core depends on.
package democache

// Config holds the cache geometry and timing parameters democache.Cache is
// built from, following the shape of timing/cache.Config.
type Config struct {
	// NumSets is the number of sets in the cache.
	NumSets int `json:"num_sets"`
	// NumWays is the set associativity.
	NumWays int `json:"num_ways"`
	// BlockSize is the cache line size in bytes; must be a power of two.
	BlockSize int `json:"block_size"`

	// MSHRCapacity bounds how many prefetches may be outstanding at once.
	// Demand misses always resolve synchronously in this model; only
	// prefetch fills consume MSHR slots, so this is what the prefetcher's
	// MSHROccupancyRatio/MSHRStopRatio checks actually exercise.
	MSHRCapacity int `json:"mshr_capacity"`
	// PrefetchFillLatency is how many cycles a queued prefetch takes to
	// land after PrefetchLine accepts it.
	PrefetchFillLatency uint64 `json:"prefetch_fill_latency"`
}

// DefaultConfig returns a modest L2-ish geometry suitable for the demo
// command: enough sets to exercise every set-dueling category (spec
// §4.B.1) without needing a huge synthetic trace.
func DefaultConfig() Config {
	return Config{
		NumSets:             64,
		NumWays:             8,
		BlockSize:           64,
		MSHRCapacity:        16,
		PrefetchFillLatency: 20,
	}
}
