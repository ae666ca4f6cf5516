package democache

import (
	"fmt"
	"math/bits"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
	"github.com/rs/xid"

	"github.com/sarchlab/m2prefetch/prefetch/host"
)

// Statistics holds cache + prefetch accounting, following the shape of
// timing/cache.Statistics.
type Statistics struct {
	Accesses  uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64

	UsefulPrefetches  uint64
	PrefetchesQueued  uint64
	PrefetchesRejected uint64
	PrefetchesFilled  uint64
}

type blockMeta struct {
	wasPrefetch bool
	used        bool
	metadata    uint32
}

type mshrEntry struct {
	valid         bool
	blockAddr     uint64
	completeAt    uint64
	fillThisLevel bool
	metadata      uint32
}

// Cache is a small, cycle-driven host.Host implementation on top of Akita's
// cache directory. Demand misses resolve synchronously; prefetch fills are
// queued in a fixed-size MSHR array and land after PrefetchFillLatency
// cycles, which is what gives the prefetcher's MSHR-occupancy throttle
// (spec §4.A.6, §7) something real to react to.
type Cache struct {
	cfg          Config
	logBlockSize uint

	directory *akitacache.DirectoryImpl
	dataStore [][]byte
	blockMeta []blockMeta

	backing BackingStore
	mshr    []mshrEntry
	cycle   uint64

	prefetcher host.Prefetcher

	runID string
	stats Statistics
}

// New builds a Cache of the given geometry, attaches backing as the next
// memory-hierarchy level (ZeroBackingStore{} if nil), and wires prefetcher
// as the attached host.Prefetcher, calling its Initialize hook.
func New(cfg Config, backing BackingStore, prefetcher host.Prefetcher) *Cache {
	if backing == nil {
		backing = ZeroBackingStore{}
	}

	totalBlocks := cfg.NumSets * cfg.NumWays
	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, cfg.BlockSize)
	}

	c := &Cache{
		cfg:          cfg,
		logBlockSize: uint(bits.TrailingZeros(uint(cfg.BlockSize))),
		directory: akitacache.NewDirectory(
			cfg.NumSets,
			cfg.NumWays,
			cfg.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore:  dataStore,
		blockMeta:  make([]blockMeta, totalBlocks),
		backing:    backing,
		mshr:       make([]mshrEntry, cfg.MSHRCapacity),
		prefetcher: prefetcher,
		runID:      xid.New().String(),
	}

	prefetcher.Initialize(c)
	return c
}

// RunID is a short opaque identifier for this cache instance, stamped at
// construction, included in Report() so repeated demo runs are
// distinguishable in logs.
func (c *Cache) RunID() string {
	return c.runID
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.cfg.NumWays + block.WayID
}

func (c *Cache) blockAddrOf(addr uint64) uint64 {
	return (addr >> c.logBlockSize) << c.logBlockSize
}

// NumSets implements host.Host.
func (c *Cache) NumSets() int { return c.cfg.NumSets }

// NumWays implements host.Host.
func (c *Cache) NumWays() int { return c.cfg.NumWays }

// LogBlockSize implements host.Host.
func (c *Cache) LogBlockSize() uint { return c.logBlockSize }

// MSHROccupancyRatio implements host.Host: the fraction of prefetch MSHR
// slots currently in flight.
func (c *Cache) MSHROccupancyRatio() float64 {
	if len(c.mshr) == 0 {
		return 0
	}
	occupied := 0
	for i := range c.mshr {
		if c.mshr[i].valid {
			occupied++
		}
	}
	return float64(occupied) / float64(len(c.mshr))
}

// DRAMBandwidth implements host.Host: MSHR pressure is this demo's only
// signal of memory-system load, so bandwidth utilization tracks it
// directly, scaled into the 0..16 range the selector expects.
func (c *Cache) DRAMBandwidth() int {
	bw := int(c.MSHROccupancyRatio() * 16.0)
	if bw > 16 {
		bw = 16
	}
	return bw
}

// PrefetchLine implements host.Host: queues a prefetch fill into a free
// MSHR slot, or rejects it if every slot is occupied (spec §7: "all tables
// full" -> caller stops issuing, tries next time).
func (c *Cache) PrefetchLine(blockAddr uint64, fillThisLevel bool, metadata uint32) bool {
	if existing := c.directory.Lookup(0, blockAddr); existing != nil && existing.IsValid {
		return true
	}

	for i := range c.mshr {
		if !c.mshr[i].valid {
			c.mshr[i] = mshrEntry{
				valid:         true,
				blockAddr:     blockAddr,
				completeAt:    c.cycle + c.cfg.PrefetchFillLatency,
				fillThisLevel: fillThisLevel,
				metadata:      metadata,
			}
			c.stats.PrefetchesQueued++
			return true
		}
	}

	c.stats.PrefetchesRejected++
	return false
}

// installBlock evicts a victim (if any) for blockAddr, fetches it from the
// backing store, and installs it, mirroring timing/cache.Cache.handleMiss.
func (c *Cache) installBlock(blockAddr uint64) (idx int, evicted bool, evictedAddr uint64, set, way int) {
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return -1, false, 0, 0, 0
	}

	if victim.IsValid {
		evicted = true
		evictedAddr = victim.Tag
		c.stats.Evictions++
	}

	data := c.backing.Read(blockAddr, c.cfg.BlockSize)
	copy(c.dataStore[c.blockIndex(victim)], data)

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	idx = c.blockIndex(victim)
	set, way = victim.SetID, victim.WayID
	return idx, evicted, evictedAddr, set, way
}

// Access reports one demand access to the attached prefetcher and, on a
// miss, resolves it synchronously against the backing store.
func (c *Cache) Access(addr uint64, accessType host.AccessType) AccessResult {
	c.stats.Accesses++

	blockAddr := c.blockAddrOf(addr)
	block := c.directory.Lookup(0, blockAddr)

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		meta := &c.blockMeta[c.blockIndex(block)]
		useful := meta.wasPrefetch && !meta.used
		if useful {
			meta.used = true
			c.stats.UsefulPrefetches++
		}

		out := c.prefetcher.CacheOperate(host.Access{
			Address:        addr,
			Hit:            true,
			UsefulPrefetch: useful,
			Type:           accessType,
			MetadataIn:     meta.metadata,
		})
		meta.metadata = out

		return AccessResult{Hit: true}
	}

	c.stats.Misses++

	metaOut := c.prefetcher.CacheOperate(host.Access{
		Address: addr,
		Hit:     false,
		Type:    accessType,
	})

	idx, evicted, evictedAddr, set, way := c.installBlock(blockAddr)
	c.blockMeta[idx] = blockMeta{metadata: metaOut}

	fillOut := c.prefetcher.CacheFill(host.Fill{
		Address:     blockAddr,
		Set:         set,
		Way:         way,
		IsPrefetch:  false,
		EvictedAddr: evictedAddr,
		MetadataIn:  metaOut,
	})
	c.blockMeta[idx].metadata = fillOut

	return AccessResult{Hit: false, Evicted: evicted, EvictedAddr: evictedAddr}
}

// resolvePrefetch installs a completed prefetch fill, unless the block was
// already brought in (by a demand miss) while it was in flight.
func (c *Cache) resolvePrefetch(i int) {
	e := &c.mshr[i]
	defer func() { e.valid = false }()

	if existing := c.directory.Lookup(0, e.blockAddr); existing != nil && existing.IsValid {
		return
	}

	idx, _, evictedAddr, set, way := c.installBlock(e.blockAddr)
	if idx < 0 {
		return
	}
	c.blockMeta[idx] = blockMeta{wasPrefetch: true, metadata: e.metadata}

	out := c.prefetcher.CacheFill(host.Fill{
		Address:     e.blockAddr,
		Set:         set,
		Way:         way,
		IsPrefetch:  true,
		EvictedAddr: evictedAddr,
		MetadataIn:  e.metadata,
	})
	c.blockMeta[idx].metadata = out
	c.stats.PrefetchesFilled++
}

// CycleOperate advances the cycle counter, resolves any prefetch fills
// whose latency has elapsed, and forwards cycle_operate to the attached
// prefetcher (spec §4.B.5, §5).
func (c *Cache) CycleOperate() {
	c.cycle++

	for i := range c.mshr {
		if c.mshr[i].valid && c.mshr[i].completeAt <= c.cycle {
			c.resolvePrefetch(i)
		}
	}

	c.prefetcher.CycleOperate()
}

// Stats returns a snapshot of accumulated cache counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// FinalStats prints the cache's own summary, then forwards to the attached
// prefetcher's FinalStats.
func (c *Cache) FinalStats() {
	fmt.Println(c.Report())
	c.prefetcher.FinalStats()
}

// Report renders Stats as a one-line summary including the run id.
func (c *Cache) Report() string {
	s := c.stats
	hitRate := 0.0
	if s.Accesses > 0 {
		hitRate = 100.0 * float64(s.Hits) / float64(s.Accesses)
	}
	return fmt.Sprintf(
		"democache[%s]: accesses=%d hits=%d misses=%d (%.1f%% hit) evictions=%d "+
			"prefetches_queued=%d prefetches_rejected=%d prefetches_filled=%d useful_prefetches=%d",
		c.runID, s.Accesses, s.Hits, s.Misses, hitRate, s.Evictions,
		s.PrefetchesQueued, s.PrefetchesRejected, s.PrefetchesFilled, s.UsefulPrefetches)
}

var _ host.Host = (*Cache)(nil)

// AccessResult describes the outcome of one Access call.
type AccessResult struct {
	Hit         bool
	Evicted     bool
	EvictedAddr uint64
}
