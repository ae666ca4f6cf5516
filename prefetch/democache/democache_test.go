package democache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/m2prefetch/prefetch/democache"
	"github.com/sarchlab/m2prefetch/prefetch/host"
)

var _ = Describe("Cache", func() {
	var smallCfg democache.Config

	BeforeEach(func() {
		smallCfg = democache.Config{
			NumSets:             4,
			NumWays:             2,
			BlockSize:           64,
			MSHRCapacity:        2,
			PrefetchFillLatency: 2,
		}
	})

	It("misses on the first access and hits on a repeat access", func() {
		fp := &fakePrefetcher{}
		c := democache.New(smallCfg, nil, fp)

		r1 := c.Access(0x1000, host.AccessLoad)
		Expect(r1.Hit).To(BeFalse())

		r2 := c.Access(0x1000, host.AccessLoad)
		Expect(r2.Hit).To(BeTrue())

		Expect(c.Stats().Hits).To(Equal(uint64(1)))
		Expect(c.Stats().Misses).To(Equal(uint64(1)))
	})

	It("evicts the LRU way once a one-set cache fills up", func() {
		cfg := smallCfg
		cfg.NumSets = 1

		fp := &fakePrefetcher{}
		c := democache.New(cfg, nil, fp)

		c.Access(0x0000, host.AccessLoad)  // way 0
		c.Access(0x0040, host.AccessLoad)  // way 1
		c.Access(0x0000, host.AccessLoad)  // touch way 0, leaving 0x0040 as LRU

		r := c.Access(0x0080, host.AccessLoad)
		Expect(r.Hit).To(BeFalse())
		Expect(r.Evicted).To(BeTrue())
		Expect(r.EvictedAddr).To(Equal(uint64(0x0040)))
		Expect(c.Stats().Evictions).To(Equal(uint64(1)))
	})

	It("reports a prefetched line as useful the first time it is demanded", func() {
		fp := &fakePrefetcher{}
		c := democache.New(smallCfg, nil, fp)

		fp.onMiss = func(h host.Host, a host.Access) {
			h.PrefetchLine(0x2000, true, 0)
		}

		c.Access(0x1000, host.AccessLoad) // miss, triggers the prefetch above

		c.CycleOperate() // cycle 1: not yet due
		c.CycleOperate() // cycle 2: prefetch fill lands

		r := c.Access(0x2000, host.AccessLoad)
		Expect(r.Hit).To(BeTrue())

		last := fp.operateCalls[len(fp.operateCalls)-1]
		Expect(last.UsefulPrefetch).To(BeTrue())
		Expect(c.Stats().UsefulPrefetches).To(Equal(uint64(1)))

		// a second demand to the same line is no longer "useful" (already consumed).
		c.Access(0x2000, host.AccessLoad)
		Expect(c.Stats().UsefulPrefetches).To(Equal(uint64(1)))
	})

	It("rejects a prefetch once every MSHR slot is occupied", func() {
		cfg := smallCfg
		cfg.MSHRCapacity = 1

		fp := &fakePrefetcher{}
		c := democache.New(cfg, nil, fp)

		ok1 := fp.h.PrefetchLine(0x3000, true, 0)
		Expect(ok1).To(BeTrue())

		ok2 := fp.h.PrefetchLine(0x4000, true, 0)
		Expect(ok2).To(BeFalse())

		Expect(c.Stats().PrefetchesQueued).To(Equal(uint64(1)))
		Expect(c.Stats().PrefetchesRejected).To(Equal(uint64(1)))
	})

	It("does not re-queue a prefetch for a block already resident", func() {
		fp := &fakePrefetcher{}
		c := democache.New(smallCfg, nil, fp)

		c.Access(0x5000, host.AccessLoad) // brings the block in via a demand miss

		ok := fp.h.PrefetchLine(0x5000, true, 0)
		Expect(ok).To(BeTrue())
		Expect(c.Stats().PrefetchesQueued).To(Equal(uint64(0)))
	})

	It("forwards one CycleOperate call to the attached prefetcher per cycle", func() {
		fp := &fakePrefetcher{}
		c := democache.New(smallCfg, nil, fp)

		for i := 0; i < 5; i++ {
			c.CycleOperate()
		}

		Expect(fp.cycleCalls).To(Equal(5))
	})

	It("calls FinalStats on the attached prefetcher and includes the run id in its report", func() {
		fp := &fakePrefetcher{}
		c := democache.New(smallCfg, nil, fp)

		Expect(c.Report()).To(ContainSubstring(c.RunID()))

		c.FinalStats()
		Expect(fp.finalCalls).To(Equal(1))
	})
})
