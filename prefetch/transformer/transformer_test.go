package transformer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/m2prefetch/prefetch/host"
	"github.com/sarchlab/m2prefetch/prefetch/transformer"
)

func miss(h *fakeHost, tf *transformer.Transformer, block int64) {
	tf.CacheOperate(host.Access{
		Address: uint64(block) << h.logBlockSize,
		Hit:     false,
	})
}

var _ = Describe("Transformer", func() {
	var (
		h  *fakeHost
		tf *transformer.Transformer
	)

	BeforeEach(func() {
		h = newFakeHost()
		tf = transformer.New(nil)
		tf.Initialize(h)
	})

	It("ignores hits entirely", func() {
		out := tf.CacheOperate(host.Access{Address: 0x1000, Hit: true, MetadataIn: 0x2a})
		Expect(out).To(Equal(uint32(0x2a)))
		Expect(h.prefetches).To(BeEmpty())
		Expect(tf.Stats().Misses).To(Equal(uint64(0)))
	})

	It("confirms a stride-1 stream after three consistent misses in one region and prefetches ahead", func() {
		miss(h, tf, 100)
		miss(h, tf, 101)
		miss(h, tf, 102)

		Expect(tf.Stats().StreamsCreated).To(Equal(uint64(1)))
		Expect(h.prefetches).To(HaveLen(1))
		Expect(h.prefetches[0].blockAddr).To(Equal(uint64(103) << h.logBlockSize))
	})

	It("does not confirm a stream from only two misses", func() {
		miss(h, tf, 100)
		miss(h, tf, 101)

		Expect(tf.Stats().StreamsCreated).To(Equal(uint64(0)))
		Expect(h.prefetches).To(BeEmpty())
	})

	It("reinforces and extends an already-tracked stream on a later covered miss", func() {
		miss(h, tf, 100)
		miss(h, tf, 101)
		miss(h, tf, 102)
		Expect(h.prefetches).To(HaveLen(1))

		// 103 already falls inside [102, 103], the stream's covered range.
		miss(h, tf, 103)

		Expect(tf.Stats().StreamsCreated).To(Equal(uint64(1)))
		Expect(h.prefetches).To(HaveLen(2))
		Expect(h.prefetches[1].blockAddr).To(Equal(uint64(104) << h.logBlockSize))
	})

	It("absorbs a noisy miss (one small gap, one large, opposite signs) without resetting", func() {
		miss(h, tf, 100)
		miss(h, tf, 103)
		// gap1=103-100=3 (not small), gap2=102-103=-1 (small), opposite
		// signs: classified as noise, so miss_count stays at 2.
		miss(h, tf, 102)
		Expect(tf.Stats().StreamsCreated).To(Equal(uint64(0)))

		// A clean two-gap stride now confirms from the surviving history.
		miss(h, tf, 101)
		Expect(tf.Stats().StreamsCreated).To(Equal(uint64(1)))
	})

	It("stops issuing prefetches once MSHR occupancy exceeds the stop ratio", func() {
		h.mshrRatio = 0.9

		miss(h, tf, 100)
		miss(h, tf, 101)
		miss(h, tf, 102)

		Expect(tf.Stats().StreamsCreated).To(Equal(uint64(1)))
		Expect(h.prefetches).To(BeEmpty())
	})

	It("drops and counts a prefetch the host refuses to queue", func() {
		h.accept = false

		miss(h, tf, 100)
		miss(h, tf, 101)
		miss(h, tf, 102)

		Expect(tf.Stats().PrefetchesDropped).To(Equal(uint64(1)))
		Expect(tf.Stats().PrefetchesIssued).To(Equal(uint64(0)))
	})

	Describe("dead stream sweep", func() {
		var cfg *transformer.Config

		BeforeEach(func() {
			cfg = transformer.DefaultConfig()
			cfg.CleanupInterval = 4
			cfg.DeadStreamThreshold = 2
			cfg.ShortStreamThreshold = 100 // never grows enough to survive

			h = newFakeHost()
			tf = transformer.New(cfg)
			tf.Initialize(h)
		})

		It("terminates a short, idle stream once the cleanup interval elapses", func() {
			miss(h, tf, 100)
			miss(h, tf, 101)
			miss(h, tf, 102)
			Expect(tf.Stats().StreamsCreated).To(Equal(uint64(1)))

			// Unrelated misses elsewhere advance the timestamp and eventually
			// trigger a cleanup sweep past the dead-stream threshold.
			for i := 0; i < 8; i++ {
				miss(h, tf, 5000+int64(i)*16)
			}

			Expect(tf.Stats().StreamsTerminated).To(BeNumerically(">=", 1))
		})
	})

	Describe("phase-aware throttling", func() {
		var cfg *transformer.Config

		BeforeEach(func() {
			cfg = transformer.DefaultConfig()
			cfg.PhaseWindowSize = 4
			cfg.PhaseTransitionThreshold = 2
			cfg.CleanupInterval = 14
			cfg.DeadStreamThreshold = 4
			cfg.ShortStreamThreshold = 100

			h = newFakeHost()
			tf = transformer.New(cfg)
			tf.Initialize(h)
		})

		It("drops to the minimum prefetch degree once two streams die in the same cleanup sweep", func() {
			// Two short streams, three misses apart, both age past the
			// dead-stream threshold by the time the 14th miss finally
			// triggers a cleanup sweep -- terminating both together.
			miss(h, tf, 100)
			miss(h, tf, 101)
			miss(h, tf, 102)

			miss(h, tf, 9000)
			miss(h, tf, 9001)
			miss(h, tf, 9002)

			for i := 0; i < 8; i++ {
				miss(h, tf, 50000+int64(i)*64)
			}

			Expect(tf.Stats().StreamsTerminated).To(Equal(uint64(2)))
			Expect(tf.Stats().PhaseTransitions).To(BeNumerically(">=", 1))
		})
	})
})
