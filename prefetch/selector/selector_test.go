package selector_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/m2prefetch/prefetch/host"
	"github.com/sarchlab/m2prefetch/prefetch/selector"
)

// With numSets=8, sampleRate=4 (the 8..63 bracket), m=3, s=lg2(4)=2, and
// category(set) = (4 + (set&3) - ((set>>2)&3)) & 3:
//
//	set 0 -> 0 (sampler)       set 4 -> 3 (policy-controlled)
//	set 1 -> 1 (transformer)   set 5 -> 0 (sampler)
//	set 2 -> 2 (pythia)        set 6 -> 1 (transformer)
//	set 3 -> 3 (policy)        set 7 -> 2 (pythia)
const (
	samplerSet             = 0
	transformerDedicatedSet = 1
	pythiaDedicatedSet      = 2
	policyControlledSet     = 3
)

func missAt(h *fakeHost, sel *selector.Selector, set int) uint32 {
	return sel.CacheOperate(host.Access{
		Address: uint64(set) << h.logBlockSize,
		Hit:     false,
	})
}

var _ = Describe("Selector", func() {
	var (
		h   *fakeHost
		sel *selector.Selector
	)

	BeforeEach(func() {
		h = newFakeHost(8)
		sel = selector.New(selector.DefaultConfig())
		sel.Initialize(h)
	})

	It("routes a transformer-dedicated set's miss to the transformer source", func() {
		out := missAt(h, sel, transformerDedicatedSet)
		Expect(out & selector.TransformerBit).NotTo(BeZero())
		Expect(out & selector.PythiaBit).To(BeZero())
	})

	It("routes a pythia-dedicated set's miss to the pythia source", func() {
		out := missAt(h, sel, pythiaDedicatedSet)
		Expect(out & selector.PythiaBit).NotTo(BeZero())
		Expect(out & selector.TransformerBit).To(BeZero())
	})

	It("routes a sampler set's miss to the transformer source", func() {
		out := missAt(h, sel, samplerSet)
		Expect(out & selector.TransformerBit).NotTo(BeZero())
	})

	It("routes a policy-controlled set to the transformer source while the policy selector is non-negative", func() {
		Expect(sel.PolicySelector()).To(BeNumerically(">=", 0))
		out := missAt(h, sel, policyControlledSet)
		Expect(out & selector.TransformerBit).NotTo(BeZero())
	})

	It("preserves the opaque low 30 bits of metadata while stamping the source tag", func() {
		out := sel.CacheOperate(host.Access{
			Address:    uint64(transformerDedicatedSet) << h.logBlockSize,
			Hit:        false,
			MetadataIn: 0x2a,
		})
		Expect(out & host.PreserveMask).To(Equal(uint32(0x2a)))
	})

	It("throttles all issue once DRAM bandwidth utilization reaches the threshold", func() {
		h.dramBW = 16 // 16/16.0 = 1.0 >= 0.9 threshold

		out := sel.CacheOperate(host.Access{
			Address:    uint64(transformerDedicatedSet) << h.logBlockSize,
			Hit:        false,
			MetadataIn: 0x55,
		})

		Expect(out).To(Equal(uint32(0x55)))
		Expect(sel.Stats().Throttled).To(Equal(uint64(1)))
		Expect(sel.Stats().HighBandwidthDrops).To(Equal(uint64(1)))
		Expect(sel.Stats().Allowed).To(Equal(uint64(0)))
	})

	It("saturates the policy selector toward POLICY_MAX when transformer clearly outperforms pythia", func() {
		cfg := selector.DefaultConfig()
		cfg.PolicyUpdateInterval = 1

		h = newFakeHost(8)
		sel = selector.New(cfg)
		sel.Initialize(h)

		// Dedicated-set issued/useful counts: transformer (800/1000), pythia
		// (100/1000) -- the S6 scenario from the specification.
		for i := 0; i < 1000; i++ {
			sel.CacheFill(host.Fill{Set: transformerDedicatedSet, IsPrefetch: true})
			sel.CacheFill(host.Fill{Set: pythiaDedicatedSet, IsPrefetch: true})
		}
		for i := 0; i < 800; i++ {
			sel.CacheOperate(host.Access{
				Address:        uint64(transformerDedicatedSet) << h.logBlockSize,
				Hit:            true,
				UsefulPrefetch: true,
			})
		}
		for i := 0; i < 100; i++ {
			sel.CacheOperate(host.Access{
				Address:        uint64(pythiaDedicatedSet) << h.logBlockSize,
				Hit:            true,
				UsefulPrefetch: true,
			})
		}

		// transformer score = 0.8*(1+ln(801)) ~= 6.15
		// pythia score      = 0.1*(1+ln(101)) ~= 0.56
		// 6.15 > 0.56*1.05, so every update is a transformer win; enough
		// updates saturate policy_selector at POLICY_MAX.
		for i := 0; i < 1100; i++ {
			sel.CycleOperate()
		}

		Expect(sel.PolicySelector()).To(Equal(int32(1024)))
		Expect(sel.Stats().PythiaWins).To(Equal(uint64(0)))
		Expect(sel.Stats().TransformerWins).To(BeNumerically(">", 0))

		out := missAt(h, sel, policyControlledSet)
		Expect(out & selector.TransformerBit).NotTo(BeZero())
	})

	It("skips a policy update while either source has issued fewer than the minimum sample count", func() {
		cfg := selector.DefaultConfig()
		cfg.PolicyUpdateInterval = 1

		h = newFakeHost(8)
		sel = selector.New(cfg)
		sel.Initialize(h)

		for i := 0; i < 50; i++ {
			sel.CacheFill(host.Fill{Set: transformerDedicatedSet, IsPrefetch: true})
			sel.CacheFill(host.Fill{Set: pythiaDedicatedSet, IsPrefetch: true})
		}

		sel.CycleOperate()

		Expect(sel.PolicySelector()).To(Equal(int32(0)))
		Expect(sel.Stats().PolicyUpdates).To(Equal(uint64(0)))
	})
})
