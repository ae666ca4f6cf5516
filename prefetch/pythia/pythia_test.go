package pythia_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/m2prefetch/prefetch/host"
	"github.com/sarchlab/m2prefetch/prefetch/pythia"
)

func miss(h *fakeHost, py *pythia.Pythia, block int64) {
	py.CacheOperate(host.Access{
		Address: uint64(block) << h.logBlockSize,
		Hit:     false,
	})
}

var _ = Describe("Pythia", func() {
	var (
		h  *fakeHost
		py *pythia.Pythia
	)

	BeforeEach(func() {
		h = newFakeHost()
		py = pythia.New(nil)
		py.Initialize(h)
	})

	It("ignores hits entirely", func() {
		out := py.CacheOperate(host.Access{Address: 0x1000, Hit: true, MetadataIn: 0x7})
		Expect(out).To(Equal(uint32(0x7)))
		Expect(h.prefetches).To(BeEmpty())
		Expect(py.Stats().Misses).To(Equal(uint64(0)))
	})

	It("confirms a constant stride within one region after two matching deltas and predicts ahead", func() {
		// 100, 101, 102 all fall in the same 64-block region (region 1),
		// so they correlate against the same delta-table entry.
		miss(h, py, 100)
		miss(h, py, 101)
		Expect(h.prefetches).To(BeEmpty())

		miss(h, py, 102)
		Expect(h.prefetches).To(HaveLen(2))
		Expect(h.prefetches[0].blockAddr).To(Equal(uint64(103) << h.logBlockSize))
		Expect(h.prefetches[1].blockAddr).To(Equal(uint64(104) << h.logBlockSize))
	})

	It("does not predict from a single observation", func() {
		miss(h, py, 100)
		Expect(h.prefetches).To(BeEmpty())
		Expect(py.Stats().PredictionsIssued).To(Equal(uint64(0)))
	})

	It("stops issuing once MSHR occupancy exceeds the stop ratio", func() {
		h.mshrRatio = 0.9

		miss(h, py, 100)
		miss(h, py, 101)
		miss(h, py, 102)

		Expect(h.prefetches).To(BeEmpty())
	})
})
