package pythia_test

import "github.com/sarchlab/m2prefetch/prefetch/host"

type fakeHost struct {
	logBlockSize uint
	mshrRatio    float64
	dramBW       int

	accept     bool
	prefetches []prefetchCall
}

type prefetchCall struct {
	blockAddr     uint64
	fillThisLevel bool
	metadata      uint32
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		logBlockSize: 6,
		accept:       true,
	}
}

func (h *fakeHost) NumSets() int       { return 64 }
func (h *fakeHost) NumWays() int       { return 8 }
func (h *fakeHost) LogBlockSize() uint { return h.logBlockSize }

func (h *fakeHost) MSHROccupancyRatio() float64 { return h.mshrRatio }
func (h *fakeHost) DRAMBandwidth() int          { return h.dramBW }

func (h *fakeHost) PrefetchLine(blockAddr uint64, fillThisLevel bool, metadata uint32) bool {
	if !h.accept {
		return false
	}
	h.prefetches = append(h.prefetches, prefetchCall{blockAddr, fillThisLevel, metadata})
	return true
}

var _ host.Host = (*fakeHost)(nil)
