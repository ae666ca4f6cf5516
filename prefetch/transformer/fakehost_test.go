package transformer_test

import "github.com/sarchlab/m2prefetch/prefetch/host"

// fakeHost is a minimal host.Host double for exercising the transformer
// prefetcher without a real cache attached.
type fakeHost struct {
	numSets      int
	numWays      int
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
		numSets:      64,
		numWays:      8,
		logBlockSize: 6,
		mshrRatio:    0,
		dramBW:       0,
		accept:       true,
	}
}

func (h *fakeHost) NumSets() int           { return h.numSets }
func (h *fakeHost) NumWays() int           { return h.numWays }
func (h *fakeHost) LogBlockSize() uint     { return h.logBlockSize }
func (h *fakeHost) MSHROccupancyRatio() float64 { return h.mshrRatio }
func (h *fakeHost) DRAMBandwidth() int     { return h.dramBW }

func (h *fakeHost) PrefetchLine(blockAddr uint64, fillThisLevel bool, metadata uint32) bool {
	if !h.accept {
		return false
	}
	h.prefetches = append(h.prefetches, prefetchCall{blockAddr, fillThisLevel, metadata})
	return true
}

var _ host.Host = (*fakeHost)(nil)
