package democache_test

import "github.com/sarchlab/m2prefetch/prefetch/host"

// fakePrefetcher is a minimal host.Prefetcher test double that records every
// call it receives and, when onMiss is set, lets a test script exactly what
// to do on a demand miss (e.g. issue a PrefetchLine call).
type fakePrefetcher struct {
	h host.Host

	operateCalls []host.Access
	fillCalls    []host.Fill
	cycleCalls   int
	finalCalls   int

	onMiss func(h host.Host, a host.Access)
}

func (f *fakePrefetcher) Initialize(h host.Host) {
	f.h = h
}

func (f *fakePrefetcher) CacheOperate(a host.Access) uint32 {
	f.operateCalls = append(f.operateCalls, a)
	if !a.Hit && f.onMiss != nil {
		f.onMiss(f.h, a)
	}
	return a.MetadataIn
}

func (f *fakePrefetcher) CacheFill(fl host.Fill) uint32 {
	f.fillCalls = append(f.fillCalls, fl)
	return fl.MetadataIn
}

func (f *fakePrefetcher) CycleOperate() {
	f.cycleCalls++
}

func (f *fakePrefetcher) FinalStats() {
	f.finalCalls++
}

var _ host.Prefetcher = (*fakePrefetcher)(nil)
