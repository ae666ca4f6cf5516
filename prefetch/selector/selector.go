// Package selector implements the bandwidth-aware dynamic selector: it
// multiplexes the transformer-aware stream prefetcher with a second,
// externally-supplied source ("pythia") across cache sets using set dueling
// and a global DRAM-bandwidth/accuracy throttle, and propagates
// source-tagged metadata so per-source accuracy can be measured without
// touching the host (spec §4.B).
//
// Neither sub-prefetcher is exposed: callers only ever see a Selector, the
// same as a host simulator would only ever see one prefetcher instance per
// cache level.
package selector

import (
	"fmt"

	"github.com/sarchlab/m2prefetch/prefetch/host"
	"github.com/sarchlab/m2prefetch/prefetch/pythia"
	"github.com/sarchlab/m2prefetch/prefetch/transformer"
)

// Selector is the bandwidth-aware set-dueling selector. It implements
// host.Prefetcher.
type Selector struct {
	cfg  *Config
	host host.Host

	transformer *transformer.Transformer
	pythia      *pythia.Pythia

	blockBits uint
	numSets   int
	rate      int

	samplers  []samplerEntry
	dedicated sourceStats

	policySelector int32
	cycleCounter   uint64

	stats Stats
}

// New creates a Selector with cfg, or DefaultConfig() if cfg is nil.
func New(cfg *Config) *Selector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Selector{cfg: cfg}
}

// Initialize zeroes all counters, constructs both underlying prefetchers,
// and sizes the sampler vector from the host's set count (spec §4.B.1, §6).
func (s *Selector) Initialize(h host.Host) {
	s.host = h
	s.blockBits = h.LogBlockSize()
	s.numSets = h.NumSets()
	s.rate = sampleRate(s.numSets)

	numSampled := s.numSets / s.rate
	if numSampled < 1 {
		numSampled = 1
	}
	s.samplers = make([]samplerEntry, numSampled)
	s.dedicated = sourceStats{}

	s.policySelector = 0
	s.cycleCounter = 0
	s.stats = Stats{}

	s.transformer = transformer.New(s.cfg.Transformer)
	s.transformer.Initialize(h)

	s.pythia = pythia.New(s.cfg.Pythia)
	s.pythia.Initialize(h)
}

func (s *Selector) setOf(addr uint64) int {
	block := addr >> s.blockBits
	return int(block) & (s.numSets - 1)
}

func (s *Selector) samplerIndex(set int) int {
	idx := set / s.rate
	if idx < 0 || idx >= len(s.samplers) {
		return -1
	}
	return idx
}

func (s *Selector) creditUseful(cat category, set int, metadataIn uint32) {
	switch cat {
	case categorySampler:
		idx := s.samplerIndex(set)
		if idx < 0 {
			return
		}
		switch {
		case isTransformerTagged(metadataIn):
			s.samplers[idx].stats.transformerUseful++
		case isPythiaTagged(metadataIn):
			s.samplers[idx].stats.pythiaUseful++
		}
	case categoryTransformerDedicated:
		s.dedicated.transformerUseful++
	case categoryPythiaDedicated:
		s.dedicated.pythiaUseful++
	default:
		if s.policySelector >= 0 {
			s.dedicated.transformerUseful++
		} else {
			s.dedicated.pythiaUseful++
		}
	}
}

func (s *Selector) creditIssued(cat category, set int, metadataIn uint32) {
	switch cat {
	case categorySampler:
		idx := s.samplerIndex(set)
		if idx < 0 {
			return
		}
		switch {
		case isTransformerTagged(metadataIn):
			s.samplers[idx].stats.transformerIssued++
		case isPythiaTagged(metadataIn):
			s.samplers[idx].stats.pythiaIssued++
		}
	case categoryTransformerDedicated:
		s.dedicated.transformerIssued++
	case categoryPythiaDedicated:
		s.dedicated.pythiaIssued++
	default:
		if s.policySelector >= 0 {
			s.dedicated.transformerIssued++
		} else {
			s.dedicated.pythiaIssued++
		}
	}
}

// useTransformerForSet decides which source owns a non-sampler set (spec
// §4.B.1). Sampler sets are handled by the caller before this is consulted.
func (s *Selector) useTransformerForSet(cat category) bool {
	switch cat {
	case categoryTransformerDedicated:
		return true
	case categoryPythiaDedicated:
		return false
	default:
		return s.policySelector >= 0
	}
}

// CacheOperate credits useful-prefetch hits, applies the bandwidth/accuracy
// throttle, and dispatches the access to whichever source owns this set,
// stamping the metadata word with that source's tag (spec §4.B.2).
func (s *Selector) CacheOperate(a host.Access) uint32 {
	s.stats.AccessesSeen++

	set := s.setOf(a.Address)
	cat := classifyCategory(setCategory(set, s.rate))

	if a.UsefulPrefetch && a.Hit {
		s.creditUseful(cat, set, a.MetadataIn)
	}

	if !s.shouldAllowPrefetch() {
		s.stats.Throttled++
		return a.MetadataIn
	}
	s.stats.Allowed++

	if cat == categorySampler || s.useTransformerForSet(cat) {
		out := s.transformer.CacheOperate(a)
		return tagTransformer(out)
	}

	out := s.pythia.CacheOperate(a)
	return tagPythia(out)
}

// CacheFill credits the issued-prefetch counters and forwards the fill to
// both underlying prefetchers unconditionally, so neither loses internal
// state consistency (spec §4.B.3).
func (s *Selector) CacheFill(f host.Fill) uint32 {
	if f.IsPrefetch {
		cat := classifyCategory(setCategory(f.Set, s.rate))
		s.creditIssued(cat, f.Set, f.MetadataIn)
	}

	s.transformer.CacheFill(f)
	s.pythia.CacheFill(f)

	return f.MetadataIn
}

// CycleOperate advances the policy-update cycle counter and forwards
// cycle_operate to both underlying prefetchers (spec §4.B.5).
func (s *Selector) CycleOperate() {
	s.cycleCounter++
	if s.cycleCounter%s.cfg.PolicyUpdateInterval == 0 {
		s.updatePolicySelector()
	}

	s.transformer.CycleOperate()
	s.pythia.CycleOperate()
}

// FinalStats prints the selector's own summary, then forwards to both
// underlying prefetchers so their own reports aren't lost.
func (s *Selector) FinalStats() {
	fmt.Println(s.Report())
	s.transformer.FinalStats()
	s.pythia.FinalStats()
}

// Stats returns a snapshot of accumulated selector counters.
func (s *Selector) Stats() Stats {
	return s.stats
}

// PolicySelector returns the current saturating policy counter, mostly for
// tests and diagnostics.
func (s *Selector) PolicySelector() int32 {
	return s.policySelector
}

// Report renders the selector's own counters plus both sub-prefetchers'
// reports as a multi-line summary.
func (s *Selector) Report() string {
	st := s.stats
	total := st.Allowed + st.Throttled
	pct := 0.0
	if total > 0 {
		pct = 100.0 * float64(st.Throttled) / float64(total)
	}

	return fmt.Sprintf(
		"selector: allowed=%d throttled=%d (%.1f%%) high_bw=%d low_acc=%d "+
			"policy=%d t_wins=%d p_wins=%d policy_updates=%d\n%s\n%s",
		st.Allowed, st.Throttled, pct, st.HighBandwidthDrops, st.LowAccuracyDrops,
		s.policySelector, st.TransformerWins, st.PythiaWins, st.PolicyUpdates,
		s.transformer.Report(), s.pythia.Report())
}

var _ host.Prefetcher = (*Selector)(nil)
