// Package pythia is a small stand-in for the externally-supplied
// reinforcement-learning prefetcher the selector multiplexes against. The
// real Pythia is out of scope (spec Non-goals treat it as an opaque module
// sharing this package's interface); this implementation exists only so the
// selector has a genuine second source to dedicate sets to, credit, and
// throttle.
//
// It is a fixed-size delta-correlation table: address-behavior-driven like
// the transformer prefetcher, but deliberately simpler: one region-indexed
// table with no training table, stream grouping or phase machinery, so the
// two sources actually diverge in accuracy on different access patterns.
package pythia

import (
	"fmt"

	"github.com/sarchlab/m2prefetch/prefetch/host"
)

type deltaEntry struct {
	valid      bool
	lastBlock  int64
	delta      int64
	confidence uint32
}

// Stats summarizes pythia activity for FinalStats / external reporting.
type Stats struct {
	Misses            uint64
	PredictionsIssued uint64
	PredictionsDropped uint64
}

// Pythia is the stand-in prefetcher. It implements host.Prefetcher.
type Pythia struct {
	cfg  *Config
	host host.Host

	table     []deltaEntry
	blockBits uint

	stats Stats
}

// New creates a Pythia with cfg, or DefaultConfig() if cfg is nil.
func New(cfg *Config) *Pythia {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Pythia{cfg: cfg}
}

// Initialize zeroes the delta table and captures host geometry.
func (p *Pythia) Initialize(h host.Host) {
	p.host = h
	p.blockBits = h.LogBlockSize()
	p.table = make([]deltaEntry, p.cfg.DeltaTableSize)
	p.stats = Stats{}
}

func (p *Pythia) blockOf(addr uint64) int64 {
	return int64(addr >> p.blockBits)
}

func (p *Pythia) addrOf(block int64) uint64 {
	return uint64(block) << p.blockBits
}

func (p *Pythia) index(block int64) int {
	region := block >> p.cfg.RegionShift
	n := int64(len(p.table))
	idx := region % n
	if idx < 0 {
		idx += n
	}
	return int(idx)
}

// CacheOperate folds a miss into the delta table and, once a predicted
// stride is confirmed, issues prefetches for it.
func (p *Pythia) CacheOperate(a host.Access) uint32 {
	if a.Hit {
		return a.MetadataIn
	}
	p.stats.Misses++

	block := p.blockOf(a.Address)
	idx := p.index(block)
	e := &p.table[idx]

	if !e.valid {
		e.valid = true
		e.lastBlock = block
		e.delta = 0
		e.confidence = 0
		return a.MetadataIn
	}

	observed := block - e.lastBlock
	if observed == e.delta && observed != 0 {
		if e.confidence < p.cfg.ConfidenceMax {
			e.confidence++
		}
	} else {
		e.delta = observed
		e.confidence = 1
	}
	e.lastBlock = block

	if e.confidence >= p.cfg.ConfidenceThreshold && e.delta != 0 {
		p.issuePredictions(block, e.delta)
	}

	return a.MetadataIn
}

func (p *Pythia) issuePredictions(block, delta int64) {
	ratio := p.host.MSHROccupancyRatio()
	if ratio > p.cfg.MSHRStopRatio {
		return
	}

	next := block
	for i := uint32(0); i < p.cfg.PrefetchDegree; i++ {
		next += delta
		if !p.host.PrefetchLine(p.addrOf(next), ratio < 0.5, 0) {
			p.stats.PredictionsDropped++
			return
		}
		p.stats.PredictionsIssued++
	}
}

// CacheFill is a no-op: the delta table only learns from demand misses.
func (p *Pythia) CacheFill(f host.Fill) uint32 {
	return f.MetadataIn
}

// CycleOperate is a no-op: this predictor has no background work.
func (p *Pythia) CycleOperate() {}

// FinalStats is empty; Stats() is how callers inspect accumulated counters.
func (p *Pythia) FinalStats() {}

// Stats returns a snapshot of accumulated counters.
func (p *Pythia) Stats() Stats {
	return p.stats
}

// Report renders Stats as a one-line summary.
func (p *Pythia) Report() string {
	s := p.stats
	return fmt.Sprintf("pythia: misses=%d predictions_issued=%d predictions_dropped=%d",
		s.Misses, s.PredictionsIssued, s.PredictionsDropped)
}

var _ host.Prefetcher = (*Pythia)(nil)
