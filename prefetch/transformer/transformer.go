// Package transformer implements the transformer-aware stream prefetcher:
// a constant-stride, region-trained streaming prefetcher extended with
// five mechanisms for nested-stream workloads (dense inner traversals,
// repeated per-layer patterns, many concurrent identical streams).
//
// It is a from-scratch state machine, not a subclass of a base stream
// prefetcher: training, direction/stride detection and dead-stream sweep
// are duplicated in full here rather than inherited, per the
// re-architecture guidance that composition/duplication replaces any
// run-time dispatch hierarchy.
package transformer

import (
	"fmt"

	"github.com/sarchlab/m2prefetch/prefetch/host"
)

// Transformer is the transformer-aware stream prefetcher (spec §4.A). It
// implements host.Prefetcher and holds only fixed-size tables: no table
// grows after Initialize.
type Transformer struct {
	cfg  *Config
	host host.Host

	training []trainingEntry
	streams  []streamEntry
	groups   []streamGroup

	patternHistory []patternRecord
	patternHead    int

	phase phaseState

	timestamp      uint64
	cleanupCounter uint64

	blockBits uint

	stats Stats
}

// New creates a Transformer with cfg, or DefaultConfig() if cfg is nil.
// Tables are not allocated until Initialize is called.
func New(cfg *Config) *Transformer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Transformer{cfg: cfg}
}

// Initialize zeroes all tables and captures host geometry (spec §6).
func (t *Transformer) Initialize(h host.Host) {
	t.host = h
	t.blockBits = h.LogBlockSize()

	t.training = make([]trainingEntry, t.cfg.TrainingTableSize)
	for i := range t.training {
		t.training[i] = trainingEntry{direction: DirUnknown, stride: 1}
	}

	t.streams = make([]streamEntry, t.cfg.StreamTableSize)
	for i := range t.streams {
		t.streams[i] = streamEntry{groupID: -1, confidence: 1}
	}

	t.groups = make([]streamGroup, t.cfg.MaxStreamGroups)
	for i := range t.groups {
		t.groups[i].members = make([]int, t.cfg.MaxStreamsPerGroup)
		for j := range t.groups[i].members {
			t.groups[i].members[j] = -1
		}
	}

	t.patternHistory = make([]patternRecord, t.cfg.PatternHistorySize)
	t.patternHead = 0

	t.phase = phaseState{currentDegree: t.cfg.BasePrefetchDegree}

	t.timestamp = 0
	t.cleanupCounter = 0
	t.stats = Stats{}
}

func (t *Transformer) blockOf(addr uint64) int64 {
	return int64(addr >> t.blockBits)
}

func (t *Transformer) addrOf(block int64) uint64 {
	return uint64(block) << t.blockBits
}

func (t *Transformer) regionBase(block int64) int64 {
	size := int64(t.cfg.RegionSizeBlocks)
	mask := ^(size - 1)
	return block & mask
}

// CacheOperate runs the training-only-on-miss pipeline (spec §4.A.1-§4.A.2).
func (t *Transformer) CacheOperate(a host.Access) uint32 {
	if a.Hit {
		return a.MetadataIn
	}

	t.timestamp++
	t.stats.Misses++
	t.updatePhaseState(false)

	t.cleanupCounter++
	if t.cleanupCounter >= t.cfg.CleanupInterval {
		t.removeDeadStreams()
		t.cleanupCounter = 0
	}

	missBlock := t.blockOf(a.Address)
	region := t.regionBase(missBlock)

	// Step 1: does an existing stream already cover this block?
	if idx := t.findStreamForBlock(missBlock); idx >= 0 {
		entry := &t.streams[idx]
		entry.lastTrigger = t.timestamp
		if !entry.active {
			entry.active = true
			entry.reactivationCount++
		}
		t.reinforceStreamConfidence(idx)
		t.generatePrefetches(idx)
		return a.MetadataIn
	}

	// Step 2: training.
	trainIdx := t.findTrainingEntry(region)
	if trainIdx < 0 {
		trainIdx = t.allocateTrainingEntry(region)
	}
	t.updateTrainingEntry(trainIdx, missBlock)

	// Step 3: confirmation and stream creation/re-launch.
	trained := &t.training[trainIdx]
	ready := trained.missCount >= int(t.cfg.ConfirmationThreshold) ||
		(trained.missCount >= 2 && trained.patternConfidence >= t.cfg.FastTrackConfidence)

	if ready && trained.direction != DirUnknown && trained.stride >= 1 {
		if !t.tryRelaunchStream(missBlock, trained.direction, trained.stride) {
			t.createStream(trained)
		}
		t.training[trainIdx].valid = false
	}

	return a.MetadataIn
}

// CacheFill is a no-op for training: prefetches never feed training data
// back into the tables (spec §4.A.1).
func (t *Transformer) CacheFill(f host.Fill) uint32 {
	return f.MetadataIn
}

// CycleOperate opportunistically advances every active stream beyond what
// cache_operate already issued this cycle (spec §4.A, §5).
func (t *Transformer) CycleOperate() {
	for i := range t.streams {
		if t.streams[i].valid && t.streams[i].active {
			t.generatePrefetches(i)
		}
	}
}

// FinalStats is empty per spec §4.A.1; Stats() and Report() are how callers
// inspect accumulated counters (the selector includes Report() in its own
// report, which cmd/prefetchsim prints).
func (t *Transformer) FinalStats() {}

// Stats returns a snapshot of accumulated counters.
func (t *Transformer) Stats() Stats {
	return t.stats
}

// Report renders Stats in the teacher's fmt.Printf report style, for
// callers that want ready-made text rather than raw counters.
func (t *Transformer) Report() string {
	s := t.stats
	return fmt.Sprintf(
		"transformer: misses=%d streams_created=%d streams_reactivated=%d "+
			"streams_terminated=%d prefetches_issued=%d prefetches_dropped=%d phase_transitions=%d",
		s.Misses, s.StreamsCreated, s.StreamsReactivated, s.StreamsTerminated,
		s.PrefetchesIssued, s.PrefetchesDropped, s.PhaseTransitions)
}
