package transformer

// findStreamForBlock returns the index of the valid stream whose
// [start, current] (or [current, start] for negative streams) span
// already covers block, or -1 if none does (spec §4.A.1).
func (t *Transformer) findStreamForBlock(block int64) int {
	for i := range t.streams {
		e := &t.streams[i]
		if !e.valid {
			continue
		}
		if e.direction == DirPositive {
			if block >= e.startBlock && block <= e.currentBlock {
				return i
			}
		} else {
			if block <= e.startBlock && block >= e.currentBlock {
				return i
			}
		}
	}
	return -1
}

// findMatchingInactiveStream looks for a dormant stream sharing (dir,
// stride) whose start region is within two regions of regionBase, so a
// reused loop can pick up where an earlier pass left off instead of
// retraining from scratch (spec §4.A.7).
func (t *Transformer) findMatchingInactiveStream(dir Direction, stride int64, regionBase int64) int {
	for i := range t.streams {
		e := &t.streams[i]
		if !e.valid || e.active {
			continue
		}
		if e.direction != dir || e.stride != stride {
			continue
		}

		streamRegion := t.regionBase(e.startBlock)
		diff := abs64(regionBase - streamRegion)
		if diff <= int64(t.cfg.RegionSizeBlocks)*2 {
			return i
		}
	}
	return -1
}

// computeEvictionPriority scores streamIdx for retention: higher survives
// longer. Invalid entries score lowest so they're always picked first
// (spec §4.A.7).
func (t *Transformer) computeEvictionPriority(streamIdx int) int {
	if streamIdx < 0 || streamIdx >= len(t.streams) {
		return 0
	}
	e := &t.streams[streamIdx]
	if !e.valid {
		return -int(^uint(0)>>1) - 1
	}

	priority := 15
	switch e.class {
	case ClassDense:
		priority = 30
	case ClassMedium:
		priority = 20
	case ClassSparse:
		priority = 10
	}

	priority += int(e.confidence) * 2

	if e.groupID >= 0 && e.groupID < len(t.groups) {
		priority += t.groups[e.groupID].memberCount * 3
	}

	if e.active {
		priority += 10
	}

	age := t.timestamp - e.lastTrigger
	if age > t.cfg.DeadStreamThreshold/2 {
		priority -= 5
	}
	if age > t.cfg.DeadStreamThreshold {
		priority -= 10
	}

	return priority
}

// selectVictimStream returns the lowest-priority entry to evict, favoring
// any already-invalid slot.
func (t *Transformer) selectVictimStream() int {
	victim := -1
	lowest := int(^uint(0) >> 1)

	for i := range t.streams {
		if !t.streams[i].valid {
			return i
		}
		p := t.computeEvictionPriority(i)
		if p < lowest {
			lowest = p
			victim = i
		}
	}
	return victim
}

// allocateStreamEntry finds a free stream slot, sweeping dead streams and
// finally evicting the lowest-priority entry if the table is full (spec
// §4.A.7).
func (t *Transformer) allocateStreamEntry() int {
	for i := range t.streams {
		if !t.streams[i].valid {
			return i
		}
	}

	t.removeDeadStreams()

	for i := range t.streams {
		if !t.streams[i].valid {
			return i
		}
	}

	victim := t.selectVictimStream()
	if victim >= 0 {
		t.terminateStream(victim)
	}
	return victim
}

// createStream allocates a new stream entry from a confirmed training
// entry, classifies it, assigns it to a group, and issues its first round
// of prefetches (spec §4.A.1, §4.A.4, §4.A.5).
func (t *Transformer) createStream(trained *trainingEntry) {
	idx := t.allocateStreamEntry()
	if idx < 0 {
		return
	}

	e := &t.streams[idx]
	*e = streamEntry{
		valid:       true,
		active:      true,
		direction:   trained.direction,
		stride:      trained.stride,
		lastTrigger: t.timestamp,
		groupID:     -1,
	}

	if trained.patternConfidence > 1 {
		e.confidence = trained.patternConfidence
	} else {
		e.confidence = 1
	}

	e.startBlock = trained.missBlocks[2]
	e.currentBlock = trained.missBlocks[2]

	dirVal := int64(trained.direction)
	e.endBlock = trained.missBlocks[2] + dirVal*trained.stride*t.cfg.StreamReachBlocks

	e.class = t.classifyStream(e)

	groupIdx := t.findOrCreateStreamGroup(e.direction, e.stride)
	t.addStreamToGroup(idx, groupIdx)

	t.stats.StreamsCreated++
	t.generatePrefetches(idx)
}

// reactivateStream restarts a dormant stream at trigger, boosting its
// confidence and extending its reach (spec §4.A.7).
func (t *Transformer) reactivateStream(idx int, trigger int64) {
	e := &t.streams[idx]

	e.active = true
	e.lastTrigger = t.timestamp
	e.reactivationCount++
	e.currentBlock = trigger

	e.confidence += t.cfg.ConfidenceBoostOnReuse
	if e.confidence > t.cfg.MaxConfidence {
		e.confidence = t.cfg.MaxConfidence
	}

	dirVal := int64(e.direction)
	newEnd := trigger + dirVal*e.stride*t.cfg.StreamReachBlocks

	if e.direction == DirPositive {
		if newEnd > e.endBlock {
			e.endBlock = newEnd
		}
	} else {
		if newEnd < e.endBlock {
			e.endBlock = newEnd
		}
	}

	if e.groupID < 0 {
		groupIdx := t.findOrCreateStreamGroup(e.direction, e.stride)
		t.addStreamToGroup(idx, groupIdx)
	}

	t.stats.StreamsReactivated++
	t.generatePrefetches(idx)
}

// tryRelaunchStream reuses a matching dormant stream instead of creating a
// new one, returning false if no candidate exists.
func (t *Transformer) tryRelaunchStream(missBlock int64, dir Direction, stride int64) bool {
	region := t.regionBase(missBlock)
	match := t.findMatchingInactiveStream(dir, stride, region)
	if match < 0 {
		return false
	}
	t.reactivateStream(match, missBlock)
	return true
}

// reinforceStreamConfidence bumps a stream's (and its group's) confidence
// when a demand access lands inside its already-covered range (spec
// §4.A.9).
func (t *Transformer) reinforceStreamConfidence(streamIdx int) {
	if streamIdx < 0 || streamIdx >= len(t.streams) {
		return
	}
	e := &t.streams[streamIdx]
	if !e.valid {
		return
	}

	e.confidence++
	if e.confidence > t.cfg.MaxConfidence {
		e.confidence = t.cfg.MaxConfidence
	}

	if e.groupID >= 0 && e.groupID < len(t.groups) {
		t.groups[e.groupID].confidence++
	}
}

// getSafeLookahead bounds how far a stream may run ahead of its trigger
// based on how stable its stride has proven so far (spec §4.A.6).
func (t *Transformer) getSafeLookahead(e *streamEntry) uint32 {
	if e.consistentStrideCount >= t.cfg.StrideStabilityThreshold {
		if e.class == ClassDense {
			return t.cfg.AggressiveLookahead
		}
		return t.cfg.BasePrefetchDegree
	}
	return t.cfg.ConservativeLookahead
}

// isAtStrideBoundary reports whether e is within one stride of its
// configured reach, where prefetching should become extra conservative
// (spec §4.A.6).
func (t *Transformer) isAtStrideBoundary(e *streamEntry) bool {
	if e.direction == DirPositive {
		remaining := e.endBlock - e.currentBlock
		return remaining <= e.stride
	}
	remaining := e.currentBlock - e.endBlock
	return remaining <= e.stride
}

func minUint32(a, b, c uint32) uint32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// generatePrefetches issues up to a degree of prefetches bounded by the
// current phase, the stream's class, and stride-boundary caution,
// stopping early on MSHR pressure or a rejected prefetch (spec §4.A, §5,
// §6).
func (t *Transformer) generatePrefetches(streamIdx int) {
	e := &t.streams[streamIdx]
	if !e.valid || !e.active {
		return
	}

	phaseDegree := t.currentPrefetchDegree()
	classDegree := t.prefetchDegreeForClass(e.class)
	safeLookahead := t.getSafeLookahead(e)

	degree := minUint32(phaseDegree, classDegree, safeLookahead)
	if t.isInPhaseTransition() && t.cfg.MinPrefetchDegree < degree {
		degree = t.cfg.MinPrefetchDegree
	}

	dirVal := int64(e.direction)

	for i := uint32(0); i < degree; i++ {
		next := e.currentBlock + dirVal*e.stride

		if e.direction == DirPositive {
			if next > e.endBlock {
				e.active = false
				return
			}
		} else {
			if next < e.endBlock {
				e.active = false
				return
			}
		}

		if i > 0 && t.isAtStrideBoundary(e) {
			break
		}

		ratio := t.host.MSHROccupancyRatio()
		if ratio > t.cfg.MSHRStopRatio {
			return
		}

		fillThisLevel := ratio < t.cfg.MSHRFillLocalRatio
		ok := t.host.PrefetchLine(t.addrOf(next), fillThisLevel, 0)

		if !ok {
			t.stats.PrefetchesDropped++
			return
		}

		t.stats.PrefetchesIssued++
		e.currentBlock = next
		e.length++
		e.consistentStrideCount++

		if e.length%8 == 0 {
			t.updateStreamClassification(streamIdx)
		}
	}

	e.lastTrigger = t.timestamp
}

// terminateStream records the stream's shape into pattern history, detaches
// it from its group, folds the termination into phase detection, and
// invalidates the entry (spec §4.A.7-§4.A.9).
func (t *Transformer) terminateStream(streamIdx int) {
	if streamIdx < 0 || streamIdx >= len(t.streams) {
		return
	}
	e := &t.streams[streamIdx]
	if !e.valid {
		return
	}

	t.recordPattern(e)
	t.removeStreamFromGroup(streamIdx)
	t.updatePhaseState(true)

	e.valid = false
	e.active = false
	t.stats.StreamsTerminated++
}

// removeDeadStreams sweeps the stream table for entries that have been
// idle past the dead-stream threshold and never grew beyond the
// short-stream floor, sparing group-protected, high-confidence streams
// (spec §4.A.4, §4.A.7).
func (t *Transformer) removeDeadStreams() {
	for i := range t.streams {
		e := &t.streams[i]
		if !e.valid {
			continue
		}

		age := t.timestamp - e.lastTrigger
		dead := age > t.cfg.DeadStreamThreshold && e.length < t.cfg.ShortStreamThreshold

		if dead && t.isGroupProtected(i) && e.confidence >= t.cfg.FastTrackConfidence {
			dead = false
		}

		if dead {
			t.terminateStream(i)
		}
	}
}
