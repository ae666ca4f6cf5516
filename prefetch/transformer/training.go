package transformer

// findTrainingEntry returns the index of the valid training entry for
// region, or -1 if none exists. At most one training entry per region is
// ever valid at a time (spec §3.1 invariants).
func (t *Transformer) findTrainingEntry(region int64) int {
	for i := range t.training {
		if t.training[i].valid && t.training[i].regionBase == region {
			return i
		}
	}
	return -1
}

// allocateTrainingEntry returns a fresh training entry for region, reusing
// an invalid slot if one exists or evicting the least-recently-accessed
// entry otherwise.
func (t *Transformer) allocateTrainingEntry(region int64) int {
	for i := range t.training {
		if !t.training[i].valid {
			t.resetTrainingEntry(i, region)
			return i
		}
	}

	lruIdx := 0
	oldest := ^uint64(0)
	for i := range t.training {
		if t.training[i].lastAccess < oldest {
			oldest = t.training[i].lastAccess
			lruIdx = i
		}
	}
	t.resetTrainingEntry(lruIdx, region)
	return lruIdx
}

func (t *Transformer) resetTrainingEntry(idx int, region int64) {
	t.training[idx] = trainingEntry{
		valid:      true,
		regionBase: region,
		missCount:  0,
		direction:  DirUnknown,
		stride:     1,
		lastAccess: t.timestamp,
	}
}

// updateTrainingEntry folds one more miss block into the training entry,
// inferring direction/stride once three misses have accumulated (spec
// §4.A.3).
func (t *Transformer) updateTrainingEntry(idx int, missBlock int64) {
	e := &t.training[idx]
	e.lastAccess = t.timestamp

	switch e.missCount {
	case 0:
		e.missBlocks[2] = missBlock
		e.missCount = 1
		e.patternConfidence = t.patternConfidence(DirUnknown, 0, e.regionBase)
		return
	case 1:
		e.missBlocks[1] = e.missBlocks[2]
		e.missBlocks[2] = missBlock
		e.missCount = 2
		// A single gap gives a tentative direction/stride, so a strong
		// pattern-history match can fast-track confirmation at two misses.
		if gap := missBlock - e.missBlocks[1]; gap != 0 {
			e.direction = DirPositive
			if gap < 0 {
				e.direction = DirNegative
			}
			e.stride = abs64(gap)
			e.patternConfidence = t.patternConfidence(e.direction, e.stride, e.regionBase)
		}
		return
	}

	// missCount == 2 (or 3, after a noise-absorbed update): shift history.
	e.missBlocks[0] = e.missBlocks[1]
	e.missBlocks[1] = e.missBlocks[2]
	e.missBlocks[2] = missBlock

	gap1 := e.missBlocks[1] - e.missBlocks[0]
	gap2 := e.missBlocks[2] - e.missBlocks[1]

	if isNoise(gap1, gap2) {
		return
	}

	dir := detectDirection(gap1, gap2)
	if dir == DirUnknown {
		e.missCount = 1
		e.direction = DirUnknown
		e.stride = 1
		return
	}

	stride := detectStride(gap1, gap2)
	if stride <= 0 {
		e.missCount = 1
		e.direction = DirUnknown
		e.stride = 1
		return
	}

	e.direction = dir
	e.stride = stride
	e.missCount = 3
	e.patternConfidence = t.patternConfidence(dir, stride, e.regionBase)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// isNoise detects a single stray access inside an otherwise-consistent
// stream: exactly one of the two gaps is a near-unit step (|gap|<=1) while
// the other has the opposite sign (spec §4.A.3: "(|gap1|<=1 XOR |gap2|<=1)
// and the two gaps have opposite signs").
func isNoise(gap1, gap2 int64) bool {
	small1 := abs64(gap1) <= 1
	small2 := abs64(gap2) <= 1
	if small1 == small2 {
		return false
	}
	oppositeSigns := (gap1 > 0 && gap2 < 0) || (gap1 < 0 && gap2 > 0)
	return oppositeSigns
}

func detectDirection(gap1, gap2 int64) Direction {
	if gap1 > 0 && gap2 > 0 {
		return DirPositive
	}
	if gap1 < 0 && gap2 < 0 {
		return DirNegative
	}
	return DirUnknown
}

func detectStride(gap1, gap2 int64) int64 {
	a1, a2 := abs64(gap1), abs64(gap2)
	if a1 != a2 || a1 < 1 {
		return 0
	}
	return a1
}
