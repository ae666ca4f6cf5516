package transformer

// classifyStream buckets entry by stride first, then demotes it one tier
// when it hasn't run long enough to earn that tier's degree yet (spec
// §4.A.5).
func (t *Transformer) classifyStream(entry *streamEntry) StreamClass {
	cfg := t.cfg

	if entry.stride <= cfg.DenseStrideMax {
		if entry.length >= cfg.DenseLengthMin {
			return ClassDense
		}
		return ClassMedium
	}

	if entry.stride <= cfg.MediumStrideMax {
		if entry.length >= cfg.MediumLengthMin {
			return ClassMedium
		}
		return ClassSparse
	}

	return ClassSparse
}

func (t *Transformer) prefetchDegreeForClass(cls StreamClass) uint32 {
	switch cls {
	case ClassDense:
		return t.cfg.DensePrefetchDegree
	case ClassMedium:
		return t.cfg.MediumPrefetchDegree
	case ClassSparse:
		return t.cfg.SparsePrefetchDegree
	default:
		return t.cfg.BasePrefetchDegree
	}
}

// updateStreamClassification re-derives a stream's class from its current
// length and propagates it to its group, so later members of the same
// group inherit an up-to-date typical class (spec §4.A.5).
func (t *Transformer) updateStreamClassification(streamIdx int) {
	if streamIdx < 0 || streamIdx >= len(t.streams) {
		return
	}
	entry := &t.streams[streamIdx]
	if !entry.valid {
		return
	}

	entry.class = t.classifyStream(entry)

	if entry.groupID >= 0 && entry.groupID < len(t.groups) {
		t.groups[entry.groupID].typicalClass = entry.class
	}
}
