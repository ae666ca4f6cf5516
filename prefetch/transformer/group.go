package transformer

// findStreamGroup returns the index of the valid group sharing (dir,
// stride), or -1 if none exists.
func (t *Transformer) findStreamGroup(dir Direction, stride int64) int {
	for i := range t.groups {
		g := &t.groups[i]
		if g.valid && g.direction == dir && g.stride == stride {
			return i
		}
	}
	return -1
}

// findOrCreateStreamGroup returns the group for (dir, stride), creating one
// in a free slot or, failing that, evicting the least-recently-seen group
// (spec §4.A.4).
func (t *Transformer) findOrCreateStreamGroup(dir Direction, stride int64) int {
	if existing := t.findStreamGroup(dir, stride); existing >= 0 {
		t.groups[existing].lastSeen = t.timestamp
		return existing
	}

	initGroup := func(idx int) {
		g := &t.groups[idx]
		g.valid = true
		g.direction = dir
		g.stride = stride
		g.memberCount = 0
		g.confidence = 0
		g.lastSeen = t.timestamp
		for i := range g.members {
			g.members[i] = -1
		}
		g.typicalClass = classifyByStride(t.cfg, stride)
	}

	for i := range t.groups {
		if !t.groups[i].valid {
			initGroup(i)
			return i
		}
	}

	oldestIdx := 0
	var oldestTime uint64 = ^uint64(0)
	for i := range t.groups {
		if t.groups[i].memberCount == 0 || t.groups[i].lastSeen < oldestTime {
			oldestTime = t.groups[i].lastSeen
			oldestIdx = i
		}
	}

	for _, memberIdx := range t.groups[oldestIdx].members {
		if memberIdx >= 0 && memberIdx < len(t.streams) {
			t.streams[memberIdx].groupID = -1
		}
	}

	initGroup(oldestIdx)
	return oldestIdx
}

func (t *Transformer) addStreamToGroup(streamIdx, groupIdx int) {
	if groupIdx < 0 || groupIdx >= len(t.groups) || streamIdx < 0 || streamIdx >= len(t.streams) {
		return
	}
	g := &t.groups[groupIdx]

	for i := range g.members {
		if g.members[i] < 0 {
			g.members[i] = streamIdx
			g.memberCount++
			t.streams[streamIdx].groupID = groupIdx
			t.streams[streamIdx].class = g.typicalClass
			return
		}
	}

	// Group full: track the relationship without a member slot.
	t.streams[streamIdx].groupID = groupIdx
}

func (t *Transformer) removeStreamFromGroup(streamIdx int) {
	if streamIdx < 0 || streamIdx >= len(t.streams) {
		return
	}
	groupIdx := t.streams[streamIdx].groupID
	if groupIdx < 0 || groupIdx >= len(t.groups) {
		t.streams[streamIdx].groupID = -1
		return
	}

	g := &t.groups[groupIdx]
	for i := range g.members {
		if g.members[i] == streamIdx {
			g.members[i] = -1
			if g.memberCount > 0 {
				g.memberCount--
			}
			break
		}
	}

	t.streams[streamIdx].groupID = -1

	if g.memberCount == 0 {
		g.valid = false
	}
}

// isGroupProtected reports whether streamIdx belongs to a group with
// multiple concurrently-registered members, shielding it from the dead
// stream sweep (spec §4.A.4).
func (t *Transformer) isGroupProtected(streamIdx int) bool {
	if streamIdx < 0 || streamIdx >= len(t.streams) {
		return false
	}
	groupIdx := t.streams[streamIdx].groupID
	if groupIdx < 0 || groupIdx >= len(t.groups) {
		return false
	}
	return t.groups[groupIdx].memberCount >= 2
}

func classifyByStride(cfg *Config, stride int64) StreamClass {
	switch {
	case stride <= cfg.DenseStrideMax:
		return ClassDense
	case stride <= cfg.MediumStrideMax:
		return ClassMedium
	default:
		return ClassSparse
	}
}
