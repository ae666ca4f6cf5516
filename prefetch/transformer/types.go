package transformer

// Direction is the sign of a confirmed stream's address progression.
type Direction int8

const (
	DirUnknown Direction = 0
	DirPositive Direction = 1
	DirNegative Direction = -1
)

// StreamClass buckets a stream by stride/length into a density tier that
// drives its prefetch aggressiveness (spec §4.A.5).
type StreamClass int8

const (
	ClassUnknown StreamClass = iota
	ClassDense
	ClassMedium
	ClassSparse
)

func (c StreamClass) String() string {
	switch c {
	case ClassDense:
		return "dense"
	case ClassMedium:
		return "medium"
	case ClassSparse:
		return "sparse"
	default:
		return "unknown"
	}
}

// trainingEntry accumulates up to three recent misses for one region,
// inferring direction and stride before a stream is ever created (spec §3.1).
type trainingEntry struct {
	valid bool

	regionBase int64

	// missBlocks holds up to the three most recent miss block numbers for
	// this region, oldest first. missCount (0..3) says how many are filled.
	missBlocks [3]int64
	missCount  int

	direction Direction
	stride    int64

	lastAccess uint64

	patternConfidence uint32
}

// streamEntry is one learned constant-stride stream (spec §3.1).
type streamEntry struct {
	valid  bool
	active bool

	startBlock   int64
	endBlock     int64
	currentBlock int64

	direction Direction
	stride    int64

	length      uint32
	lastTrigger uint64

	class StreamClass

	reactivationCount uint32
	confidence        uint32

	groupID int

	consistentStrideCount uint32
}

// streamGroup collects streams sharing (direction, stride), protecting
// concurrently-active members (e.g. multi-head attention) from eviction
// (spec §3.1, §4.A.4).
type streamGroup struct {
	valid bool

	direction Direction
	stride    int64

	memberCount  int
	typicalClass StreamClass

	confidence uint64
	lastSeen   uint64

	// members holds stream-table indices; -1 marks an empty slot.
	members []int
}

// patternRecord is one entry of the circular termination history used for
// fast-track re-confirmation (spec §4.A.9).
type patternRecord struct {
	valid bool

	direction   Direction
	stride      int64
	startRegion int64

	terminationTimestamp uint64
	length                uint32
	class                 StreamClass
}

// phaseState tracks the current prefetch-aggressiveness phase (spec §4.A.8).
type phaseState struct {
	windowStart         uint64
	missesInWindow      uint32
	terminatedInWindow  uint32

	currentDegree uint32
	inTransition  bool
	recoveryCounter uint32
}

// Stats summarizes transformer activity for FinalStats / external reporting.
type Stats struct {
	Misses            uint64
	StreamsCreated     uint64
	StreamsReactivated uint64
	StreamsTerminated  uint64
	PrefetchesIssued   uint64
	PrefetchesDropped  uint64
	PhaseTransitions   uint64
}
