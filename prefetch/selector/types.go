package selector

// sourceStats accumulates useful/issued prefetch counts for one source
// (transformer or pythia), shared by the dedicated-set aggregate and by
// policy-controlled sets, which fold directly into it (spec §4.B.2, §4.B.4:
// aggregation is always described as "across samplers + dedicated", and the
// underlying design keeps policy-controlled credits in the same bucket as
// dedicated ones rather than a third ledger).
type sourceStats struct {
	transformerUseful uint64
	transformerIssued uint64
	pythiaUseful      uint64
	pythiaIssued      uint64
}

// samplerEntry is the per-sampled-set counter bank (spec §4.B.1: sized
// NUM_SET/sample_rate, one entry per sampler set).
type samplerEntry struct {
	stats sourceStats
}

// Stats summarizes selector activity for FinalStats / external reporting.
type Stats struct {
	AccessesSeen      uint64
	Allowed           uint64
	Throttled         uint64
	HighBandwidthDrops uint64
	LowAccuracyDrops  uint64

	TransformerWins uint64
	PythiaWins      uint64
	PolicyUpdates   uint64
}
