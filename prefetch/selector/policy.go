package selector

import "math"

// bandwidthUtilization normalizes the host's 0..16 DRAM bandwidth sample
// into [0,1] (spec §4.B.2).
func (s *Selector) bandwidthUtilization() float64 {
	return float64(s.host.DRAMBandwidth()) / 16.0
}

// prefetchAccuracy aggregates useful/issued across every sampler and the
// dedicated bucket; with no issues yet it optimistically reports 1.0 so a
// cold start doesn't immediately throttle (spec §4.B.2, §4.B.4).
func (s *Selector) prefetchAccuracy() float64 {
	var useful, issued uint64

	for i := range s.samplers {
		useful += s.samplers[i].stats.transformerUseful + s.samplers[i].stats.pythiaUseful
		issued += s.samplers[i].stats.transformerIssued + s.samplers[i].stats.pythiaIssued
	}
	useful += s.dedicated.transformerUseful + s.dedicated.pythiaUseful
	issued += s.dedicated.transformerIssued + s.dedicated.pythiaIssued

	if issued == 0 {
		return 1.0
	}
	return float64(useful) / float64(issued)
}

// shouldAllowPrefetch implements the bandwidth/accuracy throttle gate (spec
// §4.B.2): bandwidth under threshold, and either accuracy beats bandwidth
// utilization or clears the floor.
func (s *Selector) shouldAllowPrefetch() bool {
	bwUtil := s.bandwidthUtilization()
	if bwUtil >= s.cfg.BWUtilThreshold {
		s.stats.HighBandwidthDrops++
		return false
	}

	acc := s.prefetchAccuracy()
	if acc > bwUtil || acc > s.cfg.MinAccuracyThreshold {
		return true
	}

	s.stats.LowAccuracyDrops++
	return false
}

// score implements the selector's win-margin scoring function (spec
// §4.B.4): accuracy weighted by a logarithmic bonus for raw useful volume,
// so a source with far more confirmed hits outscores one with a marginally
// higher hit rate but negligible volume.
func score(useful, issued uint64) float64 {
	if issued == 0 {
		return 0
	}
	acc := float64(useful) / float64(issued)
	return acc * (1 + math.Log(1+float64(useful)))
}

// updatePolicySelector aggregates (useful, issued) for both sources across
// samplers and the dedicated bucket, and nudges policy_selector toward
// whichever source is clearly winning (spec §4.B.4).
func (s *Selector) updatePolicySelector() {
	var transformerUseful, transformerIssued, pythiaUseful, pythiaIssued uint64

	for i := range s.samplers {
		transformerUseful += s.samplers[i].stats.transformerUseful
		transformerIssued += s.samplers[i].stats.transformerIssued
		pythiaUseful += s.samplers[i].stats.pythiaUseful
		pythiaIssued += s.samplers[i].stats.pythiaIssued
	}
	transformerUseful += s.dedicated.transformerUseful
	transformerIssued += s.dedicated.transformerIssued
	pythiaUseful += s.dedicated.pythiaUseful
	pythiaIssued += s.dedicated.pythiaIssued

	if transformerIssued < s.cfg.MinIssuedForUpdate || pythiaIssued < s.cfg.MinIssuedForUpdate {
		return
	}

	s.stats.PolicyUpdates++

	transformerScore := score(transformerUseful, transformerIssued)
	pythiaScore := score(pythiaUseful, pythiaIssued)

	switch {
	case transformerScore > pythiaScore*s.cfg.PolicyWinMargin:
		s.policySelector++
		if s.policySelector > s.cfg.PolicyMax {
			s.policySelector = s.cfg.PolicyMax
		}
		s.stats.TransformerWins++
	case pythiaScore > transformerScore*s.cfg.PolicyWinMargin:
		s.policySelector--
		if s.policySelector < s.cfg.PolicyMin {
			s.policySelector = s.cfg.PolicyMin
		}
		s.stats.PythiaWins++
	}
}
