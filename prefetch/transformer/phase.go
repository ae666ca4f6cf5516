package transformer

// updatePhaseState folds one more miss (and, optionally, a stream
// termination) into the current phase-detection window, flipping into a
// throttled phase transition once enough streams have died inside one
// window (spec §4.A.8).
func (t *Transformer) updatePhaseState(streamTerminated bool) {
	p := &t.phase
	p.missesInWindow++

	if streamTerminated {
		p.terminatedInWindow++
	}

	if p.missesInWindow >= t.cfg.PhaseWindowSize {
		if p.terminatedInWindow >= t.cfg.PhaseTransitionThreshold {
			p.inTransition = true
			p.currentDegree = t.cfg.MinPrefetchDegree
			p.recoveryCounter = 0
			t.stats.PhaseTransitions++
		}

		p.windowStart = t.timestamp
		p.terminatedInWindow = 0
		p.missesInWindow = 0
	}

	if p.inTransition && !streamTerminated {
		t.tryPhaseRecovery()
	}
}

// tryPhaseRecovery counts misses that terminate no stream since the last
// transition and restores the base prefetch degree once the recovery window
// elapses.
func (t *Transformer) tryPhaseRecovery() {
	p := &t.phase
	p.recoveryCounter++

	if p.recoveryCounter >= t.cfg.PhaseRecoveryWindow {
		p.inTransition = false
		p.currentDegree = t.cfg.BasePrefetchDegree
		p.recoveryCounter = 0
	}
}

func (t *Transformer) isInPhaseTransition() bool {
	return t.phase.inTransition
}

func (t *Transformer) currentPrefetchDegree() uint32 {
	return t.phase.currentDegree
}
