package transformer

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds every tunable constant of the transformer-aware stream
// prefetcher (spec §3.1/§4.A). Defaults match the literal values from the
// specification; overriding them does not change the algorithm, only its
// operating point.
type Config struct {
	RegionSizeBlocks uint64 `json:"region_size_blocks"`

	TrainingTableSize int `json:"training_table_size"`
	StreamTableSize   int `json:"stream_table_size"`
	MaxStreamGroups   int `json:"max_stream_groups"`
	MaxStreamsPerGroup int `json:"max_streams_per_group"`
	PatternHistorySize int `json:"pattern_history_size"`

	ConfirmationThreshold uint32 `json:"confirmation_threshold"`
	FastTrackConfidence   uint32 `json:"fast_track_confidence"`
	MaxConfidence         uint32 `json:"max_confidence"`
	ConfidenceBoostOnReuse uint32 `json:"confidence_boost_on_reuse"`

	DeadStreamThreshold  uint64 `json:"dead_stream_threshold"`
	ShortStreamThreshold uint32 `json:"short_stream_threshold"`
	CleanupInterval      uint64 `json:"cleanup_interval"`

	DenseStrideMax   int64  `json:"dense_stride_max"`
	MediumStrideMax  int64  `json:"medium_stride_max"`
	DenseLengthMin   uint32 `json:"dense_length_min"`
	MediumLengthMin  uint32 `json:"medium_length_min"`

	BasePrefetchDegree uint32 `json:"base_prefetch_degree"`
	MinPrefetchDegree  uint32 `json:"min_prefetch_degree"`
	DensePrefetchDegree  uint32 `json:"dense_prefetch_degree"`
	MediumPrefetchDegree uint32 `json:"medium_prefetch_degree"`
	SparsePrefetchDegree uint32 `json:"sparse_prefetch_degree"`

	ReuseWindowSize uint64 `json:"reuse_window_size"`

	PhaseWindowSize          uint32 `json:"phase_window_size"`
	PhaseTransitionThreshold uint32 `json:"phase_transition_threshold"`
	PhaseRecoveryWindow      uint32 `json:"phase_recovery_window"`

	ConservativeLookahead    uint32 `json:"conservative_lookahead"`
	AggressiveLookahead      uint32 `json:"aggressive_lookahead"`
	StrideStabilityThreshold uint32 `json:"stride_stability_threshold"`

	// StreamReachBlocks is how far ahead of the trigger block a newly
	// created or reactivated stream's end is placed, in units of strides
	// (spec §4.A.4/§4.A.7: "64 x stride").
	StreamReachBlocks int64 `json:"stream_reach_blocks"`

	// MSHRStopRatio is the occupancy ratio above which prefetch generation
	// stops issuing for the remainder of the call (spec §4.A.6).
	MSHRStopRatio float64 `json:"mshr_stop_ratio"`
	// MSHRFillLocalRatio is the occupancy ratio below which a prefetch asks
	// to be filled at this cache level rather than only a lower one.
	MSHRFillLocalRatio float64 `json:"mshr_fill_local_ratio"`
}

// DefaultConfig returns the literal constants from spec §3/§4.
func DefaultConfig() *Config {
	return &Config{
		RegionSizeBlocks: 4,

		TrainingTableSize:  32,
		StreamTableSize:    32,
		MaxStreamGroups:    8,
		MaxStreamsPerGroup: 8,
		PatternHistorySize: 16,

		ConfirmationThreshold:  3,
		FastTrackConfidence:    4,
		MaxConfidence:          8,
		ConfidenceBoostOnReuse: 2,

		DeadStreamThreshold:  1000,
		ShortStreamThreshold: 4,
		CleanupInterval:      256,

		DenseStrideMax:  2,
		MediumStrideMax: 16,
		DenseLengthMin:  8,
		MediumLengthMin: 4,

		BasePrefetchDegree:   2,
		MinPrefetchDegree:    1,
		DensePrefetchDegree:  4,
		MediumPrefetchDegree: 2,
		SparsePrefetchDegree: 1,

		ReuseWindowSize: 2000,

		PhaseWindowSize:          64,
		PhaseTransitionThreshold: 4,
		PhaseRecoveryWindow:      32,

		ConservativeLookahead:    1,
		AggressiveLookahead:      4,
		StrideStabilityThreshold: 3,

		StreamReachBlocks: 64,

		MSHRStopRatio:      0.75,
		MSHRFillLocalRatio: 0.5,
	}
}

// LoadConfig reads a Config from a JSON file, starting from DefaultConfig so
// a partial file only overrides the fields it names.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transformer config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse transformer config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes c to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize transformer config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write transformer config file: %w", err)
	}
	return nil
}

// Validate checks that table sizes and thresholds are usable.
func (c *Config) Validate() error {
	if c.RegionSizeBlocks == 0 {
		return fmt.Errorf("region_size_blocks must be > 0")
	}
	if c.TrainingTableSize <= 0 {
		return fmt.Errorf("training_table_size must be > 0")
	}
	if c.StreamTableSize <= 0 {
		return fmt.Errorf("stream_table_size must be > 0")
	}
	if c.MaxStreamGroups <= 0 {
		return fmt.Errorf("max_stream_groups must be > 0")
	}
	if c.MaxStreamsPerGroup <= 0 {
		return fmt.Errorf("max_streams_per_group must be > 0")
	}
	if c.PatternHistorySize <= 0 {
		return fmt.Errorf("pattern_history_size must be > 0")
	}
	if c.MaxConfidence == 0 {
		return fmt.Errorf("max_confidence must be > 0")
	}
	if c.MSHRStopRatio <= 0 || c.MSHRStopRatio > 1 {
		return fmt.Errorf("mshr_stop_ratio must be in (0,1]")
	}
	return nil
}

// Clone returns a deep copy of c (Config has no reference fields, so a
// value copy suffices, but the method is kept for parity with the rest of
// the module's config types).
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
