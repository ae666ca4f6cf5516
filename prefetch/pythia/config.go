package pythia

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the tunable constants of the stand-in reinforcement-learning
// prefetcher. The real Pythia is an external, independently-maintained
// module (spec Non-goals); this package only needs to behave like one well
// enough for the selector to have a second source to multiplex and credit.
type Config struct {
	DeltaTableSize int `json:"delta_table_size"`

	// RegionShift groups block numbers into 2^RegionShift-block spatial
	// regions before indexing the delta table, in the style of
	// region-based spatial-streaming predictors: nearby accesses correlate
	// against the same entry even as the exact block number changes.
	RegionShift uint `json:"region_shift"`

	ConfidenceMax       uint32 `json:"confidence_max"`
	ConfidenceThreshold uint32 `json:"confidence_threshold"`

	PrefetchDegree uint32 `json:"prefetch_degree"`

	MSHRStopRatio float64 `json:"mshr_stop_ratio"`
}

// DefaultConfig returns reasonable defaults for the delta-table predictor.
func DefaultConfig() *Config {
	return &Config{
		DeltaTableSize:      64,
		RegionShift:         6,
		ConfidenceMax:       8,
		ConfidenceThreshold: 2,
		PrefetchDegree:      2,
		MSHRStopRatio:       0.75,
	}
}

// LoadConfig reads a Config from a JSON file, starting from DefaultConfig so
// a partial file only overrides the fields it names.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pythia config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pythia config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes c to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize pythia config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write pythia config file: %w", err)
	}
	return nil
}

// Validate checks that table sizes and thresholds are usable.
func (c *Config) Validate() error {
	if c.DeltaTableSize <= 0 {
		return fmt.Errorf("delta_table_size must be > 0")
	}
	if c.ConfidenceMax == 0 {
		return fmt.Errorf("confidence_max must be > 0")
	}
	if c.MSHRStopRatio <= 0 || c.MSHRStopRatio > 1 {
		return fmt.Errorf("mshr_stop_ratio must be in (0,1]")
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
