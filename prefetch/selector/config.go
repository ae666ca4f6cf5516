package selector

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/m2prefetch/prefetch/pythia"
	"github.com/sarchlab/m2prefetch/prefetch/transformer"
)

// Config holds every tunable constant of the bandwidth-aware selector (spec
// §4.B), plus the configs of the two sub-prefetchers it owns.
type Config struct {
	BWUtilThreshold      float64 `json:"bw_util_threshold"`
	MinAccuracyThreshold float64 `json:"min_accuracy_threshold"`

	PolicyUpdateInterval uint64  `json:"policy_update_interval"`
	PolicyMax            int32   `json:"policy_max"`
	PolicyMin            int32   `json:"policy_min"`
	PolicyWinMargin      float64 `json:"policy_win_margin"`
	MinIssuedForUpdate   uint64  `json:"min_issued_for_update"`

	Transformer *transformer.Config `json:"transformer"`
	Pythia      *pythia.Config      `json:"pythia"`
}

// DefaultConfig returns the literal constants from spec §4.B.
func DefaultConfig() *Config {
	return &Config{
		BWUtilThreshold:      0.9,
		MinAccuracyThreshold: 0.1,

		PolicyUpdateInterval: 5000,
		PolicyMax:            1024,
		PolicyMin:            -1024,
		PolicyWinMargin:      1.05,
		MinIssuedForUpdate:   100,

		Transformer: transformer.DefaultConfig(),
		Pythia:      pythia.DefaultConfig(),
	}
}

// LoadConfig reads a Config from a JSON file, starting from DefaultConfig so
// a partial file only overrides the fields it names.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read selector config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse selector config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes c to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize selector config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write selector config file: %w", err)
	}
	return nil
}

// Validate checks the selector's own thresholds and both sub-configs.
func (c *Config) Validate() error {
	if c.BWUtilThreshold <= 0 || c.BWUtilThreshold > 1 {
		return fmt.Errorf("bw_util_threshold must be in (0,1]")
	}
	if c.MinAccuracyThreshold < 0 || c.MinAccuracyThreshold > 1 {
		return fmt.Errorf("min_accuracy_threshold must be in [0,1]")
	}
	if c.PolicyUpdateInterval == 0 {
		return fmt.Errorf("policy_update_interval must be > 0")
	}
	if c.PolicyMax <= c.PolicyMin {
		return fmt.Errorf("policy_max must be > policy_min")
	}
	if c.PolicyWinMargin < 1 {
		return fmt.Errorf("policy_win_margin must be >= 1")
	}
	if c.Transformer != nil {
		if err := c.Transformer.Validate(); err != nil {
			return fmt.Errorf("transformer config: %w", err)
		}
	}
	if c.Pythia != nil {
		if err := c.Pythia.Validate(); err != nil {
			return fmt.Errorf("pythia config: %w", err)
		}
	}
	return nil
}

// Clone returns a deep copy of c, including its sub-configs.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Transformer != nil {
		clone.Transformer = c.Transformer.Clone()
	}
	if c.Pythia != nil {
		clone.Pythia = c.Pythia.Clone()
	}
	return &clone
}
