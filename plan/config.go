package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning defaults. The activation multiplier and framework overhead have no
// canonical value; they are exposed as configuration rather than hard-coded.
const (
	DefaultActivationMultiplier = 1.0
	DefaultFrameworkOverheadGB  = 0.0
	DefaultPrefillBudgetSeconds = 1.0
	DefaultDecodeBudgetSeconds  = 0.05
)

// UtilizationCap is the reported maximum utilization percentage. Degenerate
// inputs (zero-bandwidth or zero-compute devices) clamp here instead of
// producing +Inf or NaN in reports.
const UtilizationCap = 1e6

// EngineConfig carries the engine's tuning parameters. The zero value maps
// to the defaults, so callers that do not care can pass EngineConfig{}.
type EngineConfig struct {
	// ActivationMultiplier scales the batch x seq x hidden x byte-width
	// activation buffer term.
	ActivationMultiplier float64 `yaml:"activation_multiplier"`

	// FrameworkOverheadGB is a fixed per-device memory constant added on
	// top of the three modeled components.
	FrameworkOverheadGB float64 `yaml:"framework_overhead_gb"`

	// PrefillBudgetSeconds is the latency budget for one full prefill pass;
	// bandwidth demand for the prefill phase is bytes moved divided by it.
	PrefillBudgetSeconds float64 `yaml:"prefill_budget_seconds"`

	// DecodeBudgetSeconds is the latency budget per generated token;
	// bandwidth demand for the decode phase is bytes per token divided by it.
	DecodeBudgetSeconds float64 `yaml:"decode_budget_seconds"`

	// KVCacheSharing enables cross-device KV-cache traffic accounting for
	// the data/sequence/context strategies, which otherwise move nothing
	// between devices during inference.
	KVCacheSharing bool `yaml:"kv_cache_sharing"`
}

// DefaultEngineConfig returns the engine defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ActivationMultiplier: DefaultActivationMultiplier,
		FrameworkOverheadGB:  DefaultFrameworkOverheadGB,
		PrefillBudgetSeconds: DefaultPrefillBudgetSeconds,
		DecodeBudgetSeconds:  DefaultDecodeBudgetSeconds,
	}
}

// withDefaults fills unset (non-positive) tuning fields with the defaults.
func (c EngineConfig) withDefaults() EngineConfig {
	if c.ActivationMultiplier <= 0 {
		c.ActivationMultiplier = DefaultActivationMultiplier
	}
	if c.FrameworkOverheadGB < 0 {
		c.FrameworkOverheadGB = DefaultFrameworkOverheadGB
	}
	if c.PrefillBudgetSeconds <= 0 {
		c.PrefillBudgetSeconds = DefaultPrefillBudgetSeconds
	}
	if c.DecodeBudgetSeconds <= 0 {
		c.DecodeBudgetSeconds = DefaultDecodeBudgetSeconds
	}
	return c
}

// budget returns the latency budget for the given phase, in seconds.
func (c EngineConfig) budget(p Phase) float64 {
	if p == PhasePrefill {
		return c.PrefillBudgetSeconds
	}
	return c.DecodeBudgetSeconds
}

// LoadEngineConfig reads and parses a YAML engine configuration file.
func LoadEngineConfig(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("reading engine config: %w", err)
	}
	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("parsing engine config: %w", err)
	}
	return cfg.withDefaults(), nil
}
