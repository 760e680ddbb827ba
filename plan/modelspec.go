package plan

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// MoEConfig describes the mixture-of-experts shape of a model. Only the
// active parameter count participates in FLOP and memory formulas; the
// expert counts drive expert-parallel routing traffic.
type MoEConfig struct {
	TotalExperts  int     `yaml:"total_experts" json:"total_experts"`
	ActiveExperts int     `yaml:"active_experts" json:"active_experts"`
	ActiveParamsB float64 `yaml:"active_params_b" json:"active_params_b"`
}

// ModelSpec is the normalized description of one transformer inference
// workload. Parameter counts are in units of 1e9 (billions) and may be
// fractional. The value is treated as immutable for the duration of an
// estimation call.
type ModelSpec struct {
	Name       string     `yaml:"name" json:"name"`
	ParamsB    float64    `yaml:"params_b" json:"params_b"`
	HiddenSize int        `yaml:"hidden_size" json:"hidden_size"`
	NumLayers  int        `yaml:"num_layers" json:"num_layers"`
	NumHeads   int        `yaml:"num_heads" json:"num_heads"`
	MoE        *MoEConfig `yaml:"moe,omitempty" json:"moe,omitempty"`
	Vision     bool       `yaml:"vision" json:"vision"`
	Precision  Precision  `yaml:"precision" json:"precision"`
	Quantized  bool       `yaml:"quantized" json:"quantized"`
	BatchSize  int        `yaml:"batch_size" json:"batch_size"`
	SeqLen     int        `yaml:"seq_len" json:"seq_len"`
}

// IsMoE reports whether the model routes tokens through a subset of experts.
func (m ModelSpec) IsMoE() bool {
	return m.MoE != nil
}

// Validate checks the positivity and consistency invariants. All problems
// are collected and returned as one error so the caller can fix them in a
// single pass. A hidden size that is not divisible by the head count is
// accepted with a warning: ragged configurations are real inputs.
func (m ModelSpec) Validate() error {
	var problems []string

	if m.ParamsB <= 0 {
		problems = append(problems, fmt.Sprintf("ParamsB must be > 0, got %v", m.ParamsB))
	}
	if m.HiddenSize <= 0 {
		problems = append(problems, fmt.Sprintf("HiddenSize must be > 0, got %d", m.HiddenSize))
	}
	if m.NumLayers <= 0 {
		problems = append(problems, fmt.Sprintf("NumLayers must be > 0, got %d", m.NumLayers))
	}
	if m.NumHeads <= 0 {
		problems = append(problems, fmt.Sprintf("NumHeads must be > 0, got %d", m.NumHeads))
	}
	if !m.Precision.Valid() {
		problems = append(problems, fmt.Sprintf("unknown precision %q (available: %v)", m.Precision, PrecisionNames()))
	}
	if m.BatchSize <= 0 {
		problems = append(problems, fmt.Sprintf("BatchSize must be > 0, got %d", m.BatchSize))
	}
	if m.SeqLen <= 0 {
		problems = append(problems, fmt.Sprintf("SeqLen must be > 0, got %d", m.SeqLen))
	}
	if m.MoE != nil {
		if m.MoE.ActiveParamsB <= 0 {
			problems = append(problems, fmt.Sprintf("MoE.ActiveParamsB must be > 0, got %v", m.MoE.ActiveParamsB))
		}
		if m.MoE.ActiveParamsB > m.ParamsB {
			problems = append(problems, fmt.Sprintf("MoE.ActiveParamsB (%v) must not exceed ParamsB (%v)", m.MoE.ActiveParamsB, m.ParamsB))
		}
		if m.MoE.TotalExperts <= 0 {
			problems = append(problems, fmt.Sprintf("MoE.TotalExperts must be > 0, got %d", m.MoE.TotalExperts))
		}
		if m.MoE.ActiveExperts <= 0 || m.MoE.ActiveExperts > m.MoE.TotalExperts {
			problems = append(problems, fmt.Sprintf("MoE.ActiveExperts must be in [1, TotalExperts], got %d of %d", m.MoE.ActiveExperts, m.MoE.TotalExperts))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid model spec: %s", strings.Join(problems, "; "))
	}

	if m.NumHeads > 0 && m.HiddenSize > 0 && m.HiddenSize%m.NumHeads != 0 {
		logrus.Warnf("model %q: hidden size %d not divisible by %d heads; accepting ragged configuration", m.Name, m.HiddenSize, m.NumHeads)
	}
	return nil
}

// activeParams returns the absolute parameter count exercised per token:
// the active count for MoE models, the total count for dense ones.
func (m ModelSpec) activeParams() float64 {
	if m.MoE != nil {
		return m.MoE.ActiveParamsB * 1e9
	}
	return m.ParamsB * 1e9
}

// paramBytes returns the resident parameter footprint in bytes.
func (m ModelSpec) paramBytes() float64 {
	return m.activeParams() * m.Precision.Bytes()
}

// kvCacheBytes returns the full key/value cache footprint in bytes:
// batch x seq x hidden x 2 (K and V) x layers x byte width.
func (m ModelSpec) kvCacheBytes() float64 {
	return float64(m.BatchSize) * float64(m.SeqLen) * float64(m.HiddenSize) *
		2 * float64(m.NumLayers) * m.Precision.Bytes()
}

// activationBytes returns the peak activation buffer in bytes, scaled by the
// configurable multiplier (default 1.0).
func (m ModelSpec) activationBytes(multiplier float64) float64 {
	return float64(m.BatchSize) * float64(m.SeqLen) * float64(m.HiddenSize) *
		m.Precision.Bytes() * multiplier
}
