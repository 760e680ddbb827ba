package plan

import (
	"fmt"
	"strings"
)

// DeviceSpec is the normalized description of one compute node's capacity.
// Devices are held in an ordered sequence; order encodes pipeline stage
// order under pipeline parallelism. The engine never mutates a DeviceSpec;
// creation and editing belong to the device-management collaborator.
type DeviceSpec struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`

	MemoryGB      float64 `yaml:"memory_gb" json:"memory_gb"`
	LocalBWGBps   float64 `yaml:"local_bw_gbps" json:"local_bw_gbps"`
	NetworkBWGBps float64 `yaml:"network_bw_gbps" json:"network_bw_gbps"`

	// TFlops maps precision to this device's compute throughput in TFLOP/s.
	TFlops map[Precision]float64 `yaml:"tflops" json:"tflops"`

	// OverflowTarget optionally names the device that absorbs spill from
	// this one. Topology hint only; carried through to reports unchanged.
	OverflowTarget string `yaml:"overflow_target,omitempty" json:"overflow_target,omitempty"`
}

// Validate checks that the capacity figures are non-negative and well formed.
// Zero bandwidth or zero compute is accepted: a zero-capacity device is a
// defined degenerate input that yields an infeasible report, not an error.
func (d DeviceSpec) Validate() error {
	var problems []string

	if d.ID == "" {
		problems = append(problems, "ID must not be empty")
	}
	if d.MemoryGB < 0 {
		problems = append(problems, fmt.Sprintf("MemoryGB must be >= 0, got %v", d.MemoryGB))
	}
	if d.LocalBWGBps < 0 {
		problems = append(problems, fmt.Sprintf("LocalBWGBps must be >= 0, got %v", d.LocalBWGBps))
	}
	if d.NetworkBWGBps < 0 {
		problems = append(problems, fmt.Sprintf("NetworkBWGBps must be >= 0, got %v", d.NetworkBWGBps))
	}
	for p, tf := range d.TFlops {
		if !p.Valid() {
			problems = append(problems, fmt.Sprintf("TFlops has unknown precision %q", p))
		}
		if tf < 0 {
			problems = append(problems, fmt.Sprintf("TFlops[%s] must be >= 0, got %v", p, tf))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid device spec %q: %s", d.ID, strings.Join(problems, "; "))
	}
	return nil
}

// ValidateDevices checks the whole ordered sequence: at least one device,
// every device valid, IDs unique.
func ValidateDevices(devices []DeviceSpec) error {
	if len(devices) == 0 {
		return fmt.Errorf("invalid device list: at least one device is required")
	}
	var problems []string
	seen := make(map[string]bool, len(devices))
	for _, d := range devices {
		if err := d.Validate(); err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if seen[d.ID] {
			problems = append(problems, fmt.Sprintf("duplicate device ID %q", d.ID))
		}
		seen[d.ID] = true
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid device list: %s", strings.Join(problems, "; "))
	}
	return nil
}

// flopsPerSecond returns this device's throughput for the model's precision
// in FLOP/s. Quantized models fall back to the half-precision figure when no
// entry exists for the storage precision, since dequantized matmuls run in
// half precision. Returns 0 when the device has no usable figure; callers
// treat that as a degenerate (infeasible) device.
func (d DeviceSpec) flopsPerSecond(m ModelSpec) float64 {
	if tf, ok := d.TFlops[m.Precision]; ok && tf > 0 {
		return tf * 1e12
	}
	if m.Quantized {
		for _, p := range []Precision{FP16, BF16, FP32} {
			if tf, ok := d.TFlops[p]; ok && tf > 0 {
				return tf * 1e12
			}
		}
	}
	return 0
}
