package plan

// BottleneckKind is the binding resource constraint category.
type BottleneckKind string

const (
	BottleneckMemory    BottleneckKind = "memory"
	BottleneckLocalBW   BottleneckKind = "local-bandwidth"
	BottleneckNetworkBW BottleneckKind = "network-bandwidth"
	BottleneckCompute   BottleneckKind = "compute"
	BottleneckNone      BottleneckKind = "none"
)

// bottleneckOrder is the tie-break precedence: memory overflow is the most
// severe constraint, so it wins equal-utilization ties, then local
// bandwidth, network bandwidth, compute.
var bottleneckOrder = []BottleneckKind{
	BottleneckMemory,
	BottleneckLocalBW,
	BottleneckNetworkBW,
	BottleneckCompute,
}

// DeviceReport is the per-device view of one analyzed strategy. Derived,
// never persisted; recomputed on every call. All utilization figures are
// percentages, clamped to UtilizationCap.
type DeviceReport struct {
	DeviceID string `json:"device_id"`
	Label    string `json:"label,omitempty"`

	MemoryUsedGB      float64 `json:"memory_used_gb"`
	MemoryUtilization float64 `json:"memory_utilization"`
	HasOverflow       bool    `json:"has_overflow"`
	ExcessGB          float64 `json:"excess_gb,omitempty"`
	OverflowTarget    string  `json:"overflow_target,omitempty"`

	LocalBWRequiredGBps float64 `json:"local_bw_required_gbps"`
	LocalBWUtilization  float64 `json:"local_bw_utilization"`

	NetworkBWRequiredGBps float64 `json:"network_bw_required_gbps"`
	NetworkBWUtilization  float64 `json:"network_bw_utilization"`

	// ComputeSeconds is the device's decode compute-time contribution per
	// generated token.
	ComputeSeconds     float64 `json:"compute_seconds"`
	ComputeUtilization float64 `json:"compute_utilization"`

	Bottleneck BottleneckKind `json:"bottleneck"`
}

// SystemReport is the aggregate verdict for one (model, devices, strategy)
// input. Infeasibility and ineligibility are fields, not errors: the report
// is always complete, because an infeasible verdict is the primary signal
// this engine exists to surface.
type SystemReport struct {
	Model    string   `json:"model"`
	Strategy Strategy `json:"strategy"`

	Eligible         bool   `json:"eligible"`
	IneligibleReason string `json:"ineligible_reason,omitempty"`

	Feasible   bool           `json:"feasible"`
	Bottleneck BottleneckKind `json:"bottleneck"`

	PrefillTokensPerSec float64 `json:"prefill_tokens_per_sec"`
	DecodeTokensPerSec  float64 `json:"decode_tokens_per_sec"`

	Devices []DeviceReport `json:"devices,omitempty"`
}

// utilizationOf returns the utilization figure for one category.
func (r DeviceReport) utilizationOf(k BottleneckKind) float64 {
	switch k {
	case BottleneckMemory:
		return r.MemoryUtilization
	case BottleneckLocalBW:
		return r.LocalBWUtilization
	case BottleneckNetworkBW:
		return r.NetworkBWUtilization
	case BottleneckCompute:
		return r.ComputeUtilization
	}
	return 0
}

// pickBottleneck selects the category with the highest utilization; ties
// resolve in bottleneckOrder (memory first).
func pickBottleneck(r DeviceReport) BottleneckKind {
	best := BottleneckNone
	bestUtil := -1.0
	for _, k := range bottleneckOrder {
		if u := r.utilizationOf(k); u > bestUtil {
			best = k
			bestUtil = u
		}
	}
	return best
}
