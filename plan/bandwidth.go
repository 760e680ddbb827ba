package plan

import (
	"math"
)

// Phase distinguishes the compute-bound prefill pass from the
// bandwidth-bound decode steady state.
type Phase string

const (
	PhasePrefill Phase = "prefill"
	PhaseDecode  Phase = "decode"
)

// DeviceBandwidth is the data-movement requirement one device carries under
// a strategy, for one phase. Bytes are per generated token for decode and
// per full pass for prefill; demand divides them by the phase's latency
// budget. Utilization is demand over the device's rated figure, clamped to
// UtilizationCap for zero-rated devices.
type DeviceBandwidth struct {
	DeviceID string `json:"device_id"`

	LocalBytes       float64 `json:"local_bytes"`
	LocalGBps        float64 `json:"local_gbps"`
	LocalUtilization float64 `json:"local_utilization"`

	NetworkBytes       float64 `json:"network_bytes"`
	NetworkGBps        float64 `json:"network_gbps"`
	NetworkUtilization float64 `json:"network_utilization"`
}

// EstimateBandwidth computes each device's local-memory and network traffic
// for the given phase. Local traffic is the device's parameter and KV-cache
// shards streamed through local memory; network traffic is strategy-specific
// (stage boundaries, all-reduce rings, expert routing).
func EstimateBandwidth(m ModelSpec, devices []DeviceSpec, s Strategy, phase Phase, cfg EngineConfig) []DeviceBandwidth {
	cfg = cfg.withDefaults()
	n := len(devices)
	sh := strategyShares(s, m, n)
	budget := cfg.budget(phase)

	out := make([]DeviceBandwidth, n)
	for i, d := range devices {
		local := m.paramBytes()*sh.param[i] + m.kvCacheBytes()*sh.kv[i]
		if phase == PhaseDecode {
			// A decode step streams the resident shards once for the whole
			// batch; per generated token the cost amortizes across it.
			local /= float64(m.BatchSize)
		}
		network := networkBytes(m, s, i, n, phase, cfg)

		db := DeviceBandwidth{
			DeviceID:     d.ID,
			LocalBytes:   local,
			NetworkBytes: network,
			LocalGBps:    local / budget / 1e9,
			NetworkGBps:  network / budget / 1e9,
		}
		db.LocalUtilization = clampPct(safeDiv(db.LocalGBps, d.LocalBWGBps) * 100)
		db.NetworkUtilization = clampPct(safeDiv(db.NetworkGBps, d.NetworkBWGBps) * 100)
		out[i] = db
	}
	return out
}

// networkBytes returns the inter-device traffic the device at index i moves,
// in bytes per generated token (decode) or per pass (prefill).
func networkBytes(m ModelSpec, s Strategy, i, n int, phase Phase, cfg EngineConfig) float64 {
	if n < 2 {
		return 0
	}

	// Activation tensor crossing device boundaries: batch x hidden x width,
	// times the context length during prefill (the micro-batch carries the
	// full prompt through the stages).
	act := float64(m.BatchSize) * float64(m.HiddenSize) * m.Precision.Bytes()
	if phase == PhasePrefill {
		act *= float64(m.SeqLen)
	}

	switch s {
	case StrategyPipeline:
		// One crossing per stage boundary: interior stages receive and send,
		// the first and last touch a single boundary.
		crossings := 2.0
		if i == 0 || i == n-1 {
			crossings = 1.0
		}
		return act * crossings

	case StrategyTensor, StrategyHybridTPPP, StrategyHybridTPDP:
		g := tensorGroupSize(s, i, n)
		vol := ringAllReduceFactor(g) * act * float64(m.NumLayers)
		if s == StrategyHybridTPPP {
			// The stage boundary still crosses once; each shard sends its
			// slice of the boundary activation.
			vol += act / float64(g)
		}
		return vol

	case StrategyExpert:
		if !m.IsMoE() {
			return 0
		}
		// Routing scatter: every token visits its active experts, whose
		// outputs come back across the expert-holding devices.
		return float64(m.MoE.ActiveExperts) * act / float64(n)

	case StrategyData, StrategySequence, StrategyContext:
		// Gradient-free inference moves nothing between replicas unless the
		// caller requires KV-cache sharing.
		if cfg.KVCacheSharing {
			perToken := 2 * float64(m.HiddenSize) * float64(m.NumLayers) * m.Precision.Bytes() * float64(m.BatchSize) / float64(n)
			if phase == PhasePrefill {
				perToken *= float64(m.SeqLen)
			}
			return perToken
		}
		return 0
	}
	return 0
}

// ringAllReduceFactor is the classic ring all-reduce volume multiplier:
// each member moves 2 x (g-1)/g of the tensor.
func ringAllReduceFactor(g int) float64 {
	if g <= 1 {
		return 0
	}
	return 2 * float64(g-1) / float64(g)
}

// clampPct bounds a utilization percentage into [0, UtilizationCap] and
// normalizes Inf/NaN so degenerate device inputs stay representable.
func clampPct(v float64) float64 {
	if math.IsNaN(v) || v > UtilizationCap || math.IsInf(v, 1) {
		return UtilizationCap
	}
	if v < 0 {
		return 0
	}
	return v
}
