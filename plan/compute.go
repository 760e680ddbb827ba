package plan

import (
	"math"
)

// ComputeEstimate holds the FLOP counts and per-device compute times for one
// strategy. Times are seconds; decode times are per generated token. A
// zero-compute device yields +Inf here, which the analyzer clamps into a
// reported maximum before anything reaches the caller.
type ComputeEstimate struct {
	PrefillFlops        float64
	DecodeFlopsPerToken float64

	PrefillSeconds        []float64
	DecodeSecondsPerToken []float64
}

// EstimateCompute computes the inference-only FLOP counts and each device's
// compute-time contribution under the strategy's work partition.
//
// Prefill is the standard forward-pass estimate 2 x params x seqLen; decode
// is 2 x params per generated token (one token per step, context already
// resident). MoE models use the active parameter count exclusively; the
// quantized flag never changes FLOP counts.
func EstimateCompute(m ModelSpec, devices []DeviceSpec, s Strategy) ComputeEstimate {
	n := len(devices)
	sh := strategyShares(s, m, n)

	est := ComputeEstimate{
		PrefillFlops:          2 * m.activeParams() * float64(m.SeqLen),
		DecodeFlopsPerToken:   2 * m.activeParams(),
		PrefillSeconds:        make([]float64, n),
		DecodeSecondsPerToken: make([]float64, n),
	}
	for i, d := range devices {
		fps := d.flopsPerSecond(m)
		est.PrefillSeconds[i] = safeDiv(est.PrefillFlops*sh.compute[i], fps)
		est.DecodeSecondsPerToken[i] = safeDiv(est.DecodeFlopsPerToken*sh.compute[i], fps)
	}
	return est
}

// safeDiv divides num by den with the degenerate cases defined explicitly:
// zero work on a zero-capacity device takes zero time, positive work on a
// zero-capacity device takes forever. No NaN ever escapes.
func safeDiv(num, den float64) float64 {
	if den <= 0 {
		if num <= 0 {
			return 0
		}
		return math.Inf(1)
	}
	return num / den
}

// relativeUtilization converts per-device times into percentages of the
// slowest device's time: the critical-path device shows 100, everyone else
// shows their busy fraction (idle slack is the remainder). Devices with
// infinite time clamp to UtilizationCap; finite devices alongside an
// infinite one report 0, since they idle forever waiting on it.
func relativeUtilization(times []float64) []float64 {
	maxT := 0.0
	anyInf := false
	for _, t := range times {
		if math.IsInf(t, 1) {
			anyInf = true
		} else if t > maxT {
			maxT = t
		}
	}
	out := make([]float64, len(times))
	for i, t := range times {
		switch {
		case math.IsInf(t, 1):
			out[i] = UtilizationCap
		case anyInf || maxT <= 0:
			out[i] = 0
		default:
			out[i] = t / maxT * 100
		}
	}
	return out
}
