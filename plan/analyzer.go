package plan

import (
	"fmt"
	"math"
)

// Analyze runs the memory, compute, and bandwidth models once each for a
// concrete strategy and fuses them into per-device reports plus the system
// verdict. Pure composition over read-only inputs: repeated calls with
// identical arguments yield bit-identical reports.
//
// Errors are reserved for malformed input (validation). An ineligible
// strategy (e.g. tensor parallelism on one device) is reported explicitly
// in the returned SystemReport, never silently substituted; infeasibility
// (memory overflow, zero-capacity devices) is likewise data.
func Analyze(m ModelSpec, devices []DeviceSpec, s Strategy, cfg EngineConfig) (SystemReport, error) {
	if err := m.Validate(); err != nil {
		return SystemReport{}, err
	}
	if err := ValidateDevices(devices); err != nil {
		return SystemReport{}, err
	}
	if !s.Valid() {
		return SystemReport{}, fmt.Errorf("unknown strategy %q (available: %v, auto)", s, ConcreteStrategies)
	}
	cfg = cfg.withDefaults()

	report := SystemReport{
		Model:    m.Name,
		Strategy: s,
		Eligible: true,
	}
	if reason := s.Ineligibility(m, len(devices)); reason != "" {
		report.Eligible = false
		report.IneligibleReason = reason
		report.Bottleneck = BottleneckNone
		return report, nil
	}

	mem := EstimateMemory(m, devices, s, cfg)
	comp := EstimateCompute(m, devices, s)
	bwDecode := EstimateBandwidth(m, devices, s, PhaseDecode, cfg)
	bwPrefill := EstimateBandwidth(m, devices, s, PhasePrefill, cfg)

	n := len(devices)
	decodeTimes := make([]float64, n)
	prefillTimes := make([]float64, n)
	for i, d := range devices {
		decodeTimes[i] = maxTime(
			comp.DecodeSecondsPerToken[i],
			safeDiv(bwDecode[i].LocalBytes, d.LocalBWGBps*1e9),
			safeDiv(bwDecode[i].NetworkBytes, d.NetworkBWGBps*1e9),
		)
		prefillTimes[i] = maxTime(
			comp.PrefillSeconds[i],
			safeDiv(bwPrefill[i].LocalBytes, d.LocalBWGBps*1e9),
			safeDiv(bwPrefill[i].NetworkBytes, d.NetworkBWGBps*1e9),
		)
	}
	computeUtil := relativeUtilization(comp.DecodeSecondsPerToken)

	degenerate := false
	anyOverflow := false
	report.Devices = make([]DeviceReport, n)
	for i, d := range devices {
		dr := DeviceReport{
			DeviceID:       d.ID,
			Label:          d.Label,
			OverflowTarget: d.OverflowTarget,

			MemoryUsedGB:      mem[i].TotalGB,
			MemoryUtilization: clampPct(safeDiv(mem[i].TotalGB, d.MemoryGB) * 100),
			HasOverflow:       mem[i].HasOverflow,
			ExcessGB:          mem[i].ExcessGB,

			LocalBWRequiredGBps: bwDecode[i].LocalGBps,
			LocalBWUtilization:  bwDecode[i].LocalUtilization,

			NetworkBWRequiredGBps: bwDecode[i].NetworkGBps,
			NetworkBWUtilization:  bwDecode[i].NetworkUtilization,

			ComputeSeconds:     clampFinite(comp.DecodeSecondsPerToken[i]),
			ComputeUtilization: computeUtil[i],
		}
		dr.Bottleneck = pickBottleneck(dr)
		report.Devices[i] = dr

		anyOverflow = anyOverflow || dr.HasOverflow
		if math.IsInf(decodeTimes[i], 1) || math.IsInf(prefillTimes[i], 1) {
			degenerate = true
		}
	}

	// The slowest required stage or shard gates steady-state throughput.
	report.DecodeTokensPerSec = rateFrom(maxOf(decodeTimes), 1)
	report.PrefillTokensPerSec = rateFrom(maxOf(prefillTimes), float64(m.BatchSize)*float64(m.SeqLen))

	report.Feasible = !anyOverflow && !degenerate
	report.Bottleneck = systemBottleneck(report.Devices)
	return report, nil
}

// systemBottleneck is the category of the globally highest per-device
// utilization, with ties resolved in bottleneckOrder and then by device
// sequence order.
func systemBottleneck(devices []DeviceReport) BottleneckKind {
	best := BottleneckNone
	bestUtil := -1.0
	for _, k := range bottleneckOrder {
		for _, d := range devices {
			if u := d.utilizationOf(k); u > bestUtil {
				best = k
				bestUtil = u
			}
		}
	}
	return best
}

func maxTime(values ...float64) float64 {
	out := 0.0
	for _, v := range values {
		if v > out {
			out = v
		}
	}
	return out
}

func maxOf(values []float64) float64 {
	return maxTime(values...)
}

// rateFrom converts a gating time into a token rate: tokens per gate
// duration, zero for infinite or non-positive gates.
func rateFrom(gate, tokens float64) float64 {
	if gate <= 0 || math.IsInf(gate, 1) {
		return 0
	}
	return tokens / gate
}

// clampFinite replaces an infinite time with 0 so reports stay serializable;
// the degenerate flag and UtilizationCap carry the signal instead.
func clampFinite(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
