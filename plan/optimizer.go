package plan

import (
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// StrategyOutcome is one evaluated strategy in the optimizer's comparison.
type StrategyOutcome struct {
	Strategy              Strategy       `json:"strategy"`
	Feasible              bool           `json:"feasible"`
	DecodeTokensPerSec    float64        `json:"decode_tokens_per_sec"`
	PrefillTokensPerSec   float64        `json:"prefill_tokens_per_sec"`
	MeanMemoryUtilization float64        `json:"mean_memory_utilization"`
	Bottleneck            BottleneckKind `json:"bottleneck"`
	Report                SystemReport   `json:"report"`
}

// SkippedStrategy records a strategy excluded by the eligibility filter.
type SkippedStrategy struct {
	Strategy Strategy `json:"strategy"`
	Reason   string   `json:"reason"`
}

// OptimizeResult is the ranked comparison across all eligible strategies.
type OptimizeResult struct {
	Winner    SystemReport      `json:"winner"`
	Reasoning []string          `json:"reasoning"`
	Ranked    []StrategyOutcome `json:"ranked"`
	Skipped   []SkippedStrategy `json:"skipped,omitempty"`
}

// FindOptimal evaluates every eligible concrete strategy against the same
// immutable model and device snapshot, ranks the outcomes, and reports the
// winner. Evaluations are independent and run concurrently; each one only
// reads the shared inputs and allocates its own working memory, so the
// ranking is deterministic regardless of scheduling.
func FindOptimal(m ModelSpec, devices []DeviceSpec, cfg EngineConfig) (OptimizeResult, error) {
	if err := m.Validate(); err != nil {
		return OptimizeResult{}, err
	}
	if err := ValidateDevices(devices); err != nil {
		return OptimizeResult{}, err
	}
	cfg = cfg.withDefaults()

	var result OptimizeResult
	var eligible []Strategy
	for _, s := range ConcreteStrategies {
		if reason := s.Ineligibility(m, len(devices)); reason != "" {
			result.Skipped = append(result.Skipped, SkippedStrategy{Strategy: s, Reason: reason})
			continue
		}
		eligible = append(eligible, s)
	}
	if len(eligible) == 0 {
		// Unreachable with a validated device list: pipeline accepts one device.
		return OptimizeResult{}, fmt.Errorf("no strategy is eligible for %d device(s)", len(devices))
	}

	outcomes := make([]StrategyOutcome, len(eligible))
	var g errgroup.Group
	for i, s := range eligible {
		i, s := i, s
		g.Go(func() error {
			report, err := Analyze(m, devices, s, cfg)
			if err != nil {
				return err
			}
			outcomes[i] = StrategyOutcome{
				Strategy:              s,
				Feasible:              report.Feasible,
				DecodeTokensPerSec:    report.DecodeTokensPerSec,
				PrefillTokensPerSec:   report.PrefillTokensPerSec,
				MeanMemoryUtilization: meanMemoryUtilization(report),
				Bottleneck:            report.Bottleneck,
				Report:                report,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return OptimizeResult{}, err
	}

	// Outcomes start in ConcreteStrategies order; the stable sort keeps that
	// order as the final tie-break, so ranking is fully deterministic.
	sort.SliceStable(outcomes, func(a, b int) bool {
		return outcomeLess(outcomes[a], outcomes[b])
	})

	result.Ranked = outcomes
	result.Winner = outcomes[0].Report
	result.Reasoning = reasoningTokens(outcomes)
	return result, nil
}

// outcomeLess is the ranking comparator: infeasible results sort after all
// feasible ones; among feasible results higher decode rate wins, ties by
// lower mean memory utilization; among infeasible results the least
// overcommitted memory wins first, so an all-infeasible run still picks the
// closest-to-fitting strategy.
func outcomeLess(a, b StrategyOutcome) bool {
	if a.Feasible != b.Feasible {
		return a.Feasible
	}
	if !a.Feasible {
		if a.MeanMemoryUtilization != b.MeanMemoryUtilization {
			return a.MeanMemoryUtilization < b.MeanMemoryUtilization
		}
		return a.DecodeTokensPerSec > b.DecodeTokensPerSec
	}
	if a.DecodeTokensPerSec != b.DecodeTokensPerSec {
		return a.DecodeTokensPerSec > b.DecodeTokensPerSec
	}
	return a.MeanMemoryUtilization < b.MeanMemoryUtilization
}

// meanMemoryUtilization aggregates per-device memory utilization.
func meanMemoryUtilization(r SystemReport) float64 {
	if len(r.Devices) == 0 {
		return 0
	}
	utils := make([]float64, len(r.Devices))
	for i, d := range r.Devices {
		utils[i] = d.MemoryUtilization
	}
	return floats.Sum(utils) / float64(len(utils))
}

// reasoningTokens builds the short structured explanation for the winner:
// which resource saturates first, how it fits, and why it beat the rest.
func reasoningTokens(ranked []StrategyOutcome) []string {
	w := ranked[0]
	toks := []string{string(w.Strategy)}

	if w.Feasible {
		toks = append(toks, "feasible", string(w.Bottleneck)+"-bound")
		if len(ranked) > 1 {
			toks = append(toks, "highest-decode-rate")
		}
	} else {
		toks = append(toks, "infeasible", "memory-overcommitted")
		if len(ranked) > 1 {
			toks = append(toks, "lowest-memory-utilization")
		}
	}

	networkLight := true
	for _, d := range w.Report.Devices {
		if d.NetworkBWUtilization >= 5 {
			networkLight = false
			break
		}
	}
	if networkLight && len(w.Report.Devices) > 1 {
		toks = append(toks, "network-light")
	}
	return toks
}
