package plan

import (
	"fmt"
)

// Strategy is a parallelism strategy for distributing one inference workload
// across the device sequence. StrategyAuto is a meta-value: the optimizer
// resolves it to a concrete strategy before the analyzer runs.
type Strategy string

const (
	StrategyPipeline   Strategy = "pipeline"
	StrategyTensor     Strategy = "tensor"
	StrategyData       Strategy = "data"
	StrategyExpert     Strategy = "expert"
	StrategySequence   Strategy = "sequence"
	StrategyContext    Strategy = "context"
	StrategyHybridTPPP Strategy = "hybrid_tp_pp"
	StrategyHybridTPDP Strategy = "hybrid_tp_dp"
	StrategyAuto       Strategy = "auto"
)

// ConcreteStrategies is the fixed enumeration the optimizer evaluates, in a
// stable order that also serves as the final ranking tie-break.
var ConcreteStrategies = []Strategy{
	StrategyPipeline,
	StrategyTensor,
	StrategyData,
	StrategyExpert,
	StrategySequence,
	StrategyContext,
	StrategyHybridTPPP,
	StrategyHybridTPDP,
}

// validStrategies is the set of recognized strategy names, including auto.
var validStrategies = map[Strategy]bool{
	StrategyPipeline: true, StrategyTensor: true, StrategyData: true,
	StrategyExpert: true, StrategySequence: true, StrategyContext: true,
	StrategyHybridTPPP: true, StrategyHybridTPDP: true, StrategyAuto: true,
}

// Valid reports whether s is a recognized strategy name.
func (s Strategy) Valid() bool {
	return validStrategies[s]
}

// ParseStrategy converts a user-supplied string into a Strategy.
func ParseStrategy(v string) (Strategy, error) {
	s := Strategy(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown strategy %q (available: %v, auto)", v, ConcreteStrategies)
	}
	return s, nil
}

// Ineligibility returns a non-empty reason when the strategy cannot be
// applied to the given model and device count. Ineligibility is data, not an
// error: a concrete single-strategy request reports it explicitly, and the
// optimizer excludes the strategy from the ranked set.
//
// The estimators themselves handle one-device inputs degenerately for every
// strategy (a single-device tensor split equals a single-device pipeline);
// the >=2 requirements here express that splits and replica sets distribute
// nothing across fewer than two devices.
func (s Strategy) Ineligibility(m ModelSpec, numDevices int) string {
	switch s {
	case StrategyPipeline:
		if numDevices < 1 {
			return "pipeline requires at least one device"
		}
	case StrategyExpert:
		if !m.IsMoE() {
			return "expert parallelism requires a mixture-of-experts model"
		}
		if numDevices < 2 {
			return "expert parallelism requires at least two devices"
		}
	case StrategyTensor, StrategyData, StrategySequence, StrategyContext,
		StrategyHybridTPPP, StrategyHybridTPDP:
		if numDevices < 2 {
			return fmt.Sprintf("%s parallelism requires at least two devices", s)
		}
	case StrategyAuto:
		return "auto is a meta-strategy; resolve it through FindOptimal"
	}
	return ""
}
