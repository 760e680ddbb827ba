package cmd

import (
	"github.com/sirupsen/logrus"

	"github.com/inferplan/inferplan/plan"
)

// resolveModelSpec builds the ModelSpec from CLI input. Resolution order for
// the base spec: --model-config path > --model-preset > --model (HF config
// resolution) > flags only. Explicit flags then override base fields, so a
// preset can be reshaped (different batch, sequence length, precision)
// without a config file.
func resolveModelSpec() plan.ModelSpec {
	var model plan.ModelSpec

	switch {
	case modelConfigPath != "" || modelName != "":
		path, err := resolveModelConfig(modelName, modelConfigPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		model, err = LoadModelSpecFromHFConfig(path)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if modelName != "" {
			model.Name = modelName
		}
	case modelPreset != "":
		var ok bool
		model, ok = plan.ModelPreset(modelPreset)
		if !ok {
			logrus.Fatalf("Unknown model preset %q (available: %v)", modelPreset, plan.ModelPresetNames())
		}
	default:
		// Flags-only model; validation below reports anything missing.
		model = plan.ModelSpec{Name: "custom", Precision: plan.FP16, BatchSize: 1, SeqLen: 2048}
	}

	applyModelOverrides(&model)

	if err := model.Validate(); err != nil {
		logrus.Fatalf("%v", err)
	}
	return model
}

// applyModelOverrides folds set flags over the base spec.
func applyModelOverrides(model *plan.ModelSpec) {
	if paramsB > 0 {
		model.ParamsB = paramsB
	}
	if hiddenSize > 0 {
		model.HiddenSize = hiddenSize
	}
	if numLayers > 0 {
		model.NumLayers = numLayers
	}
	if numHeads > 0 {
		model.NumHeads = numHeads
	}
	if precisionFlag != "" {
		p, err := plan.ParsePrecision(precisionFlag)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		model.Precision = p
	}
	if quantized {
		model.Quantized = true
	}
	if batchSize > 0 {
		model.BatchSize = batchSize
	}
	if seqLen > 0 {
		model.SeqLen = seqLen
	}
	if moeActiveB > 0 || moeTotalExperts > 0 || moeActiveExpert > 0 {
		if model.MoE == nil {
			model.MoE = &plan.MoEConfig{}
		}
		if moeActiveB > 0 {
			model.MoE.ActiveParamsB = moeActiveB
		}
		if moeTotalExperts > 0 {
			model.MoE.TotalExperts = moeTotalExperts
		}
		if moeActiveExpert > 0 {
			model.MoE.ActiveExperts = moeActiveExpert
		}
	}
}
