package plan

import (
	"sort"
)

// Reference specs for known devices. Figures are vendor datasheet peaks:
// memory in decimal GB, local bandwidth is HBM/VRAM bandwidth, network
// bandwidth is the device's effective link to peers (NVLink or PCIe), and
// TFLOPs are dense per-precision peaks. Presets are plain pre-validated
// DeviceSpec values; callers may edit every field after lookup.
var devicePresets = map[string]DeviceSpec{
	"H100-SXM": {
		Label:         "NVIDIA H100 SXM 80GB",
		MemoryGB:      80,
		LocalBWGBps:   3350,
		NetworkBWGBps: 450,
		TFlops: map[Precision]float64{
			FP32: 67, BF16: 989.5, FP16: 989.5, INT8: 1979, Q4: 1979,
		},
	},
	"A100-80": {
		Label:         "NVIDIA A100 SXM 80GB",
		MemoryGB:      80,
		LocalBWGBps:   2039,
		NetworkBWGBps: 300,
		TFlops: map[Precision]float64{
			FP32: 19.5, BF16: 312, FP16: 312, INT8: 624, Q4: 624,
		},
	},
	"A100-40": {
		Label:         "NVIDIA A100 SXM 40GB",
		MemoryGB:      40,
		LocalBWGBps:   1555,
		NetworkBWGBps: 300,
		TFlops: map[Precision]float64{
			FP32: 19.5, BF16: 312, FP16: 312, INT8: 624, Q4: 624,
		},
	},
	"L40S": {
		Label:         "NVIDIA L40S 48GB",
		MemoryGB:      48,
		LocalBWGBps:   864,
		NetworkBWGBps: 32,
		TFlops: map[Precision]float64{
			FP32: 91.6, BF16: 362, FP16: 362, INT8: 733, Q4: 733,
		},
	},
	"RTX-4090": {
		Label:         "NVIDIA GeForce RTX 4090 24GB",
		MemoryGB:      24,
		LocalBWGBps:   1008,
		NetworkBWGBps: 32,
		TFlops: map[Precision]float64{
			FP32: 82.6, BF16: 165.2, FP16: 165.2, INT8: 330.3, Q4: 330.3,
		},
	},
	"MI300X": {
		Label:         "AMD Instinct MI300X 192GB",
		MemoryGB:      192,
		LocalBWGBps:   5300,
		NetworkBWGBps: 448,
		TFlops: map[Precision]float64{
			FP32: 163.4, BF16: 1307.4, FP16: 1307.4, INT8: 2614.9, Q4: 2614.9,
		},
	},
}

// Reference specs for known models. Defaults assume a single interactive
// sequence with a 2048-token context; callers override batch and sequence
// per workload.
var modelPresets = map[string]ModelSpec{
	"llama-3.1-8b": {
		ParamsB: 8.03, HiddenSize: 4096, NumLayers: 32, NumHeads: 32,
		Precision: BF16, BatchSize: 1, SeqLen: 2048,
	},
	"llama-3.1-70b": {
		ParamsB: 70.6, HiddenSize: 8192, NumLayers: 80, NumHeads: 64,
		Precision: BF16, BatchSize: 1, SeqLen: 2048,
	},
	"qwen2.5-7b": {
		ParamsB: 7.62, HiddenSize: 3584, NumLayers: 28, NumHeads: 28,
		Precision: BF16, BatchSize: 1, SeqLen: 2048,
	},
	"mixtral-8x7b": {
		ParamsB: 46.7, HiddenSize: 4096, NumLayers: 32, NumHeads: 32,
		MoE:       &MoEConfig{TotalExperts: 8, ActiveExperts: 2, ActiveParamsB: 12.9},
		Precision: BF16, BatchSize: 1, SeqLen: 2048,
	},
	"deepseek-v3": {
		ParamsB: 671, HiddenSize: 7168, NumLayers: 61, NumHeads: 128,
		MoE:       &MoEConfig{TotalExperts: 256, ActiveExperts: 8, ActiveParamsB: 37},
		Precision: BF16, BatchSize: 1, SeqLen: 2048,
	},
}

// DevicePreset returns a copy of the named device preset with the ID set to
// the preset name. The TFlops map is cloned so callers can edit it freely.
func DevicePreset(name string) (DeviceSpec, bool) {
	d, ok := devicePresets[name]
	if !ok {
		return DeviceSpec{}, false
	}
	d.ID = name
	tf := make(map[Precision]float64, len(d.TFlops))
	for p, v := range d.TFlops {
		tf[p] = v
	}
	d.TFlops = tf
	return d, true
}

// ModelPreset returns a copy of the named model preset with the Name set.
func ModelPreset(name string) (ModelSpec, bool) {
	m, ok := modelPresets[name]
	if !ok {
		return ModelSpec{}, false
	}
	m.Name = name
	if m.MoE != nil {
		moe := *m.MoE
		m.MoE = &moe
	}
	return m, true
}

// DevicePresetNames returns the known device preset names, sorted.
func DevicePresetNames() []string {
	names := make([]string, 0, len(devicePresets))
	for k := range devicePresets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ModelPresetNames returns the known model preset names, sorted.
func ModelPresetNames() []string {
	names := make([]string, 0, len(modelPresets))
	for k := range modelPresets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
