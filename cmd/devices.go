package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inferplan/inferplan/plan"
)

// deviceEntry is one device in the YAML topology file. A preset name pulls
// the built-in reference spec; any explicitly set field overrides it. The
// file's order is the pipeline stage order.
type deviceEntry struct {
	ID     string `yaml:"id"`
	Preset string `yaml:"preset"`
	Label  string `yaml:"label"`

	MemoryGB      *float64 `yaml:"memory_gb"`
	LocalBWGBps   *float64 `yaml:"local_bw_gbps"`
	NetworkBWGBps *float64 `yaml:"network_bw_gbps"`

	TFlops map[string]float64 `yaml:"tflops"`

	OverflowTarget string `yaml:"overflow_target"`
}

// deviceFile is the YAML device topology document.
type deviceFile struct {
	Devices []deviceEntry `yaml:"devices"`
}

// LoadDeviceFile reads and parses a YAML device topology file into an
// ordered, validated device sequence.
func LoadDeviceFile(path string) ([]plan.DeviceSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading device file: %w", err)
	}
	var file deviceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing device file: %w", err)
	}
	if len(file.Devices) == 0 {
		return nil, fmt.Errorf("device file %q defines no devices", path)
	}

	devices := make([]plan.DeviceSpec, 0, len(file.Devices))
	for i, entry := range file.Devices {
		spec, err := entry.toSpec(i)
		if err != nil {
			return nil, fmt.Errorf("device file %q: %w", path, err)
		}
		devices = append(devices, spec)
	}
	if err := plan.ValidateDevices(devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// toSpec merges the entry over its preset (if any) into a DeviceSpec.
func (e deviceEntry) toSpec(index int) (plan.DeviceSpec, error) {
	var spec plan.DeviceSpec
	if e.Preset != "" {
		preset, ok := plan.DevicePreset(e.Preset)
		if !ok {
			return plan.DeviceSpec{}, fmt.Errorf("device %d: unknown preset %q (available: %v)", index, e.Preset, plan.DevicePresetNames())
		}
		spec = preset
	}

	if e.ID != "" {
		spec.ID = e.ID
	} else if spec.ID == "" {
		spec.ID = fmt.Sprintf("device-%d", index)
	}
	if e.Label != "" {
		spec.Label = e.Label
	}
	if e.MemoryGB != nil {
		spec.MemoryGB = *e.MemoryGB
	}
	if e.LocalBWGBps != nil {
		spec.LocalBWGBps = *e.LocalBWGBps
	}
	if e.NetworkBWGBps != nil {
		spec.NetworkBWGBps = *e.NetworkBWGBps
	}
	if len(e.TFlops) > 0 {
		if spec.TFlops == nil {
			spec.TFlops = make(map[plan.Precision]float64, len(e.TFlops))
		}
		for name, tf := range e.TFlops {
			p, err := plan.ParsePrecision(name)
			if err != nil {
				return plan.DeviceSpec{}, fmt.Errorf("device %q: %w", spec.ID, err)
			}
			spec.TFlops[p] = tf
		}
	}
	if e.OverflowTarget != "" {
		spec.OverflowTarget = e.OverflowTarget
	}
	return spec, nil
}

// DevicesFromPresets expands preset names (pipeline stage order) into specs,
// suffixing IDs so repeated presets stay unique.
func DevicesFromPresets(names []string) ([]plan.DeviceSpec, error) {
	devices := make([]plan.DeviceSpec, 0, len(names))
	for i, name := range names {
		preset, ok := plan.DevicePreset(name)
		if !ok {
			return nil, fmt.Errorf("unknown device preset %q (available: %v)", name, plan.DevicePresetNames())
		}
		preset.ID = fmt.Sprintf("%s-%d", name, i)
		devices = append(devices, preset)
	}
	if err := plan.ValidateDevices(devices); err != nil {
		return nil, err
	}
	return devices, nil
}
