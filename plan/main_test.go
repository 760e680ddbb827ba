package plan

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	// Suppress warning logs (ragged configs) during tests.
	// Set DEBUG_TESTS=1 to see full logs: DEBUG_TESTS=1 go test ./plan/... -v
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.ErrorLevel)
	}
	os.Exit(m.Run())
}

// denseModel returns the 7B reference workload used across the tests:
// hidden 4096, 32 layers, 32 heads, fp16, batch 1, seq 2048.
func denseModel() ModelSpec {
	return ModelSpec{
		Name:       "dense-7b",
		ParamsB:    7,
		HiddenSize: 4096,
		NumLayers:  32,
		NumHeads:   32,
		Precision:  FP16,
		BatchSize:  1,
		SeqLen:     2048,
	}
}

// moeModel returns a large mixture-of-experts workload (700B total, 37B
// active, 8 of 256 experts per token).
func moeModel() ModelSpec {
	m := denseModel()
	m.Name = "moe-700b"
	m.ParamsB = 700
	m.HiddenSize = 7168
	m.NumLayers = 61
	m.NumHeads = 128
	m.MoE = &MoEConfig{TotalExperts: 256, ActiveExperts: 8, ActiveParamsB: 37}
	return m
}

// testDevice returns a 24 GB device with 1000 GB/s local bandwidth,
// 64 GB/s network bandwidth, and 80 TFLOPs at fp16.
func testDevice(id string) DeviceSpec {
	return DeviceSpec{
		ID:            id,
		Label:         "test GPU",
		MemoryGB:      24,
		LocalBWGBps:   1000,
		NetworkBWGBps: 64,
		TFlops:        map[Precision]float64{FP16: 80, BF16: 80, FP32: 40},
	}
}

func testDevices(n int) []DeviceSpec {
	out := make([]DeviceSpec, n)
	for i := range out {
		out[i] = testDevice(deviceID(i))
	}
	return out
}

func deviceID(i int) string {
	return string(rune('a'+i)) + "-gpu"
}
