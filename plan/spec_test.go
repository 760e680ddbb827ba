package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelSpecValidate_OK(t *testing.T) {
	require.NoError(t, denseModel().Validate())
	require.NoError(t, moeModel().Validate())
}

func TestModelSpecValidate_CollectsAllProblems(t *testing.T) {
	// GIVEN a model with several invalid fields
	m := ModelSpec{ParamsB: -1, HiddenSize: 0, NumLayers: 32, NumHeads: 32, Precision: FP16, BatchSize: 1, SeqLen: 2048}

	// WHEN validated
	err := m.Validate()

	// THEN all problems appear in one error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ParamsB")
	assert.Contains(t, err.Error(), "HiddenSize")
}

func TestModelSpecValidate_MoEInvariants(t *testing.T) {
	m := moeModel()
	m.MoE.ActiveParamsB = m.ParamsB + 1
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ActiveParamsB")

	m = moeModel()
	m.MoE.ActiveExperts = m.MoE.TotalExperts + 1
	require.Error(t, m.Validate())
}

func TestModelSpecValidate_RaggedHeadsAcceptedWithWarning(t *testing.T) {
	// Hidden size not divisible by head count is a real input: warn, not reject.
	m := denseModel()
	m.HiddenSize = 4100
	m.NumHeads = 3
	require.NoError(t, m.Validate())
}

func TestModelSpecValidate_UnknownPrecision(t *testing.T) {
	m := denseModel()
	m.Precision = "fp64"
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precision")
}

func TestDeviceSpecValidate(t *testing.T) {
	require.NoError(t, testDevice("a").Validate())

	d := testDevice("a")
	d.MemoryGB = -1
	require.Error(t, d.Validate())

	d = testDevice("")
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ID")
}

func TestDeviceSpecValidate_ZeroCapacityAccepted(t *testing.T) {
	// Zero bandwidth/compute is a defined degenerate input, not an error.
	d := testDevice("a")
	d.LocalBWGBps = 0
	d.TFlops = nil
	require.NoError(t, d.Validate())
}

func TestValidateDevices(t *testing.T) {
	require.Error(t, ValidateDevices(nil))

	dup := []DeviceSpec{testDevice("a"), testDevice("a")}
	err := ValidateDevices(dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	require.NoError(t, ValidateDevices(testDevices(3)))
}

func TestFlopsPerSecond_QuantizedFallback(t *testing.T) {
	d := testDevice("a")
	m := denseModel()
	m.Precision = Q4

	// Not quantized and no q4 entry: no usable figure.
	assert.Equal(t, 0.0, d.flopsPerSecond(m))

	// Quantized models run dequantized matmuls at half precision.
	m.Quantized = true
	assert.Equal(t, 80e12, d.flopsPerSecond(m))
}
