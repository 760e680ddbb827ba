package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_Determinism(t *testing.T) {
	// GIVEN one input snapshot
	m := denseModel()
	devices := testDevices(2)

	// WHEN analyzed repeatedly
	first, err := Analyze(m, devices, StrategyTensor, EngineConfig{})
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		again, err := Analyze(m, devices, StrategyTensor, EngineConfig{})
		require.NoError(t, err)

		// THEN every call yields a bit-identical report
		assert.Equal(t, first, again, "call %d", i)
	}
}

func TestAnalyze_Dense7BOnSingleDevice(t *testing.T) {
	// 7B fp16 model on one 24 GB / 1000 GB/s / 80 TFLOPs device: fits with
	// ~14 GB of weights and is bound by memory or compute, never network.
	report, err := Analyze(denseModel(), testDevices(1), StrategyPipeline, EngineConfig{})
	require.NoError(t, err)

	require.Len(t, report.Devices, 1)
	d := report.Devices[0]

	assert.True(t, report.Eligible)
	assert.True(t, report.Feasible)
	assert.False(t, d.HasOverflow)
	assert.InDelta(t, 15.09, d.MemoryUsedGB, 0.05)
	assert.Zero(t, d.NetworkBWRequiredGBps, "single device moves nothing over the network")
	assert.Contains(t, []BottleneckKind{BottleneckMemory, BottleneckCompute}, report.Bottleneck)
	assert.Greater(t, report.DecodeTokensPerSec, 0.0)
	assert.Greater(t, report.PrefillTokensPerSec, 0.0)
}

func TestAnalyze_Dense7BTensorOverTwoDevices(t *testing.T) {
	// The same model split across two 12 GB devices: each holds ~7 GB of
	// weights, the all-reduce shows up on the network, and the combined
	// capacity keeps it feasible.
	devices := testDevices(2)
	devices[0].MemoryGB = 12
	devices[1].MemoryGB = 12

	report, err := Analyze(denseModel(), devices, StrategyTensor, EngineConfig{})
	require.NoError(t, err)

	require.Len(t, report.Devices, 2)
	for _, d := range report.Devices {
		assert.False(t, d.HasOverflow)
		assert.Greater(t, d.NetworkBWRequiredGBps, 0.0)
	}
	assert.True(t, report.Feasible)

	mem := EstimateMemory(denseModel(), devices, StrategyTensor, EngineConfig{})
	assert.InDelta(t, 7.0, mem[0].WeightsGB, 0.01)
}

func TestAnalyze_SingleDeviceDegeneracy(t *testing.T) {
	// With exactly one device, pipeline and tensor cannot partition
	// anything: memory and compute come out identical and nothing crosses
	// the network.
	m := denseModel()
	devices := testDevices(1)

	memPipeline := EstimateMemory(m, devices, StrategyPipeline, EngineConfig{})
	memTensor := EstimateMemory(m, devices, StrategyTensor, EngineConfig{})
	assert.Equal(t, memPipeline, memTensor)

	compPipeline := EstimateCompute(m, devices, StrategyPipeline)
	compTensor := EstimateCompute(m, devices, StrategyTensor)
	assert.Equal(t, compPipeline, compTensor)

	bw := EstimateBandwidth(m, devices, StrategyTensor, PhaseDecode, EngineConfig{})
	assert.Zero(t, bw[0].NetworkGBps)
}

func TestAnalyze_IneligibleStrategyIsReportedNotSubstituted(t *testing.T) {
	// Expert parallelism on one device must come back as an explicit
	// ineligibility result, not silently run as something else.
	report, err := Analyze(moeModel(), testDevices(1), StrategyExpert, EngineConfig{})
	require.NoError(t, err)

	assert.False(t, report.Eligible)
	assert.NotEmpty(t, report.IneligibleReason)
	assert.False(t, report.Feasible)
	assert.Equal(t, BottleneckNone, report.Bottleneck)
	assert.Empty(t, report.Devices)
}

func TestAnalyze_ValidationErrors(t *testing.T) {
	bad := denseModel()
	bad.HiddenSize = 0
	_, err := Analyze(bad, testDevices(1), StrategyPipeline, EngineConfig{})
	require.Error(t, err)

	_, err = Analyze(denseModel(), nil, StrategyPipeline, EngineConfig{})
	require.Error(t, err)

	_, err = Analyze(denseModel(), testDevices(1), Strategy("ring"), EngineConfig{})
	require.Error(t, err)
}

func TestAnalyze_MemoryOverflowIsInfeasibleNotError(t *testing.T) {
	d := testDevice("tiny")
	d.MemoryGB = 4

	report, err := Analyze(denseModel(), []DeviceSpec{d}, StrategyPipeline, EngineConfig{})
	require.NoError(t, err, "infeasibility is the signal, not a failure")

	assert.False(t, report.Feasible)
	assert.True(t, report.Devices[0].HasOverflow)
	assert.Equal(t, BottleneckMemory, report.Bottleneck)
	assert.Greater(t, report.DecodeTokensPerSec, 0.0, "the report stays complete")
}

func TestAnalyze_ZeroBandwidthDeviceIsInfeasible(t *testing.T) {
	// A zero-bandwidth custom device is a defined degenerate input: the
	// utilization clamps to the reported maximum and the verdict is
	// infeasible, with no Inf or NaN anywhere in the report.
	d := testDevice("broken")
	d.LocalBWGBps = 0

	report, err := Analyze(denseModel(), []DeviceSpec{d}, StrategyPipeline, EngineConfig{})
	require.NoError(t, err)

	assert.False(t, report.Feasible)
	assert.Equal(t, UtilizationCap, report.Devices[0].LocalBWUtilization)
	assert.Equal(t, BottleneckLocalBW, report.Bottleneck)
	assert.Zero(t, report.DecodeTokensPerSec)
}

func TestAnalyze_ZeroComputeDeviceIsInfeasible(t *testing.T) {
	d := testDevice("dead")
	d.TFlops = nil

	report, err := Analyze(denseModel(), []DeviceSpec{d}, StrategyPipeline, EngineConfig{})
	require.NoError(t, err)

	assert.False(t, report.Feasible)
	assert.Equal(t, UtilizationCap, report.Devices[0].ComputeUtilization)
	assert.Zero(t, report.DecodeTokensPerSec)
}

func TestAnalyze_DecodeRateGatedBySlowestDevice(t *testing.T) {
	// Pipeline over one fast and one slow device: steady-state throughput
	// follows the slow stage.
	fast := testDevice("fast")
	slow := testDevice("slow")
	slow.LocalBWGBps = 100

	mixed, err := Analyze(denseModel(), []DeviceSpec{fast, slow}, StrategyPipeline, EngineConfig{})
	require.NoError(t, err)
	allFast, err := Analyze(denseModel(), []DeviceSpec{fast, testDevice("fast2")}, StrategyPipeline, EngineConfig{})
	require.NoError(t, err)

	assert.Less(t, mixed.DecodeTokensPerSec, allFast.DecodeTokensPerSec)
}

func TestPickBottleneck_TieBreaksMemoryFirst(t *testing.T) {
	r := DeviceReport{
		MemoryUtilization:    90,
		LocalBWUtilization:   90,
		NetworkBWUtilization: 90,
		ComputeUtilization:   90,
	}
	assert.Equal(t, BottleneckMemory, pickBottleneck(r))

	r.ComputeUtilization = 95
	assert.Equal(t, BottleneckCompute, pickBottleneck(r))
}
