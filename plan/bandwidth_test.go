package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateBandwidth_SingleDeviceHasNoNetworkTraffic(t *testing.T) {
	m := denseModel()
	for _, s := range ConcreteStrategies {
		bw := EstimateBandwidth(m, testDevices(1), s, PhaseDecode, EngineConfig{})
		require.Len(t, bw, 1)
		assert.Zero(t, bw[0].NetworkBytes, "strategy %s", s)
		assert.Zero(t, bw[0].NetworkGBps, "strategy %s", s)
	}
}

func TestEstimateBandwidth_LocalDemandIsShardsOverBudget(t *testing.T) {
	m := denseModel()
	bw := EstimateBandwidth(m, testDevices(1), StrategyPipeline, PhaseDecode, EngineConfig{})

	// One decode token streams the full resident weights plus KV cache
	// through local memory, against the default 50 ms/token budget.
	wantBytes := m.paramBytes() + m.kvCacheBytes()
	assert.InDelta(t, wantBytes, bw[0].LocalBytes, 1)
	assert.InDelta(t, wantBytes/DefaultDecodeBudgetSeconds/1e9, bw[0].LocalGBps, 1e-6)
	assert.InDelta(t, bw[0].LocalGBps/1000*100, bw[0].LocalUtilization, 1e-6)
}

func TestEstimateBandwidth_TensorAllReduceTraffic(t *testing.T) {
	m := denseModel()
	bw := EstimateBandwidth(m, testDevices(2), StrategyTensor, PhaseDecode, EngineConfig{})

	// Ring all-reduce: 2 x (g-1)/g of the activation per layer, per device.
	act := float64(m.BatchSize*m.HiddenSize) * m.Precision.Bytes()
	want := 2 * 0.5 * act * float64(m.NumLayers)
	for _, db := range bw {
		assert.InDelta(t, want, db.NetworkBytes, 1)
		assert.Greater(t, db.NetworkGBps, 0.0)
	}
}

func TestEstimateBandwidth_PipelineBoundaryCrossings(t *testing.T) {
	m := denseModel()
	bw := EstimateBandwidth(m, testDevices(3), StrategyPipeline, PhaseDecode, EngineConfig{})

	act := float64(m.BatchSize*m.HiddenSize) * m.Precision.Bytes()
	assert.InDelta(t, act, bw[0].NetworkBytes, 1, "first stage: one boundary")
	assert.InDelta(t, 2*act, bw[1].NetworkBytes, 1, "interior stage: two boundaries")
	assert.InDelta(t, act, bw[2].NetworkBytes, 1, "last stage: one boundary")
}

func TestEstimateBandwidth_PrefillCarriesTheContext(t *testing.T) {
	m := denseModel()
	decode := EstimateBandwidth(m, testDevices(2), StrategyPipeline, PhaseDecode, EngineConfig{})
	prefill := EstimateBandwidth(m, testDevices(2), StrategyPipeline, PhasePrefill, EngineConfig{})

	assert.InDelta(t, float64(m.SeqLen)*decode[0].NetworkBytes, prefill[0].NetworkBytes, 1)
}

func TestEstimateBandwidth_ExpertRoutingTraffic(t *testing.T) {
	m := moeModel()
	bw := EstimateBandwidth(m, testDevices(4), StrategyExpert, PhaseDecode, EngineConfig{})

	act := float64(m.BatchSize*m.HiddenSize) * m.Precision.Bytes()
	want := float64(m.MoE.ActiveExperts) * act / 4
	for _, db := range bw {
		assert.InDelta(t, want, db.NetworkBytes, 1)
	}
}

func TestEstimateBandwidth_DataStrategiesMoveNothingByDefault(t *testing.T) {
	m := denseModel()
	for _, s := range []Strategy{StrategyData, StrategySequence, StrategyContext} {
		bw := EstimateBandwidth(m, testDevices(2), s, PhaseDecode, EngineConfig{})
		for _, db := range bw {
			assert.Zero(t, db.NetworkBytes, "strategy %s", s)
		}

		shared := EstimateBandwidth(m, testDevices(2), s, PhaseDecode, EngineConfig{KVCacheSharing: true})
		for _, db := range shared {
			assert.Greater(t, db.NetworkBytes, 0.0, "strategy %s with KV sharing", s)
		}
	}
}

func TestEstimateBandwidth_ZeroRatedBandwidthClampsUtilization(t *testing.T) {
	m := denseModel()
	d := testDevice("slow")
	d.LocalBWGBps = 0

	bw := EstimateBandwidth(m, []DeviceSpec{d}, StrategyPipeline, PhaseDecode, EngineConfig{})
	assert.Equal(t, UtilizationCap, bw[0].LocalUtilization)
}

func TestRingAllReduceFactor(t *testing.T) {
	assert.Equal(t, 0.0, ringAllReduceFactor(1))
	assert.InDelta(t, 1.0, ringAllReduceFactor(2), 1e-9)
	assert.InDelta(t, 1.5, ringAllReduceFactor(4), 1e-9)
}
