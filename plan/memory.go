package plan

// DeviceMemory is the memory share one device receives under a strategy.
// All figures are decimal gigabytes (1 GB = 1e9 bytes). Overflow is data,
// never an error: the excess amount is reported and the caller decides
// whether to treat it as a warning or a hard failure.
type DeviceMemory struct {
	DeviceID     string  `json:"device_id"`
	WeightsGB    float64 `json:"weights_gb"`
	KVCacheGB    float64 `json:"kv_cache_gb"`
	ActivationGB float64 `json:"activation_gb"`
	OverheadGB   float64 `json:"overhead_gb"`
	TotalGB      float64 `json:"total_gb"`
	HasOverflow  bool    `json:"has_overflow"`
	ExcessGB     float64 `json:"excess_gb"`
}

// EstimateMemory computes the parameter, KV-cache, and activation memory the
// strategy assigns to each device, plus the fixed framework overhead. Pure:
// inputs are read-only and repeated calls yield identical output.
func EstimateMemory(m ModelSpec, devices []DeviceSpec, s Strategy, cfg EngineConfig) []DeviceMemory {
	cfg = cfg.withDefaults()
	n := len(devices)
	sh := strategyShares(s, m, n)

	paramBytes := m.paramBytes()
	kvBytes := m.kvCacheBytes()
	actBytes := m.activationBytes(cfg.ActivationMultiplier)

	out := make([]DeviceMemory, n)
	for i, d := range devices {
		dm := DeviceMemory{
			DeviceID:     d.ID,
			WeightsGB:    paramBytes * sh.param[i] / 1e9,
			KVCacheGB:    kvBytes * sh.kv[i] / 1e9,
			ActivationGB: actBytes * sh.activation[i] / 1e9,
			OverheadGB:   cfg.FrameworkOverheadGB,
		}
		dm.TotalGB = dm.WeightsGB + dm.KVCacheGB + dm.ActivationGB + dm.OverheadGB
		if dm.TotalGB > d.MemoryGB {
			dm.HasOverflow = true
			dm.ExcessGB = dm.TotalGB - d.MemoryGB
		}
		out[i] = dm
	}
	return out
}
