package plan

// shareSet holds the per-device fractions each strategy assigns to a device:
// param and kv are fractions of the RESIDENT parameter and KV-cache bytes
// (replicating strategies assign 1.0 to every replica member), compute is
// the fraction of each phase's FLOPs the device executes, and activation is
// the fraction of the peak activation buffer the device must hold.
type shareSet struct {
	param      []float64
	kv         []float64
	compute    []float64
	activation []float64
}

// layerAssignment splits layerCount contiguous layers across n devices,
// proportional to layer count, with any remainder assigned to the first
// devices in sequence order.
func layerAssignment(layerCount, n int) []int {
	out := make([]int, n)
	base := layerCount / n
	rem := layerCount % n
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}

// layerShares converts a contiguous layer assignment into byte-share
// fractions of the whole model.
func layerShares(layerCount, n int) []float64 {
	counts := layerAssignment(layerCount, n)
	out := make([]float64, n)
	for i, c := range counts {
		out[i] = float64(c) / float64(layerCount)
	}
	return out
}

// uniformShares returns n equal fractions summing to 1.
func uniformShares(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1 / float64(n)
	}
	return out
}

// replicatedShares returns n full shares: every device holds a complete copy.
func replicatedShares(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// groupSizes splits n devices into the given number of contiguous groups,
// remainder to the first groups. Used by the hybrid strategies (two pipeline
// stages resp. two data replicas, tensor groups inside).
func groupSizes(n, groups int) []int {
	if groups > n {
		groups = n
	}
	out := make([]int, groups)
	base := n / groups
	rem := n % groups
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}

// strategyShares computes the partition fractions for every device under the
// given concrete strategy. Single-device inputs degenerate to full shares for
// every strategy.
func strategyShares(s Strategy, m ModelSpec, n int) shareSet {
	if n == 1 {
		full := []float64{1}
		return shareSet{param: full, kv: full, compute: full, activation: full}
	}

	switch s {
	case StrategyPipeline:
		ls := layerShares(m.NumLayers, n)
		// Each stage budgets the peak activation buffer the micro-batch
		// occupies while traversing it.
		return shareSet{param: ls, kv: ls, compute: ls, activation: replicatedShares(n)}

	case StrategyTensor, StrategyExpert:
		u := uniformShares(n)
		return shareSet{param: u, kv: u, compute: u, activation: u}

	case StrategyData, StrategySequence, StrategyContext:
		// Parameters replicate per member; the batch (data) or sequence
		// (sequence/context) dimension splits the cache and the work.
		u := uniformShares(n)
		return shareSet{param: replicatedShares(n), kv: u, compute: u, activation: u}

	case StrategyHybridTPPP:
		// Two pipeline stages, tensor groups inside each stage.
		sizes := groupSizes(n, 2)
		stage := layerShares(m.NumLayers, len(sizes))
		sh := shareSet{activation: uniformShares(n)}
		for gi, size := range sizes {
			for j := 0; j < size; j++ {
				frac := stage[gi] / float64(size)
				sh.param = append(sh.param, frac)
				sh.kv = append(sh.kv, frac)
				sh.compute = append(sh.compute, frac)
			}
		}
		return sh

	case StrategyHybridTPDP:
		// Two data replicas, tensor groups inside each replica: parameters
		// shard within a replica but replicate across replicas; KV cache and
		// work split across both dimensions.
		sizes := groupSizes(n, 2)
		sh := shareSet{activation: uniformShares(n)}
		for _, size := range sizes {
			for j := 0; j < size; j++ {
				sh.param = append(sh.param, 1/float64(size))
				frac := 1 / float64(len(sizes)) / float64(size)
				sh.kv = append(sh.kv, frac)
				sh.compute = append(sh.compute, frac)
			}
		}
		return sh
	}

	// Unreachable for validated concrete strategies; fall back to a uniform
	// split so a misuse still yields finite numbers.
	u := uniformShares(n)
	return shareSet{param: u, kv: u, compute: u, activation: u}
}

// tensorGroupSize returns the size of the tensor-parallel group the device
// at index i belongs to, or 1 when the strategy has no tensor dimension.
// Drives the ring all-reduce traffic model.
func tensorGroupSize(s Strategy, i, n int) int {
	switch s {
	case StrategyTensor:
		return n
	case StrategyHybridTPPP, StrategyHybridTPDP:
		sizes := groupSizes(n, 2)
		if i < sizes[0] {
			return sizes[0]
		}
		return sizes[1]
	}
	return 1
}
