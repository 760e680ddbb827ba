// Package plan provides the core resource-estimation and bottleneck-detection
// engine for distributed LLM inference capacity planning.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - modelspec.go / devicespec.go: the normalized workload and hardware inputs
//   - strategy.go: parallelism strategies and how each one partitions work
//   - analyzer.go: the fusion of memory, compute, and bandwidth estimates into
//     per-device reports, bottleneck categories, and token rates
//
// # Architecture
//
// The engine is a set of pure functions over immutable value inputs:
//   - EstimateMemory: parameter, KV-cache, and activation memory per device
//   - EstimateCompute: prefill/decode FLOPs and per-device compute time
//   - EstimateBandwidth: local HBM and inter-device traffic demand per phase
//   - Analyze: one strategy -> SystemReport (feasibility is data, not error)
//   - FindOptimal: every eligible strategy -> ranked comparison + winner
//
// Nothing here performs I/O, caches state, or mutates its inputs. Repeated
// calls with identical inputs produce bit-identical reports, and concurrent
// calls need no synchronization. Infeasible configurations (memory overflow,
// saturated bandwidth, zero-capacity devices) always yield a complete report;
// only malformed input (non-positive dimensions, empty device list) returns
// an error.
package plan
