package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferplan/inferplan/plan"
)

var (
	// CLI flags shared by estimate and optimize
	logLevel         string   // Log verbosity level
	jsonOutput       bool     // Emit reports as JSON instead of text tables
	devicesFile      string   // YAML device topology file
	gpuPresets       []string // Device preset names, in pipeline stage order
	engineConfigFile string   // YAML engine tuning file

	// CLI flags for model selection
	modelPreset     string  // Built-in model preset name
	modelConfigPath string  // HuggingFace config.json path (file or folder)
	modelName       string  // Model name, also used for HF config resolution
	paramsB         float64 // Total parameter count (billions)
	hiddenSize      int     // Hidden dimension
	numLayers       int     // Transformer layer count
	numHeads        int     // Attention head count
	precisionFlag   string  // Parameter precision
	quantized       bool    // Parameters stored quantized
	batchSize       int     // Concurrent sequences
	seqLen          int     // Prefill context length
	moeActiveB      float64 // MoE active parameter count (billions)
	moeTotalExperts int     // MoE total expert count
	moeActiveExpert int     // MoE active experts per token

	// CLI flag for estimate only
	strategyFlag string // Parallelism strategy, or "auto"
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "inferplan",
	Short: "Capacity planner for distributed LLM inference",
	Long: "inferplan estimates whether an LLM inference workload fits a set of\n" +
		"heterogeneous devices, where the binding resource constraint lies, and\n" +
		"which parallelism strategy serves it best.",
}

// setupLogging applies the --log flag before any command runs.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// estimateCmd analyzes a single strategy (or routes "auto" to the optimizer).
var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate utilization and feasibility for one strategy",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		model := resolveModelSpec()
		devices := resolveDevices()
		cfg := resolveEngineConfig()

		strategy, err := plan.ParseStrategy(strategyFlag)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		if strategy == plan.StrategyAuto {
			result, err := plan.FindOptimal(model, devices, cfg)
			if err != nil {
				logrus.Fatalf("optimize: %v", err)
			}
			printOptimizeResult(os.Stdout, result, jsonOutput)
			return
		}

		report, err := plan.Analyze(model, devices, strategy, cfg)
		if err != nil {
			logrus.Fatalf("analyze: %v", err)
		}
		printSystemReport(os.Stdout, report, jsonOutput)
	},
}

// optimizeCmd evaluates every eligible strategy and prints the ranked set.
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Rank all eligible strategies and report the winner",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		model := resolveModelSpec()
		devices := resolveDevices()
		cfg := resolveEngineConfig()

		result, err := plan.FindOptimal(model, devices, cfg)
		if err != nil {
			logrus.Fatalf("optimize: %v", err)
		}
		printOptimizeResult(os.Stdout, result, jsonOutput)
	},
}

// presetsCmd lists the built-in model and device presets.
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in model and device presets",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		printPresets(os.Stdout)
	},
}

// resolveEngineConfig loads the tuning file, or returns the defaults.
func resolveEngineConfig() plan.EngineConfig {
	if engineConfigFile == "" {
		return plan.DefaultEngineConfig()
	}
	cfg, err := plan.LoadEngineConfig(engineConfigFile)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	return cfg
}

// resolveDevices builds the ordered device sequence from --devices or --gpu.
func resolveDevices() []plan.DeviceSpec {
	if devicesFile != "" {
		devices, err := LoadDeviceFile(devicesFile)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		return devices
	}
	if len(gpuPresets) == 0 {
		logrus.Fatalf("No devices given. Provide --devices <file.yaml> or --gpu <preset>.")
	}
	devices, err := DevicesFromPresets(gpuPresets)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	return devices
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	for _, c := range []*cobra.Command{estimateCmd, optimizeCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "Emit the report as JSON")
		c.Flags().StringVar(&devicesFile, "devices", "", "YAML device topology file")
		c.Flags().StringSliceVar(&gpuPresets, "gpu", nil, "Device preset name, repeatable; order encodes pipeline stage order ("+strings.Join(plan.DevicePresetNames(), ", ")+")")
		c.Flags().StringVar(&engineConfigFile, "engine-config", "", "YAML engine tuning file (activation multiplier, overhead, budgets)")

		c.Flags().StringVar(&modelPreset, "model-preset", "", "Built-in model preset ("+strings.Join(plan.ModelPresetNames(), ", ")+")")
		c.Flags().StringVar(&modelConfigPath, "model-config", "", "Path to a HuggingFace config.json (file or folder)")
		c.Flags().StringVar(&modelName, "model", "", "Model name; resolves the HuggingFace config when no preset or path is given")
		c.Flags().Float64Var(&paramsB, "params-b", 0, "Total parameter count in billions")
		c.Flags().IntVar(&hiddenSize, "hidden-size", 0, "Hidden dimension")
		c.Flags().IntVar(&numLayers, "layers", 0, "Transformer layer count")
		c.Flags().IntVar(&numHeads, "heads", 0, "Attention head count")
		c.Flags().StringVar(&precisionFlag, "precision", "", "Parameter precision ("+strings.Join(plan.PrecisionNames(), ", ")+")")
		c.Flags().BoolVar(&quantized, "quantized", false, "Parameters stored quantized (affects storage size, not FLOPs)")
		c.Flags().IntVar(&batchSize, "batch", 0, "Concurrent sequences")
		c.Flags().IntVar(&seqLen, "seq-len", 0, "Prefill context length in tokens")
		c.Flags().Float64Var(&moeActiveB, "moe-active-params-b", 0, "MoE active parameter count in billions")
		c.Flags().IntVar(&moeTotalExperts, "moe-total-experts", 0, "MoE total expert count")
		c.Flags().IntVar(&moeActiveExpert, "moe-active-experts", 0, "MoE active experts per token")
	}
	estimateCmd.Flags().StringVar(&strategyFlag, "strategy", "auto", "Parallelism strategy (pipeline, tensor, data, expert, sequence, context, hybrid_tp_pp, hybrid_tp_dp, auto)")

	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(presetsCmd)
}
