package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/inferplan/inferplan/plan"
)

const (
	hfBaseURL       = "https://huggingface.co"
	hfConfigFile    = "config.json"
	planCacheDir    = ".inferplan"
	modelConfigsDir = "model_configs"
	httpTimeout     = 30 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// resolveModelConfig finds a HuggingFace config.json for the given model.
// Resolution order: explicit path > cache > HF fetch.
// Returns the path to the config.json file.
func resolveModelConfig(model, explicitPath string) (string, error) {
	// 1. Explicit override takes precedence; accept a file or its folder.
	if explicitPath != "" {
		info, err := os.Stat(explicitPath)
		if err != nil {
			return "", fmt.Errorf("model config %q: %w", explicitPath, err)
		}
		if info.IsDir() {
			return filepath.Join(explicitPath, hfConfigFile), nil
		}
		return explicitPath, nil
	}

	// Sanitize model name for filesystem paths (replace / with -)
	cacheModelID := strings.ReplaceAll(model, "/", "-")

	// 2. Check local cache
	cachePath := filepath.Join(hfCacheDir(cacheModelID), hfConfigFile)
	if _, err := os.Stat(cachePath); err == nil {
		logrus.Infof("using cached config from %s", cachePath)
		return cachePath, nil
	}

	// 3. Try HF fetch
	fetchedPath, err := fetchHFConfig(model, cacheModelID)
	if err == nil {
		logrus.Infof("fetched and cached config for %s", model)
		return fetchedPath, nil
	}

	return "", fmt.Errorf(
		"could not find config.json for model %q.\n"+
			"  Tried: cache (%s), HuggingFace (%s/%s): %v.\n"+
			"  Provide --model-config explicitly",
		model, cachePath, hfBaseURL, model, err,
	)
}

// fetchHFConfig downloads config.json from HuggingFace and caches it locally.
// Supports HF_TOKEN env var for gated models.
func fetchHFConfig(hfRepo, cacheModelID string) (string, error) {
	url := fmt.Sprintf("%s/%s/resolve/main/%s", hfBaseURL, hfRepo, hfConfigFile)
	return fetchHFConfigFromURL(url, cacheModelID)
}

// fetchHFConfigFromURL fetches config.json from the given URL and caches it.
// Extracted for testability (allows injecting test server URLs).
func fetchHFConfigFromURL(url, cacheModelID string) (string, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	// Support gated models via HF_TOKEN
	if token := os.Getenv("HF_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: httpTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		// success, continue
	case http.StatusNotFound:
		return "", fmt.Errorf("not found on HuggingFace (HTTP 404). Check --model spelling. URL: %s", url)
	case http.StatusUnauthorized:
		return "", fmt.Errorf("authentication required (HTTP 401). Set HF_TOKEN env var. URL: %s", url)
	default:
		return "", fmt.Errorf("unexpected HTTP %d from HuggingFace for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	// Write to cache
	cacheDir := hfCacheDir(cacheModelID)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir %s: %w", cacheDir, err)
	}

	cachePath := filepath.Join(cacheDir, hfConfigFile)
	if err := os.WriteFile(cachePath, body, 0o644); err != nil {
		return "", fmt.Errorf("write cache file %s: %w", cachePath, err)
	}

	return cachePath, nil
}

// hfCacheDir returns the cache directory for a given model.
func hfCacheDir(cacheModelID string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, planCacheDir, modelConfigsDir, cacheModelID)
}

// torchDtypeToPrecision maps HF torch_dtype strings onto engine precisions.
// 4-bit container formats imply quantized storage.
var torchDtypeToPrecision = map[string]plan.Precision{
	"float32":  plan.FP32,
	"float16":  plan.FP16,
	"bfloat16": plan.BF16,
	"int8":     plan.INT8,
	"uint8":    plan.INT8,
	"fp8":      plan.INT8,
	"int4":     plan.Q4,
	"nf4":      plan.Q4,
}

// LoadModelSpecFromHFConfig builds a ModelSpec from a HuggingFace
// config.json. The parameter count is approximated from the architecture
// dimensions (config.json carries no total); override with --params-b when
// the exact count matters.
func LoadModelSpecFromHFConfig(path string) (plan.ModelSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return plan.ModelSpec{}, fmt.Errorf("read HF config %q: %w", path, err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return plan.ModelSpec{}, fmt.Errorf("parse HF config JSON: %w", err)
	}

	// Multimodal/composite configs nest the language model under text_config;
	// we "pivot" to the inner map and remember the vision half.
	vision := false
	if _, ok := raw["vision_config"]; ok {
		vision = true
	}
	if textCfg, ok := raw["text_config"].(map[string]any); ok {
		vision = true
		for k, v := range textCfg {
			raw[k] = v
		}
	}

	getInt := func(key string) int {
		if val, ok := raw[key].(float64); ok {
			return int(val)
		}
		return 0
	}

	hidden := getInt("hidden_size")
	layers := getInt("num_hidden_layers")
	heads := getInt("num_attention_heads")
	vocab := getInt("vocab_size")
	intermediate := getInt("intermediate_size")
	if intermediate == 0 {
		intermediate = 4 * hidden
	}

	// Mixtral-style and DeepSeek-style expert fields
	totalExperts := getInt("num_local_experts")
	if totalExperts == 0 {
		totalExperts = getInt("n_routed_experts")
	}
	activeExperts := getInt("num_experts_per_tok")

	precision := plan.FP16
	isQuantized := false
	if dtype, ok := raw["torch_dtype"].(string); ok {
		if p, ok := torchDtypeToPrecision[dtype]; ok {
			precision = p
			isQuantized = p == plan.Q4
		}
	}

	totalB, activeB := approximateParamsB(hidden, layers, vocab, intermediate, totalExperts, activeExperts)

	spec := plan.ModelSpec{
		Name:       strings.TrimSuffix(filepath.Base(filepath.Dir(path)), "/"),
		ParamsB:    totalB,
		HiddenSize: hidden,
		NumLayers:  layers,
		NumHeads:   heads,
		Vision:     vision,
		Precision:  precision,
		Quantized:  isQuantized,
		BatchSize:  1,
		SeqLen:     2048,
	}
	if totalExperts > 0 && activeExperts > 0 {
		spec.MoE = &plan.MoEConfig{
			TotalExperts:  totalExperts,
			ActiveExperts: activeExperts,
			ActiveParamsB: activeB,
		}
	}
	return spec, nil
}

// approximateParamsB estimates total and active parameter counts (billions)
// from architecture dimensions: embeddings in and out, 4*H^2 attention per
// layer, 3*H*I gated MLP per layer, expert MLPs multiplied out for MoE.
func approximateParamsB(hidden, layers, vocab, intermediate, totalExperts, activeExperts int) (totalB, activeB float64) {
	h := float64(hidden)
	emb := 2 * float64(vocab) * h
	attn := 4 * h * h
	mlp := 3 * h * float64(intermediate)

	perLayerTotal := attn + mlp
	perLayerActive := perLayerTotal
	if totalExperts > 0 && activeExperts > 0 {
		perLayerTotal = attn + float64(totalExperts)*mlp
		perLayerActive = attn + float64(activeExperts)*mlp
	}

	totalB = (emb + float64(layers)*perLayerTotal) / 1e9
	activeB = (emb + float64(layers)*perLayerActive) / 1e9
	return totalB, activeB
}
