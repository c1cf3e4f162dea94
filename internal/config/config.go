// Package config loads modelserve's environment configuration the way
// the original CLI loads its own: a .env.local file read once via
// godotenv, then plain os.Getenv lookups with documented defaults.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the environment-derived settings shared across
// modelserve's commands.
type Config struct {
	// ModelID is the Hugging Face Hub repo id of the default model to
	// load, e.g. "onnx-community/SmolLM-135M-ONNX".
	ModelID string
	// Dtype selects the ONNX weight file variant ("q4", "fp16", "").
	Dtype string
	// CacheDir is where downloaded Hub files are cached.
	CacheDir string
	// ONNXRuntimeLibPath overrides automatic shared-library discovery
	// when set.
	ONNXRuntimeLibPath string
	// SchedulerVerifyInput controls whether Scheduler.Enqueue runs
	// semantics verification before dispatch.
	SchedulerVerifyInput bool
	// WarmupIterations is how many times a freshly loaded model is run
	// through Model.WarmupJIT before being registered as ready.
	WarmupIterations int
}

// Load reads .env.local (if present, silently ignored otherwise) and
// then builds a Config from the process environment.
func Load() Config {
	_ = godotenv.Load(".env.local")

	return Config{
		ModelID:              getenv("MODEL_ID", "onnx-community/SmolLM-135M-ONNX"),
		Dtype:                getenv("MODEL_DTYPE", "q4"),
		CacheDir:             getenv("CACHE_DIR", "./models"),
		ONNXRuntimeLibPath:   os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"),
		SchedulerVerifyInput: getenvBool("SCHEDULER_VERIFY_INPUT", true),
		WarmupIterations:     getenvInt("WARMUP_ITERATIONS", 1),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
