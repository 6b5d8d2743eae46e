package config_test

import (
	"testing"

	"github.com/JonathanStorey/gowhisper/internal/config"
)

func TestLoaderDefaults(t *testing.T) {
	loader := config.Loader{Lookup: func(string) (string, bool) { return "", false }}
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.ListenAddr != config.DefaultListenAddr {
		t.Fatalf("expected listen addr %q, got %q", config.DefaultListenAddr, cfg.ListenAddr)
	}
	if cfg.ModelVariant != config.DefaultModel {
		t.Fatalf("expected model variant %q, got %q", config.DefaultModel, cfg.ModelVariant)
	}
	if cfg.Language != config.DefaultLanguage {
		t.Fatalf("expected language %q, got %q", config.DefaultLanguage, cfg.Language)
	}
	if cfg.LogLevel != config.DefaultLogLevel {
		t.Fatalf("expected log level %q, got %q", config.DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.DataDir != config.DefaultDataDir {
		t.Fatalf("expected data dir %q, got %q", config.DefaultDataDir, cfg.DataDir)
	}
	if cfg.ModelPath != "" {
		t.Fatalf("expected empty model path, got %q", cfg.ModelPath)
	}
	if cfg.UseStubEngine {
		t.Fatalf("expected stub engine disabled by default")
	}
	if cfg.Threads != nil {
		t.Fatalf("expected threads default (nil), got %v", *cfg.Threads)
	}
	if cfg.BeamSize != nil {
		t.Fatalf("expected beam size default (nil), got %v", *cfg.BeamSize)
	}
}

func TestLoaderOverrides(t *testing.T) {
	env := map[string]string{
		"GOWHISPER_CONFIG":          `{"model_variant":"small","language":"pl","log_level":"debug","data_dir":"/tmp/data","model_path":"/tmp/models/custom.bin","use_stub_engine":false,"translate":true,"threads":4}`,
		"GOWHISPER_LISTEN_ADDR":     "0.0.0.0:9000",
		"GOWHISPER_LOG_LEVEL":       "warn",
		"GOWHISPER_MODEL_VARIANT":   "medium",
		"GOWHISPER_LANGUAGE":        "en",
		"GOWHISPER_DATA_DIR":        "/var/lib/gowhisper",
		"GOWHISPER_MODEL_PATH":      "/var/lib/gowhisper/models/medium.bin",
		"GOWHISPER_USE_STUB_ENGINE": "true",
		"GOWHISPER_THREADS":         "6",
		"GOWHISPER_BEAM_SIZE":       "5",
	}
	loader := config.Loader{Lookup: func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}}

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:9000" {
		t.Fatalf("listen addr override lost: %q", cfg.ListenAddr)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("env log level should beat JSON payload: %q", cfg.LogLevel)
	}
	if cfg.ModelVariant != "medium" {
		t.Fatalf("env model variant should beat JSON payload: %q", cfg.ModelVariant)
	}
	if cfg.Language != "en" {
		t.Fatalf("env language should beat JSON payload: %q", cfg.Language)
	}
	if cfg.DataDir != "/var/lib/gowhisper" {
		t.Fatalf("env data dir should beat JSON payload: %q", cfg.DataDir)
	}
	if cfg.ModelPath != "/var/lib/gowhisper/models/medium.bin" {
		t.Fatalf("env model path should beat JSON payload: %q", cfg.ModelPath)
	}
	if !cfg.UseStubEngine {
		t.Fatalf("env stub engine override lost")
	}
	if cfg.Translate == nil || !*cfg.Translate {
		t.Fatalf("JSON translate flag lost: %v", cfg.Translate)
	}
	if cfg.Threads == nil || *cfg.Threads != 6 {
		t.Fatalf("env threads should beat JSON payload: %v", cfg.Threads)
	}
	if cfg.BeamSize == nil || *cfg.BeamSize != 5 {
		t.Fatalf("beam size override lost: %v", cfg.BeamSize)
	}
}

func TestLoaderRejectsInvalidPayload(t *testing.T) {
	loader := config.Loader{Lookup: func(key string) (string, bool) {
		if key == "GOWHISPER_CONFIG" {
			return "{not json", true
		}
		return "", false
	}}
	if _, err := loader.Load(); err == nil {
		t.Fatal("expected error for malformed JSON payload")
	}
}

func TestLoaderRejectsInvalidThreads(t *testing.T) {
	loader := config.Loader{Lookup: func(key string) (string, bool) {
		if key == "GOWHISPER_THREADS" {
			return "-2", true
		}
		return "", false
	}}
	if _, err := loader.Load(); err == nil {
		t.Fatal("expected validation error for negative threads")
	}
}

func TestLoaderRejectsInvalidBeamSize(t *testing.T) {
	loader := config.Loader{Lookup: func(key string) (string, bool) {
		if key == "GOWHISPER_BEAM_SIZE" {
			return "0", true
		}
		return "", false
	}}
	if _, err := loader.Load(); err == nil {
		t.Fatal("expected validation error for zero beam size")
	}
}
