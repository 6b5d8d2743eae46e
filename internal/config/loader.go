package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Loader loads configuration from environment variables. Tests can override
// Lookup to inject deterministic maps.
type Loader struct {
	Lookup func(string) (string, bool)
}

// Load retrieves the server configuration from environment variables and
// validates it.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	cfg := Config{
		ListenAddr: DefaultListenAddr,
	}

	if raw, ok := l.Lookup("GOWHISPER_CONFIG"); ok && strings.TrimSpace(raw) != "" {
		if err := applyJSON(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(l.Lookup, "GOWHISPER_LISTEN_ADDR", &cfg.ListenAddr)
	overrideString(l.Lookup, "GOWHISPER_LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "GOWHISPER_MODEL_VARIANT", &cfg.ModelVariant)
	overrideString(l.Lookup, "GOWHISPER_LANGUAGE", &cfg.Language)
	overrideString(l.Lookup, "GOWHISPER_DATA_DIR", &cfg.DataDir)
	overrideString(l.Lookup, "GOWHISPER_MODEL_PATH", &cfg.ModelPath)
	if err := overrideBool(l.Lookup, "GOWHISPER_USE_STUB_ENGINE", &cfg.UseStubEngine); err != nil {
		return Config{}, err
	}
	if err := overrideIntPtr(l.Lookup, "GOWHISPER_THREADS", &cfg.Threads); err != nil {
		return Config{}, err
	}
	if err := overrideIntPtr(l.Lookup, "GOWHISPER_BEAM_SIZE", &cfg.BeamSize); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyJSON(raw string, cfg *Config) error {
	type jsonConfig struct {
		ListenAddr    string `json:"listen_addr"`
		ModelVariant  string `json:"model_variant"`
		Language      string `json:"language"`
		LogLevel      string `json:"log_level"`
		DataDir       string `json:"data_dir"`
		ModelPath     string `json:"model_path"`
		UseStubEngine *bool  `json:"use_stub_engine"`
		Translate     *bool  `json:"translate"`
		Threads       *int   `json:"threads"`
		BeamSize      *int   `json:"beam_size"`
	}
	var payload jsonConfig
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("config: decode GOWHISPER_CONFIG: %w", err)
	}
	if payload.ListenAddr != "" {
		cfg.ListenAddr = payload.ListenAddr
	}
	if payload.ModelVariant != "" {
		cfg.ModelVariant = payload.ModelVariant
	}
	if payload.Language != "" {
		cfg.Language = payload.Language
	}
	if payload.LogLevel != "" {
		cfg.LogLevel = payload.LogLevel
	}
	if payload.DataDir != "" {
		cfg.DataDir = payload.DataDir
	}
	if payload.ModelPath != "" {
		cfg.ModelPath = payload.ModelPath
	}
	if payload.UseStubEngine != nil {
		cfg.UseStubEngine = *payload.UseStubEngine
	}
	if payload.Translate != nil {
		cfg.Translate = payload.Translate
	}
	if payload.Threads != nil {
		cfg.Threads = payload.Threads
	}
	if payload.BeamSize != nil {
		cfg.BeamSize = payload.BeamSize
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if lookup == nil || target == nil {
		return
	}
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func overrideIntPtr(lookup func(string) (string, bool), key string, target **int) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}
	*target = &parsed
	return nil
}
