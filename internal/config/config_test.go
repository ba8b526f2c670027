package config_test

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reel/internal/config"
)

func TestLoadDefaultsUseEnvKeysAndExpandPaths(t *testing.T) {
	t.Setenv("REEL_LLM_API_KEY", "llm-key")
	t.Setenv("REEL_SPEECH_API_KEY", "speech-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "reel")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.LogDir != filepath.Join(wantData, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.LLM.APIKey != "llm-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Speech.APIKey != "speech-key" {
		t.Fatalf("expected speech key from env, got %q", cfg.Speech.APIKey)
	}
	if cfg.Imagery.Enabled {
		t.Fatal("expected imagery disabled by default")
	}
	if cfg.LLM.BaseURL != config.Default().LLM.BaseURL {
		t.Fatalf("unexpected llm base url: %q", cfg.LLM.BaseURL)
	}
	if cfg.SessionsDir() != filepath.Join(wantData, "sessions") {
		t.Fatalf("unexpected sessions dir: %q", cfg.SessionsDir())
	}
}

func TestDefaultSpeechBaseURLCarriesNoAPIPath(t *testing.T) {
	// The speech and imagery clients append /v1 themselves; a default that
	// already ends in an API path would double the segment on every request.
	base := config.Default().Speech.BaseURL
	parsed, err := url.Parse(base)
	if err != nil {
		t.Fatalf("parse default speech base url: %v", err)
	}
	if parsed.Path != "" {
		t.Fatalf("default speech base url %q must be host-only, has path %q", base, parsed.Path)
	}
}

func TestLoadParsesFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reel.toml")
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[logging]",
		`format = "json"`,
		`level = "debug"`,
		"[llm]",
		`api_key = "abc"`,
		`model = "test/model"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q %v", resolved, exists)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.LLM.Model != "test/model" {
		t.Fatalf("unexpected model: %q", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "abc" {
		t.Fatalf("unexpected api key: %q", cfg.LLM.APIKey)
	}
	if cfg.Speech.Voice == "" {
		t.Fatal("expected default speech voice to survive overrides")
	}
}

func TestValidateRejectsBadLogging(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad format", func(c *config.Config) { c.Logging.Format = "yaml" }},
		{"bad level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"missing llm model", func(c *config.Config) { c.LLM.Model = "" }},
		{"missing speech voice", func(c *config.Config) { c.Speech.Voice = "" }},
		{"imagery enabled without base url", func(c *config.Config) { c.Imagery.Enabled = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Logging.Format = "console"
			cfg.Logging.Level = "info"
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Logging.Format != "auto" {
		t.Fatalf("unexpected sample format: %q", cfg.Logging.Format)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, want := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.SessionsDir()} {
		info, err := os.Stat(want)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", want, err)
		}
	}
}
