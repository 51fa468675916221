package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codebuildervaibhav/call-transcription/internal/config"
)

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func TestLoaderDefaults(t *testing.T) {
	loader := config.Loader{
		Path:   filepath.Join(t.TempDir(), "missing.yaml"),
		Lookup: mapLookup(nil),
	}
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8000" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if cfg.Transcription.Language != config.DefaultLanguage {
		t.Fatalf("expected language %q, got %q", config.DefaultLanguage, cfg.Transcription.Language)
	}
	if cfg.Transcription.Backend != "whisper" || cfg.Transcription.ModelPath != "large" {
		t.Fatalf("unexpected transcription defaults: %+v", cfg.Transcription)
	}
	if cfg.Workers.Count != config.DefaultWorkers || cfg.Workers.QueueSize != config.DefaultQueueSize {
		t.Fatalf("unexpected worker defaults: %+v", cfg.Workers)
	}
	if cfg.Fetch.InsecureSkipVerify {
		t.Fatal("TLS verification must be on by default")
	}
	if cfg.MaxFileBytes() != 0 || cfg.FetchTimeout() != 0 {
		t.Fatal("expected no download limits by default")
	}
}

func TestLoaderFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9000
transcription:
  backend: openai
  language: en
  openai_model: whisper-1
workers:
  count: 4
storage:
  temp_dir: /tmp/runs
limits:
  max_file_size_mb: 10
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	loader := config.Loader{
		Path: path,
		Lookup: mapLookup(map[string]string{
			"CALLSCRIBE_PORT":                 "9100",
			"CALLSCRIBE_LANGUAGE":             " ru ",
			"CALLSCRIBE_INSECURE_SKIP_VERIFY": "true",
			"OPENAI_API_KEY":                  "sk-test",
		}),
	}
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("env should override port, got %d", cfg.Server.Port)
	}
	if cfg.Transcription.Language != "ru" || cfg.Transcription.Backend != "openai" {
		t.Fatalf("unexpected transcription: %+v", cfg.Transcription)
	}
	if cfg.Transcription.OpenAIAPIKey != "sk-test" || cfg.Transcription.OpenAIModel != "whisper-1" {
		t.Fatalf("unexpected openai settings: %+v", cfg.Transcription)
	}
	if cfg.Workers.Count != 4 || cfg.Storage.TempDir != "/tmp/runs" {
		t.Fatalf("file values lost: %+v %+v", cfg.Workers, cfg.Storage)
	}
	if !cfg.Fetch.InsecureSkipVerify {
		t.Fatal("expected insecure override")
	}
	if cfg.MaxFileBytes() != 10*1024*1024 {
		t.Fatalf("unexpected max bytes %d", cfg.MaxFileBytes())
	}
}

func TestLoaderRejectsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad port":    {"CALLSCRIBE_PORT": "eighty"},
		"port range":  {"CALLSCRIBE_PORT": "70000"},
		"bad bool":    {"CALLSCRIBE_KEEP_ARTIFACTS": "sometimes"},
		"neg workers": {"CALLSCRIBE_WORKERS": "-1"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			loader := config.Loader{Path: filepath.Join(t.TempDir(), "none.yaml"), Lookup: mapLookup(env)}
			if _, err := loader.Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoaderBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("server: [unterminated"), 0644)

	if _, err := (config.Loader{Path: path, Lookup: mapLookup(nil)}).Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
