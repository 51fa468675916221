package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config/config.yaml"
	DefaultHost       = "0.0.0.0"
	DefaultPort       = 8000
	DefaultLanguage   = "ru"
	DefaultBackend    = "whisper"
	DefaultModel      = "large"
	DefaultWorkers    = 2
	DefaultQueueSize  = 100
	DefaultTempDir    = "temp"
	DefaultOutputDir  = "outputs"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Transcription struct {
		Backend   string `yaml:"backend"` // whisper | openai
		Language  string `yaml:"language"`
		ModelPath string `yaml:"model_path"`
		Python    string `yaml:"python"`
		Device    string `yaml:"device"`
		Threads   int    `yaml:"threads"`

		OpenAIBaseURL  string `yaml:"openai_base_url"`
		OpenAIAPIKey   string `yaml:"openai_api_key"`
		OpenAIModel    string `yaml:"openai_model"`
		TimeoutMinutes int    `yaml:"timeout_minutes"`
	} `yaml:"transcription"`

	Audio struct {
		FFmpegBinary string `yaml:"ffmpeg_binary"`
		SoxBinary    string `yaml:"sox_binary"`
	} `yaml:"audio"`

	Fetch struct {
		TimeoutSeconds     int  `yaml:"timeout_seconds"`
		InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
	} `yaml:"fetch"`

	Workers struct {
		Count     int `yaml:"count"`
		QueueSize int `yaml:"queue_size"`
	} `yaml:"workers"`

	Storage struct {
		TempDir       string `yaml:"temp_dir"`
		OutputDir     string `yaml:"output_dir"`
		KeepArtifacts bool   `yaml:"keep_artifacts"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb"`
	} `yaml:"limits"`
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// TranscriptionTimeout is how long a remote transcription request may take
func (c *Config) TranscriptionTimeout() time.Duration {
	return time.Duration(c.Transcription.TimeoutMinutes) * time.Minute
}

// FetchTimeout bounds a recording download; zero means no limit
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// MaxFileBytes is the download size limit; zero means no limit
func (c *Config) MaxFileBytes() int64 {
	return int64(c.Limits.MaxFileSizeMB) * 1024 * 1024
}

// Validate applies defaults and rejects out-of-range values
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: port out of range: %d", c.Server.Port)
	}
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = DefaultBackend
	}
	if c.Transcription.Language == "" {
		c.Transcription.Language = DefaultLanguage
	}
	if c.Transcription.ModelPath == "" {
		c.Transcription.ModelPath = DefaultModel
	}
	if c.Transcription.Threads < 0 {
		return fmt.Errorf("config: threads must be >= 0, got %d", c.Transcription.Threads)
	}
	if c.Workers.Count == 0 {
		c.Workers.Count = DefaultWorkers
	}
	if c.Workers.Count < 0 {
		return fmt.Errorf("config: worker count must be >= 1, got %d", c.Workers.Count)
	}
	if c.Workers.QueueSize <= 0 {
		c.Workers.QueueSize = DefaultQueueSize
	}
	if c.Storage.TempDir == "" {
		c.Storage.TempDir = DefaultTempDir
	}
	if c.Storage.OutputDir == "" {
		c.Storage.OutputDir = DefaultOutputDir
	}
	if c.Cleanup.IntervalMinutes <= 0 {
		c.Cleanup.IntervalMinutes = 60
	}
	if c.Cleanup.MaxAgeHours <= 0 {
		c.Cleanup.MaxAgeHours = 24
	}
	if c.GoogleDrive.FolderName == "" {
		c.GoogleDrive.FolderName = "Call Transcripts"
	}
	if c.Limits.MaxFileSizeMB < 0 {
		return fmt.Errorf("config: max_file_size_mb must be >= 0, got %d", c.Limits.MaxFileSizeMB)
	}
	return nil
}

// Loader reads the YAML file, then .env and environment overrides.
// Tests can override Lookup to inject deterministic maps.
type Loader struct {
	Path     string
	EnvFiles []string
	Lookup   func(string) (string, bool)
}

// Load builds and validates the configuration. A missing YAML file is not an
// error; defaults and environment variables are used instead.
func (l Loader) Load() (*Config, error) {
	if l.Path == "" {
		l.Path = DefaultConfigPath
	}
	if l.Lookup == nil {
		// Existing environment variables win over .env entries
		if err := godotenv.Load(l.EnvFiles...); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: load env file: %w", err)
		}
		l.Lookup = os.LookupEnv
	}

	var cfg Config
	file, err := os.ReadFile(l.Path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", l.Path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("config: read %s: %w", l.Path, err)
	}

	if err := applyEnv(l.Lookup, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(lookup func(string) (string, bool), cfg *Config) error {
	overrideString(lookup, "CALLSCRIBE_HOST", &cfg.Server.Host)
	overrideString(lookup, "CALLSCRIBE_BACKEND", &cfg.Transcription.Backend)
	overrideString(lookup, "CALLSCRIBE_LANGUAGE", &cfg.Transcription.Language)
	overrideString(lookup, "CALLSCRIBE_MODEL", &cfg.Transcription.ModelPath)
	overrideString(lookup, "CALLSCRIBE_DEVICE", &cfg.Transcription.Device)
	overrideString(lookup, "CALLSCRIBE_TEMP_DIR", &cfg.Storage.TempDir)
	overrideString(lookup, "CALLSCRIBE_OUTPUT_DIR", &cfg.Storage.OutputDir)
	overrideString(lookup, "OPENAI_BASE_URL", &cfg.Transcription.OpenAIBaseURL)
	overrideString(lookup, "OPENAI_API_KEY", &cfg.Transcription.OpenAIAPIKey)

	if err := overrideInt(lookup, "CALLSCRIBE_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := overrideInt(lookup, "CALLSCRIBE_WORKERS", &cfg.Workers.Count); err != nil {
		return err
	}
	if err := overrideBool(lookup, "CALLSCRIBE_INSECURE_SKIP_VERIFY", &cfg.Fetch.InsecureSkipVerify); err != nil {
		return err
	}
	return overrideBool(lookup, "CALLSCRIBE_KEEP_ARTIFACTS", &cfg.Storage.KeepArtifacts)
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = n
	return nil
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = b
	return nil
}
