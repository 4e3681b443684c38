package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Analysis providers.
const (
	ProviderOpenAI = "openai"
	ProviderVertex = "vertex"
)

// In-flight policies.
const (
	PolicyReject  = "reject"
	PolicyReplace = "replace"
)

// Capture devices.
const (
	DeviceSynthetic = "synthetic"
	DeviceFile      = "file"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Capture  CaptureConfig  `yaml:"capture"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains the key-value store settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AnalysisConfig selects and tunes the analysis oracle.
type AnalysisConfig struct {
	Provider       string          `yaml:"provider"`
	APIKey         string          `yaml:"-"` // env-only, never in YAML
	Model          string          `yaml:"model"`
	Timeout        Duration        `yaml:"timeout"`
	InFlightPolicy string          `yaml:"in_flight_policy"`
	Vertex         VertexConfig    `yaml:"vertex"`
	FoodCheck      FoodCheckConfig `yaml:"food_check"`
}

// VertexConfig contains Vertex AI settings.
type VertexConfig struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	CredentialsFile string `yaml:"credentials_file"`
	Model           string `yaml:"model"`
}

// FoodCheckConfig controls the Rekognition pre-check on photos.
type FoodCheckConfig struct {
	Enabled bool     `yaml:"enabled"`
	Region  string   `yaml:"region"`
	Labels  []string `yaml:"labels"`
}

// CaptureConfig contains camera and upload settings.
type CaptureConfig struct {
	Device         string `yaml:"device"`
	FilePath       string `yaml:"file_path"`
	Width          int    `yaml:"width"`
	Height         int    `yaml:"height"`
	JPEGQuality    int    `yaml:"jpeg_quality"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// ArchiveConfig contains S3-compatible image archive settings.
// An empty Bucket disables archiving.
type ArchiveConfig struct {
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"-"` // env-only, never in YAML
	SecretKey string `yaml:"-"` // env-only, never in YAML
	UseSSL    bool   `yaml:"use_ssl"`
}

// AuthConfig contains authentication settings.
// An empty APIKey leaves the API unauthenticated.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ArchiveEnabled reports whether photos are archived to S3.
func (c *Config) ArchiveEnabled() bool {
	return c.Archive.Bucket != ""
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → .env → env vars.
// Variables already set in the environment win over .env entries.
func Load() (*Config, error) {
	if err := loadDotEnv(getEnv("FOODLENS_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := newDefaults()

	configPath := getEnv("FOODLENS_CONFIG_PATH", "config/foodlens.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(90 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/foodlens.db",
		},
		Analysis: AnalysisConfig{
			Provider:       ProviderOpenAI,
			Model:          "gpt-4o",
			Timeout:        Duration(60 * time.Second),
			InFlightPolicy: PolicyReject,
			Vertex: VertexConfig{
				Location: "us-central1",
				Model:    "gemini-1.5-flash",
			},
			FoodCheck: FoodCheckConfig{
				Region: "us-east-1",
			},
		},
		Capture: CaptureConfig{
			Device:         DeviceSynthetic,
			Width:          1280,
			Height:         720,
			JPEGQuality:    80,
			MaxUploadBytes: 10 << 20,
		},
		Archive: ArchiveConfig{
			Region: "us-east-1",
			Prefix: "captures",
			UseSSL: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadDotEnv loads a .env file into the process environment. A missing
// file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("FOODLENS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	envDuration("FOODLENS_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("FOODLENS_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("FOODLENS_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Database
	if v := os.Getenv("FOODLENS_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Analysis (OPENAI_API_KEY is industry convention)
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Analysis.APIKey = v
	}
	if v := os.Getenv("FOODLENS_PROVIDER"); v != "" {
		cfg.Analysis.Provider = v
	}
	if v := os.Getenv("FOODLENS_MODEL"); v != "" {
		cfg.Analysis.Model = v
	}
	envDuration("FOODLENS_ANALYSIS_TIMEOUT", &cfg.Analysis.Timeout)
	if v := os.Getenv("FOODLENS_IN_FLIGHT_POLICY"); v != "" {
		cfg.Analysis.InFlightPolicy = v
	}
	if v := os.Getenv("GOOGLE_PROJECT_ID"); v != "" {
		cfg.Analysis.Vertex.ProjectID = v
	}
	if v := os.Getenv("GOOGLE_LOCATION"); v != "" {
		cfg.Analysis.Vertex.Location = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.Analysis.Vertex.CredentialsFile = v
	}
	if v := os.Getenv("FOODLENS_VERTEX_MODEL"); v != "" {
		cfg.Analysis.Vertex.Model = v
	}
	if v := os.Getenv("FOODLENS_FOOD_CHECK"); v != "" {
		cfg.Analysis.FoodCheck.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Analysis.FoodCheck.Region = v
	}

	// Capture
	if v := os.Getenv("FOODLENS_CAPTURE_DEVICE"); v != "" {
		cfg.Capture.Device = v
	}
	if v := os.Getenv("FOODLENS_CAPTURE_FILE"); v != "" {
		cfg.Capture.FilePath = v
	}
	if v := os.Getenv("FOODLENS_JPEG_QUALITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Capture.JPEGQuality = n
		}
	}
	if v := os.Getenv("FOODLENS_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Capture.MaxUploadBytes = n
		}
	}

	// Archive
	if v := os.Getenv("FOODLENS_ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}
	if v := os.Getenv("FOODLENS_S3_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}
	if v := os.Getenv("FOODLENS_S3_REGION"); v != "" {
		cfg.Archive.Region = v
	}
	if v := os.Getenv("FOODLENS_S3_ACCESS_KEY"); v != "" {
		cfg.Archive.AccessKey = v
	}
	if v := os.Getenv("FOODLENS_S3_SECRET_KEY"); v != "" {
		cfg.Archive.SecretKey = v
	}
	if v := os.Getenv("FOODLENS_S3_USE_SSL"); v != "" {
		cfg.Archive.UseSSL = v == "true" || v == "1"
	}

	// Auth
	if v := os.Getenv("FOODLENS_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Log
	if v := os.Getenv("FOODLENS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FOODLENS_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

// validate checks the configuration for consistency.
// In dev mode (FOODLENS_DEV_MODE=true), credential checks are skipped.
func (c *Config) validate() error {
	switch c.Analysis.Provider {
	case ProviderOpenAI, ProviderVertex:
	default:
		return fmt.Errorf("analysis.provider must be one of %s, %s; got %q", ProviderOpenAI, ProviderVertex, c.Analysis.Provider)
	}
	switch c.Analysis.InFlightPolicy {
	case PolicyReject, PolicyReplace:
	default:
		return fmt.Errorf("analysis.in_flight_policy must be one of %s, %s; got %q", PolicyReject, PolicyReplace, c.Analysis.InFlightPolicy)
	}
	switch c.Capture.Device {
	case DeviceSynthetic:
	case DeviceFile:
		if strings.TrimSpace(c.Capture.FilePath) == "" {
			return errors.New("capture.file_path is required for the file device")
		}
	default:
		return fmt.Errorf("capture.device must be one of %s, %s; got %q", DeviceSynthetic, DeviceFile, c.Capture.Device)
	}
	if c.Capture.JPEGQuality < 1 || c.Capture.JPEGQuality > 100 {
		return fmt.Errorf("capture.jpeg_quality must be between 1 and 100; got %d", c.Capture.JPEGQuality)
	}
	if c.Analysis.Timeout < 0 {
		return errors.New("analysis.timeout must not be negative")
	}

	// Dev mode bypasses credential validation
	if os.Getenv("FOODLENS_DEV_MODE") == "true" {
		return nil
	}

	switch c.Analysis.Provider {
	case ProviderOpenAI:
		if c.Analysis.APIKey == "" {
			return errors.New("OPENAI_API_KEY is required")
		}
	case ProviderVertex:
		if c.Analysis.Vertex.ProjectID == "" {
			return errors.New("GOOGLE_PROJECT_ID is required for the vertex provider")
		}
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
