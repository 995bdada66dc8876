// Package config provides application configuration for the Brain Vault server.
//
// Values are layered with koanf. Lowest to highest precedence:
//  1. Built-in defaults.
//  2. YAML config file (-config or BRAINVAULT_CONFIG_FILE).
//  3. .env file entries not already present in the environment.
//  4. BRAINVAULT_* environment variables.
//  5. Command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Logger    LoggerConfig    `koanf:"log"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Search    SearchConfig    `koanf:"search"`
	Auth      AuthConfig      `koanf:"auth"`
	AI        AIConfig        `koanf:"ai"`
	Voice     VoiceConfig     `koanf:"voice"`
	AWS       AWSConfig       `koanf:"aws"`
	Events    EventsConfig    `koanf:"events"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Stats     StatsConfig     `koanf:"stats"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `koanf:"environment"`
	// DataPath holds the SQLite database, search index, and dev token key.
	DataPath string `koanf:"data_path"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, pretty, or empty for auto
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig selects and configures the relational store.
type DatabaseConfig struct {
	Driver       string `koanf:"driver"` // sqlite or postgres
	DSN          string `koanf:"dsn"`    // file path for sqlite, URL for postgres
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// SearchConfig configures the full-text idea index.
type SearchConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`

	// RebuildOnStart drops the index and reindexes every idea at startup.
	RebuildOnStart bool `koanf:"rebuild_on_start"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	// Mode is auth0 (JWKS-verified JWTs) or local (PASETO tokens minted by this server).
	Mode          string        `koanf:"mode"`
	Auth0Domain   string        `koanf:"auth0_domain"`
	Auth0Audience string        `koanf:"auth0_audience"`
	Auth0Issuer   string        `koanf:"auth0_issuer"`
	LocalKeyPath  string        `koanf:"local_key_path"`
	TokenDuration time.Duration `koanf:"token_duration"`
}

// AIConfig configures the LLM providers used for classification and transformation.
type AIConfig struct {
	XAIAPIKey         string        `koanf:"xai_api_key"`
	XAIAPIURL         string        `koanf:"xai_api_url"`
	XAIModel          string        `koanf:"xai_model"`
	OpenAIAPIKey      string        `koanf:"openai_api_key"`
	OpenAIAPIURL      string        `koanf:"openai_api_url"`
	OpenAIModel       string        `koanf:"openai_model"`
	MaxTokens         int           `koanf:"max_tokens"`
	Temperature       float64       `koanf:"temperature"`
	Timeout           time.Duration `koanf:"timeout"`
	ClassifyWithLLM   bool          `koanf:"classify_with_llm"`
	ClassifierTimeout time.Duration `koanf:"classifier_timeout"`
}

// VoiceConfig configures the transcription service.
type VoiceConfig struct {
	WhisperURL     string        `koanf:"whisper_url"`
	WhisperAPIKey  string        `koanf:"whisper_api_key"`
	WhisperModel   string        `koanf:"whisper_model"`
	MaxUploadBytes int64         `koanf:"max_upload_bytes"`
	Timeout        time.Duration `koanf:"timeout"`
}

// AWSConfig configures the audio archive bucket and EventBridge.
type AWSConfig struct {
	Region          string `koanf:"region"`
	Bucket          string `koanf:"bucket"`
	Endpoint        string `koanf:"endpoint"` // optional, for S3-compatible stores
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	ArchiveAudio    bool   `koanf:"archive_audio"`
}

// EventsConfig configures domain event publishing.
type EventsConfig struct {
	Driver        string `koanf:"driver"` // none, nats, or eventbridge
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
	EventBusName  string `koanf:"event_bus_name"`
	Source        string `koanf:"source"`
}

// CORSConfig configures cross-origin access for the web client.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// RateLimitConfig configures the per-client request limiter.
type RateLimitConfig struct {
	Enabled           bool    `koanf:"enabled"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// StatsConfig configures dashboard aggregation.
type StatsConfig struct {
	// Timezone is the IANA zone that defines "this month".
	Timezone    string `koanf:"timezone"`
	RecentCount int    `koanf:"recent_count"`
}

// Location resolves the stats timezone. Validate guarantees it loads.
func (s StatsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("app.environment is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite or postgres)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn cannot be empty")
	}

	switch c.Auth.Mode {
	case "local":
		if c.App.Environment == "production" {
			return errors.New("auth.mode local is not allowed in production")
		}
	case "auth0":
		if c.Auth.Auth0Domain == "" || c.Auth.Auth0Audience == "" {
			return errors.New("auth0 mode requires auth.auth0_domain and auth.auth0_audience")
		}
	default:
		return fmt.Errorf("invalid auth mode: %s (must be auth0 or local)", c.Auth.Mode)
	}

	switch c.Events.Driver {
	case "none", "nats", "eventbridge":
	default:
		return fmt.Errorf("invalid events driver: %s (must be none, nats, or eventbridge)", c.Events.Driver)
	}

	if c.Voice.MaxUploadBytes <= 0 {
		return errors.New("voice.max_upload_bytes must be positive")
	}

	if _, err := time.LoadLocation(c.Stats.Timezone); err != nil {
		return fmt.Errorf("invalid stats timezone %q: %w", c.Stats.Timezone, err)
	}
	if c.Stats.RecentCount < 1 {
		return errors.New("stats.recent_count must be at least 1")
	}

	return nil
}

// Issuer returns the expected token issuer for auth0 mode.
func (a AuthConfig) Issuer() string {
	if a.Auth0Issuer != "" {
		return a.Auth0Issuer
	}
	return "https://" + strings.TrimSuffix(a.Auth0Domain, "/") + "/"
}

// JWKSURL returns the well-known key set location for auth0 mode.
func (a AuthConfig) JWKSURL() string {
	return strings.TrimSuffix(a.Issuer(), "/") + "/.well-known/jwks.json"
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves the data directory and everything derived from it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	dataPath, err := expandPath(c.App.DataPath, filepath.Join(homeDir, "BrainVault"))
	if err != nil {
		return err
	}
	c.App.DataPath = dataPath

	if c.Database.Driver == "sqlite" {
		dsn, err := expandPath(c.Database.DSN, filepath.Join(dataPath, "brainvault.db"))
		if err != nil {
			return err
		}
		c.Database.DSN = dsn
	}

	if c.Search.Path, err = expandPath(c.Search.Path, filepath.Join(dataPath, "search")); err != nil {
		return err
	}
	if c.Auth.LocalKeyPath, err = expandPath(c.Auth.LocalKeyPath, filepath.Join(dataPath, "dev-token.key")); err != nil {
		return err
	}
	return nil
}
