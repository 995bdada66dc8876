package config

import (
	"bufio"
	_ "embed"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "BRAINVAULT_"

const maxConfigFileSize = 1 << 20

//go:embed defaults.yaml
var defaultsYAML []byte

// listKeys are split on commas when supplied through the environment.
var listKeys = map[string]bool{
	"cors.allowed_origins": true,
}

// LoadConfig loads configuration using the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds a Config from defaults, an optional YAML file, the environment,
// and the given command-line arguments.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("brainvault", flag.ContinueOnError)
	configFile := fs.String("config", "", "Path to YAML config file")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	flagValues := map[string]*string{
		"app.environment":         fs.String("env", "", "Environment (development, staging, production)"),
		"app.data_path":           fs.String("data-path", "", "Directory for local data"),
		"log.level":               fs.String("log-level", "", "Log level (debug, info, warn, error)"),
		"server.port":             fs.String("port", "", "Server port (default: 8080)"),
		"database.driver":         fs.String("db-driver", "", "Database driver (sqlite, postgres)"),
		"database.dsn":            fs.String("db-dsn", "", "Database path or connection URL"),
		"auth.mode":               fs.String("auth-mode", "", "Token verification mode (auth0, local)"),
		"search.rebuild_on_start": fs.String("rebuild-search", "", "Drop and rebuild the search index on start (true, false)"),
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// .env entries only fill gaps; real environment variables win.
	_ = loadEnvFile(*envFile)

	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path := *configFile
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG_FILE")
	}
	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for key, value := range flagValues {
		if *value == "" {
			continue
		}
		if err := k.Set(key, *value); err != nil {
			return nil, fmt.Errorf("apply flag %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envTransform maps BRAINVAULT_SECTION_FIELD_NAME to section.field_name.
// Only the first underscore after the prefix separates section from field.
func envTransform(key, value string) (string, any) {
	lower := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return "", nil
	}
	path := section + "." + field
	if listKeys[path] {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return path, out
	}
	return path, value
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path) //#nosec G304 -- config path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- env file path is operator supplied
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
