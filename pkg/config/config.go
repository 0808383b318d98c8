package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Server defaults
const (
	DefaultPort         = "8080"
	DefaultDataDir      = "./data/tinygraphite"
	DefaultMaxStorageGB = 1
	DefaultMaxMemoryMB  = 48
	DefaultLogLevel     = "info"
)

// Background task intervals
const (
	BadgerGCInterval     = 10 * time.Minute
	RegistryReloadWindow = 100 * time.Millisecond
	ShutdownTimeout      = 10 * time.Second
)

// Request timeouts and limits
const (
	StoreTimeout      = 5 * time.Second
	ExportTimeout     = 30 * time.Second
	MaxRequestBytes   = 1 << 20
	MaxImportBytes    = 32 << 20
	MaxTargetsPerPane = 26
)

// WebSocket configuration
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSChannelBuffer   = 10
	WSMaxMessageBytes = 64 << 10
	WSWriteDeadline   = 10 * time.Second
	WSReadDeadline    = 60 * time.Second
	WSPingInterval    = 30 * time.Second
)

// Config holds server configuration.
type Config struct {
	Port            string   `yaml:"port"`
	DataDir         string   `yaml:"data_dir"`
	InMemory        bool     `yaml:"in_memory"`
	MaxMemoryMB     int64    `yaml:"max_memory_mb"`
	MaxStorageGB    int64    `yaml:"max_storage_gb"`
	FunctionsFile   string   `yaml:"functions_file"`
	GraphiteVersion string   `yaml:"graphite_version"`
	LogLevel        string   `yaml:"log_level"`
	LogFile         string   `yaml:"log_file"`
	Development     bool     `yaml:"development"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:         DefaultPort,
		DataDir:      DefaultDataDir,
		MaxMemoryMB:  DefaultMaxMemoryMB,
		MaxStorageGB: DefaultMaxStorageGB,
		LogLevel:     DefaultLogLevel,
	}
}

// MaxStorageBytes returns the storage limit in bytes
func (c Config) MaxStorageBytes() int64 {
	return c.MaxStorageGB * 1024 * 1024 * 1024
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to open config: %w", err)
		}
		defer f.Close()

		if err := Decode(f, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// Decode reads YAML from r into cfg. Unknown keys are an error.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("port must not be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q: %w", c.Port, err)
	}
	if !c.InMemory && c.DataDir == "" {
		return errors.New("data_dir must be set unless in_memory is enabled")
	}
	if c.MaxStorageGB < 0 || c.MaxMemoryMB < 0 {
		return errors.New("storage and memory limits must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Port = getEnv("TINYGRAPHITE_PORT", cfg.Port)
	cfg.DataDir = getEnv("TINYGRAPHITE_DATA_DIR", cfg.DataDir)
	cfg.InMemory = getEnvBool("TINYGRAPHITE_IN_MEMORY", cfg.InMemory)
	cfg.MaxMemoryMB = getEnvInt64("TINYGRAPHITE_MAX_MEMORY_MB", cfg.MaxMemoryMB)
	cfg.MaxStorageGB = getEnvInt64("TINYGRAPHITE_MAX_STORAGE_GB", cfg.MaxStorageGB)
	cfg.FunctionsFile = getEnv("TINYGRAPHITE_FUNCTIONS_FILE", cfg.FunctionsFile)
	cfg.GraphiteVersion = getEnv("TINYGRAPHITE_GRAPHITE_VERSION", cfg.GraphiteVersion)
	cfg.LogLevel = getEnv("TINYGRAPHITE_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("TINYGRAPHITE_LOG_FILE", cfg.LogFile)
	cfg.Development = getEnvBool("TINYGRAPHITE_DEVELOPMENT", cfg.Development)

	if origins := os.Getenv("TINYGRAPHITE_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
}

// getEnv gets a string from environment variable or returns default.
func getEnv(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// getEnvInt64 gets an int64 from environment variable or returns default.
func getEnvInt64(key string, defaultValue int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}
