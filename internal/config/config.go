package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DevJWTSecret is the development fallback secret. It is refused in production.
const DevJWTSecret = "dev-secret-change-in-production"

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

var (
	ErrMissingJWTSecret   = errors.New("JWT_SECRET must not be empty")
	ErrDefaultJWTSecret   = errors.New("JWT_SECRET must be set to a non-default value in production")
	ErrUnsupportedDriver  = errors.New("database driver must be one of sqlite, postgres, mysql")
	ErrInvalidRateLimit   = errors.New("rate limit requests and window must be positive")
	ErrInvalidTokenExpiry = errors.New("token ttl must be positive")
)

type Config struct {
	Env         string            `koanf:"env"`
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Auth        AuthConfig        `koanf:"auth"`
	RateLimit   RateLimitConfig   `koanf:"rate_limit"`
	OpenLibrary OpenLibraryConfig `koanf:"open_library"`
	Log         LogConfig         `koanf:"log"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	ClientURL       string        `koanf:"client_url"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

type OpenLibraryConfig struct {
	BaseURL   string        `koanf:"base_url"`
	CoversURL string        `koanf:"covers_url"`
	Timeout   time.Duration `koanf:"timeout"`
	RPS       float64       `koanf:"rps"`
	Burst     int           `koanf:"burst"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func defaultConfig() Config {
	return Config{
		Env: "development",
		Server: ServerConfig{
			Port:            "3001",
			ClientURL:       "http://localhost:5173",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file:bookshelf.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
		Auth: AuthConfig{
			JWTSecret: DevJWTSecret,
			TokenTTL:  7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Requests: 10,
			Window:   15 * time.Minute,
		},
		OpenLibrary: OpenLibraryConfig{
			BaseURL:   "https://openlibrary.org",
			CoversURL: "https://covers.openlibrary.org",
			Timeout:   10 * time.Second,
			RPS:       5,
			Burst:     5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing priority. A .env file is read first
// when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envTransformFunc), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks settings that would make the server unsafe or unusable.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.IsProduction() && c.Auth.JWTSecret == DevJWTSecret {
		return ErrDefaultJWTSecret
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("%w: got %q", ErrUnsupportedDriver, c.Database.Driver)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return ErrInvalidRateLimit
	}
	if c.Auth.TokenTTL <= 0 {
		return ErrInvalidTokenExpiry
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"env":                     "env",
	"port":                    "server.port",
	"client_url":              "server.client_url",
	"server_read_timeout":     "server.read_timeout",
	"server_write_timeout":    "server.write_timeout",
	"server_idle_timeout":     "server.idle_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",
	"database_driver":         "database.driver",
	"database_dsn":            "database.dsn",
	"database_url":            "database.dsn",
	"jwt_secret":              "auth.jwt_secret",
	"jwt_ttl":                 "auth.token_ttl",
	"rate_limit_requests":     "rate_limit.requests",
	"rate_limit_window":       "rate_limit.window",
	"openlibrary_base_url":    "open_library.base_url",
	"openlibrary_covers_url":  "open_library.covers_url",
	"openlibrary_timeout":     "open_library.timeout",
	"openlibrary_rps":         "open_library.rps",
	"openlibrary_burst":       "open_library.burst",
	"log_level":               "log.level",
	"log_format":              "log.format",
}

// envTransformFunc maps environment variable names to config paths.
// Unknown and empty variables map to "" and are skipped, so an exported but
// blank variable keeps the lower layer's value.
func envTransformFunc(key, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped, value
	}
	return "", nil
}
