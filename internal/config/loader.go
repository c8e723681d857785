package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the YAML file location.
const ConfigPathEnvVar = "ELEARNING_CONFIG"

const envPrefix = "ELEARNING_"

// DefaultConfigPaths are tried in order when ConfigPathEnvVar is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

const minSecretLength = 16

// Config is the process configuration.
type Config struct {
	HTTPPort  int             `koanf:"http_port"`
	Database  DatabaseConfig  `koanf:"database"`
	Session   SessionConfig   `koanf:"session"`
	Redis     RedisConfig     `koanf:"redis"`
	Guard     GuardConfig     `koanf:"guard"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Log       LogConfig       `koanf:"log"`
}

type DatabaseConfig struct {
	Driver       string `koanf:"driver"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

type SessionConfig struct {
	Secret       string        `koanf:"secret"`
	TTL          time.Duration `koanf:"ttl"`
	Issuer       string        `koanf:"issuer"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

// RedisConfig enables the shared revocation list when URL is set.
type RedisConfig struct {
	URL string `koanf:"url"`
}

type GuardConfig struct {
	LoginPath string `koanf:"login_path"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// RateLimitConfig bounds sign-in and sign-up attempts per client IP.
type RateLimitConfig struct {
	AuthPerMinute int `koanf:"auth_per_minute"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() Config {
	return Config{
		HTTPPort: 8080,
		Database: DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "file:elearning.db",
			MaxOpenConns: 10,
		},
		Session: SessionConfig{
			TTL:          time.Hour,
			Issuer:       "elearning-platform",
			CookieSecure: false,
		},
		Guard:     GuardConfig{LoginPath: "/login"},
		CORS:      CORSConfig{AllowedOrigins: []string{}},
		RateLimit: RateLimitConfig{AuthPerMinute: 20},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

var envMappings = map[string]string{
	"http_port":                  "http_port",
	"database_driver":            "database.driver",
	"database_dsn":               "database.dsn",
	"database_max_open_conns":    "database.max_open_conns",
	"session_secret":             "session.secret",
	"session_ttl":                "session.ttl",
	"session_issuer":             "session.issuer",
	"session_cookie_secure":      "session.cookie_secure",
	"redis_url":                  "redis.url",
	"guard_login_path":           "guard.login_path",
	"cors_allowed_origins":       "cors.allowed_origins",
	"rate_limit_auth_per_minute": "rate_limit.auth_per_minute",
	"log_level":                  "log.level",
	"log_format":                 "log.format",
}

func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return envMappings[key]
}

var sliceKeys = []string{"cors.allowed_origins"}

// Load layers defaults, the optional YAML file and ELEARNING_* variables,
// then validates the result. Every missing or invalid key is reported at once.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("chargement des valeurs par défaut: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("lecture du fichier de configuration %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("lecture des variables d'environnement: %w", err)
	}

	if err := splitSliceKeys(k); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("valeurs de configuration invalides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if path := strings.TrimSpace(os.Getenv(ConfigPathEnvVar)); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// splitSliceKeys turns comma-separated env values into lists.
func splitSliceKeys(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0)
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("configuration %s: %w", key, err)
		}
	}
	return nil
}

// Validate reports missing keys first, then invalid ones.
func (c Config) Validate() error {
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, "http_port")
	}
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "sqlite3", "postgres", "postgresql", "pgx":
	default:
		invalid = append(invalid, "database.driver")
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		missing = append(missing, "database.dsn")
	}
	if c.Database.MaxOpenConns < 0 {
		invalid = append(invalid, "database.max_open_conns")
	}
	if secret := strings.TrimSpace(c.Session.Secret); secret == "" {
		missing = append(missing, "session.secret")
	} else if len(secret) < minSecretLength {
		invalid = append(invalid, "session.secret")
	}
	if c.Session.TTL <= 0 {
		invalid = append(invalid, "session.ttl")
	}
	if !strings.HasPrefix(c.Guard.LoginPath, "/") {
		invalid = append(invalid, "guard.login_path")
	}
	if c.RateLimit.AuthPerMinute < 0 {
		invalid = append(invalid, "rate_limit.auth_per_minute")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "log.level")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		invalid = append(invalid, "log.format")
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("configuration requise manquante: %s", strings.Join(missing, ", ")))
	}
	if len(invalid) > 0 {
		errs = append(errs, fmt.Errorf("valeurs de configuration invalides: %s", strings.Join(invalid, ", ")))
	}
	return errors.Join(errs...)
}
