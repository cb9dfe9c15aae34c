package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no config path is given and the file exists.
const DefaultFile = "canopy.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CANOPY_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Encryption EncryptionConfig `yaml:"encryption"`
	Redaction  RedactionConfig  `yaml:"redaction"`
}

type StoreConfig struct {
	Backend string      `yaml:"backend"`
	Dir     string      `yaml:"dir"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type ServerConfig struct {
	Port    int  `yaml:"port"`
	Metrics bool `yaml:"metrics"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// EncryptionConfig holds base64 AES-256 keys. Encryption is off when Key is empty.
type EncryptionConfig struct {
	Key          string   `yaml:"key"`
	FallbackKeys []string `yaml:"fallback_keys"`
}

// RedactionConfig lists attribute-key patterns masked before a document is stored.
type RedactionConfig struct {
	Patterns []string `yaml:"patterns"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendFile,
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				LockTTL: 30 * time.Second,
			},
		},
		Server: ServerConfig{Port: 8080, Metrics: true},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (or DefaultFile when path is empty and present), then a
// .env file if any, then CANOPY_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// A missing .env is the common case.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.Store.Backend, "STORE_BACKEND")
	setString(&c.Store.Dir, "STORE_DIR")
	setString(&c.Store.Redis.Addr, "REDIS_ADDR")
	setString(&c.Store.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Store.Redis.Prefix, "REDIS_PREFIX")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Encryption.Key, "ENCRYPTION_KEY")

	if v, ok := lookup("ENCRYPTION_FALLBACK_KEYS"); ok {
		c.Encryption.FallbackKeys = splitList(v)
	}
	if v, ok := lookup("REDACTION_PATTERNS"); ok {
		c.Redaction.Patterns = splitList(v)
	}

	var err error
	if v, ok := lookup("REDIS_DB"); ok {
		if c.Store.Redis.DB, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", EnvPrefix, err)
		}
	}
	if v, ok := lookup("REDIS_TTL"); ok {
		if c.Store.Redis.TTL, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("%sREDIS_TTL: %w", EnvPrefix, err)
		}
	}
	if v, ok := lookup("REDIS_LOCK_TTL"); ok {
		if c.Store.Redis.LockTTL, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("%sREDIS_LOCK_TTL: %w", EnvPrefix, err)
		}
	}
	if v, ok := lookup("PORT"); ok {
		if c.Server.Port, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
	}
	if v, ok := lookup("METRICS"); ok {
		if c.Server.Metrics, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("%sMETRICS: %w", EnvPrefix, err)
		}
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if _, _, err := c.EncryptionKeys(); err != nil {
		return err
	}
	if _, err := middleware.CompilePatterns(c.Redaction.Patterns); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return level, nil
}

// EncryptionKeys decodes the active and fallback keys. A nil active key means encryption is off.
func (c *Config) EncryptionKeys() ([]byte, [][]byte, error) {
	if c.Encryption.Key == "" {
		return nil, nil, nil
	}
	active, err := decodeKey(c.Encryption.Key)
	if err != nil {
		return nil, nil, err
	}
	var fallbacks [][]byte
	for _, k := range c.Encryption.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, err
		}
		fallbacks = append(fallbacks, key)
	}
	return active, fallbacks, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: encryption key is not base64: %v", ErrInvalidConfig, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: encryption key must be 32 bytes, got %d", ErrInvalidConfig, len(key))
	}
	return key, nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
