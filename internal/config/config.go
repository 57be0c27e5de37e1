// Package config loads process configuration for the quotepdf commands.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. QPDF_LOG_LEVEL.
const EnvPrefix = "QPDF"

// Config holds all process configuration.
type Config struct {
	App       AppConfig
	Log       LogConfig
	Render    RenderConfig
	Cache     CacheConfig
	Templates TemplatesConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	MCP       MCPConfig
}

type AppConfig struct {
	Env string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

type RenderConfig struct {
	DefaultLocale string
	Compress      bool
	BrandMarker   string
}

type CacheConfig struct {
	TTL  time.Duration
	Size int
}

// TemplatesConfig selects where template ids are resolved. Built-in
// templates are always reachable behind the configured backend.
type TemplatesConfig struct {
	Backend string // fs, sql, redis
	Dir     string
}

type DatabaseConfig struct {
	Driver string // sqlite, postgres
	DSN    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type StorageConfig struct {
	Backend      string // memory, s3
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

type MCPConfig struct {
	Transport string
}

// Load reads quotepdf.toml from the working directory, ./config or
// /etc/quotepdf, then applies QPDF_ environment overrides. A missing file is
// not an error.
func Load() (*Config, error) {
	return load(viper.New(), ".", "./config", "/etc/quotepdf")
}

// LoadFile reads configuration from one explicit file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	setDefaults(v)

	if len(paths) > 0 {
		v.SetConfigName("quotepdf")
		v.SetConfigType("toml")
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{Env: v.GetString("app.env")},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Render: RenderConfig{
			DefaultLocale: v.GetString("render.default_locale"),
			Compress:      v.GetBool("render.compress"),
			BrandMarker:   v.GetString("render.brand_marker"),
		},
		Cache: CacheConfig{
			TTL:  v.GetDuration("cache.ttl"),
			Size: v.GetInt("cache.size"),
		},
		Templates: TemplatesConfig{
			Backend: strings.ToLower(v.GetString("templates.backend")),
			Dir:     v.GetString("templates.dir"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			DSN:    v.GetString("database.dsn"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Prefix:   v.GetString("redis.prefix"),
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(v.GetString("storage.backend")),
			Bucket:       v.GetString("storage.bucket"),
			Region:       v.GetString("storage.region"),
			Endpoint:     v.GetString("storage.endpoint"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
		},
		MCP: MCPConfig{Transport: v.GetString("mcp.transport")},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("render.default_locale", "en-US")
	v.SetDefault("render.compress", true)
	v.SetDefault("render.brand_marker", "MGL")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.size", 256)
	v.SetDefault("templates.backend", "fs")
	v.SetDefault("templates.dir", "")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:quotepdf.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "quotepdf:template:")
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.bucket", "quotes")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_path_style", true)
	v.SetDefault("mcp.transport", "stdio")
}

func (c *Config) validate() error {
	switch c.Templates.Backend {
	case "fs", "sql", "redis":
	default:
		return fmt.Errorf("templates.backend must be fs, sql or redis, got %q", c.Templates.Backend)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	switch c.Storage.Backend {
	case "memory":
	case "s3":
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return fmt.Errorf("storage.access_key and storage.secret_key are required for the s3 backend")
		}
	default:
		return fmt.Errorf("storage.backend must be memory or s3, got %q", c.Storage.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be positive")
	}
	if c.MCP.Transport != "stdio" {
		return fmt.Errorf("mcp.transport must be stdio, got %q", c.MCP.Transport)
	}
	return nil
}

// IsProduction reports whether app.env is production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
