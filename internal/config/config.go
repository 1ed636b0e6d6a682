// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// RateLimit is the number of requests a client may send per RateWindow; 0 disables it.
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // webhook replay window
}

type RazorpayConfig struct {
	KeyID         string        `yaml:"key_id"`
	KeySecret     string        `yaml:"key_secret"`
	WebhookSecret string        `yaml:"webhook_secret"`
	PlanService   string        `yaml:"plan_service"`
	PlanShop      string        `yaml:"plan_shop"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

type GatewayConfig struct {
	Provider string         `yaml:"provider"` // razorpay | noop
	Razorpay RazorpayConfig `yaml:"razorpay"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type AdminConfig struct {
	APIKey string `yaml:"api_key"`
}

type AdMobConfig struct {
	// KeyIDs restricts accepted SSV key ids; empty accepts any non-empty key id.
	KeyIDs []string `yaml:"key_ids"`
}

type StorageConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PublicBaseURL   string `yaml:"public_base_url"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

type AuditConfig struct {
	Interval time.Duration `yaml:"interval"`
	Workers  int           `yaml:"workers"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Auth     AuthConfig     `yaml:"auth"`
	Admin    AdminConfig    `yaml:"admin"`
	AdMob    AdMobConfig    `yaml:"admob"`
	Storage  StorageConfig  `yaml:"storage"`
	Security SecurityConfig `yaml:"security"`
	Audit    AuditConfig    `yaml:"audit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig parses -config and -dev flags, loads an optional .env file and reads the yaml.
func LoadConfig() (*Config, error) {
	var configPath string
	var envPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.StringVar(&envPath, "env", ".env", "optional dotenv file")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return Load(configPath, dev)
}

// Load reads the yaml at path (a missing file is allowed when the environment carries the
// required settings), applies env overrides and defaults, and validates.
func Load(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	// Minimal validation. Gateway credentials are checked on first use.
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if cfg.Storage.Enabled && cfg.Storage.Bucket == "" {
		return nil, errors.New("storage.bucket is required when storage is enabled")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

var envOverrides = []struct {
	name string
	dst  func(*Config) *string
}{
	{"DATABASE_URL", func(c *Config) *string { return &c.Database.URL }},
	{"REDIS_URL", func(c *Config) *string { return &c.Redis.URL }},
	{"RAZORPAY_KEY_ID", func(c *Config) *string { return &c.Gateway.Razorpay.KeyID }},
	{"RAZORPAY_KEY_SECRET", func(c *Config) *string { return &c.Gateway.Razorpay.KeySecret }},
	{"RAZORPAY_WEBHOOK_SECRET", func(c *Config) *string { return &c.Gateway.Razorpay.WebhookSecret }},
	{"RAZORPAY_PLAN_SERVICE", func(c *Config) *string { return &c.Gateway.Razorpay.PlanService }},
	{"RAZORPAY_PLAN_SHOP", func(c *Config) *string { return &c.Gateway.Razorpay.PlanShop }},
	{"JWT_SECRET", func(c *Config) *string { return &c.Auth.JWTSecret }},
	{"ADMIN_API_KEY", func(c *Config) *string { return &c.Admin.APIKey }},
	{"ENCRYPTION_KEY", func(c *Config) *string { return &c.Security.EncryptionKey }},
	{"S3_ACCESS_KEY_ID", func(c *Config) *string { return &c.Storage.AccessKeyID }},
	{"S3_SECRET_ACCESS_KEY", func(c *Config) *string { return &c.Storage.SecretAccessKey }},
}

func applyEnv(cfg *Config) {
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.dst(cfg) = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 20 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.HTTP.RateWindow <= 0 {
		cfg.HTTP.RateWindow = time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Gateway.Provider == "" {
		cfg.Gateway.Provider = "razorpay"
	}
	if cfg.Gateway.Razorpay.BaseURL == "" {
		cfg.Gateway.Razorpay.BaseURL = "https://api.razorpay.com/v1"
	}
	if cfg.Gateway.Razorpay.Timeout <= 0 {
		cfg.Gateway.Razorpay.Timeout = 15 * time.Second
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "ap-south-1"
	}
	if cfg.Audit.Interval <= 0 {
		cfg.Audit.Interval = time.Hour
	}
	if cfg.Audit.Workers <= 0 {
		cfg.Audit.Workers = 4
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 24 * time.Hour
	}
	return d
}
