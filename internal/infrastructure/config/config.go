package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"recipe-matcher/internal/core/matching"
)

// Config 應用設定
type Config struct {
	App       AppConfig        `mapstructure:"app"`
	Server    ServerConfig     `mapstructure:"server"`
	Catalog   CatalogConfig    `mapstructure:"catalog"`
	Matching  matching.Options `mapstructure:"matching"`
	Detection DetectionConfig  `mapstructure:"detection"`
	Cache     CacheConfig      `mapstructure:"cache"`
	Redis     RedisConfig      `mapstructure:"redis"`
	Queue     QueueConfig      `mapstructure:"queue"`
	RateLimit RateLimitConfig  `mapstructure:"rate_limit"`
	Image     ImageConfig      `mapstructure:"image"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Shopping  ShoppingConfig   `mapstructure:"shopping"`
	LogLevel  string           `mapstructure:"log_level"`
	LogFile   string           `mapstructure:"log_file"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 伺服器設定
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	BodyLimitBytes int64         `mapstructure:"body_limit_bytes"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	DefaultLimit   int           `mapstructure:"default_limit"`
}

// CatalogConfig 食譜目錄設定
type CatalogConfig struct {
	Dir string `mapstructure:"dir"`
}

// DetectionConfig 食材辨識設定
type DetectionConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	Model              string        `mapstructure:"model"`
	MaxTokens          int           `mapstructure:"max_tokens"`
	Timeout            time.Duration `mapstructure:"timeout"`
	RetryCount         int           `mapstructure:"retry_count"`
	Referer            string        `mapstructure:"referer"`
	Title              string        `mapstructure:"title"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
}

// CacheConfig 快取設定
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// QueueConfig 辨識佇列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 限流設定
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
	Burst    int           `mapstructure:"burst"`
}

// ImageConfig 圖片設定
type ImageConfig struct {
	MaxSizeBytes int64         `mapstructure:"max_size_bytes"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// DatabaseConfig 收藏與瀏覽紀錄資料庫
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

// ShoppingConfig 購物清單設定
type ShoppingConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LoadConfig 載入設定：預設值 → .env → 環境變數
func LoadConfig() (*Config, error) {
	// .env 不存在時僅使用環境變數
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 常用的無前綴環境變數
	bindings := map[string]string{
		"detection.api_key":  "OPENROUTER_API_KEY",
		"detection.model":    "OPENROUTER_MODEL",
		"detection.enabled":  "DETECTION_ENABLED",
		"catalog.dir":        "CATALOG_DIR",
		"redis.addr":         "REDIS_ADDR",
		"redis.password":     "REDIS_PASSWORD",
		"database.driver":    "DB_DRIVER",
		"database.dsn":       "DATABASE_URL",
		"cache.backend":      "CACHE_BACKEND",
		"rate_limit.enabled": "RATE_LIMIT_ENABLED",
		"log_level":          "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// logger 尚未初始化，改用 fmt
	fmt.Println("Loading configuration", "catalog:", cfg.Catalog.Dir,
		"detection_model:", cfg.Detection.Model, "api_key:", MaskAPIKey(cfg.Detection.APIKey))

	return &cfg, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字元
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-matcher")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.body_limit_bytes", 12*1024*1024)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.default_limit", 10)

	v.SetDefault("catalog.dir", "data")

	defaults := matching.DefaultOptions()
	v.SetDefault("matching.optional_gap_penalty", defaults.OptionalGapPenalty)
	v.SetDefault("matching.match_weight", defaults.MatchWeight)
	v.SetDefault("matching.pref_weight", defaults.PrefWeight)
	v.SetDefault("matching.tie_epsilon", defaults.TieEpsilon)
	v.SetDefault("matching.soft_exclusions", false)
	v.SetDefault("matching.suggest_purchases", true)
	v.SetDefault("matching.limit", 0)
	v.SetDefault("matching.weights.region", defaults.Weights.Region)
	v.SetDefault("matching.weights.macro", defaults.Weights.Macro)
	v.SetDefault("matching.weights.taste", defaults.Weights.Taste)
	v.SetDefault("matching.weights.diet", defaults.Weights.Diet)
	v.SetDefault("matching.weights.time", defaults.Weights.Time)
	v.SetDefault("matching.weights.skill", defaults.Weights.Skill)
	v.SetDefault("matching.weights.exclusion", defaults.Weights.Exclusion)

	v.SetDefault("detection.enabled", false)
	v.SetDefault("detection.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("detection.model", "qwen/qwen2.5-vl-72b-instruct:free")
	v.SetDefault("detection.max_tokens", 500)
	v.SetDefault("detection.timeout", "60s")
	v.SetDefault("detection.retry_count", 0)
	v.SetDefault("detection.referer", "https://github.com/recipe-matcher")
	v.SetDefault("detection.title", "Recipe Matcher")
	v.SetDefault("detection.breaker_max_failures", 5)
	v.SetDefault("detection.breaker_timeout", "30s")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("queue.workers", 5)
	v.SetDefault("queue.max_size", 100)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("image.max_size_bytes", 10*1024*1024)
	v.SetDefault("image.fetch_timeout", "15s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/recipe-matcher.db")
	v.SetDefault("database.history_limit", 50)

	v.SetDefault("shopping.backend", "memory")
	v.SetDefault("shopping.ttl", "168h")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "logs/app.log")
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Catalog.Dir == "" {
		return fmt.Errorf("catalog dir is required")
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if cfg.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if cfg.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
		if err := oneOf("cache.backend", cfg.Cache.Backend, "memory", "redis"); err != nil {
			return err
		}
	}
	if err := oneOf("shopping.backend", cfg.Shopping.Backend, "memory", "redis"); err != nil {
		return err
	}
	if err := oneOf("database.driver", cfg.Database.Driver, "sqlite", "postgres"); err != nil {
		return err
	}

	if cfg.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if cfg.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	m := cfg.Matching
	if m.OptionalGapPenalty < 0 || m.OptionalGapPenalty > 1 {
		return fmt.Errorf("matching.optional_gap_penalty must be within [0,1]")
	}
	if m.MatchWeight < 0 || m.PrefWeight < 0 || m.MatchWeight+m.PrefWeight <= 0 {
		return fmt.Errorf("matching weights must be non-negative and not both zero")
	}

	if cfg.Detection.Enabled && cfg.Detection.APIKey == "" {
		return fmt.Errorf("detection is enabled but OPENROUTER_API_KEY is empty")
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %v, got %q", field, allowed, value)
}
