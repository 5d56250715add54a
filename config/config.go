package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	Database   DatabaseConfig   `koanf:"database"`
	Fourthwall FourthwallConfig `koanf:"fourthwall"`
	YouTube    YouTubeConfig    `koanf:"youtube"`
	Cache      CacheConfig      `koanf:"cache"`
	Ingest     IngestConfig     `koanf:"ingest"`
	Admin      AdminConfig      `koanf:"admin"`
	R2         R2Config         `koanf:"r2"`
}

type ServerConfig struct {
	Port              string        `koanf:"port"`
	Env               string        `koanf:"env"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	SnapshotFreshness time.Duration `koanf:"snapshot_freshness"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type DatabaseConfig struct {
	URL         string `koanf:"url"`
	Host        string `koanf:"host"`
	User        string `koanf:"user"`
	Password    string `koanf:"password"`
	Name        string `koanf:"name"`
	Port        string `koanf:"port"`
	SSLMode     string `koanf:"sslmode"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// DSN prefers DATABASE_URL and falls back to the discrete DB_* settings.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type FourthwallConfig struct {
	StorefrontToken string        `koanf:"storefront_token"`
	ShopURL         string        `koanf:"shop_url"`
	APIURL          string        `koanf:"api_url"`
	WebhookSecret   string        `koanf:"webhook_secret"`
	Timeout         time.Duration `koanf:"timeout"`
}

type YouTubeConfig struct {
	FeedURL   string        `koanf:"feed_url"`
	ChannelID string        `koanf:"channel_id"`
	Timeout   time.Duration `koanf:"timeout"`
}

// ResolvedFeedURL builds the channel feed when only a channel id is configured.
func (y YouTubeConfig) ResolvedFeedURL() string {
	if y.FeedURL != "" {
		return y.FeedURL
	}
	if y.ChannelID != "" {
		return "https://www.youtube.com/feeds/videos.xml?channel_id=" + y.ChannelID
	}
	return ""
}

type CacheConfig struct {
	Backend    string        `koanf:"backend"`
	ProductTTL time.Duration `koanf:"product_ttl"`
	EpisodeTTL time.Duration `koanf:"episode_ttl"`
	RedisAddr  string        `koanf:"redis_addr"`
	RedisDB    int           `koanf:"redis_db"`
	QueueSize  int           `koanf:"queue_size"`
	JobTimeout time.Duration `koanf:"job_timeout"`
}

type IngestConfig struct {
	APIKey        string `koanf:"api_key"`
	RatePerMinute int    `koanf:"rate_per_minute"`
}

type AdminConfig struct {
	Username     string        `koanf:"username"`
	PasswordHash string        `koanf:"password_hash"`
	JWTSecret    string        `koanf:"jwt_secret"`
	TokenTTL     time.Duration `koanf:"token_ttl"`
}

type R2Config struct {
	AccountID       string `koanf:"account_id"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	BucketName      string `koanf:"bucket_name"`
	PublicURL       string `koanf:"public_url"`
	Region          string `koanf:"region"`
}

func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.SecretAccessKey != "" && r.BucketName != ""
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              "8080",
			Env:               "development",
			ShutdownTimeout:   15 * time.Second,
			SnapshotFreshness: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Host:        "localhost",
			User:        "postgres",
			Name:        "tastemichigan",
			Port:        "5432",
			SSLMode:     "disable",
			AutoMigrate: true,
		},
		Fourthwall: FourthwallConfig{
			APIURL:  "https://storefront-api.fourthwall.com/v1",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Backend:    "postgres",
			ProductTTL: time.Hour,
			EpisodeTTL: 6 * time.Hour,
			RedisAddr:  "localhost:6379",
			QueueSize:  32,
			JobTimeout: 30 * time.Second,
		},
		Ingest: IngestConfig{
			RatePerMinute: 120,
		},
		Admin: AdminConfig{
			Username: "admin",
			TokenTTL: 24 * time.Hour,
		},
		R2: R2Config{
			Region: "auto",
		},
	}
}

// envMappings maps environment variables onto koanf paths.
var envMappings = map[string]string{
	"port":                         "server.port",
	"app_env":                      "server.env",
	"shutdown_timeout":             "server.shutdown_timeout",
	"snapshot_freshness":           "server.snapshot_freshness",
	"log_level":                    "log.level",
	"log_format":                   "log.format",
	"database_url":                 "database.url",
	"db_host":                      "database.host",
	"db_user":                      "database.user",
	"db_password":                  "database.password",
	"db_name":                      "database.name",
	"db_port":                      "database.port",
	"db_sslmode":                   "database.sslmode",
	"db_auto_migrate":              "database.auto_migrate",
	"fourthwall_storefront_token":  "fourthwall.storefront_token",
	"fourthwall_shop_url":          "fourthwall.shop_url",
	"fourthwall_api_url":           "fourthwall.api_url",
	"fourthwall_webhook_secret":    "fourthwall.webhook_secret",
	"youtube_feed_url":             "youtube.feed_url",
	"youtube_channel_id":           "youtube.channel_id",
	"http_client_timeout":          "fourthwall.timeout",
	"cache_backend":                "cache.backend",
	"product_cache_ttl":            "cache.product_ttl",
	"episode_cache_ttl":            "cache.episode_ttl",
	"redis_addr":                   "cache.redis_addr",
	"redis_db":                     "cache.redis_db",
	"refresh_queue_size":           "cache.queue_size",
	"refresh_job_timeout":          "cache.job_timeout",
	"ingest_api_key":               "ingest.api_key",
	"ingest_rate_per_minute":       "ingest.rate_per_minute",
	"admin_username":               "admin.username",
	"admin_password_hash":          "admin.password_hash",
	"jwt_secret":                   "admin.jwt_secret",
	"admin_token_ttl":              "admin.token_ttl",
	"cloudflare_account_id":        "r2.account_id",
	"cloudflare_access_key_id":     "r2.access_key_id",
	"cloudflare_secret_access_key": "r2.secret_access_key",
	"cloudflare_bucket_name":       "r2.bucket_name",
	"cloudflare_public_url":        "r2.public_url",
}

func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load layers defaults, an optional .env file and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal in production.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// The YouTube fetch shares the HTTP client timeout unless set separately.
	if cfg.YouTube.Timeout <= 0 {
		cfg.YouTube.Timeout = cfg.Fourthwall.Timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would make the process misbehave. Missing
// secrets are not fatal here; the endpoints that need them report it.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "postgres", "redis":
	default:
		return fmt.Errorf("cache backend must be postgres or redis, got %q", c.Cache.Backend)
	}
	if c.Cache.ProductTTL <= 0 || c.Cache.EpisodeTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.Cache.QueueSize <= 0 {
		return fmt.Errorf("refresh queue size must be positive")
	}
	if c.Ingest.RatePerMinute <= 0 {
		return fmt.Errorf("ingest rate must be positive")
	}
	return nil
}
