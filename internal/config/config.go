// Package config defines the top-level configuration for the trade recorder
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by POLYREC_* environment
// variables.
type Config struct {
	Feed      FeedConfig      `toml:"feed"`
	Recorder  RecorderConfig  `toml:"recorder"`
	Session   SessionConfig   `toml:"session"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Retention RetentionConfig `toml:"retention"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// FeedConfig holds the exchange push-feed parameters.
type FeedConfig struct {
	WsHost   string   `toml:"ws_host"`
	AssetIDs []string `toml:"asset_ids"`
}

// RecorderConfig holds the file-tree recording parameters.
type RecorderConfig struct {
	DataDir string `toml:"data_dir"`
	// FlushEvery is the number of appended events between explicit flushes
	// of the per-day files. 1 flushes after every event.
	FlushEvery int `toml:"flush_every"`
}

// SessionConfig drives the time-of-day session slug scheduling.
type SessionConfig struct {
	// SlugTemplate produces session identifiers; %s is replaced with the
	// local hour label, e.g. "btc-up-or-down-%s-et" -> "btc-up-or-down-3pm-et".
	SlugTemplate string `toml:"slug_template"`
	// Timezone is an IANA zone name used to compute the hour label.
	Timezone string `toml:"timezone"`
	// RolloverHours is how many hours one session spans. 1 means a fresh
	// session every hour.
	RolloverHours int `toml:"rollover_hours"`
}

// PostgresConfig holds PostgreSQL connection parameters for the trade mirror.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the outcome price cache.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for session
// archives.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// RetentionConfig drives the periodic job that moves old mirrored trades
// from the database to the archive bucket. Requires both postgres and s3.
type RetentionConfig struct {
	Enabled bool `toml:"enabled"`
	// Days is the age past which mirrored trades are archived.
	Days int `toml:"days"`
	// Cron is a 5-field schedule for the retention pass.
	Cron string `toml:"cron"`
}

// ServerConfig holds the read-only HTTP API parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds operator alert channels. A channel with empty
// credentials stays disabled.
type NotifyConfig struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
	// Events limits which event types are delivered; empty allows all.
	Events []string `toml:"events"`
}

// Defaults returns the built-in configuration that a TOML file is merged
// over.
func Defaults() Config {
	return Config{
		Feed: FeedConfig{
			WsHost: "wss://ws-subscriptions-clob.polymarket.com/ws/market",
		},
		Recorder: RecorderConfig{
			DataDir:    "data",
			FlushEvery: 1,
		},
		Session: SessionConfig{
			SlugTemplate:  "btc-up-or-down-%s-et",
			Timezone:      "America/New_York",
			RolloverHours: 1,
		},
		Postgres: PostgresConfig{
			Port:         5432,
			SSLMode:      "disable",
			PoolMaxConns: 4,
			PoolMinConns: 1,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Retention: RetentionConfig{
			Days: 30,
			Cron: "0 3 * * *",
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8080,
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// Validate checks the configuration for internally inconsistent or missing
// values. It is called by main after Load.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "record", "serve", "full":
	default:
		return fmt.Errorf("config: unsupported mode %q (want record, serve, or full)", c.Mode)
	}

	if c.Recorder.DataDir == "" {
		return fmt.Errorf("config: recorder.data_dir is required")
	}
	if c.Recorder.FlushEvery < 1 {
		return fmt.Errorf("config: recorder.flush_every must be >= 1")
	}

	if c.Session.SlugTemplate == "" {
		return fmt.Errorf("config: session.slug_template is required")
	}
	if !strings.Contains(c.Session.SlugTemplate, "%s") {
		return fmt.Errorf("config: session.slug_template must contain %%s for the hour label")
	}
	if c.Session.RolloverHours < 1 || c.Session.RolloverHours > 24 {
		return fmt.Errorf("config: session.rollover_hours must be in [1,24]")
	}

	mode := strings.ToLower(c.Mode)
	if mode == "record" || mode == "full" {
		if c.Feed.WsHost == "" {
			return fmt.Errorf("config: feed.ws_host is required in %s mode", mode)
		}
	}

	if c.Postgres.Enabled && c.Postgres.DSN == "" && c.Postgres.Host == "" {
		return fmt.Errorf("config: postgres enabled but neither dsn nor host set")
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		return fmt.Errorf("config: s3 enabled but bucket not set")
	}
	if c.Retention.Enabled {
		if !c.Postgres.Enabled || !c.S3.Enabled {
			return fmt.Errorf("config: retention requires postgres and s3 to be enabled")
		}
		if c.Retention.Days < 1 {
			return fmt.Errorf("config: retention.days must be >= 1")
		}
		if c.Retention.Cron == "" {
			return fmt.Errorf("config: retention.cron is required")
		}
	}
	if c.Server.Enabled && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}

	return nil
}
