package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYREC_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYREC_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Feed ──
	setStr(&cfg.Feed.WsHost, "POLYREC_FEED_WS_HOST")
	setStringSlice(&cfg.Feed.AssetIDs, "POLYREC_FEED_ASSET_IDS")

	// ── Recorder ──
	setStr(&cfg.Recorder.DataDir, "POLYREC_RECORDER_DATA_DIR")
	setInt(&cfg.Recorder.FlushEvery, "POLYREC_RECORDER_FLUSH_EVERY")

	// ── Session ──
	setStr(&cfg.Session.SlugTemplate, "POLYREC_SESSION_SLUG_TEMPLATE")
	setStr(&cfg.Session.Timezone, "POLYREC_SESSION_TIMEZONE")
	setInt(&cfg.Session.RolloverHours, "POLYREC_SESSION_ROLLOVER_HOURS")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "POLYREC_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "POLYREC_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "POLYREC_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "POLYREC_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "POLYREC_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "POLYREC_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "POLYREC_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "POLYREC_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "POLYREC_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "POLYREC_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "POLYREC_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "POLYREC_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "POLYREC_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYREC_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYREC_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYREC_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYREC_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYREC_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "POLYREC_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "POLYREC_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POLYREC_S3_REGION")
	setStr(&cfg.S3.Bucket, "POLYREC_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "POLYREC_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POLYREC_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "POLYREC_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "POLYREC_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "POLYREC_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "POLYREC_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "POLYREC_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "POLYREC_SERVER_CORS_ORIGINS")

	// ── Retention ──
	setBool(&cfg.Retention.Enabled, "POLYREC_RETENTION_ENABLED")
	setInt(&cfg.Retention.Days, "POLYREC_RETENTION_DAYS")
	setStr(&cfg.Retention.Cron, "POLYREC_RETENTION_CRON")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "POLYREC_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYREC_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYREC_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLYREC_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYREC_MODE")
	setStr(&cfg.LogLevel, "POLYREC_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
