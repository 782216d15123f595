package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SETTLER_* environment variable overrides, and
// returns the final Config. The result has NOT been validated; callers
// should invoke Config.Validate after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env if present; missing files are fine.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides overwrites Config fields from well-known SETTLER_*
// variables when set, so operators can inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "SETTLER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SETTLER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SETTLER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SETTLER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SETTLER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SETTLER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SETTLER_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SETTLER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SETTLER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SETTLER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "SETTLER_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "SETTLER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SETTLER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SETTLER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SETTLER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SETTLER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SETTLER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SETTLER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SETTLER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SETTLER_S3_REGION")
	setStr(&cfg.S3.Bucket, "SETTLER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SETTLER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SETTLER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SETTLER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SETTLER_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SETTLER_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SETTLER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SETTLER_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SETTLER_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "SETTLER_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "SETTLER_SERVER_RATE_LIMIT_WINDOW")

	// ── Scanner ──
	setBool(&cfg.Scanner.Enabled, "SETTLER_SCANNER_ENABLED")
	setDuration(&cfg.Scanner.Interval, "SETTLER_SCANNER_INTERVAL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SETTLER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SETTLER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SETTLER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SETTLER_NOTIFY_EVENTS")

	// ── Fees ──
	setFloat64(&cfg.Fees.PlatformFeeRate, "SETTLER_FEES_PLATFORM_FEE_RATE")
	setFloat64(&cfg.Fees.LegacyHouseFeeRate, "SETTLER_FEES_LEGACY_HOUSE_FEE_RATE")
	setFloat64(&cfg.Fees.LeaderboardShare, "SETTLER_FEES_LEADERBOARD_SHARE")
	setFloat64(&cfg.Fees.ReferralShare, "SETTLER_FEES_REFERRAL_SHARE")
	setFloat64(&cfg.Fees.WheelShare, "SETTLER_FEES_WHEEL_SHARE")
	setFloat64(&cfg.Fees.TreasuryShare, "SETTLER_FEES_TREASURY_SHARE")

	// ── Top-level ──
	setStr(&cfg.Mode, "SETTLER_MODE")
	setStr(&cfg.LogLevel, "SETTLER_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the variable is
// present and non-empty.

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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
