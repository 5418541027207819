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
// built-in defaults, applies SPREADBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SPREADBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Arbitrage ──
	setFloat64(&cfg.Arbitrage.MinProfitPercentage, "SPREADBOT_ARBITRAGE_MIN_PROFIT_PERCENTAGE")
	setFloat64(&cfg.Arbitrage.NotifyProfitPercentage, "SPREADBOT_ARBITRAGE_NOTIFY_PROFIT_PERCENTAGE")
	setDuration(&cfg.Arbitrage.OpportunityTTL, "SPREADBOT_ARBITRAGE_OPPORTUNITY_TTL")
	setDuration(&cfg.Arbitrage.TickInterval, "SPREADBOT_ARBITRAGE_TICK_INTERVAL")
	setDuration(&cfg.Arbitrage.StalenessThreshold, "SPREADBOT_ARBITRAGE_STALENESS_THRESHOLD")
	setStringSlice(&cfg.Arbitrage.SymbolBlacklist, "SPREADBOT_ARBITRAGE_SYMBOL_BLACKLIST")

	// ── Cooldown ──
	setDuration(&cfg.Cooldown.Spot, "SPREADBOT_COOLDOWN_SPOT")
	setDuration(&cfg.Cooldown.Futures, "SPREADBOT_COOLDOWN_FUTURES")

	// ── Trading ──
	setBool(&cfg.Trading.Enabled, "SPREADBOT_TRADING_ENABLED")
	setFloat64(&cfg.Trading.RiskFraction, "SPREADBOT_TRADING_RISK_FRACTION")
	setFloat64(&cfg.Trading.HardCapUSD, "SPREADBOT_TRADING_HARD_CAP_USD")
	setDuration(&cfg.Trading.StrategyReloadInterval, "SPREADBOT_TRADING_STRATEGY_RELOAD_INTERVAL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "SPREADBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SPREADBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SPREADBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SPREADBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SPREADBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SPREADBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SPREADBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SPREADBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SPREADBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SPREADBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SPREADBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SPREADBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SPREADBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SPREADBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SPREADBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SPREADBOT_REDIS_TLS_ENABLED")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SPREADBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SPREADBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SPREADBOT_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SPREADBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramToken, "TELEGRAM_BOT_TOKEN") // compatibility alias
	setStr(&cfg.Notify.TelegramChatID, "SPREADBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.TelegramChatID, "TELEGRAM_CHAT_ID") // compatibility alias
	setStr(&cfg.Notify.DiscordWebhookURL, "SPREADBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SPREADBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "SPREADBOT_MODE")
	setStr(&cfg.LogLevel, "SPREADBOT_LOG_LEVEL")
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
