// Package config defines the top-level configuration for the spread bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SPREADBOT_* environment
// variables.
type Config struct {
	Exchanges []ExchangeConfig `toml:"exchanges"`
	Arbitrage ArbitrageConfig  `toml:"arbitrage"`
	Cooldown  CooldownConfig   `toml:"cooldown"`
	Trading   TradingConfig    `toml:"trading"`
	Postgres  PostgresConfig   `toml:"postgres"`
	Redis     RedisConfig      `toml:"redis"`
	Server    ServerConfig     `toml:"server"`
	Notify    NotifyConfig     `toml:"notify"`
	Mode      string           `toml:"mode"`
	LogLevel  string           `toml:"log_level"`
}

// ExchangeConfig holds the public endpoints for one monitored exchange.
// Credentials are never configured here; order placement resolves per-user
// API keys from the credential store.
type ExchangeConfig struct {
	Name            string `toml:"name"`
	WSSpotURL       string `toml:"ws_spot_url"`
	WSFuturesURL    string `toml:"ws_futures_url"`
	RestSpotURL     string `toml:"rest_spot_url"`
	RestFuturesURL  string `toml:"rest_futures_url"`
	Disabled        bool   `toml:"disabled"`
}

// ArbitrageConfig holds detection parameters.
type ArbitrageConfig struct {
	// MinProfitPercentage is the global detection threshold, in percent.
	MinProfitPercentage float64 `toml:"min_profit_percentage"`
	// NotifyProfitPercentage is the higher bar an opportunity must clear
	// before an alert is sent.
	NotifyProfitPercentage float64  `toml:"notify_profit_percentage"`
	OpportunityTTL         duration `toml:"opportunity_ttl"`
	TickInterval           duration `toml:"tick_interval"`
	StalenessThreshold     duration `toml:"staleness_threshold"`
	SymbolBlacklist        []string `toml:"symbol_blacklist"`
}

// CooldownConfig holds per-market notification cooldown windows. Futures
// spreads are more transient, so their window is shorter.
type CooldownConfig struct {
	Spot    duration `toml:"spot"`
	Futures duration `toml:"futures"`
}

// TradingConfig holds auto-trade parameters. RiskFraction and HardCapUSD
// bound exposure per automated trade regardless of strategy configuration.
type TradingConfig struct {
	Enabled                bool     `toml:"enabled"`
	RiskFraction           float64  `toml:"risk_fraction"`
	HardCapUSD             float64  `toml:"hard_cap_usd"`
	StrategyReloadInterval duration `toml:"strategy_reload_interval"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
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

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Exchanges: []ExchangeConfig{
			{
				Name:           "Bybit",
				WSSpotURL:      "wss://stream.bybit.com/v5/public/spot",
				WSFuturesURL:   "wss://stream.bybit.com/v5/public/linear",
				RestSpotURL:    "https://api.bybit.com",
				RestFuturesURL: "https://api.bybit.com",
			},
			{
				Name:           "OKX",
				WSSpotURL:      "wss://ws.okx.com:8443/ws/v5/public",
				WSFuturesURL:   "wss://ws.okx.com:8443/ws/v5/public",
				RestSpotURL:    "https://www.okx.com",
				RestFuturesURL: "https://www.okx.com",
			},
		},
		Arbitrage: ArbitrageConfig{
			MinProfitPercentage:    0.05,
			NotifyProfitPercentage: 0.5,
			OpportunityTTL:         duration{2 * time.Minute},
			TickInterval:           duration{time.Second},
			StalenessThreshold:     duration{30 * time.Second},
			SymbolBlacklist:        []string{"TST", "NEIRO"},
		},
		Cooldown: CooldownConfig{
			Spot:    duration{5 * time.Minute},
			Futures: duration{2 * time.Minute},
		},
		Trading: TradingConfig{
			Enabled:                false,
			RiskFraction:           0.1,
			HardCapUSD:             100,
			StrategyReloadInterval: duration{time.Minute},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "spreadbot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        3002,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity", "trade_completed", "trade_failed"},
		},
		Mode:     "monitor",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"monitor": true,
	"trade":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: monitor, trade)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	enabled := 0
	seen := map[string]bool{}
	for i, ex := range c.Exchanges {
		if ex.Name == "" {
			errs = append(errs, fmt.Sprintf("exchanges[%d]: name is required", i))
			continue
		}
		if seen[ex.Name] {
			errs = append(errs, fmt.Sprintf("exchanges: duplicate name %q", ex.Name))
		}
		seen[ex.Name] = true
		if !ex.Disabled {
			enabled++
		}
	}
	if enabled < 2 {
		errs = append(errs, "exchanges: at least two enabled exchanges are required for pairwise comparison")
	}

	if c.Arbitrage.MinProfitPercentage <= 0 {
		errs = append(errs, "arbitrage: min_profit_percentage must be positive")
	}
	if c.Arbitrage.OpportunityTTL.Duration <= 0 {
		errs = append(errs, "arbitrage: opportunity_ttl must be positive")
	}
	if c.Arbitrage.TickInterval.Duration <= 0 {
		errs = append(errs, "arbitrage: tick_interval must be positive")
	}
	if c.Arbitrage.StalenessThreshold.Duration <= 0 {
		errs = append(errs, "arbitrage: staleness_threshold must be positive")
	}

	if c.Cooldown.Spot.Duration <= 0 || c.Cooldown.Futures.Duration <= 0 {
		errs = append(errs, "cooldown: spot and futures windows must be positive")
	}

	if c.Trading.Enabled {
		if c.Trading.RiskFraction <= 0 || c.Trading.RiskFraction > 1 {
			errs = append(errs, "trading: risk_fraction must be in (0, 1]")
		}
		if c.Trading.HardCapUSD <= 0 {
			errs = append(errs, "trading: hard_cap_usd must be positive")
		}
	}

	if strings.ToLower(c.Mode) == "trade" {
		if c.Postgres.DSN == "" && c.Postgres.Database == "" {
			errs = append(errs, "postgres: dsn or database is required for mode trade")
		}
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: invalid port %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// EnabledExchanges returns the names of every exchange that is not disabled.
func (c *Config) EnabledExchanges() []string {
	names := make([]string, 0, len(c.Exchanges))
	for _, ex := range c.Exchanges {
		if !ex.Disabled {
			names = append(names, ex.Name)
		}
	}
	return names
}

// CooldownFor returns the cooldown window for the given market type.
func (c *CooldownConfig) CooldownFor(market string) time.Duration {
	if market == "futures" {
		return c.Futures.Duration
	}
	return c.Spot.Duration
}
