package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"crypto-price-tracker/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	API       APIConfig       `mapstructure:"api"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Server    ServerConfig    `mapstructure:"server"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// APIConfig covers the remote price API and its mock fallback.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	UseMock        bool          `mapstructure:"use_mock"`
	MockPath       string        `mapstructure:"mock_path"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// TrackerConfig selects what is tracked.
type TrackerConfig struct {
	Coins       []string `mapstructure:"coins"`
	Currency    string   `mapstructure:"currency"`
	HistoryDays int      `mapstructure:"history_days"`
	SeriesDays  int      `mapstructure:"series_days"`
}

// StorageConfig pins the flat-file locations owned by the core.
type StorageConfig struct {
	PricesCSV  string `mapstructure:"prices_csv"`
	AlertsJSON string `mapstructure:"alerts_json"`
}

// SchedulerConfig governs sampling cadence.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// ServerConfig tunes the dashboard HTTP server.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AlertingConfig defines drop detection and routing.
type AlertingConfig struct {
	Threshold float64        `mapstructure:"threshold"`
	Telegram  TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the optional Telegram delivery channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	PlotsDir string `mapstructure:"plots_dir"`
}

// Load builds configuration from .env, file, environment, and defaults.
func Load(path string) (*Config, error) {
	// Best effort, matching dotenv semantics: a missing .env is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Tracker.Coins = NormalizeCoins(cfg.Tracker.Coins)
	cfg.Tracker.Currency = strings.ToLower(strings.TrimSpace(cfg.Tracker.Currency))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "crypto-price-tracker")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("api.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("api.use_mock", false)
	v.SetDefault("api.mock_path", "data/samples/mock_prices.json")
	v.SetDefault("api.request_timeout", "15s")
	v.SetDefault("api.user_agent", "crypto-price-tracker/1.0")

	v.SetDefault("tracker.coins", []string{"bitcoin", "ethereum"})
	v.SetDefault("tracker.currency", "usd")
	v.SetDefault("tracker.history_days", 7)
	v.SetDefault("tracker.series_days", 30)

	v.SetDefault("storage.prices_csv", "data/prices/crypto_prices.csv")
	v.SetDefault("storage.alerts_json", "data/alerts/price_alerts.json")

	v.SetDefault("scheduler.interval", "1h")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("alerting.threshold", 0.10)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.plots_dir", "data/plots")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if len(c.Tracker.Coins) == 0 {
		return fmt.Errorf("tracker.coins must list at least one coin")
	}
	if c.Tracker.HistoryDays <= 0 {
		return fmt.Errorf("tracker.history_days must be greater than zero")
	}
	if c.Tracker.SeriesDays <= 0 {
		return fmt.Errorf("tracker.series_days must be greater than zero")
	}
	if c.Storage.PricesCSV == "" {
		return fmt.Errorf("storage.prices_csv is required")
	}
	if c.Storage.AlertsJSON == "" {
		return fmt.Errorf("storage.alerts_json is required")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Alerting.Threshold < 0 {
		return fmt.Errorf("alerting.threshold cannot be negative")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required when telegram is enabled")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}
