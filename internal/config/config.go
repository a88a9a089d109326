package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       LoggingConfig   `yaml:"log"`
	REST      RESTConfig      `yaml:"rest"`
	Live      bool            `yaml:"live"`
	Trade     TradeConfig     `yaml:"trade"`
	Journal   JournalConfig   `yaml:"journal"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Timescale TimescaleConfig `yaml:"timescale"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Monitor   MonitorConfig   `yaml:"monitor"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type RESTConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// TradeConfig holds the strategy knobs. Percentages and prices are yaml
// strings so they reach the decimal layer without passing through binary
// floating point.
type TradeConfig struct {
	Product                string        `yaml:"product"`
	TradingCurrency        string        `yaml:"trading_currency"`
	CryptoCurrency         string        `yaml:"crypto_currency"`
	Interval               time.Duration `yaml:"interval"`
	PercentOfAvailable     string        `yaml:"percent_of_available"`
	DipPercent             string        `yaml:"dip_percent"`
	UpTrendPercent         string        `yaml:"up_trend_percent"`
	StopLossPercent        string        `yaml:"stop_loss_percent"`
	ProfitPercent          string        `yaml:"profit_percent"`
	PriceRange             string        `yaml:"price_range"`
	MinimumStartingBalance string        `yaml:"minimum_starting_balance"`
}

// TradeParams is TradeConfig with the numeric fields parsed.
type TradeParams struct {
	PercentOfAvailable     decimal.Decimal
	DipPercent             decimal.Decimal
	UpTrendPercent         decimal.Decimal
	StopLossPercent        decimal.Decimal
	ProfitPercent          decimal.Decimal
	PriceRange             decimal.Decimal
	MinimumStartingBalance decimal.Decimal
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type TimescaleConfig struct {
	Enabled         bool          `yaml:"enabled"`
	DSN             string        `yaml:"dsn"`
	Schema          string        `yaml:"schema"`
	QueueSize       int           `yaml:"queue_size"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`

	// Operator commands (/status and friends) over the same bot. Restricted
	// to the configured chat; an empty allow list admits any user in it.
	OperatorEnabled        bool          `yaml:"operator_enabled"`
	OperatorPollInterval   time.Duration `yaml:"operator_poll_interval"`
	OperatorAllowedUserIDs []int64       `yaml:"operator_allowed_user_ids"`
}

type MonitorConfig struct {
	Enabled bool `yaml:"enabled"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

// LoadEnv loads a .env file into the environment. A missing file is fine.
func LoadEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.REST.Timeout == 0 {
		cfg.REST.Timeout = 10 * time.Second
	}
	if cfg.Trade.Interval == 0 {
		cfg.Trade.Interval = time.Second
	}
	if cfg.Trade.PercentOfAvailable == "" {
		cfg.Trade.PercentOfAvailable = "25"
	}
	if cfg.Trade.DipPercent == "" {
		cfg.Trade.DipPercent = "2"
	}
	if cfg.Trade.UpTrendPercent == "" {
		cfg.Trade.UpTrendPercent = "2"
	}
	if cfg.Trade.StopLossPercent == "" {
		cfg.Trade.StopLossPercent = "2.5"
	}
	if cfg.Trade.ProfitPercent == "" {
		cfg.Trade.ProfitPercent = "5"
	}
	if cfg.Trade.PriceRange == "" {
		cfg.Trade.PriceRange = "0"
	}
	if cfg.Trade.MinimumStartingBalance == "" {
		cfg.Trade.MinimumStartingBalance = "5"
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "data/cb-swing-bot.db"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9100"
	}
	if cfg.Timescale.Schema == "" {
		cfg.Timescale.Schema = "public"
	}
	if cfg.Telegram.OperatorPollInterval == 0 {
		cfg.Telegram.OperatorPollInterval = 3 * time.Second
	}
}

func validate(cfg *Config) error {
	if cfg.Trade.Product == "" {
		return errors.New("trade.product is required")
	}
	if cfg.Trade.TradingCurrency == "" {
		return errors.New("trade.trading_currency is required")
	}
	if cfg.Trade.CryptoCurrency == "" {
		return errors.New("trade.crypto_currency is required")
	}
	params, err := cfg.Trade.Params()
	if err != nil {
		return err
	}
	if params.PercentOfAvailable.LessThanOrEqual(decimal.Zero) || params.PercentOfAvailable.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("trade.percent_of_available must be in (0, 100]")
	}
	if params.PriceRange.IsNegative() {
		return errors.New("trade.price_range must not be negative")
	}
	if cfg.Timescale.Enabled && cfg.Timescale.DSN == "" {
		return errors.New("timescale.dsn is required when timescale is enabled")
	}
	if cfg.Telegram.OperatorEnabled && !cfg.Telegram.Enabled {
		return errors.New("telegram.operator_enabled requires telegram.enabled")
	}
	return nil
}

// Params parses the numeric trade fields into decimals.
func (c TradeConfig) Params() (TradeParams, error) {
	fields := []struct {
		name  string
		value string
		out   *decimal.Decimal
	}{
		{"trade.percent_of_available", c.PercentOfAvailable, nil},
		{"trade.dip_percent", c.DipPercent, nil},
		{"trade.up_trend_percent", c.UpTrendPercent, nil},
		{"trade.stop_loss_percent", c.StopLossPercent, nil},
		{"trade.profit_percent", c.ProfitPercent, nil},
		{"trade.price_range", c.PriceRange, nil},
		{"trade.minimum_starting_balance", c.MinimumStartingBalance, nil},
	}
	var params TradeParams
	fields[0].out = &params.PercentOfAvailable
	fields[1].out = &params.DipPercent
	fields[2].out = &params.UpTrendPercent
	fields[3].out = &params.StopLossPercent
	fields[4].out = &params.ProfitPercent
	fields[5].out = &params.PriceRange
	fields[6].out = &params.MinimumStartingBalance
	for _, field := range fields {
		value, err := decimal.NewFromString(field.value)
		if err != nil {
			return TradeParams{}, fmt.Errorf("%s: invalid decimal %q", field.name, field.value)
		}
		if value.IsNegative() {
			return TradeParams{}, fmt.Errorf("%s must not be negative", field.name)
		}
		*field.out = value
	}
	return params, nil
}
