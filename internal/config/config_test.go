package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
trade:
  product: BTC-GBP
  trading_currency: GBP
  crypto_currency: BTC
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Log.Level)
	}
	if cfg.Trade.Interval != time.Second {
		t.Fatalf("expected default interval 1s, got %v", cfg.Trade.Interval)
	}
	params, err := cfg.Trade.Params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if !params.PercentOfAvailable.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("expected default percent 25, got %s", params.PercentOfAvailable)
	}
	if !params.StopLossPercent.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected default stop loss 2.5, got %s", params.StopLossPercent)
	}
	if !params.MinimumStartingBalance.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("expected default minimum balance 5, got %s", params.MinimumStartingBalance)
	}
}

func TestLoadMissingProduct(t *testing.T) {
	if _, err := Load(writeConfig(t, "trade:\n  trading_currency: GBP\n  crypto_currency: BTC\n")); err == nil {
		t.Fatalf("expected error for missing product")
	}
}

func TestLoadRejectsBadDecimal(t *testing.T) {
	cfg := minimalConfig + "  dip_percent: \"two\"\n"
	if _, err := Load(writeConfig(t, cfg)); err == nil {
		t.Fatalf("expected error for invalid decimal")
	}
}

func TestLoadRejectsNegativeRange(t *testing.T) {
	cfg := minimalConfig + "  price_range: \"-0.5\"\n"
	if _, err := Load(writeConfig(t, cfg)); err == nil {
		t.Fatalf("expected error for negative price range")
	}
}

func TestLoadRejectsPercentOutOfRange(t *testing.T) {
	cfg := minimalConfig + "  percent_of_available: \"150\"\n"
	if _, err := Load(writeConfig(t, cfg)); err == nil {
		t.Fatalf("expected error for percent > 100")
	}
}

func TestLoadTimescaleRequiresDSN(t *testing.T) {
	cfg := minimalConfig + "timescale:\n  enabled: true\n"
	if _, err := Load(writeConfig(t, cfg)); err == nil {
		t.Fatalf("expected error for enabled timescale without dsn")
	}
}

func TestLoadOperatorRequiresTelegram(t *testing.T) {
	cfg := minimalConfig + "telegram:\n  operator_enabled: true\n"
	if _, err := Load(writeConfig(t, cfg)); err == nil {
		t.Fatalf("expected error for operator without telegram enabled")
	}
}

func TestLoadOperatorPollIntervalDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Telegram.OperatorPollInterval != 3*time.Second {
		t.Fatalf("expected default poll interval 3s, got %v", cfg.Telegram.OperatorPollInterval)
	}
}

func TestParamsExactDecimals(t *testing.T) {
	cfg := TradeConfig{
		PercentOfAvailable:     "25",
		DipPercent:             "2",
		UpTrendPercent:         "2",
		StopLossPercent:        "2.5",
		ProfitPercent:          "5",
		PriceRange:             "0.5",
		MinimumStartingBalance: "5",
	}
	params, err := cfg.Params()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.PriceRange.String() != "0.5" {
		t.Fatalf("expected exact 0.5, got %s", params.PriceRange)
	}
}

func TestLoadEnvMissingFileIgnored(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing .env must be ignored, got %v", err)
	}
}
