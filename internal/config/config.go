package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"quant/internal/engine"
	"quant/types"
)

// Config is the YAML run configuration consumed by the CLI.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Backtest BacktestConfig `yaml:"backtest"`
	Strategy StrategyConfig `yaml:"strategy"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type BacktestConfig struct {
	Start           string  `yaml:"start"`            // YYYY-MM-DD, empty = data start
	End             string  `yaml:"end"`              // YYYY-MM-DD, empty = data end
	InitialCapital  float64 `yaml:"initial_capital"`  // default 1_000_000
	RebalanceFreq   string  `yaml:"rebalance_freq"`   // daily, weekly, monthly
	TransactionCost float64 `yaml:"transaction_cost"` // fee rate, both sides
	Tax             float64 `yaml:"tax"`              // sell-side tax rate
	Slippage        float64 `yaml:"slippage"`
	AllowFractional *bool   `yaml:"allow_fractional"` // default true
	Benchmark       string  `yaml:"benchmark"`
}

type StrategyConfig struct {
	Lookback        int     `yaml:"lookback"`          // momentum window, default 20
	TopN            int     `yaml:"top_n"`             // default 10
	MaxWeight       float64 `yaml:"max_weight"`        // default 0.15
	EqualWeight     *bool   `yaml:"equal_weight"`      // default true
	MinDollarVolume float64 `yaml:"min_dollar_volume"` // default 10_000_000
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("config %s: database.url is required", path)
	}
	return &cfg, nil
}

// RunConfig converts the backtest section into an engine.RunConfig,
// filling unset fields with the platform defaults.
func (c *Config) RunConfig() (engine.RunConfig, error) {
	run := engine.DefaultRunConfig()
	bt := c.Backtest

	if bt.Start != "" {
		t, err := time.Parse("2006-01-02", bt.Start)
		if err != nil {
			return engine.RunConfig{}, fmt.Errorf("parse start date: %w", err)
		}
		run.Start = t
	}
	if bt.End != "" {
		t, err := time.Parse("2006-01-02", bt.End)
		if err != nil {
			return engine.RunConfig{}, fmt.Errorf("parse end date: %w", err)
		}
		run.End = t
	}
	if bt.InitialCapital > 0 {
		run.InitialCapital = decimal.NewFromFloat(bt.InitialCapital)
	}
	if bt.RebalanceFreq != "" {
		freq, err := types.ParseFrequency(bt.RebalanceFreq)
		if err != nil {
			return engine.RunConfig{}, err
		}
		run.Frequency = freq
	}
	if bt.TransactionCost > 0 {
		run.FeeRate = decimal.NewFromFloat(bt.TransactionCost)
	}
	if bt.Tax > 0 {
		run.TaxRate = decimal.NewFromFloat(bt.Tax)
	}
	if bt.Slippage > 0 {
		run.SlippageRate = decimal.NewFromFloat(bt.Slippage)
	}
	if bt.AllowFractional != nil {
		run.AllowFractional = *bt.AllowFractional
	}
	run.Benchmark = bt.Benchmark
	return run, nil
}
