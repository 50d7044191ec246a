package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"quant/internal/config"
	"quant/internal/engine"
	"quant/internal/repository"
	"quant/internal/strategy"
	"quant/types"
)

var (
	runConfigPath string
	runStart      string
	runEnd        string
	runFreq       string
	runCapital    float64
	runOutputDir  string
	runVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Portfolio strategy backtester",
	Long: `quant replays an equity portfolio strategy against historical close
prices, applies transaction costs, taxes and slippage, and reports the
standard performance and risk metrics.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a configured backtest",
	Long: `Run a backtest as described by the configuration file and print the
metric summary.

Examples:
  quant run --config config.yaml
  quant run --config config.yaml --start 2024-01-01 --end 2025-12-31
  quant run --config config.yaml --freq monthly --output ./artifacts`,
	RunE: runBacktest,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runConfigPath, "config", "config.yaml", "Path to the run configuration file")
	runCmd.Flags().StringVar(&runStart, "start", "", "Start date (YYYY-MM-DD), overrides config")
	runCmd.Flags().StringVar(&runEnd, "end", "", "End date (YYYY-MM-DD), overrides config")
	runCmd.Flags().StringVar(&runFreq, "freq", "", "Rebalance frequency: daily, weekly, monthly")
	runCmd.Flags().Float64Var(&runCapital, "capital", 0, "Initial capital, overrides config")
	runCmd.Flags().StringVar(&runOutputDir, "output", "", "Directory for trades.csv and equity.csv artifacts")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "Debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runBacktest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(runVerbose)

	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return err
	}
	runCfg, err := cfg.RunConfig()
	if err != nil {
		return err
	}
	if err := applyFlagOverrides(&runCfg); err != nil {
		return err
	}
	runCfg.ShowProgress = true

	ctx := cmd.Context()
	db, err := repository.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect datasource: %w", err)
	}
	defer db.Close()

	eng := engine.New(db, buildStrategy(cfg), buildAllocator(cfg), logger)
	result, err := eng.Run(ctx, runCfg)
	if err != nil {
		return err
	}

	fmt.Println(result.Summary())

	if runOutputDir != "" {
		if err := os.MkdirAll(runOutputDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		tradesPath := filepath.Join(runOutputDir, "trades.csv")
		if err := result.WriteTradesCSVFile(tradesPath); err != nil {
			return err
		}
		equityPath := filepath.Join(runOutputDir, "equity.csv")
		if err := result.WriteEquityCSVFile(equityPath); err != nil {
			return err
		}
		logger.Info().Str("trades", tradesPath).Str("equity", equityPath).Msg("artifacts written")
	}
	return nil
}

func applyFlagOverrides(runCfg *engine.RunConfig) error {
	if runStart != "" {
		t, err := time.Parse("2006-01-02", runStart)
		if err != nil {
			return fmt.Errorf("parse --start: %w", err)
		}
		runCfg.Start = t
	}
	if runEnd != "" {
		t, err := time.Parse("2006-01-02", runEnd)
		if err != nil {
			return fmt.Errorf("parse --end: %w", err)
		}
		runCfg.End = t
	}
	if runFreq != "" {
		freq, err := types.ParseFrequency(runFreq)
		if err != nil {
			return err
		}
		runCfg.Frequency = freq
	}
	if runCapital > 0 {
		runCfg.InitialCapital = decimal.NewFromFloat(runCapital)
	}
	return nil
}

func buildStrategy(cfg *config.Config) engine.Strategy {
	m := strategy.NewMomentum()
	if cfg.Strategy.Lookback > 0 {
		m.Lookback = cfg.Strategy.Lookback
	}
	if cfg.Strategy.MinDollarVolume > 0 {
		m.MinDollarVolume = decimal.NewFromFloat(cfg.Strategy.MinDollarVolume)
	}
	return m
}

func buildAllocator(cfg *config.Config) engine.Allocator {
	a := strategy.NewTopNAllocator()
	if cfg.Strategy.TopN > 0 {
		a.TopN = cfg.Strategy.TopN
	}
	if cfg.Strategy.MaxWeight > 0 {
		a.MaxWeight = decimal.NewFromFloat(cfg.Strategy.MaxWeight)
	}
	if cfg.Strategy.EqualWeight != nil {
		a.EqualWeight = *cfg.Strategy.EqualWeight
	}
	return a
}

func setupLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
