package cmd

import (
	"errors"
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/casedash/internal/config"
	"github.com/KaramelBytes/casedash/internal/dashboard"
	"github.com/KaramelBytes/casedash/internal/dataset"
	"github.com/KaramelBytes/casedash/internal/logging"
	"github.com/KaramelBytes/casedash/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	flagDataDir string

	// Loaded configuration
	cfg    *cfgpkg.Global
	cfgErr error
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "casedash",
	Short: "Case records dashboard: KPIs and category charts from a data folder",
	Long: `casedash loads the case dataset from a data folder (CSV, JSON or XLSX, with a
synthetic sample as fallback), computes the key metrics and category breakdowns,
and renders them to the terminal or serves them as JSON over HTTP.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.casedash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "folder holding the dataset (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	cfgErr = err
	if err != nil {
		// Non-fatal: config commands can still repair the file
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c

	if rootCmd.PersistentFlags().Changed("data-dir") && flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}

	l, err := logging.New(cfg.LogLevel, debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
		l = zap.NewNop()
	}
	logger = l
}

// requireConfig returns the loaded configuration or the reason it is missing.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	if cfgErr != nil {
		return nil, fmt.Errorf("configuration unavailable: %w", cfgErr)
	}
	return nil, errors.New("configuration not loaded")
}

// newService wires the loader, cache and metrics for one command invocation.
func newService() (*dashboard.Service, *metrics.Metrics, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, nil, err
	}
	m := metrics.New()
	svc, err := dashboard.NewService(dashboard.Config{
		Loader:   dataset.NewLoader(c.DatasetOptions(), logger),
		CacheTTL: c.CacheTTL,
		Analysis: c.AnalysisOptions(),
		Metrics:  m,
		Log:      logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return svc, m, nil
}
