// Command scraper is the CLI adapter around the scraping engine. It carries
// no engine logic: it builds a config, runs the engine, and hands results to
// the export writers.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-products/config"
)

var (
	flagConfigFile    string
	flagDelayMs       int
	flagMaxRetries    int
	flagRespectRobots bool
	flagRotateAgents  bool
	flagOutputDir     string
	flagOutputFormat  string
	flagMetricsAddr   string
	flagVerbose       bool
)

func main() {
	root := &cobra.Command{
		Use:           "scraper",
		Short:         "Respectful product-page scraper",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&flagConfigFile, "config", "", "Path to a YAML config file")
	flags.IntVar(&flagDelayMs, "delay", -1, "Minimum delay between requests to one host (milliseconds)")
	flags.IntVar(&flagMaxRetries, "max-retries", -1, "Maximum retry attempts per URL")
	flags.BoolVar(&flagRespectRobots, "respect-robots", true, "Respect robots.txt directives")
	flags.BoolVar(&flagRotateAgents, "rotate-agents", true, "Rotate user-agent strings")
	flags.StringVar(&flagOutputDir, "output", "", "Output directory")
	flags.StringVar(&flagOutputFormat, "format", "", "Output format: csv, json, or dual")
	flags.StringVar(&flagMetricsAddr, "metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(newScrapeProductCmd())
	root.AddCommand(newScrapeSKUsCmd())
	root.AddCommand(newGenerateConfigCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// buildConfig layers the config file, environment, and flags, in that order.
func buildConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if flagConfigFile != "" {
		cfg, err = config.LoadFile(flagConfigFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.DefaultConfig()
	}

	if value, ok, err := config.EnvInt("SCRAPER_DELAY_MS"); err != nil {
		return nil, err
	} else if ok {
		cfg.RateLimitInterval = time.Duration(value) * time.Millisecond
	}
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		cfg.OutputDir = value
	}
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}

	if flagDelayMs >= 0 {
		cfg.RateLimitInterval = time.Duration(flagDelayMs) * time.Millisecond
	}
	if flagMaxRetries >= 0 {
		cfg.MaxRetries = flagMaxRetries
	}
	cfg.RespectRobotsTxt = flagRespectRobots
	cfg.RotateUserAgents = flagRotateAgents
	if flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}
	if flagOutputFormat != "" {
		cfg.OutputFormat = strings.ToLower(flagOutputFormat)
	}
	if flagMetricsAddr != "" {
		cfg.MetricsAddr = flagMetricsAddr
	}
	cfg.Verbose = flagVerbose

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupLogger(verbose bool) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	setLogLoggerLevel(level.Level())
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
