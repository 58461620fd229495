package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/engine"
	"github.com/aluiziolira/go-scrape-products/export"
	"github.com/aluiziolira/go-scrape-products/models"
)

func newScrapeProductCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape-product <url> [url...]",
		Short: "Scrape one or more product page URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig()
			if err != nil {
				return err
			}
			setupLogger(cfg.Verbose)
			return runScrape(cfg, args)
		},
	}
}

func newScrapeSKUsCmd() *cobra.Command {
	var urlTemplate string

	cmd := &cobra.Command{
		Use:   "scrape-skus <sku> [sku...]",
		Short: "Scrape products by SKU through a URL template",
		Long: "Resolves each SKU against --url-template (the SKU replaces the %s\n" +
			"placeholder) and scrapes the resulting URLs.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !strings.Contains(urlTemplate, "%s") {
				return fmt.Errorf("--url-template must contain a %%s placeholder")
			}
			cfg, err := buildConfig()
			if err != nil {
				return err
			}
			setupLogger(cfg.Verbose)

			urls := make([]string, 0, len(args))
			for _, sku := range args {
				urls = append(urls, fmt.Sprintf(urlTemplate, sku))
			}
			return runScrape(cfg, urls)
		},
	}
	cmd.Flags().StringVar(&urlTemplate, "url-template", "", "URL template with a %s SKU placeholder (required)")
	cmd.MarkFlagRequired("url-template")
	return cmd
}

func runScrape(cfg *config.Config, urls []string) error {
	e, err := engine.New(cfg, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(e.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	start := time.Now()
	result, err := e.Run(ctx, urls)
	if err != nil {
		return fmt.Errorf("scraping failed: %w", err)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	if err := writeResults(cfg, result); err != nil {
		return err
	}

	sessionLogPath := filepath.Join(cfg.OutputDir, "session-"+result.Stats.SessionID+".json")
	if err := export.WriteSessionLog(sessionLogPath, result.Stats, e.Tracker().Outcomes()); err != nil {
		return fmt.Errorf("write session log: %w", err)
	}

	printSummary(result, time.Since(start), cfg.OutputDir)
	return nil
}

func writeResults(cfg *config.Config, result *models.ScrapeResult) error {
	writer, err := createWriter(cfg.OutputFormat, cfg.OutputDir)
	if err != nil {
		return err
	}

	if err := writer.Write(result.Products); err != nil {
		writer.Close()
		return fmt.Errorf("write products: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	if len(result.Products) > 0 {
		if err := writer.Validate(); err != nil {
			return fmt.Errorf("output validation failed: %w", err)
		}
	}
	return nil
}

func createWriter(format, dir string) (export.Writer, error) {
	switch format {
	case "json":
		return export.NewJSONWriter(filepath.Join(dir, "products.json"))
	case "csv":
		return export.NewCSVWriter(filepath.Join(dir, "products.csv"))
	case "dual":
		return export.NewDualWriter(filepath.Join(dir, "products.csv"), filepath.Join(dir, "products.json"))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.ScrapeResult, duration time.Duration, outputDir string) {
	stats := result.Stats
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  Session:       %s\n", stats.SessionID)
	fmt.Printf("  Products:      %d\n", stats.ProductsScraped)
	fmt.Printf("  Requests:      %d\n", stats.RequestsMade)
	fmt.Printf("  Success rate:  %.2f%%\n", stats.SuccessRate()*100)
	fmt.Printf("  Failures:      %d\n", len(stats.Errors))
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Output dir:    %s\n", outputDir)
	fmt.Println(separator)
}
