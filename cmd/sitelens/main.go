// Package main is the entry point for the sitelens analyzer.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/analyzer"
	"github.com/sitelens/sitelens/internal/browser"
	"github.com/sitelens/sitelens/internal/config"
	"github.com/sitelens/sitelens/internal/fetcher"
	"github.com/sitelens/sitelens/internal/geo"
	"github.com/sitelens/sitelens/internal/linkcheck"
	"github.com/sitelens/sitelens/internal/localrank"
	"github.com/sitelens/sitelens/internal/report"
	"github.com/sitelens/sitelens/internal/safeurl"
	"github.com/sitelens/sitelens/internal/semantic"
	"github.com/sitelens/sitelens/internal/storage"
)

func main() {
	var (
		targetURL   = flag.String("url", "", "target URL to analyze (required)")
		goal        = flag.String("goal", "", "ranking goal, e.g. \"rank for plumbing services\"")
		location    = flag.String("location", "", "business location for local rank checks")
		latitude    = flag.Float64("lat", 0, "explicit center latitude (overrides -location)")
		longitude   = flag.Float64("lon", 0, "explicit center longitude (overrides -location)")
		radiusKm    = flag.Float64("radius", 5, "sampling radius in kilometers (1-50)")
		samples     = flag.Int("samples", 5, "number of geo sample points (1-20)")
		language    = flag.String("language", "en", "content language hint")
		dbPath      = flag.String("db", "", "SQLite path; when set the report is persisted")
		xlsxPath    = flag.String("xlsx", "", "write the report as an XLSX workbook (requires -db)")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *targetURL == "" {
		fmt.Fprintln(os.Stderr, "Usage: sitelens -url https://example.com [-goal ...] [-location ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *xlsxPath != "" && *dbPath == "" {
		fmt.Fprintln(os.Stderr, "-xlsx requires -db: the workbook is rendered from the stored report")
		os.Exit(2)
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	if err := run(*targetURL, *goal, *location, *latitude, *longitude,
		*radiusKm, *samples, *language, *dbPath, *xlsxPath, logger); err != nil {
		logger.Error("analysis failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(targetURL, goal, location string, lat, lon, radiusKm float64,
	samples int, language, dbPath, xlsxPath string, logger *zap.Logger) error {

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	validator, err := safeurl.New(cfg.DeniedNetworks, logger)
	if err != nil {
		return err
	}

	pool := browser.NewPool(cfg.BrowserPoolSize, cfg.ChromiumPath, cfg.UserAgent, logger)
	defer pool.Close()

	pageFetcher := fetcher.New(cfg, validator, pool, logger)
	defer pageFetcher.Close()

	orchestrator := analyzer.New(
		cfg,
		validator,
		pageFetcher,
		linkcheck.New(cfg.ProbeTimeout, cfg.UserAgent, cfg.MaxLinksToCheck, cfg.MaxConcurrentProbes, logger),
		localrank.New(cfg, pool, logger),
		geo.NewGeocoder(cfg.GeocodingUserAgent, cfg.ProbeTimeout, logger),
		semantic.NewFallback(),
		logger,
	)

	req := analyzer.Request{
		TargetURL:   targetURL,
		Goal:        goal,
		Location:    location,
		RadiusKm:    radiusKm,
		SampleCount: samples,
		Language:    language,
	}
	if flagWasSet("lat") && flagWasSet("lon") {
		req.Latitude = &lat
		req.Longitude = &lon
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := orchestrator.Analyze(ctx, req)
	if err != nil {
		var invalid *analyzer.InvalidInputError
		var unsafeTarget *safeurl.UnsafeTargetError
		var invalidURL *safeurl.InvalidURLError
		if errors.As(err, &invalid) || errors.As(err, &unsafeTarget) || errors.As(err, &invalidURL) {
			fmt.Fprintf(os.Stderr, "rejected: %v\n", err)
			os.Exit(2)
		}
		return err
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))

	if dbPath == "" {
		return nil
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.SaveReport(result, req)
	if err != nil {
		return err
	}
	logger.Info("report stored", zap.String("id", id), zap.String("db", dbPath))

	if xlsxPath != "" {
		stored, err := store.GetReport(id)
		if err != nil {
			return err
		}
		if err := report.ExportXLSX(stored, xlsxPath); err != nil {
			return err
		}
		logger.Info("workbook written", zap.String("path", xlsxPath))
	}

	return nil
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
