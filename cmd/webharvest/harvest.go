package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/webharvest/internal/config"
	"github.com/nao1215/webharvest/internal/database"
	"github.com/nao1215/webharvest/internal/fetch"
	"github.com/nao1215/webharvest/internal/log"
	"github.com/nao1215/webharvest/internal/model"
	"github.com/nao1215/webharvest/internal/pipeline"
	"github.com/nao1215/webharvest/internal/report"
	"github.com/spf13/cobra"
)

// NewHarvestCmd creates the harvest command.
func NewHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest [url]...",
		Short: "Crawl one or more websites and download their images",
		Long: `Harvest crawls a website from a seed URL and collects its images.

The crawl starts at the seed, follows navigation links within the same
domain breadth-first, and stops at the page budget. Images found on the
crawled pages are downloaded through a bounded worker pool and re-encoded
to JPEG or PNG. Pages and images are bundled into a zip archive, and the
run is recorded in the local history database.

Examples:
  # Harvest a single site with defaults (20 pages, 10 images per page)
  webharvest harvest example.com

  # Harvest several sites concurrently
  webharvest harvest site1.com site2.com site3.com

  # Crawl more pages and wait longer between requests
  webharvest harvest --max-pages 50 --delay 2s example.com

  # Write a JSON report to a file and skip the zip archive
  webharvest harvest --format json --report-file report.json --archive none example.com

  # Use a custom configuration file with per-site overrides
  webharvest harvest -c myconfig.yaml example.com

Configuration file (.webharvest.yaml) example:
  defaults:
    delay: 500ms
  sites:
    example.com:
      maxPages: 50
      imagesPerPage: 5
    slow.example.org:
      delay: 2s`,
		Args: cobra.ArbitraryArgs,
		RunE: runHarvestCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per site")
	cmd.Flags().IntP("max-images", "i", config.DefaultImagesPerPage,
		"Maximum number of images to download per page")
	cmd.Flags().DurationP("delay", "d", config.DefaultCrawlDelay,
		"Delay between page requests to the same site")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Image download flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent image downloads per site")
	cmd.Flags().Int("jpeg-quality", config.DefaultJPEGQuality,
		"Quality for JPEG re-encoding (1-100)")
	cmd.Flags().Bool("png", true,
		"Record PNG normalization in the report (non-JPEG images are always saved as PNG)")

	// Batch harvesting flags
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of sites harvested concurrently")

	// Output flags
	cmd.Flags().StringP("output", "o", ".",
		"Directory where images and the archive are written")
	cmd.Flags().StringP("archive", "a", "",
		`Zip archive path, or "none" to skip archiving (default: harvest_<unix>.zip in the output directory)`)
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Report format: simple, json, or markdown")
	cmd.Flags().StringP("report-file", "r", "",
		"Write the report to the given file instead of stdout")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not record this run in the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webharvest.yaml in current or home directory)")

	return cmd
}

// runHarvestCmd executes the harvest command.
func runHarvestCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runHarvest(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.ImagesPerPage, err = cmd.Flags().GetInt("max-images")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.JPEGQuality, err = cmd.Flags().GetInt("jpeg-quality")
	if err != nil {
		return nil, err
	}

	cfg.PNGNormalize, err = cmd.Flags().GetBool("png")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// "none" disables archiving; anything else is an explicit path
	archive, err := cmd.Flags().GetString("archive")
	if err != nil {
		return nil, err
	}
	if archive == "none" {
		cfg.NoArchive = true
	} else {
		cfg.ArchivePath = archive
	}

	cfg.Format, err = cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report-file")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noSave

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-site overrides from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	// Positional arguments are the seed URLs
	cfg.Seeds = make([]string, 0, len(args))
	for _, arg := range args {
		cfg.Seeds = append(cfg.Seeds, config.NormalizeSeed(arg))
	}

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The handler truncates oversized attribute values so long URLs and
// HTML snippets cannot flood the log.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewLogger(os.Stderr, verbose)
}

// runHarvest executes the harvest.
func runHarvest(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Seeds) == 0 {
		return config.ErrNoSeed
	}

	logger.Info("starting harvest",
		"seeds", cfg.Seeds,
		"maxPages", cfg.MaxPages,
		"concurrency", cfg.Concurrency,
		"saveHistory", cfg.SaveHistory,
	)

	// Open database connection if saving is enabled
	var db *database.HarvestDB
	if cfg.SaveHistory {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// A single archive path or report file cannot hold several seeds
	if len(cfg.Seeds) > 1 {
		if cfg.ArchivePath != "" {
			logger.Warn("archive path ignored for multi-seed harvest", "path", cfg.ArchivePath)
			fmt.Fprintf(os.Stderr, "Warning: --archive names a single file; each site gets its own archive under %s.\n\n", cfg.OutputDir)
			cfg.ArchivePath = ""
		}
		if cfg.ReportFile != "" {
			logger.Warn("report file ignored for multi-seed harvest", "path", cfg.ReportFile)
			fmt.Fprintf(os.Stderr, "Warning: --report-file holds a single report; reports are written to stdout instead.\n\n")
			cfg.ReportFile = ""
		}
	}

	// Shared fetchers: one for HTML pages, one with the larger body
	// cap for image payloads.
	pageFetcher := fetch.New(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	)
	imageFetcher := fetch.New(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxImageSize),
	)

	// Use batch processor for parallel harvesting if multiple seeds
	if len(cfg.Seeds) > 1 && cfg.Concurrency > 1 {
		return runBatchHarvest(ctx, cfg, pageFetcher, imageFetcher, db, logger)
	}

	// Single seed or sequential harvesting
	return runSequentialHarvest(ctx, cfg, pageFetcher, imageFetcher, db, logger)
}

// runSequentialHarvest harvests seeds one at a time.
func runSequentialHarvest(ctx context.Context, cfg *config.Config, pageFetcher, imageFetcher *fetch.Fetcher, db *database.HarvestDB, logger *slog.Logger) error {
	for _, seed := range cfg.Seeds {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Create pipeline with site-specific options
		p := buildPipelineForSeed(seed, cfg, pageFetcher, imageFetcher, db, logger)

		rep := model.NewReport(seed)
		rep.PNGNormalize = cfg.PNGNormalize

		fmt.Printf("Harvesting %s...\n", seed)
		startTime := time.Now()

		// Execute the pipeline
		execErr := p.Execute(ctx, rep)
		rep.FinishedAt = time.Now()
		elapsed := time.Since(startTime)

		if execErr != nil {
			logger.Error("harvest failed", "seed", seed, "error", execErr)
			fmt.Fprintf(os.Stderr, "Harvest error for %s: %v\n", seed, execErr)
		} else {
			fmt.Printf("Harvest completed in %s\n\n", elapsed.Round(time.Millisecond))
		}

		// The report carries whatever the run collected before any
		// failure, so it is written either way.
		if err := outputReport(cfg, rep); err != nil {
			logger.Error("report failed", "seed", seed, "error", err)
		}
	}

	return nil
}

// runBatchHarvest harvests multiple seeds concurrently using BatchProcessor.
func runBatchHarvest(ctx context.Context, cfg *config.Config, pageFetcher, imageFetcher *fetch.Fetcher, db *database.HarvestDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch harvest of %d sites (concurrency: %d)...\n\n",
		len(cfg.Seeds), cfg.Concurrency)

	startTime := time.Now()

	// Create batch processor with pipeline factory. The factory
	// receives the seed, so site-specific overrides apply in batch
	// mode exactly as they do sequentially.
	bp := pipeline.NewBatchProcessor(
		func(seed string) *pipeline.Pipeline {
			return buildPipelineForSeed(seed, cfg, pageFetcher, imageFetcher, db, logger)
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, cfg.Seeds, func(result pipeline.BatchResult, index int) {
		mu.Lock()
		defer mu.Unlock()

		if result.Err != nil {
			fmt.Printf("[%d/%d] Harvest failed: %s (%v)\n", index+1, len(cfg.Seeds), result.Seed, result.Err)
		} else {
			fmt.Printf("[%d/%d] Harvest completed: %s\n", index+1, len(cfg.Seeds), result.Seed)
		}

		result.Report.PNGNormalize = cfg.PNGNormalize

		// Generate and output report
		if err := outputReport(cfg, result.Report); err != nil {
			logger.Error("report failed", "seed", result.Seed, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch harvest completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// buildPipelineForSeed creates a pipeline for one seed with the
// site-specific overrides applied.
func buildPipelineForSeed(seed string, cfg *config.Config, pageFetcher, imageFetcher *fetch.Fetcher, db *database.HarvestDB, logger *slog.Logger) *pipeline.Pipeline {
	// Per-seed copy so site overrides cannot leak across seeds
	seedCfg := *cfg
	if cfg.SiteConfigs != nil {
		siteConfig := cfg.SiteConfigs.GetSiteConfig(seedHost(seed))
		siteConfig.ApplyTo(&seedCfg)
	}

	outDir := seedOutputDir(cfg, seed)

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)

	p.AddStep(pipeline.NewCrawlStep(pageFetcher,
		pipeline.WithCrawlMaxPages(seedCfg.MaxPages),
		pipeline.WithCrawlDelay(seedCfg.CrawlDelay),
		pipeline.WithCrawlLogger(logger),
	))

	p.AddStep(pipeline.NewAcquireStep(filepath.Join(outDir, "images"),
		pipeline.WithAcquireImagesPerPage(seedCfg.ImagesPerPage),
		pipeline.WithAcquireWorkers(seedCfg.Workers),
		pipeline.WithAcquireJPEGQuality(seedCfg.JPEGQuality),
		pipeline.WithAcquireFetcher(imageFetcher),
		pipeline.WithAcquireLogger(logger),
	))

	if !cfg.NoArchive {
		archiveOpts := []pipeline.ArchiveStepOption{pipeline.WithArchiveLogger(logger)}
		if cfg.ArchivePath != "" {
			archiveOpts = append(archiveOpts, pipeline.WithArchivePath(cfg.ArchivePath))
		}
		p.AddStep(pipeline.NewArchiveStep(outDir, archiveOpts...))
	}

	if db != nil {
		p.AddStep(pipeline.NewPersistStep(db, pipeline.WithPersistLogger(logger)))
	}

	return p
}

// seedOutputDir returns the directory one seed's files land in. A
// single-seed run writes directly into the output directory; runs with
// multiple seeds give each seed a host-named subdirectory so their
// image files cannot collide.
func seedOutputDir(cfg *config.Config, seed string) string {
	if len(cfg.Seeds) <= 1 {
		return cfg.OutputDir
	}
	return filepath.Join(cfg.OutputDir, hostDirName(seed))
}

// seedHost extracts the host from a seed URL for site-config lookup.
// Config file keys are bare hosts, so scheme and path are dropped.
func seedHost(seed string) string {
	if u, err := url.Parse(seed); err == nil && u.Host != "" {
		return u.Host
	}
	cleaned := strings.TrimPrefix(strings.TrimPrefix(seed, "https://"), "http://")
	if i := strings.IndexByte(cleaned, '/'); i >= 0 {
		cleaned = cleaned[:i]
	}
	return cleaned
}

// hostDirName derives a directory name from a seed's host. Colons from
// port numbers would produce awkward names, so they become underscores.
func hostDirName(seed string) string {
	return strings.ReplaceAll(seedHost(seed), ":", "_")
}

// outputReport writes the harvest report in the requested format.
func outputReport(cfg *config.Config, rep *model.Report) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	switch cfg.Format {
	case config.FormatJSON:
		writer := report.NewJSONWriter(output, report.WithPrettyPrint())
		_, err := writer.Write(rep)
		return err
	case config.FormatMarkdown:
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(rep)
		return err
	default:
		// Human-readable report
		writer := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
		_, err := writer.Write(rep)
		return err
	}
}
