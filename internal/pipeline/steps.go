package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/webharvest/internal/archive"
	"github.com/nao1215/webharvest/internal/config"
	"github.com/nao1215/webharvest/internal/crawler"
	"github.com/nao1215/webharvest/internal/database"
	"github.com/nao1215/webharvest/internal/fetch"
	"github.com/nao1215/webharvest/internal/imaging"
	"github.com/nao1215/webharvest/internal/model"
)

// CrawlStep walks the target site breadth-first and fills the report
// with pages, their image inventories, and crawl warnings.
//
// Design decision: Crawling is the first step because every later step
// operates on the page set it produces. It is also the only step that
// rewrites the report's seed: the spider normalizes the raw input URL.
type CrawlStep struct {
	// fetcher performs the page downloads.
	fetcher *fetch.Fetcher

	// maxPages limits total pages to crawl.
	maxPages int

	// delay between requests for politeness.
	delay time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlMaxPages sets the maximum pages to crawl.
func WithCrawlMaxPages(maxPages int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxPages = maxPages
	}
}

// WithCrawlDelay sets the delay between requests.
func WithCrawlDelay(d time.Duration) CrawlStepOption {
	return func(s *CrawlStep) {
		s.delay = d
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a new crawling step using the given fetcher.
//
// Default politeness settings are conservative to be respectful of the
// target site:
//   - delay: 500ms between requests (config.DefaultCrawlDelay)
//   - maxPages: 20 pages per site (config.DefaultMaxPages)
func NewCrawlStep(fetcher *fetch.Fetcher, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		fetcher:  fetcher,
		maxPages: config.DefaultMaxPages,
		delay:    config.DefaultCrawlDelay,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step.
func (s *CrawlStep) Do(ctx context.Context, rep *model.Report) error {
	spider := crawler.NewSpider(s.fetcher,
		crawler.WithMaxPages(s.maxPages),
		crawler.WithDelay(s.delay),
		crawler.WithSpiderLogger(s.logger),
	)

	crawled, err := spider.Crawl(ctx, rep.Seed)
	if crawled != nil {
		// The spider builds its own report; fold it into ours. The
		// seed is replaced by its normalized form.
		rep.Seed = crawled.Seed
		rep.BaseDomain = crawled.BaseDomain
		rep.Pages = crawled.Pages
		rep.Warnings = append(rep.Warnings, crawled.Warnings...)
	}
	if err != nil {
		return err
	}

	stats := spider.Stats()
	s.logger.Info("crawl completed",
		"pages_collected", stats.PagesCollected,
		"urls_visited", stats.URLsVisited,
	)
	return nil
}

// AcquireStep downloads the images discovered by the crawl, normalizes
// them to JPEG or PNG, and appends the saved files to the report.
//
// Design decision: Acquisition is separate from crawling because it has
// its own concurrency model. Pages are fetched politely one at a time,
// while images are downloaded by a bounded worker pool.
type AcquireStep struct {
	// destDir is where image files are written.
	destDir string

	// imagesPerPage caps acquisitions per page; non-positive means no cap.
	imagesPerPage int

	// workers is the size of the download pool.
	workers int

	// jpegQuality is the JPEG encoder quality.
	jpegQuality int

	// fetcher overrides the acquirer's HTTP client when non-nil.
	fetcher *fetch.Fetcher

	// logger for structured logging.
	logger *slog.Logger
}

// AcquireStepOption configures an AcquireStep.
type AcquireStepOption func(*AcquireStep)

// WithAcquireImagesPerPage caps how many images are taken from each page.
func WithAcquireImagesPerPage(n int) AcquireStepOption {
	return func(s *AcquireStep) {
		s.imagesPerPage = n
	}
}

// WithAcquireWorkers sets the download pool size.
func WithAcquireWorkers(n int) AcquireStepOption {
	return func(s *AcquireStep) {
		s.workers = n
	}
}

// WithAcquireJPEGQuality sets the JPEG encoder quality.
func WithAcquireJPEGQuality(quality int) AcquireStepOption {
	return func(s *AcquireStep) {
		s.jpegQuality = quality
	}
}

// WithAcquireFetcher sets the HTTP fetcher used for image downloads.
func WithAcquireFetcher(fetcher *fetch.Fetcher) AcquireStepOption {
	return func(s *AcquireStep) {
		s.fetcher = fetcher
	}
}

// WithAcquireLogger sets a custom logger for the acquire step.
func WithAcquireLogger(logger *slog.Logger) AcquireStepOption {
	return func(s *AcquireStep) {
		s.logger = logger
	}
}

// NewAcquireStep creates a new image acquisition step writing into destDir.
func NewAcquireStep(destDir string, opts ...AcquireStepOption) *AcquireStep {
	s := &AcquireStep{
		destDir:       destDir,
		imagesPerPage: config.DefaultImagesPerPage,
		workers:       config.DefaultWorkers,
		jpegQuality:   config.DefaultJPEGQuality,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AcquireStep) Name() string {
	return "acquire"
}

// Do executes the acquire step.
func (s *AcquireStep) Do(ctx context.Context, rep *model.Report) error {
	refs := imaging.Aggregate(rep.Pages, s.imagesPerPage)
	if len(refs) == 0 {
		s.logger.Debug("skipping acquisition, no images discovered")
		return nil
	}

	acquirerOpts := []imaging.AcquirerOption{
		imaging.WithJPEGQuality(s.jpegQuality),
		imaging.WithAcquirerLogger(s.logger),
	}
	if s.fetcher != nil {
		acquirerOpts = append(acquirerOpts, imaging.WithFetcher(s.fetcher))
	}
	acquirer := imaging.NewAcquirer(s.destDir, acquirerOpts...)

	pool := imaging.NewPool(acquirer,
		imaging.WithWorkers(s.workers),
		imaging.WithPoolLogger(s.logger),
	)

	saved, warnings := pool.Run(ctx, refs)
	for _, img := range saved {
		rep.AddSaved(img)
	}
	rep.Warnings = append(rep.Warnings, warnings...)

	return nil
}

// ArchiveStep bundles the crawled pages and saved images into a zip
// archive and records its path in the report.
type ArchiveStep struct {
	// outputDir is where the archive is placed when no explicit path
	// is configured.
	outputDir string

	// path is the explicit archive path, empty to derive one.
	path string

	// logger for structured logging.
	logger *slog.Logger
}

// ArchiveStepOption configures an ArchiveStep.
type ArchiveStepOption func(*ArchiveStep)

// WithArchivePath sets an explicit archive file path.
func WithArchivePath(path string) ArchiveStepOption {
	return func(s *ArchiveStep) {
		s.path = path
	}
}

// WithArchiveLogger sets a custom logger for the archive step.
func WithArchiveLogger(logger *slog.Logger) ArchiveStepOption {
	return func(s *ArchiveStep) {
		s.logger = logger
	}
}

// NewArchiveStep creates a new archive step writing into outputDir.
func NewArchiveStep(outputDir string, opts ...ArchiveStepOption) *ArchiveStep {
	s := &ArchiveStep{
		outputDir: outputDir,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ArchiveStep) Name() string {
	return "archive"
}

// Do executes the archive step. A failed build removes the partial
// archive file so no truncated zip is left behind.
func (s *ArchiveStep) Do(_ context.Context, rep *model.Report) error {
	path := s.path
	if path == "" {
		path = filepath.Join(s.outputDir, fmt.Sprintf("harvest_%d.zip", time.Now().Unix()))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	if err := archive.NewBuilder(f).Build(rep); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to build archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close archive file: %w", err)
	}

	rep.ArchivePath = path
	s.logger.Info("archive written", "path", path)
	return nil
}

// PersistStep saves the finished report into the harvest history
// database and records the assigned id in the report.
type PersistStep struct {
	// db is the open history database, nil disables persistence.
	db *database.HarvestDB

	// logger for structured logging.
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a new persistence step using the given database.
func NewPersistStep(db *database.HarvestDB, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		db:     db,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, rep *model.Report) error {
	if s.db == nil {
		s.logger.Debug("skipping persistence, no database configured")
		return nil
	}

	id, err := s.db.SaveReport(ctx, rep)
	if err != nil {
		return err
	}
	rep.HarvestID = id

	s.logger.Info("harvest persisted", "harvest_id", id)
	return nil
}
