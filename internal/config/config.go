package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These mirror the defaults of the original
// navigation-based scraper where applicable.
const (
	// DefaultTimeout is the total timeout for a single HTTP request,
	// page fetches and image downloads alike. 30 seconds is generous
	// enough for slow shared hosting without hanging a whole run.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDelay is the politeness delay between page fetches.
	// 500ms keeps the crawl gentle while finishing a 20 page budget in
	// reasonable time. Can be adjusted via the --delay CLI flag.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultMaxPages is the maximum number of pages to crawl per site.
	// This prevents runaway crawling on large or infinitely-generating
	// sites. Users can override this via the --max-pages CLI flag.
	DefaultMaxPages = 20

	// DefaultImagesPerPage caps how many images are acquired from each
	// page. The cap is applied during aggregation; extraction always
	// records the full inventory.
	DefaultImagesPerPage = 10

	// DefaultWorkers is the size of the image acquisition pool.
	DefaultWorkers = 4

	// DefaultConcurrency is the number of seeds harvested in parallel
	// when multiple URLs are given on the command line.
	DefaultConcurrency = 2

	// DefaultMaxBodySize limits the response body size for HTML pages.
	// 10MB covers any sane page while preventing memory exhaustion.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultMaxImageSize limits the response body size for image
	// downloads. Images run larger than pages, so the cap is higher.
	DefaultMaxImageSize = 20 * 1024 * 1024 // 20MB

	// DefaultJPEGQuality is the encoder quality used when saving JPEG
	// output. 95 keeps visible artifacts out of re-encoded photos.
	DefaultJPEGQuality = 95

	// DefaultUserAgent is the fixed browser identity sent with every
	// request. Some sites serve reduced markup (or none) to clients
	// that do not look like a browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultFormat is the report format written to stdout.
	DefaultFormat = "simple"

	// AppName is the application name used for XDG directory paths.
	AppName = "webharvest"
)

// Report formats accepted by Config.Format.
const (
	// FormatSimple is the human-readable text report.
	FormatSimple = "simple"

	// FormatJSON is the machine-readable JSON report.
	FormatJSON = "json"

	// FormatMarkdown is the GitHub Flavored Markdown report.
	FormatMarkdown = "markdown"
)

// Config holds all configuration options for webharvest.
// This struct is populated from CLI flags and passed through the
// application via dependency injection rather than global state.
// It is a single flat struct; the option count stays small enough
// that nesting would only add indirection.
type Config struct {
	// Seeds is the list of URLs to harvest. Each seed is crawled
	// independently with its own frontier and visited set. A seed
	// given without a scheme gets "https://" prepended.
	Seeds []string

	// MaxPages is the page budget per seed. The crawl stops once this
	// many pages have been collected, however many links remain queued.
	MaxPages int

	// ImagesPerPage caps how many images are acquired per page.
	ImagesPerPage int

	// CrawlDelay is the politeness delay between page fetches.
	CrawlDelay time.Duration

	// Timeout is the total timeout for each HTTP request.
	Timeout time.Duration

	// Workers is the size of the image acquisition pool.
	Workers int

	// Concurrency is the number of seeds processed in parallel.
	Concurrency int

	// OutputDir is where run output lands: an images/ directory with
	// the acquired files and, unless disabled, the zip bundle.
	// Defaults to the current directory.
	OutputDir string

	// ArchivePath is the zip bundle path. Empty means a generated
	// name under OutputDir ("harvest_<unix>.zip").
	ArchivePath string

	// NoArchive disables zip bundling entirely.
	NoArchive bool

	// Format selects the report format: simple, json, or markdown.
	Format string

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// PNGNormalize is surfaced in reports but does not change how
	// images are acquired: non-JPEG sources always come out as PNG.
	PNGNormalize bool

	// SaveHistory enables persisting run results to the SQLite
	// history database.
	SaveHistory bool

	// DBDir is the directory for the history database. Defaults to
	// the XDG data directory (~/.local/share/webharvest on Linux).
	DBDir string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .webharvest.yaml in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-host overrides loaded from the config
	// file. Populated by LoadConfigFile and consulted per seed.
	SiteConfigs *File

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the response body cap for HTML pages in bytes.
	MaxBodySize int64

	// MaxImageSize is the response body cap for image downloads.
	MaxImageSize int64

	// JPEGQuality is the encoder quality for JPEG output (1-100).
	JPEGQuality int
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most
// use cases. Users can override specific values after creation.
func NewConfig() *Config {
	return &Config{
		MaxPages:      DefaultMaxPages,
		ImagesPerPage: DefaultImagesPerPage,
		CrawlDelay:    DefaultCrawlDelay,
		Timeout:       DefaultTimeout,
		Workers:       DefaultWorkers,
		Concurrency:   DefaultConcurrency,
		Format:        DefaultFormat,
		PNGNormalize:  true,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		MaxImageSize:  DefaultMaxImageSize,
		JPEGQuality:   DefaultJPEGQuality,
	}
}

// NormalizeSeed prepends "https://" to a seed given without a scheme.
// Anything already carrying http:// or https:// is returned unchanged.
func NormalizeSeed(seed string) string {
	s := strings.TrimSpace(seed)
	if s == "" {
		return s
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return "https://" + s
	}
	return s
}

// XDGDataDir returns the XDG data directory for webharvest.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/webharvest
// On macOS: ~/Library/Application Support/webharvest
// On Windows: %LOCALAPPDATA%\webharvest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for webharvest.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/webharvest
// On macOS: ~/Library/Application Support/webharvest
// On Windows: %APPDATA%\webharvest
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for webharvest.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/webharvest
// On macOS: ~/Library/Caches/webharvest
// On Windows: %LOCALAPPDATA%\webharvest\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid. Validation
// happens once after CLI parsing, before any crawling begins, and
// returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.ImagesPerPage <= 0 {
		return ErrInvalidImagesPerPage
	}

	// CrawlDelay must be non-negative
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	switch c.Format {
	case FormatSimple, FormatJSON, FormatMarkdown:
	default:
		return ErrInvalidFormat
	}

	if c.MaxBodySize < 0 || c.MaxImageSize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return ErrInvalidJPEGQuality
	}

	return nil
}
