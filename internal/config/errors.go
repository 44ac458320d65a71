package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration. They are
// package-level sentinels so callers can use errors.Is() for
// programmatic handling while still getting a readable message.
var (
	// ErrNoSeed is returned when no seed URL is given.
	ErrNoSeed = errors.New("no seed specified: provide at least one URL to harvest")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxPages is returned when the page budget is not positive.
	// A budget of zero would mean no crawling at all.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidImagesPerPage is returned when the per-page image cap
	// is not positive.
	ErrInvalidImagesPerPage = errors.New("invalid images per page: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// A negative delay is invalid; use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidWorkers is returned when the acquisition pool size is
	// not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidConcurrency is returned when the seed concurrency is
	// not positive. A concurrency of zero would process no seeds.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidFormat is returned for report formats other than
	// simple, json, or markdown.
	ErrInvalidFormat = errors.New("invalid format: must be simple, json, or markdown")

	// ErrInvalidMaxBodySize is returned when a body size cap is negative.
	// A negative cap is invalid; use 0 to apply the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidJPEGQuality is returned when the JPEG quality is
	// outside the encoder's 1-100 range.
	ErrInvalidJPEGQuality = errors.New("invalid jpeg quality: must be between 1 and 100")
)
