package model

import (
	"sync"
	"time"
)

// Report is the aggregated result of one harvest run. The crawl phase
// fills Pages sequentially; the acquisition phase appends Saved and
// Warnings concurrently through the mutex-guarded Add methods.
type Report struct {
	// Seed is the normalized URL the crawl started from.
	Seed string `json:"seed"`

	// BaseDomain is "scheme://host[:port]" of the seed. Only URLs
	// under this prefix were eligible for crawling.
	BaseDomain string `json:"base_domain"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Pages are the crawled pages in crawl order.
	Pages []*Page `json:"pages"`

	// Saved are the images written to disk, in global ordinal order.
	Saved []*SavedImage `json:"saved_images,omitempty"`

	// Warnings records recoverable failures: pages that could not be
	// fetched, images that could not be downloaded or decoded. The
	// run continues past all of them.
	Warnings []Warning `json:"warnings,omitempty"`

	// ArchivePath is where the zip bundle was written, "" when
	// archiving was disabled.
	ArchivePath string `json:"archive_path,omitempty"`

	// HarvestID is the database row id assigned when the run was
	// persisted, 0 when history saving was disabled.
	HarvestID int64 `json:"harvest_id,omitempty"`

	// PNGNormalize echoes the presentation flag the run was invoked
	// with. It does not change how images are acquired.
	PNGNormalize bool `json:"png_normalize"`

	mu sync.Mutex
}

// Warning describes one recoverable failure.
type Warning struct {
	// Stage names the phase that failed: "crawl", "acquire", "archive", "persist".
	Stage string `json:"stage"`

	// Target is the URL or path the failure relates to.
	Target string `json:"target"`

	// Message is the error text.
	Message string `json:"message"`
}

// NewReport creates a report for the given seed.
func NewReport(seed string) *Report {
	return &Report{
		Seed:      seed,
		StartedAt: time.Now(),
	}
}

// AddPage appends a crawled page. The crawl phase is sequential, so no
// locking is needed, but locking keeps the invariants simple when steps
// are composed differently in tests.
func (r *Report) AddPage(p *Page) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Pages = append(r.Pages, p)
}

// AddSaved appends a saved image. Safe for concurrent use by the
// acquisition pool.
func (r *Report) AddSaved(img *SavedImage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Saved = append(r.Saved, img)
}

// AddWarning records a recoverable failure. Safe for concurrent use.
func (r *Report) AddWarning(stage, target string, err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, Warning{
		Stage:   stage,
		Target:  target,
		Message: err.Error(),
	})
}

// TotalPages is the number of pages crawled.
func (r *Report) TotalPages() int {
	return len(r.Pages)
}

// ImagesFound is the number of image occurrences discovered across all
// pages, before the per-page cap.
func (r *Report) ImagesFound() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Images)
	}
	return n
}

// ImagesSaved is the number of image files written to disk.
func (r *Report) ImagesSaved() int {
	return len(r.Saved)
}

// Duration is the wall-clock length of the run. Zero until FinishedAt
// is set.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
