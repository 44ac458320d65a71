package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"github.com/nao1215/webharvest/internal/fetch"
	"github.com/nao1215/webharvest/internal/model"
)

// Spider walks a site breadth-first starting from a seed URL,
// following only the navigation links each page exposes. The frontier
// is a FIFO queue, so pages are collected in increasing distance from
// the seed.
//
// Design decision: We call it "Spider" rather than "Crawler" because:
//  1. "Spider" is the traditional term for web crawlers
//  2. Distinguishes the component from the package name
//  3. Clearer in code: crawler.NewSpider() vs crawler.NewCrawler()
type Spider struct {
	// fetcher performs the HTTP round trips.
	fetcher *fetch.Fetcher

	// maxPages limits the total number of pages to collect.
	// This prevents runaway crawling on large sites.
	maxPages int

	// delay is the minimum time between page fetches.
	// This is a politeness setting to avoid overwhelming servers.
	delay time.Duration

	// logger receives progress events.
	logger *slog.Logger

	// visited tracks URLs already attempted, successes and failures
	// alike. A URL that failed once is never retried within a run.
	visited map[string]bool

	// mutex protects visited and pageCount.
	mutex sync.Mutex

	// pageCount tracks pages collected.
	pageCount int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxPages sets the maximum number of pages to collect.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		if maxPages > 0 {
			s.maxPages = maxPages
		}
	}
}

// WithDelay sets the minimum delay between page fetches. Zero disables
// the politeness gate.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithSpiderLogger sets the logger for crawl progress.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSpider creates a Spider that fetches pages through the given
// fetcher. A nil fetcher gets the default configuration.
//
// Design decision: We require an external fetcher because:
//  1. Transport concerns (timeouts, body caps, headers) live in the
//     fetch package
//  2. The image acquirer shares the same construction
//  3. Allows for different configurations in tests
func NewSpider(fetcher *fetch.Fetcher, opts ...SpiderOption) *Spider {
	if fetcher == nil {
		fetcher = fetch.New()
	}

	s := &Spider{
		fetcher:  fetcher,
		maxPages: 20,
		delay:    500 * time.Millisecond,
		logger:   slog.Default(),
		visited:  make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Crawl collects pages starting from seed and returns them as a
// report. The seed may omit its scheme; https is assumed. Crawling
// stops when the frontier empties, the page budget is reached, or ctx
// is canceled. Cancellation is not an error: the pages collected so
// far are returned and ctx.Err() is recorded as a warning.
//
// The returned report is non-nil whenever the seed parses, even on
// error, so the warnings explaining a failed run survive. A run that
// collects zero pages fails with *NoPagesError.
func (s *Spider) Crawl(ctx context.Context, seed string) (*model.Report, error) {
	normalizer, err := NewNormalizer(seed)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL %q: %w", seed, err)
	}

	start := strings.TrimSpace(seed)
	if !strings.HasPrefix(start, "http://") && !strings.HasPrefix(start, "https://") {
		start = "https://" + start
	}
	start = stripFragment(start)

	rep := model.NewReport(start)
	rep.BaseDomain = normalizer.BaseDomain()

	extractor := NewNavExtractor(normalizer)
	locator := NewLocator(normalizer)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.delay), 1)
	}

	queue := []string{start}
	queued := map[string]bool{start: true}

	s.logger.Info("starting crawl",
		"seed", start,
		"baseDomain", rep.BaseDomain,
		"maxPages", s.maxPages,
	)

	for len(queue) > 0 && len(rep.Pages) < s.maxPages {
		select {
		case <-ctx.Done():
			s.logger.Warn("crawl canceled", "pages", len(rep.Pages))
			rep.AddWarning("crawl", rep.Seed, ctx.Err())
			return s.finish(rep)
		default:
		}

		current := queue[0]
		queue = queue[1:]

		if s.isVisited(current) {
			continue
		}
		s.markVisited(current)

		// Politeness gate. Wait returns early when ctx is canceled.
		if err := limiter.Wait(ctx); err != nil {
			rep.AddWarning("crawl", rep.Seed, err)
			return s.finish(rep)
		}

		page, links, err := s.fetchPage(ctx, current, extractor, locator)
		if err != nil {
			s.logger.Warn("page failed", "url", current, "error", err)
			rep.AddWarning("crawl", current, err)
			continue
		}

		rep.AddPage(page)
		s.countPage()
		s.logger.Info("page collected",
			"url", current,
			"page", len(rep.Pages),
			"images", len(page.Images),
			"links", page.LinkCount,
		)

		for _, link := range links {
			if queued[link] || s.isVisited(link) {
				continue
			}
			queued[link] = true
			queue = append(queue, link)
		}
	}

	return s.finish(rep)
}

// finish closes out a crawl: a run with zero pages has nothing for the
// later phases to work with and fails with NoPagesError.
func (s *Spider) finish(rep *model.Report) (*model.Report, error) {
	if len(rep.Pages) == 0 {
		return rep, &NoPagesError{Seed: rep.Seed}
	}
	return rep, nil
}

// fetchPage fetches one page and extracts everything the crawl needs
// from it: the decoded document text, the title, the image inventory,
// and the navigation links to feed back into the frontier.
func (s *Spider) fetchPage(ctx context.Context, pageURL string, extractor *NavExtractor, locator *Locator) (*model.Page, []string, error) {
	res, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}

	text, err := DecodeText(res.Body, res.ContentType)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", pageURL, err)
	}

	doc, err := ParseDocument(strings.NewReader(text), "text/html; charset=utf-8")
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	title, ok := doc.Title()
	if ok {
		title = norm.NFC.String(title)
	} else {
		title = model.NoTitle
	}

	links := extractor.Links(doc, pageURL)

	page := &model.Page{
		URL:       pageURL,
		Title:     title,
		RawHTML:   text,
		Images:    locator.Images(doc, pageURL),
		LinkCount: len(links),
	}
	page.ComputeHash()

	return page, links, nil
}

// isVisited reports whether the URL was already attempted.
func (s *Spider) isVisited(pageURL string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.visited[pageURL]
}

// markVisited records a URL as attempted. Marking happens before the
// fetch, so a URL that fails is never retried within a run.
func (s *Spider) markVisited(pageURL string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visited[pageURL] = true
}

// countPage increments the collected page counter.
func (s *Spider) countPage() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pageCount++
}

// Reset clears the spider's state, allowing it to be reused for
// another seed.
func (s *Spider) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visited = make(map[string]bool)
	s.pageCount = 0
}

// Stats returns current crawl statistics.
func (s *Spider) Stats() SpiderStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return SpiderStats{
		PagesCollected: s.pageCount,
		URLsVisited:    len(s.visited),
	}
}

// SpiderStats contains crawl statistics.
type SpiderStats struct {
	// PagesCollected is the number of pages successfully collected.
	PagesCollected int

	// URLsVisited is the number of unique URLs attempted, successes
	// and failures alike.
	URLsVisited int
}
