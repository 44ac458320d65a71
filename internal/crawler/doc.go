// Package crawler discovers the pages and images of a website by
// walking its navigation.
//
// # Architecture
//
// The crawler package is designed around the Spider type, which
// coordinates the crawl. It manages a FIFO frontier seeded with one
// URL, so pages are collected breadth-first, in increasing distance
// from the seed. Only navigation links feed the frontier; links
// buried in page content are ignored so the crawl follows the site's
// own structure instead of wandering through articles.
//
// # Components
//
//   - Spider: the crawl loop, with page budget and politeness delay
//   - Normalizer: resolves href and src values to absolute URLs and
//     decides domain membership
//   - NavExtractor: finds navigation links via prioritized pattern
//     chains with fallbacks
//   - Locator: inventories <img> elements and labels where in the
//     document each one sits
//   - Document and Matcher: a thin HTML querying layer over
//     golang.org/x/net/html
//
// # Politeness
//
// A rate limiter enforces a minimum delay between page fetches
// (default 500ms). URLs are marked visited before fetching, so a page
// that fails is never retried within a run.
//
// # Usage
//
//	spider := crawler.NewSpider(fetcher, crawler.WithMaxPages(20))
//	report, err := spider.Crawl(ctx, "https://example.com")
package crawler
