package crawler

import "fmt"

// NoPagesError reports a crawl that produced nothing at all: not even
// the seed page could be collected. It is the only fatal crawl
// outcome. Individual fetch failures after the first page degrade to
// warnings, but a run with zero pages has no results to report,
// archive, or persist, so downstream phases must not run.
type NoPagesError struct {
	// Seed is the normalized URL the crawl started from.
	Seed string
}

// Error implements the error interface.
func (e *NoPagesError) Error() string {
	return fmt.Sprintf("no pages could be crawled from %s", e.Seed)
}
