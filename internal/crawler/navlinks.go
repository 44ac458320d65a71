package crawler

import (
	"strings"
)

// maxFallbackLinks caps how many anchors each fallback pattern may
// contribute. The fallback patterns match generic list markup, and
// without a cap a long article full of list links would flood the
// frontier with content links.
const maxFallbackLinks = 10

// navContainerMatchers are the navigation container patterns, in
// priority order. The first pattern whose containers yield at least
// one same-domain link wins and the rest are never consulted, so a
// page with a real <nav> never leaks links from a loosely named
// ".header" block into the frontier.
var navContainerMatchers = []Matcher{
	// Semantic navigation elements.
	Tag("nav"),
	Within{Ancestor: Tag("header"), Target: Tag("nav")},
	// Common navigation class names.
	Class("navbar"), Class("navigation"), Class("nav"), Class("menu"),
	Class("main-nav"), Class("primary-nav"), Class("header-nav"),
	Class("site-nav"), Class("top-nav"), Class("nav-menu"), Class("nav-bar"),
	// Common navigation ids.
	ID("navbar"), ID("navigation"), ID("nav"), ID("menu"), ID("main-nav"),
	ID("primary-nav"), ID("header-nav"), ID("site-nav"), ID("top-nav"),
	// Headers that hold navigation without marking it up as such.
	Tag("header"),
	Role("navigation"),
	Class("header"), Class("site-header"), Class("main-header"),
}

// navFallbackMatchers match anchors directly and are only consulted
// when no container pattern produced a link. Each is capped at
// maxFallbackLinks candidates, counted before filtering.
var navFallbackMatchers = []Matcher{
	Within{Ancestor: Tag("ul"), Target: Within{Ancestor: Tag("li"), Target: Tag("a")}},
	Within{Ancestor: Class("menu-item"), Target: Tag("a")},
	Within{Ancestor: Class("nav-item"), Target: Tag("a")},
}

// NavExtractor finds the links a site's navigation exposes. Only
// navigation links feed the crawl frontier; links buried in page
// content are deliberately ignored so the crawl follows the site's
// own structure instead of wandering through articles.
type NavExtractor struct {
	normalizer *Normalizer
	containers []Matcher
	fallbacks  []Matcher
}

// NewNavExtractor creates a NavExtractor using the default pattern
// chains.
func NewNavExtractor(n *Normalizer) *NavExtractor {
	return &NavExtractor{
		normalizer: n,
		containers: navContainerMatchers,
		fallbacks:  navFallbackMatchers,
	}
}

// Links extracts the same-domain navigation links of the page at
// pageURL. The result is a set: every URL is absolute, fragment-free,
// and unique, in first-seen document order.
//
// Container patterns are tried first. A pattern that matches elements
// but yields no same-domain link does not stop the chain; the first
// one that does ends it. When the whole chain comes up empty the
// fallback anchor patterns run under the same rule, each limited to
// its first maxFallbackLinks candidates.
func (e *NavExtractor) Links(doc *Document, pageURL string) []string {
	seen := make(map[string]bool)
	links := make([]string, 0)

	// add normalizes and filters one href. It reports whether the href
	// resolved to a same-domain link, counting duplicates, since even a
	// duplicate proves the pattern found real navigation.
	add := func(href string) bool {
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return false
		}
		abs := e.normalizer.Normalize(pageURL, href)
		if !e.normalizer.SameDomain(abs) {
			return false
		}
		if !seen[abs] {
			seen[abs] = true
			links = append(links, abs)
		}
		return true
	}

	for _, m := range e.containers {
		found := false
		for _, container := range doc.FindAll(m) {
			for _, anchor := range anchors(container) {
				if add(getAttr(anchor, "href")) {
					found = true
				}
			}
		}
		if found {
			break
		}
	}

	if len(links) == 0 {
		for _, m := range e.fallbacks {
			candidates := doc.FindAll(m)
			if len(candidates) > maxFallbackLinks {
				candidates = candidates[:maxFallbackLinks]
			}
			for _, anchor := range candidates {
				add(getAttr(anchor, "href"))
			}
			if len(links) > 0 {
				break
			}
		}
	}

	return links
}
