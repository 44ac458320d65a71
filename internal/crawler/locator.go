package crawler

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/webharvest/internal/model"
)

const (
	// maxAncestorDepth bounds the upward walk when locating an image.
	// Ten levels is enough to reach the structural elements of any
	// reasonable layout; beyond that the markup says nothing useful.
	maxAncestorDepth = 10

	// headingTextLimit caps the heading text quoted in a location
	// label, in runes.
	headingTextLimit = 50
)

// semanticSections are the HTML5 sectioning and landmark tags that
// name a page region by themselves.
var semanticSections = map[string]bool{
	"header":  true,
	"nav":     true,
	"main":    true,
	"section": true,
	"article": true,
	"aside":   true,
	"footer":  true,
}

// locationKeywords mark a class token as structural. The test is a
// substring match against the lowercased token, so "site-header",
// "HeaderWrap", and "main-content" all qualify.
var locationKeywords = []string{
	"header", "nav", "menu", "sidebar", "footer", "content", "main", "banner",
}

// headingTags in level order. The location fallback prefers a higher
// heading level over a nearer one: a distant h1 beats a close h2.
var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// Locator inventories the images of a page and labels where in the
// document each one sits. The label is a heuristic read of the markup,
// not a rendering: it reflects what the HTML claims about its own
// structure.
type Locator struct {
	normalizer *Normalizer
}

// NewLocator creates a Locator that resolves image URLs through n.
func NewLocator(n *Normalizer) *Locator {
	return &Locator{normalizer: n}
}

// Images returns a reference for every <img> element on the page that
// carries a src attribute, in document order. Index numbers every img
// element including the skipped ones, so recorded indices can have
// gaps. Aggregation fields (PageURL, GlobalIndex, ...) are left zero.
func (l *Locator) Images(doc *Document, pageURL string) []model.ImageRef {
	imgs := doc.FindAll(Tag("img"))
	refs := make([]model.ImageRef, 0, len(imgs))

	for i, img := range imgs {
		src := getAttr(img, "src")
		if src == "" {
			continue
		}

		refs = append(refs, model.ImageRef{
			URL:      l.normalizer.Normalize(pageURL, src),
			Alt:      getAttr(img, "alt"),
			Location: l.location(doc, img),
			Index:    i + 1,
		})
	}

	return refs
}

// location builds the location label for one img element.
//
// The primary strategy walks up to maxAncestorDepth ancestors and
// collects an indicator from each one that says something structural:
// the tag name for semantic section elements, "#id" when an id is
// present, and ".class" for the first class token containing a
// location keyword. Indicators are reported outermost first, joined
// by " > ".
//
// When no ancestor yields an indicator the nearest preceding heading
// names the spot instead, checked in level order h1 through h6. Only
// the nearest heading of each level is considered; one with empty
// text does not pass the turn to an earlier heading of the same
// level. Pages with no usable markup at all get "Unknown section".
func (l *Locator) location(doc *Document, img *html.Node) string {
	var indicators []string

	depth := 0
	for p := img.Parent; p != nil && depth < maxAncestorDepth; p = p.Parent {
		if p.Type == html.ElementNode {
			if semanticSections[p.Data] {
				indicators = append(indicators, p.Data)
			}
			if id := getAttr(p, "id"); id != "" {
				indicators = append(indicators, "#"+id)
			}
			if cls := structuralClass(p); cls != "" {
				indicators = append(indicators, "."+cls)
			}
		}
		depth++
	}

	if len(indicators) > 0 {
		// Collected innermost first; the label reads outermost first.
		for i, j := 0, len(indicators)-1; i < j; i, j = i+1, j-1 {
			indicators[i], indicators[j] = indicators[j], indicators[i]
		}
		return strings.Join(indicators, " > ")
	}

	for _, tag := range headingTags {
		h := lastBefore(doc.Root(), img, tag)
		if h == nil {
			continue
		}
		text := strings.TrimSpace(nodeText(h))
		if text == "" {
			continue
		}
		return "Near heading: " + truncateRunes(text, headingTextLimit)
	}

	return "Unknown section"
}

// structuralClass returns the first class token of n that contains a
// location keyword, "" when none does. The original token is returned,
// not the lowercased form used for matching.
func structuralClass(n *html.Node) string {
	for _, token := range strings.Fields(getAttr(n, "class")) {
		lower := strings.ToLower(token)
		for _, kw := range locationKeywords {
			if strings.Contains(lower, kw) {
				return token
			}
		}
	}
	return ""
}

// truncateRunes cuts s to at most limit runes.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
