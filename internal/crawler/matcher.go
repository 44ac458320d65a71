package crawler

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Matcher decides whether a single HTML element is of interest.
// Matchers are typed predicates rather than parsed selector strings:
// each navigation pattern the extractor knows about is spelled out as
// a concrete value, so the set of recognized patterns is visible in
// code and checked by the compiler.
type Matcher interface {
	// Match reports whether the node satisfies the predicate.
	Match(n *html.Node) bool

	// String returns a CSS-like description for logs and errors.
	String() string
}

// Tag matches elements by tag name ("nav", "header", "img").
// The parser lower-cases tag names, so values must be lower case.
type Tag string

// Match implements Matcher.
func (t Tag) Match(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == string(t)
}

// String implements Matcher.
func (t Tag) String() string { return string(t) }

// Class matches elements whose class attribute contains the given
// class token. Matching is exact per token, like the CSS class
// selector, not a substring test.
type Class string

// Match implements Matcher.
func (c Class) Match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, token := range strings.Fields(getAttr(n, "class")) {
		if token == string(c) {
			return true
		}
	}
	return false
}

// String implements Matcher.
func (c Class) String() string { return "." + string(c) }

// ID matches elements by exact id attribute value.
type ID string

// Match implements Matcher.
func (i ID) Match(n *html.Node) bool {
	return n.Type == html.ElementNode && getAttr(n, "id") == string(i)
}

// String implements Matcher.
func (i ID) String() string { return "#" + string(i) }

// Role matches elements by exact role attribute value, the ARIA way of
// marking navigation regions that are not <nav> elements.
type Role string

// Match implements Matcher.
func (r Role) Match(n *html.Node) bool {
	return n.Type == html.ElementNode && getAttr(n, "role") == string(r)
}

// String implements Matcher.
func (r Role) String() string { return fmt.Sprintf("[role=%q]", string(r)) }

// Within matches elements that satisfy Target and have at least one
// ancestor satisfying Ancestor, anywhere up the tree. This is the
// descendant relationship of "header nav" or "ul li a".
type Within struct {
	// Ancestor must match some ancestor of the candidate node.
	Ancestor Matcher

	// Target must match the candidate node itself.
	Target Matcher
}

// Match implements Matcher.
func (w Within) Match(n *html.Node) bool {
	if !w.Target.Match(n) {
		return false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if w.Ancestor.Match(p) {
			return true
		}
	}
	return false
}

// String implements Matcher.
func (w Within) String() string {
	return w.Ancestor.String() + " " + w.Target.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
