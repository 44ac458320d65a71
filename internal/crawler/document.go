package crawler

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Document is a parsed HTML page. The underlying tree comes from
// golang.org/x/net/html, which tolerates the malformed markup real
// sites serve, so parsing almost never fails outright.
type Document struct {
	root *html.Node
}

// ParseDocument parses HTML from r. The Content-Type header value, if
// known, helps charset detection; pages that declare their encoding in
// a meta tag are detected from the content itself. The returned tree
// is always UTF-8.
func ParseDocument(r io.Reader, contentType string) (*Document, error) {
	decoded, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}

	root, err := html.Parse(decoded)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return &Document{root: root}, nil
}

// DecodeText converts raw page bytes to UTF-8 text using the same
// charset detection as ParseDocument. The spider stores the decoded
// text verbatim so archives reproduce the page as fetched.
func DecodeText(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("detect charset: %w", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode charset: %w", err)
	}
	return string(decoded), nil
}

// Root returns the document node of the parsed tree.
func (d *Document) Root() *html.Node {
	return d.root
}

// Title returns the trimmed text of the first <title> element. The
// second return value reports whether the element exists at all: a
// present but empty <title> is ("", true), a missing one ("", false).
func (d *Document) Title() (string, bool) {
	title := d.Find(Tag("title"))
	if title == nil {
		return "", false
	}
	return strings.TrimSpace(nodeText(title)), true
}

// Find returns the first node matching m in document order, or nil.
func (d *Document) Find(m Matcher) *html.Node {
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if m.Match(n) {
			found = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(d.root)
	return found
}

// FindAll returns every node matching m in document order.
func (d *Document) FindAll(m Matcher) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if m.Match(n) {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return found
}

// anchors returns every <a> element among the descendants of n. The
// node itself is excluded even when it is an anchor.
func anchors(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && c.Data == "a" {
			out = append(out, c)
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

// nodeText concatenates all text nodes under n, in document order,
// without separators.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	walk(n)
	return sb.String()
}

// lastBefore returns the last element with the given tag that starts
// before target in document order, or nil. Ancestors of target count
// as before it.
func lastBefore(root, target *html.Node, tag string) *html.Node {
	var last *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n == target {
			return true
		}
		if n.Type == html.ElementNode && n.Data == tag {
			last = n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return last
}
