package crawler

import (
	"net/url"
	"strings"
)

// Normalizer converts the href and src values found in a document into
// absolute, fragment-free URLs. It is bound to the seed of a crawl: the
// seed's scheme completes protocol-relative references and the seed's
// "scheme://host" prefix completes root-relative ones.
//
// Normalize never fails. Href values on real pages are frequently
// malformed, and a link that cannot be resolved must not stop the
// crawl, so the worst case is returning the input best-effort.
type Normalizer struct {
	// scheme is the seed URL's scheme ("http" or "https").
	scheme string

	// baseDomain is "scheme://host[:port]" of the seed.
	baseDomain string
}

// NewNormalizer creates a Normalizer bound to the given seed URL.
// A seed without a scheme is treated as https.
func NewNormalizer(seed string) (*Normalizer, error) {
	u, err := url.Parse(strings.TrimSpace(seed))
	if err != nil {
		return nil, err
	}

	// "example.com" parses as a bare path. Re-parse with a scheme so
	// the host lands in the Host field.
	if u.Scheme == "" {
		u, err = url.Parse("https://" + strings.TrimSpace(seed))
		if err != nil {
			return nil, err
		}
	}

	return &Normalizer{
		scheme:     u.Scheme,
		baseDomain: u.Scheme + "://" + u.Host,
	}, nil
}

// BaseDomain returns "scheme://host[:port]" of the seed.
func (n *Normalizer) BaseDomain() string {
	return n.baseDomain
}

// Normalize resolves ref, found on the page at base, into an absolute
// URL with the fragment stripped. Resolution rules, in order:
//
//  1. protocol-relative ("//host/path") gains the seed's scheme
//  2. root-relative ("/path") gains the seed's base domain
//  3. absolute http(s) URLs pass through unchanged
//  4. anything else resolves relative to base
//
// The same input always yields the same output, and the output is a
// fixed point: Normalize(base, Normalize(base, ref)) == Normalize(base, ref).
func (n *Normalizer) Normalize(base, ref string) string {
	ref = strings.TrimSpace(ref)

	switch {
	case strings.HasPrefix(ref, "//"):
		ref = n.scheme + ":" + ref
	case strings.HasPrefix(ref, "/"):
		ref = n.baseDomain + ref
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		// Already absolute.
	default:
		ref = resolveRelative(base, ref)
	}

	return stripFragment(ref)
}

// SameDomain reports whether the given absolute URL belongs to the
// crawled site. The check is a plain prefix test against the seed's
// base domain, so subdomains do not qualify.
func (n *Normalizer) SameDomain(absURL string) bool {
	return strings.HasPrefix(absURL, n.baseDomain)
}

// resolveRelative resolves ref against base. When either side refuses
// to parse the ref comes back unchanged.
func resolveRelative(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// stripFragment drops everything from the first "#" on. Operating on
// the raw string keeps this total: even URLs that url.Parse rejects
// lose their fragment.
func stripFragment(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
