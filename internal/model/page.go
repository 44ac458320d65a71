package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// NoTitle is the placeholder title recorded for pages whose document
// carries no <title> element. A present but empty <title> yields an
// empty title, not this placeholder.
const NoTitle = "No title"

// Page represents a single crawled web page together with everything
// extracted from it. Pages are collected in crawl order; a URL appears
// at most once per harvest run.
type Page struct {
	// URL is the normalized URL the page was fetched under. Fragments
	// are always stripped during normalization, so two references that
	// differ only by fragment map to the same Page.
	URL string `json:"url"`

	// Title is the text of the first <title> element, trimmed and
	// NFC-normalized. NoTitle when the element is absent.
	Title string `json:"title"`

	// RawHTML is the charset-decoded document text. Stored verbatim so
	// archives can reproduce the page as fetched.
	RawHTML string `json:"-"` // Excluded from JSON to keep reports small

	// Images lists every <img> element that carries a src attribute,
	// in document order. The per-page cap configured for a run is
	// applied during aggregation, never here, so this is always the
	// full inventory.
	Images []ImageRef `json:"images,omitempty"`

	// LinkCount is the number of distinct navigation links found on
	// the page (the size of the extracted link set, not the number of
	// links that were new to the frontier).
	LinkCount int `json:"link_count"`

	// Hash is the SHA-256 hash of RawHTML.
	// Used for deduplication and change detection across runs.
	Hash string `json:"hash,omitempty"`
}

// ImageRef identifies one image occurrence on a page.
//
// PageURL, PageTitle, PageNumber, and GlobalIndex stay zero until
// aggregation attaches them; extraction alone only knows about the
// page at hand.
type ImageRef struct {
	// URL is the normalized absolute image URL.
	URL string `json:"url"`

	// Alt is the img element's alt attribute, "" when absent.
	Alt string `json:"alt,omitempty"`

	// Location is the heuristic location label: either a chain of
	// ancestor indicators joined by " > " (outermost first), a
	// "Near heading: ..." fallback, or "Unknown section".
	Location string `json:"location"`

	// Index is the 1-based position of the img element among ALL img
	// elements on the page, counting the ones skipped for having no
	// src. Recorded indices may therefore have gaps.
	Index int `json:"index"`

	// PageURL is the URL of the page the image was found on.
	PageURL string `json:"page_url,omitempty"`

	// PageTitle is the title of that page.
	PageTitle string `json:"page_title,omitempty"`

	// PageNumber is the 1-based crawl-order number of that page.
	PageNumber int `json:"page_number,omitempty"`

	// GlobalIndex is the 1-based ordinal of this image across the
	// whole run. Ordinals are assigned 1,2,3,... with no gaps.
	GlobalIndex int `json:"global_index,omitempty"`
}

// ComputeHash calculates and sets the SHA-256 hash of the page's HTML.
// Call this after setting RawHTML.
func (p *Page) ComputeHash() {
	if len(p.RawHTML) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256([]byte(p.RawHTML))
	p.Hash = hex.EncodeToString(hash[:])
}
