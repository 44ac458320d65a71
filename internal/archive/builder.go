package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/webharvest/internal/model"
)

// Builder writes harvest archives in zip format. The zero value is not
// usable; construct one with NewBuilder.
type Builder struct {
	w io.Writer
}

// NewBuilder returns a Builder that writes the archive to w.
func NewBuilder(w io.Writer) *Builder {
	return &Builder{w: w}
}

// Build writes the complete archive for rep. The layout is:
//
//	pages/page_001_<title>.html  crawled pages, in crawl order
//	images/<file>                saved images, copied from disk
//	summary.txt                  human-readable harvest summary
//
// Each page entry starts with HTML comments recording the page URL,
// title, image count, and link count, followed by the raw document.
// Build stops at the first unreadable image file and returns the
// error; the archive is incomplete in that case and should be
// discarded.
func (b *Builder) Build(rep *model.Report) error {
	zw := zip.NewWriter(b.w)

	for i, page := range rep.Pages {
		if err := writePage(zw, i+1, page); err != nil {
			return err
		}
	}
	for _, saved := range rep.Saved {
		if err := writeImage(zw, saved.Path); err != nil {
			return err
		}
	}

	f, err := zw.Create("summary.txt")
	if err != nil {
		return fmt.Errorf("create summary entry: %w", err)
	}
	if _, err := io.WriteString(f, summaryText(rep)); err != nil {
		return fmt.Errorf("write summary entry: %w", err)
	}
	return zw.Close()
}

// writePage adds one crawled page under pages/. The entry name embeds
// the 1-based page number and the first 30 runes of the title, with
// characters that are unsafe in file names replaced by underscores.
func writePage(zw *zip.Writer, n int, page *model.Page) error {
	name := pageFileName(n, page.Title)
	f, err := zw.Create("pages/" + name)
	if err != nil {
		return fmt.Errorf("create page entry %s: %w", name, err)
	}

	header := fmt.Sprintf("<!-- Page URL: %s -->\n<!-- Page Title: %s -->\n<!-- Images Found: %d -->\n<!-- Links Found: %d -->\n\n",
		page.URL, page.Title, len(page.Images), page.LinkCount)
	if _, err := io.WriteString(f, header); err != nil {
		return fmt.Errorf("write page entry %s: %w", name, err)
	}
	if _, err := io.WriteString(f, page.RawHTML); err != nil {
		return fmt.Errorf("write page entry %s: %w", name, err)
	}
	return nil
}

// writeImage copies the saved image at path into the archive under
// images/, keeping only the base file name.
func writeImage(zw *zip.Writer, path string) error {
	src, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open image %s: %w", path, err)
	}
	defer src.Close() //nolint:errcheck // read-only file

	name := "images/" + filepath.Base(path)
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create image entry %s: %w", name, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		return fmt.Errorf("write image entry %s: %w", name, err)
	}
	return nil
}

// pageFileName builds the archive entry name for the n-th page.
func pageFileName(n int, title string) string {
	name := fmt.Sprintf("page_%03d_%s.html", n, truncateRunes(title, 30))
	return sanitizeName(name)
}

// sanitizeName replaces characters that are invalid in zip entry or
// file names on common platforms with underscores.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, name)
}

// truncateRunes shortens s to at most limit runes.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// summaryText renders the summary.txt body for rep.
func summaryText(rep *model.Report) string {
	ts := rep.FinishedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	const header = "Website Harvest Summary"
	var sb strings.Builder
	sb.WriteString(header + "\n")
	sb.WriteString(strings.Repeat("=", len(header)) + "\n")
	fmt.Fprintf(&sb, "Base URL: %s\n", rep.Seed)
	fmt.Fprintf(&sb, "Total Pages Harvested: %d\n", len(rep.Pages))
	fmt.Fprintf(&sb, "Harvest Date: %s\n", ts.Format("2006-01-02 15:04:05"))
	sb.WriteString("\nPages:\n")
	for i, page := range rep.Pages {
		fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, page.Title, page.URL)
		fmt.Fprintf(&sb, "   Images: %d, Links: %d\n\n", len(page.Images), page.LinkCount)
	}
	return sb.String()
}
