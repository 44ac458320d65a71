package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/nao1215/webharvest/internal/model"
)

// timeRounding trims sub-millisecond noise from displayed durations.
const timeRounding = time.Millisecond

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(rep *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, rep)
	w.writeSummary(&sb, rep)
	w.writePages(&sb, rep)
	w.writeImages(&sb, rep)
	w.writeWarnings(&sb, rep)
	w.writeFooter(&sb, rep)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, rep *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      WEBSITE HARVEST REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed URL:     %s\n", rep.Seed))
	sb.WriteString(fmt.Sprintf("Base Domain:  %s\n", rep.BaseDomain))
	sb.WriteString(fmt.Sprintf("Started:      %s\n", rep.StartedAt.Format("2006-01-02 15:04:05 MST")))
	if !rep.FinishedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Duration:     %s\n", rep.Duration().Round(timeRounding)))
	}

	if len(rep.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf("Status:       Completed with %d warning(s)\n", len(rep.Warnings)))
	} else {
		sb.WriteString("Status:       Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the harvest totals section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, rep *model.Report) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	jpegs, pngs := countFormats(rep)

	sb.WriteString(fmt.Sprintf("  Pages Crawled: %d\n", rep.TotalPages()))
	sb.WriteString(fmt.Sprintf("  Images Found:  %d\n", rep.ImagesFound()))
	sb.WriteString(fmt.Sprintf("  Images Saved:  %d (%d jpeg, %d png)\n", rep.ImagesSaved(), jpegs, pngs))
	sb.WriteString(fmt.Sprintf("  Warnings:      %d\n", len(rep.Warnings)))
	sb.WriteString("\n")
}

// writePages writes the crawled pages section.
func (w *SimpleWriter) writePages(sb *strings.Builder, rep *model.Report) {
	if len(rep.Pages) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(rep.Pages) == 0 {
		sb.WriteString("  No pages were crawled\n")
	}
	for i, page := range rep.Pages {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, page.Title))
		sb.WriteString(fmt.Sprintf("     URL:    %s\n", page.URL))
		sb.WriteString(fmt.Sprintf("     Images: %d, Links: %d\n", len(page.Images), page.LinkCount))
	}
	sb.WriteString("\n")
}

// writeImages writes the saved images section. Each entry shows the
// global ordinal, normalized format, inferred page location, and the
// path the file was written to.
func (w *SimpleWriter) writeImages(sb *strings.Builder, rep *model.Report) {
	if len(rep.Saved) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SAVED IMAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(rep.Saved) == 0 {
		sb.WriteString("  No images were saved\n")
	}
	for _, img := range rep.Saved {
		sb.WriteString(fmt.Sprintf("  [%d] %s %dx%d  %s\n", img.Ref.GlobalIndex, img.Format, img.Width, img.Height, img.Ref.Location))
		sb.WriteString(fmt.Sprintf("      URL:  %s\n", img.Ref.URL))
		sb.WriteString(fmt.Sprintf("      File: %s\n", img.Path))
		if w.verbose {
			sb.WriteString(fmt.Sprintf("      Hash: %s\n", img.Fingerprint))
			for _, tag := range sortedEXIFTags(img.EXIF) {
				sb.WriteString(fmt.Sprintf("      EXIF %s: %s\n", tag, img.EXIF[tag]))
			}
		}
	}
	sb.WriteString("\n")
}

// writeWarnings writes the recoverable failures section.
func (w *SimpleWriter) writeWarnings(sb *strings.Builder, rep *model.Report) {
	if len(rep.Warnings) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("WARNINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(rep.Warnings) == 0 {
		sb.WriteString("  No warnings\n")
	}
	for _, warn := range rep.Warnings {
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", warn.Stage, warn.Target))
		sb.WriteString(fmt.Sprintf("      %s\n", warn.Message))
	}
	sb.WriteString("\n")
}

// sortedEXIFTags returns the tag names in stable order.
func sortedEXIFTags(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// writeFooter writes the report footer with artifact locations.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, rep *model.Report) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	if rep.ArchivePath != "" {
		sb.WriteString(fmt.Sprintf("Archive: %s\n", rep.ArchivePath))
	}
	if rep.HarvestID != 0 {
		sb.WriteString(fmt.Sprintf("History: saved as harvest #%d\n", rep.HarvestID))
	}
	sb.WriteString("Report generated by webharvest\n")
	sb.WriteString("https://github.com/nao1215/webharvest\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
