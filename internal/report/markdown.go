package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/webharvest/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(rep *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, rep)
	w.writePages(md, rep)
	w.writeImages(md, rep)
	w.writeWarnings(md, rep)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, rep *model.Report) {
	md.H1("Website Harvest Report")
	md.PlainText("")

	jpegs, pngs := countFormats(rep)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + rep.Seed + "`"},
			{"Base Domain", "`" + rep.BaseDomain + "`"},
			{"Harvest Date", rep.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages Crawled", strconv.Itoa(rep.TotalPages())},
			{"Images Found", strconv.Itoa(rep.ImagesFound())},
			{"Images Saved", fmt.Sprintf("%d (%d jpeg, %d png)", rep.ImagesSaved(), jpegs, pngs)},
			{"Status", w.getStatusText(rep)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, rep)
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(rep *model.Report) string {
	if len(rep.Warnings) > 0 {
		return fmt.Sprintf("⚠️ Completed with %d warning(s)", len(rep.Warnings))
	}
	return "✅ Complete"
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, rep *model.Report) {
	switch {
	case rep.TotalPages() == 0:
		md.Cautionf("No pages could be harvested from %s.", rep.Seed)
	case len(rep.Warnings) > 0:
		md.Warningf(
			"%d recoverable failure(s) occurred during the harvest. See the warnings section below.",
			len(rep.Warnings),
		)
	default:
		md.Tip("Harvest completed without warnings.")
	}
	md.PlainText("")
}

// writePages writes the crawled pages table.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, rep *model.Report) {
	md.H2("Pages")
	md.PlainText("")

	if len(rep.Pages) == 0 {
		md.PlainText("No pages were crawled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(rep.Pages))
	for i, page := range rep.Pages {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			truncateString(page.Title, 40),
			truncateString(page.URL, 60),
			strconv.Itoa(len(page.Images)),
			strconv.Itoa(page.LinkCount),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"No", "Title", "URL", "Images", "Links"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeImages writes the saved images table and a pie chart of the
// normalized formats.
func (w *MarkdownWriter) writeImages(md *markdown.Markdown, rep *model.Report) {
	md.H2("Saved Images")
	md.PlainText("")

	if len(rep.Saved) == 0 {
		md.PlainText("No images were saved.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(rep.Saved))
	for i, img := range rep.Saved {
		rows[i] = []string{
			strconv.Itoa(img.Ref.GlobalIndex),
			string(img.Format),
			fmt.Sprintf("%dx%d", img.Width, img.Height),
			truncateString(img.Ref.Location, 40),
			truncateString(img.Path, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"No", "Format", "Size", "Location", "File"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, rep)
}

// writePieChart writes a mermaid pie chart of saved image formats.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, rep *model.Report) {
	jpegs, pngs := countFormats(rep)
	if jpegs == 0 && pngs == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Saved Image Formats"),
		piechart.WithShowData(true),
	)
	if jpegs > 0 {
		chart.LabelAndIntValue("jpeg", uint64(jpegs))
	}
	if pngs > 0 {
		chart.LabelAndIntValue("png", uint64(pngs))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeWarnings writes the recoverable failures section.
func (w *MarkdownWriter) writeWarnings(md *markdown.Markdown, rep *model.Report) {
	md.H2("Warnings")
	md.PlainText("")

	if len(rep.Warnings) == 0 {
		md.PlainText("No warnings.")
		md.PlainText("")
		return
	}

	items := make([]string, len(rep.Warnings))
	for i, warn := range rep.Warnings {
		items[i] = fmt.Sprintf("`[%s]` %s: %s", warn.Stage, warn.Target, warn.Message)
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [webharvest](https://github.com/nao1215/webharvest)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
