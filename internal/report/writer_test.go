package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/webharvest/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.Report {
	rep := model.NewReport("https://example.com")
	rep.BaseDomain = "https://example.com"
	rep.StartedAt = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	rep.FinishedAt = rep.StartedAt.Add(2500 * time.Millisecond)

	home := &model.Page{
		URL:       "https://example.com",
		Title:     "Home Page",
		RawHTML:   "<html><body>home</body></html>",
		LinkCount: 3,
		Images: []model.ImageRef{
			{URL: "https://example.com/logo.jpg", Location: "header"},
			{URL: "https://example.com/hero.png", Location: "main"},
		},
	}
	rep.AddPage(home)
	rep.AddPage(&model.Page{
		URL:       "https://example.com/about",
		Title:     "About Us",
		RawHTML:   "<html><body>about</body></html>",
		LinkCount: 1,
	})

	rep.AddSaved(&model.SavedImage{
		Ref: model.ImageRef{
			URL:         "https://example.com/logo.jpg",
			Location:    "header",
			GlobalIndex: 1,
		},
		Path:        "/tmp/out/image_001_from_page_001.jpg",
		Format:      model.FormatJPEG,
		Width:       800,
		Height:      600,
		Fingerprint: "deadbeef",
		EXIF:        map[string]string{"Make": "ExampleCam", "GPS": "present"},
	})
	rep.AddSaved(&model.SavedImage{
		Ref: model.ImageRef{
			URL:         "https://example.com/hero.png",
			Location:    "main",
			GlobalIndex: 2,
		},
		Path:   "/tmp/out/image_002_from_page_001.png",
		Format: model.FormatPNG,
		Width:  1200,
		Height: 400,
	})

	rep.AddWarning("crawl", "https://example.com/missing", errors.New("unexpected status: 404"))
	return rep
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		n, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("Write() n = %d, want %d", n, buf.Len())
		}

		output := buf.String()
		if !strings.Contains(output, "WEBSITE HARVEST REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "Seed URL:     https://example.com") {
			t.Error("expected output to contain seed URL")
		}
		if !strings.Contains(output, "Duration:     2.5s") {
			t.Error("expected output to contain duration")
		}
		if !strings.Contains(output, "Completed with 1 warning(s)") {
			t.Error("expected output to contain status with warning count")
		}
	})

	t.Run("writes summary counts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Pages Crawled: 2") {
			t.Error("expected output to contain page count")
		}
		if !strings.Contains(output, "Images Found:  2") {
			t.Error("expected output to contain found image count")
		}
		if !strings.Contains(output, "Images Saved:  2 (1 jpeg, 1 png)") {
			t.Error("expected output to contain saved image count with formats")
		}
	})

	t.Run("writes pages section", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "1. Home Page") {
			t.Error("expected output to contain first page title")
		}
		if !strings.Contains(output, "2. About Us") {
			t.Error("expected output to contain second page title")
		}
		if !strings.Contains(output, "Images: 2, Links: 3") {
			t.Error("expected output to contain page counters")
		}
	})

	t.Run("writes saved images section", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[1] jpeg 800x600  header") {
			t.Error("expected output to contain first saved image line")
		}
		if !strings.Contains(output, "File: /tmp/out/image_001_from_page_001.jpg") {
			t.Error("expected output to contain saved file path")
		}
		if strings.Contains(output, "deadbeef") {
			t.Error("fingerprint should only appear in verbose output")
		}
	})

	t.Run("writes warnings section", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[crawl] https://example.com/missing") {
			t.Error("expected output to contain warning target")
		}
		if !strings.Contains(output, "unexpected status: 404") {
			t.Error("expected output to contain warning message")
		}
	})

	t.Run("verbose adds fingerprint and exif", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Hash: deadbeef") {
			t.Error("expected verbose output to contain fingerprint")
		}
		if !strings.Contains(output, "EXIF Make: ExampleCam") {
			t.Error("expected verbose output to contain EXIF tag")
		}
		if !strings.Contains(output, "EXIF GPS: present") {
			t.Error("expected verbose output to contain GPS marker")
		}
	})

	t.Run("hides empty sections by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(model.NewReport("https://example.com")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "SAVED IMAGES") {
			t.Error("expected empty saved images section to be hidden")
		}
		if strings.Contains(output, "WARNINGS") {
			t.Error("expected empty warnings section to be hidden")
		}
	})

	t.Run("shows empty sections when configured", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true))

		if _, err := w.Write(model.NewReport("https://example.com")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No images were saved") {
			t.Error("expected empty saved images placeholder")
		}
		if !strings.Contains(output, "No warnings") {
			t.Error("expected empty warnings placeholder")
		}
	})

	t.Run("footer lists artifacts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		rep := createTestReport()
		rep.ArchivePath = "/tmp/out/example.com.zip"
		rep.HarvestID = 12

		if _, err := w.Write(rep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Archive: /tmp/out/example.com.zip") {
			t.Error("expected footer to contain archive path")
		}
		if !strings.Contains(output, "History: saved as harvest #12") {
			t.Error("expected footer to contain harvest id")
		}
	})
}

// TestJSONWriter tests the machine-readable report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid compact JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		n, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("Write() n = %d, want %d", n, buf.Len())
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected output to end with newline")
		}

		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got := decoded["seed"]; got != "https://example.com" {
			t.Errorf("seed = %v, want %q", got, "https://example.com")
		}
		if _, ok := decoded["pages"]; !ok {
			t.Error("expected JSON to contain pages")
		}
	})

	t.Run("excludes raw page HTML", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "<html>") {
			t.Error("expected raw HTML to be excluded from JSON output")
		}
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"seed\"") {
			t.Error("expected pretty-printed output to be indented")
		}
	})

	t.Run("custom indent is honored", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithIndent("", "\t"))

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n\t\"seed\"") {
			t.Error("expected tab-indented output")
		}
	})
}

// TestMarkdownWriter tests the markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes all sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		n, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 {
			t.Error("Write() n = 0, want > 0")
		}

		output := buf.String()
		for _, want := range []string{
			"# Website Harvest Report",
			"## Pages",
			"## Saved Images",
			"## Warnings",
			"Home Page",
			"https://example.com/about",
			"800x600",
			"unexpected status: 404",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected markdown output to contain %q", want)
			}
		}
	})

	t.Run("renders format pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "```mermaid") {
			t.Error("expected output to contain mermaid code block")
		}
		if !strings.Contains(output, "Saved Image Formats") {
			t.Error("expected output to contain pie chart title")
		}
	})

	t.Run("empty report degrades gracefully", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(model.NewReport("https://example.com")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No pages were crawled.") {
			t.Error("expected placeholder for empty pages section")
		}
		if !strings.Contains(output, "No images were saved.") {
			t.Error("expected placeholder for empty images section")
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no pie chart without saved images")
		}
	})
}

// errWriter always fails, for exercising error propagation.
type errWriter struct{}

func (errWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}

// TestMultiWriter tests fan-out across several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := text.Len() + js.Len(); n != want {
			t.Errorf("Write() n = %d, want %d", n, want)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(NewJSONWriter(errWriter{}), NewSimpleWriter(&buf))

		if _, err := mw.Write(createTestReport()); err == nil {
			t.Fatal("expected error from failing writer")
		}
		if buf.Len() != 0 {
			t.Errorf("expected later writers to be skipped, got %d bytes", buf.Len())
		}
	})
}

// TestTruncateString tests table cell truncation.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{name: "short string unchanged", s: "hello", maxLen: 10, want: "hello"},
		{name: "exact length unchanged", s: "hello", maxLen: 5, want: "hello"},
		{name: "long string gets ellipsis", s: "hello world", maxLen: 8, want: "hello..."},
		{name: "tiny limit without ellipsis", s: "hello", maxLen: 2, want: "he"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.s, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}
