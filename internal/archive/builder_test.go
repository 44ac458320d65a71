package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/webharvest/internal/model"
)

// readArchive opens the zip data and returns entry name to content.
func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	entries := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		if closeErr := rc.Close(); closeErr != nil {
			t.Fatalf("close entry %s: %v", f.Name, closeErr)
		}
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		entries[f.Name] = string(body)
	}
	return entries
}

func TestBuilderBuild(t *testing.T) {
	t.Parallel()

	t.Run("bundles pages, images, and summary", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		imgPath := filepath.Join(dir, "image_001_from_page_001.png")
		imgBody := []byte("not really a png")
		if err := os.WriteFile(imgPath, imgBody, 0o600); err != nil {
			t.Fatal(err)
		}

		rep := model.NewReport("https://example.com")
		rep.FinishedAt = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
		home := &model.Page{
			URL:       "https://example.com",
			Title:     "Home Page",
			RawHTML:   "<html><body><h1>Home</h1></body></html>",
			LinkCount: 2,
			Images: []model.ImageRef{
				{URL: "https://example.com/a.png"},
			},
		}
		rep.AddPage(home)
		rep.AddPage(&model.Page{
			URL:     "https://example.com/about",
			Title:   model.NoTitle,
			RawHTML: "<html><body>about</body></html>",
		})
		rep.AddSaved(&model.SavedImage{
			Ref:    home.Images[0],
			Path:   imgPath,
			Format: model.FormatPNG,
		})

		var buf bytes.Buffer
		if err := NewBuilder(&buf).Build(rep); err != nil {
			t.Fatalf("Build() error = %v, want nil", err)
		}
		entries := readArchive(t, buf.Bytes())

		if len(entries) != 4 {
			t.Errorf("archive entry count = %d, want %d", len(entries), 4)
		}

		page, ok := entries["pages/page_001_Home Page.html"]
		if !ok {
			t.Fatalf("archive is missing pages/page_001_Home Page.html, got %v", keys(entries))
		}
		wantHeader := "<!-- Page URL: https://example.com -->\n" +
			"<!-- Page Title: Home Page -->\n" +
			"<!-- Images Found: 1 -->\n" +
			"<!-- Links Found: 2 -->\n\n"
		if !strings.HasPrefix(page, wantHeader) {
			t.Errorf("page entry header = %q, want prefix %q", page, wantHeader)
		}
		if !strings.HasSuffix(page, home.RawHTML) {
			t.Errorf("page entry = %q, want suffix %q", page, home.RawHTML)
		}
		if _, ok := entries["pages/page_002_No title.html"]; !ok {
			t.Errorf("archive is missing pages/page_002_No title.html, got %v", keys(entries))
		}

		if got := entries["images/image_001_from_page_001.png"]; got != string(imgBody) {
			t.Errorf("image entry = %q, want %q", got, imgBody)
		}

		summary, ok := entries["summary.txt"]
		if !ok {
			t.Fatalf("archive is missing summary.txt, got %v", keys(entries))
		}
		wantLines := []string{
			"Website Harvest Summary",
			strings.Repeat("=", len("Website Harvest Summary")),
			"Base URL: https://example.com",
			"Total Pages Harvested: 2",
			"Harvest Date: 2025-03-14 09:30:00",
			"1. Home Page - https://example.com",
			"   Images: 1, Links: 2",
			"2. No title - https://example.com/about",
			"   Images: 0, Links: 0",
		}
		for _, line := range wantLines {
			if !strings.Contains(summary, line+"\n") {
				t.Errorf("summary.txt is missing line %q:\n%s", line, summary)
			}
		}
	})

	t.Run("fails when a saved image file is gone", func(t *testing.T) {
		t.Parallel()

		rep := model.NewReport("https://example.com")
		rep.AddSaved(&model.SavedImage{
			Path:   filepath.Join(t.TempDir(), "vanished.png"),
			Format: model.FormatPNG,
		})

		var buf bytes.Buffer
		if err := NewBuilder(&buf).Build(rep); err == nil {
			t.Error("Build() error = nil, want error for missing image file")
		}
	})

	t.Run("empty report still yields a summary", func(t *testing.T) {
		t.Parallel()

		rep := model.NewReport("https://example.com")

		var buf bytes.Buffer
		if err := NewBuilder(&buf).Build(rep); err != nil {
			t.Fatalf("Build() error = %v, want nil", err)
		}
		entries := readArchive(t, buf.Bytes())

		if len(entries) != 1 {
			t.Errorf("archive entry count = %d, want %d", len(entries), 1)
		}
		if !strings.Contains(entries["summary.txt"], "Total Pages Harvested: 0") {
			t.Errorf("summary.txt = %q, want total pages line", entries["summary.txt"])
		}
	})
}

func TestPageFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		n     int
		title string
		want  string
	}{
		{
			name:  "plain title",
			n:     3,
			title: "Home",
			want:  "page_003_Home.html",
		},
		{
			name:  "unsafe characters become underscores",
			n:     1,
			title: `News: "today"`,
			want:  "page_001_News_ _today_.html",
		},
		{
			name:  "path separators are neutralized",
			n:     2,
			title: `a/b\c`,
			want:  "page_002_a_b_c.html",
		},
		{
			name:  "long title is clipped to 30 runes",
			n:     4,
			title: strings.Repeat("é", 40),
			want:  "page_004_" + strings.Repeat("é", 30) + ".html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := pageFileName(tt.n, tt.title); got != tt.want {
				t.Errorf("pageFileName(%d, %q) = %q, want %q", tt.n, tt.title, got, tt.want)
			}
		})
	}
}

// keys lists entry names for failure messages.
func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
