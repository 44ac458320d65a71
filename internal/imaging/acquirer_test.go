package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/webharvest/internal/fetch"
	"github.com/nao1215/webharvest/internal/model"
)

// jpegBytes encodes a small solid-color JPEG.
func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg fixture: %v", err)
	}
	return buf.Bytes()
}

// pngBytes encodes a small PNG with an alpha pixel.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 0, G: 0, B: 255, A: 128})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png fixture: %v", err)
	}
	return buf.Bytes()
}

// gifBytes encodes a small paletted GIF.
func gifBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), palette.Plan9)
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode gif fixture: %v", err)
	}
	return buf.Bytes()
}

// serveImage returns a server that answers every request with the
// given payload and content type.
func serveImage(t *testing.T, contentType string, payload []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

// sniffFile decodes the written file's header and returns the format
// name ("jpeg", "png").
func sniffFile(t *testing.T, path string) (image.Config, string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode saved file: %v", err)
	}
	return cfg, format
}

func TestAcquirerAcquire(t *testing.T) {
	t.Parallel()

	t.Run("jpeg source stays jpeg", func(t *testing.T) {
		t.Parallel()

		server := serveImage(t, "image/jpeg", jpegBytes(t, 3, 2))
		dir := t.TempDir()
		a := NewAcquirer(dir, WithAcquirerLogger(quietLogger()))

		ref := model.ImageRef{URL: server.URL + "/photo.jpg"}
		saved, err := a.Acquire(context.Background(), ref, "image_001_from_page_001")
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}

		if want := filepath.Join(dir, "image_001_from_page_001.jpg"); saved.Path != want {
			t.Errorf("Path = %q, want %q", saved.Path, want)
		}
		if saved.Format != model.FormatJPEG {
			t.Errorf("Format = %q, want %q", saved.Format, model.FormatJPEG)
		}
		if saved.Width != 3 || saved.Height != 2 {
			t.Errorf("bounds = %dx%d, want 3x2", saved.Width, saved.Height)
		}
		if len(saved.Fingerprint) != 64 {
			t.Errorf("Fingerprint length = %d, want 64 hex chars", len(saved.Fingerprint))
		}

		if _, format := sniffFile(t, saved.Path); format != "jpeg" {
			t.Errorf("saved file format = %q, want jpeg", format)
		}
	})

	t.Run("png source stays png", func(t *testing.T) {
		t.Parallel()

		server := serveImage(t, "image/png", pngBytes(t, 2, 2))
		a := NewAcquirer(t.TempDir(), WithAcquirerLogger(quietLogger()))

		ref := model.ImageRef{URL: server.URL + "/icon.png"}
		saved, err := a.Acquire(context.Background(), ref, "image_002_from_page_001")
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}

		if saved.Format != model.FormatPNG {
			t.Errorf("Format = %q, want %q", saved.Format, model.FormatPNG)
		}
		if !strings.HasSuffix(saved.Path, ".png") {
			t.Errorf("Path = %q, want .png suffix", saved.Path)
		}
		if _, format := sniffFile(t, saved.Path); format != "png" {
			t.Errorf("saved file format = %q, want png", format)
		}
	})

	t.Run("gif source is converted to png", func(t *testing.T) {
		t.Parallel()

		server := serveImage(t, "image/gif", gifBytes(t))
		a := NewAcquirer(t.TempDir(), WithAcquirerLogger(quietLogger()))

		ref := model.ImageRef{URL: server.URL + "/anim.gif"}
		saved, err := a.Acquire(context.Background(), ref, "image_003_from_page_001")
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}

		if saved.Format != model.FormatPNG {
			t.Errorf("Format = %q, want %q", saved.Format, model.FormatPNG)
		}
		if _, format := sniffFile(t, saved.Path); format != "png" {
			t.Errorf("saved file format = %q, want png", format)
		}
	})

	t.Run("jpg suffix wins over generic content type", func(t *testing.T) {
		t.Parallel()

		server := serveImage(t, "application/octet-stream", jpegBytes(t, 2, 2))
		a := NewAcquirer(t.TempDir(), WithAcquirerLogger(quietLogger()))

		ref := model.ImageRef{URL: server.URL + "/uploads/pic.JPG?width=200"}
		saved, err := a.Acquire(context.Background(), ref, "image_004_from_page_002")
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if saved.Format != model.FormatJPEG {
			t.Errorf("Format = %q, want %q", saved.Format, model.FormatJPEG)
		}
	})

	t.Run("undecodable payload yields DecodeError", func(t *testing.T) {
		t.Parallel()

		server := serveImage(t, "image/png", []byte("<html>not an image</html>"))
		a := NewAcquirer(t.TempDir(), WithAcquirerLogger(quietLogger()))

		ref := model.ImageRef{URL: server.URL + "/broken.png"}
		_, err := a.Acquire(context.Background(), ref, "image_005_from_page_002")

		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("Acquire() error = %v, want *DecodeError", err)
		}
		if de.URL != ref.URL {
			t.Errorf("DecodeError.URL = %q, want %q", de.URL, ref.URL)
		}
	})

	t.Run("http failure passes through as FetchError", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		t.Cleanup(server.Close)

		a := NewAcquirer(t.TempDir(), WithAcquirerLogger(quietLogger()))
		_, err := a.Acquire(context.Background(), model.ImageRef{URL: server.URL + "/gone.jpg"}, "image_006_from_page_003")

		var fe *fetch.FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("Acquire() error = %v, want *fetch.FetchError", err)
		}
	})
}

func TestChooseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		url         string
		want        model.ImageFormat
	}{
		{name: "jpeg content type", contentType: "image/jpeg", url: "https://example.com/a", want: model.FormatJPEG},
		{name: "jpg content type variant", contentType: "image/jpg", url: "https://example.com/a", want: model.FormatJPEG},
		{name: "jpg suffix", contentType: "", url: "https://example.com/a.jpg", want: model.FormatJPEG},
		{name: "jpeg suffix uppercase", contentType: "", url: "https://example.com/a.JPEG", want: model.FormatJPEG},
		{name: "jpg suffix with query", contentType: "", url: "https://example.com/a.jpg?v=2", want: model.FormatJPEG},
		{name: "jpg suffix beats png content type", contentType: "image/png", url: "https://example.com/a.jpg", want: model.FormatJPEG},
		{name: "png content type", contentType: "image/png", url: "https://example.com/a", want: model.FormatPNG},
		{name: "png suffix", contentType: "", url: "https://example.com/a.png", want: model.FormatPNG},
		{name: "gif normalizes to png", contentType: "image/gif", url: "https://example.com/a.gif", want: model.FormatPNG},
		{name: "webp normalizes to png", contentType: "image/webp", url: "https://example.com/a.webp", want: model.FormatPNG},
		{name: "nothing known defaults to png", contentType: "", url: "https://example.com/image", want: model.FormatPNG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := chooseFormat(tt.contentType, tt.url); got != tt.want {
				t.Errorf("chooseFormat(%q, %q) = %q, want %q", tt.contentType, tt.url, got, tt.want)
			}
		})
	}
}

func TestExtractEXIF(t *testing.T) {
	t.Parallel()

	t.Run("plain jpeg has no exif", func(t *testing.T) {
		t.Parallel()

		if got := extractEXIF(jpegBytes(t, 2, 2)); got != nil {
			t.Errorf("extractEXIF() = %v, want nil", got)
		}
	})

	t.Run("garbage is treated as absent", func(t *testing.T) {
		t.Parallel()

		if got := extractEXIF([]byte("definitely not an image")); got != nil {
			t.Errorf("extractEXIF() = %v, want nil", got)
		}
	})
}
