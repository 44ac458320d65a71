package imaging

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	// Sources arrive in whatever format the site serves. GIF comes
	// from the stdlib; WebP, BMP, and TIFF decoders from x/image.
	// JPEG and PNG are imported directly for re-encoding.
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/crypto/blake2b"

	"github.com/nao1215/webharvest/internal/fetch"
	"github.com/nao1215/webharvest/internal/model"
)

const (
	// DefaultJPEGQuality is the quality used when re-encoding JPEG
	// output.
	DefaultJPEGQuality = 95

	// DefaultMaxImageSize caps image payloads at 20MB.
	DefaultMaxImageSize = 20 * 1024 * 1024
)

// Acquirer downloads one image at a time and writes it under a fixed
// destination directory. Every saved file is JPEG or PNG regardless of
// the source format.
type Acquirer struct {
	// fetcher performs the HTTP round trips.
	fetcher *fetch.Fetcher

	// destDir is the directory saved files are written to. Created on
	// first acquisition.
	destDir string

	// jpegQuality is the encoder quality for JPEG output.
	jpegQuality int

	// logger receives per-image progress events.
	logger *slog.Logger
}

// AcquirerOption configures an Acquirer.
type AcquirerOption func(*Acquirer)

// WithFetcher sets the fetcher used to download image payloads.
func WithFetcher(f *fetch.Fetcher) AcquirerOption {
	return func(a *Acquirer) {
		if f != nil {
			a.fetcher = f
		}
	}
}

// WithJPEGQuality sets the JPEG encoder quality (1-100).
func WithJPEGQuality(q int) AcquirerOption {
	return func(a *Acquirer) {
		if q > 0 && q <= 100 {
			a.jpegQuality = q
		}
	}
}

// WithAcquirerLogger sets the logger for acquisition progress.
func WithAcquirerLogger(logger *slog.Logger) AcquirerOption {
	return func(a *Acquirer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAcquirer creates an Acquirer writing into destDir. Without
// WithFetcher a default fetcher with the image size cap is used.
func NewAcquirer(destDir string, opts ...AcquirerOption) *Acquirer {
	a := &Acquirer{
		fetcher:     fetch.New(fetch.WithMaxBodySize(DefaultMaxImageSize)),
		destDir:     destDir,
		jpegQuality: DefaultJPEGQuality,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Acquire downloads the image behind ref and writes it to
// <destDir>/<baseName>.jpg or .png. The extension follows the output
// format, never the source URL.
//
// Fetch failures pass through as *fetch.FetchError; payloads that are
// not decodable raster images fail with *DecodeError. Both are
// recoverable from the caller's point of view.
func (a *Acquirer) Acquire(ctx context.Context, ref model.ImageRef, baseName string) (*model.SavedImage, error) {
	res, err := a.fetcher.Fetch(ctx, ref.URL)
	if err != nil {
		return nil, err
	}

	// Fingerprint the payload as served, before any re-encoding.
	sum := blake2b.Sum256(res.Body)
	fingerprint := hex.EncodeToString(sum[:])

	img, srcFormat, err := image.Decode(bytes.NewReader(res.Body))
	if err != nil {
		return nil, &DecodeError{URL: ref.URL, Err: err}
	}

	format := chooseFormat(res.ContentType, ref.URL)

	if err := os.MkdirAll(a.destDir, 0o750); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}

	path := filepath.Join(a.destDir, baseName+format.Ext())
	if err := a.encodeTo(path, img, format); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	saved := &model.SavedImage{
		Ref:         ref,
		Path:        path,
		Format:      format,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Fingerprint: fingerprint,
	}

	// Only JPEG and TIFF payloads can carry EXIF. Absence is the
	// normal case and extraction failures stay silent.
	if srcFormat == "jpeg" || srcFormat == "tiff" {
		saved.EXIF = extractEXIF(res.Body)
	}

	a.logger.Debug("image saved",
		"url", ref.URL,
		"path", path,
		"format", string(format),
		"sourceFormat", srcFormat,
		"bytes", len(res.Body),
	)

	return saved, nil
}

// encodeTo writes img to path in the given format.
func (a *Acquirer) encodeTo(path string, img image.Image, format model.ImageFormat) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}

	switch format {
	case model.FormatJPEG:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: a.jpegQuality})
	default:
		err = png.Encode(f, img)
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// chooseFormat decides the output encoding. A source whose
// Content-Type or URL suffix says JPEG stays JPEG; everything else
// becomes PNG so palette and alpha information survive. The suffix
// test ignores query and fragment and is case-insensitive.
func chooseFormat(contentType, rawURL string) model.ImageFormat {
	if contentType == "image/jpeg" || contentType == "image/jpg" {
		return model.FormatJPEG
	}
	if ext := urlExt(rawURL); ext == ".jpg" || ext == ".jpeg" {
		return model.FormatJPEG
	}
	return model.FormatPNG
}

// urlExt returns the lowercased extension of the URL's path.
func urlExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
			rawURL = rawURL[:i]
		}
		return strings.ToLower(filepath.Ext(rawURL))
	}
	return strings.ToLower(filepath.Ext(u.Path))
}
