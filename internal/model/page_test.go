package model

import (
	"testing"
)

// TestPageComputeHash tests the ComputeHash method.
func TestPageComputeHash(t *testing.T) {
	t.Parallel()

	t.Run("computes SHA256 hash of HTML content", func(t *testing.T) {
		t.Parallel()

		page := &Page{
			RawHTML: "Hello, World!",
		}
		page.ComputeHash()

		// Expected SHA256 of "Hello, World!"
		expected := "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"
		if page.Hash != expected {
			t.Errorf("got %q, expected %q", page.Hash, expected)
		}
	})

	t.Run("empty content produces empty hash", func(t *testing.T) {
		t.Parallel()

		page := &Page{
			RawHTML: "",
		}
		page.ComputeHash()

		if page.Hash != "" {
			t.Errorf("expected empty hash, got %q", page.Hash)
		}
	})

	t.Run("hash is stable across calls", func(t *testing.T) {
		t.Parallel()

		page := &Page{RawHTML: "<html><body>stable</body></html>"}
		page.ComputeHash()
		first := page.Hash
		page.ComputeHash()

		if page.Hash != first {
			t.Errorf("hash changed between calls: %q then %q", first, page.Hash)
		}
	})
}

// TestImageFormatExt tests extension selection for saved images.
func TestImageFormatExt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format ImageFormat
		want   string
	}{
		{name: "jpeg uses .jpg", format: FormatJPEG, want: ".jpg"},
		{name: "png uses .png", format: FormatPNG, want: ".png"},
		{name: "unknown formats fall back to .png", format: ImageFormat("gif"), want: ".png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.format.Ext(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
