package model

// ImageFormat is the on-disk encoding of a saved image.
type ImageFormat string

// Saved images are always re-encoded to one of these two formats.
// Sources that are neither JPEG nor PNG (GIF, WebP, BMP, TIFF, ...)
// come out as PNG.
const (
	// FormatJPEG indicates the image was saved as JPEG (quality 95).
	FormatJPEG ImageFormat = "jpeg"

	// FormatPNG indicates the image was saved as PNG, alpha preserved.
	FormatPNG ImageFormat = "png"
)

// Ext returns the file extension for the format, including the dot.
func (f ImageFormat) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// SavedImage is an image that was downloaded, re-encoded, and written
// to disk.
type SavedImage struct {
	// Ref is the occurrence this file was acquired for, with its
	// aggregation fields (PageURL, GlobalIndex, ...) populated.
	Ref ImageRef `json:"ref"`

	// Path is the location of the written file:
	// <destDir>/<baseName>.jpg or .png.
	Path string `json:"path"`

	// Format is the encoding the file was written with.
	Format ImageFormat `json:"format"`

	// Width and Height are the decoded image bounds in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Fingerprint is the BLAKE2b-256 hex digest of the bytes as
	// fetched, before re-encoding. Two refs that served identical
	// payloads share a fingerprint even when their URLs differ.
	Fingerprint string `json:"fingerprint,omitempty"`

	// EXIF holds selected metadata tags extracted from JPEG and TIFF
	// payloads (camera make and model, software, timestamps, GPS
	// presence). Nil when the payload carried none.
	EXIF map[string]string `json:"exif,omitempty"`
}
