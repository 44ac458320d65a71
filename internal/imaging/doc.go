// Package imaging downloads the images a crawl discovered and writes
// them to disk in normalized formats.
//
// Aggregate flattens the per-page image inventories into one globally
// ordered worklist, applying the per-page cap and stamping each
// reference with its page context and global ordinal. The Acquirer
// downloads and re-encodes a single image; the Pool runs acquisitions
// across a bounded set of workers, converting per-image failures into
// warnings so one broken image never stops the rest.
//
// Saved files are always JPEG or PNG. Sources that are neither (GIF,
// WebP, BMP, TIFF) are converted to PNG, so a harvest directory is
// uniform regardless of what the site served.
package imaging
