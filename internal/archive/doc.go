// Package archive bundles a finished harvest into a single zip file:
// every crawled page as an annotated HTML document, every saved image,
// and a plain-text summary. The bundle is self-contained, so it can be
// handed over or unpacked anywhere without the original output
// directory.
package archive
