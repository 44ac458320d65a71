// Package fetch retrieves resources over HTTP with a fixed browser
// identity. It handles gzip, brotli, and deflate content encodings
// transparently and refuses bodies over a configurable size cap.
package fetch
