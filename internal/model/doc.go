// Package model defines the core data structures used throughout webharvest.
//
// This package contains the following main types:
//   - Page: a crawled web page with its image inventory
//   - ImageRef: one image occurrence on a page
//   - SavedImage: an image downloaded, re-encoded, and written to disk
//   - Report: the aggregated result of one harvest run
//
// Multiple packages (crawler, imaging, archive, report, database) need these
// types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
