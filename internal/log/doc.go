// Package log provides logging for webharvest, built on top of the
// standard slog package.
//
// This package extends slog to provide:
//   - Truncation of oversized attribute values (URLs, HTML fragments,
//     alt text lifted from arbitrary sites)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("page fetched",
//	    "url", "https://example.com/about",
//	    "images", 12,
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
