// Package database provides SQLite-based storage for harvest history.
//
// This package implements the HarvestDB, which stores:
//   - Harvest runs with crawl counters and timing
//   - Crawled page rows per harvest
//   - Saved image rows per harvest
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// The database records finished runs only. The crawler never reads it,
// so stored history has no effect on future crawls.
package database
