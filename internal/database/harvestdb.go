package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/webharvest/internal/model"
)

// dbFileName is the SQLite file created under the database directory.
const dbFileName = "webharvest.db"

// HarvestDB provides SQLite-based storage for completed harvest runs.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all harvests rather
// than separate files per site. This simplifies history queries and
// backup/restore operations. The database records results only; the
// crawler never consults it, so stored history cannot influence a
// future crawl.
type HarvestDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HarvestDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HarvestDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HarvestDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HarvestDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HarvestDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HarvestDB) createTables() error {
	schema := `
	-- Harvest runs, one row per completed run
	CREATE TABLE IF NOT EXISTS harvests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		base_domain TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		total_pages INTEGER NOT NULL DEFAULT 0,
		total_images INTEGER NOT NULL DEFAULT 0,
		total_saved INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_harvests_seed ON harvests(seed);
	CREATE INDEX IF NOT EXISTS idx_harvests_started ON harvests(started_at);

	-- Crawled pages per harvest, in crawl order
	CREATE TABLE IF NOT EXISTS pages (
		harvest_id INTEGER NOT NULL,
		page_no INTEGER NOT NULL,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		image_count INTEGER NOT NULL DEFAULT 0,
		link_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (harvest_id, page_no)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);

	-- Saved images per harvest, keyed by global ordinal
	CREATE TABLE IF NOT EXISTS images (
		harvest_id INTEGER NOT NULL,
		global_idx INTEGER NOT NULL,
		url TEXT NOT NULL,
		page_no INTEGER NOT NULL,
		location TEXT,
		alt TEXT,
		format TEXT NOT NULL,
		path TEXT NOT NULL,
		fingerprint TEXT,
		width INTEGER,
		height INTEGER,
		PRIMARY KEY (harvest_id, global_idx)
	);

	CREATE INDEX IF NOT EXISTS idx_images_fingerprint ON images(fingerprint);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport persists a finished harvest report and returns the new
// harvest id. The harvest row and its pages and images are written in
// one transaction, so a failed save leaves no partial history.
func (hdb *HarvestDB) SaveReport(ctx context.Context, rep *model.Report) (int64, error) {
	finished := rep.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO harvests (seed, base_domain, started_at, finished_at, total_pages, total_images, total_saved, warnings)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rep.Seed,
		rep.BaseDomain,
		rep.StartedAt.UTC().Format(time.RFC3339),
		finished.UTC().Format(time.RFC3339),
		rep.TotalPages(),
		rep.ImagesFound(),
		rep.ImagesSaved(),
		len(rep.Warnings),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert harvest: %w", err)
	}
	harvestID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read harvest id: %w", err)
	}

	pageQuery := `
	INSERT INTO pages (harvest_id, page_no, url, title, image_count, link_count)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(harvest_id, page_no) DO UPDATE SET
		url = excluded.url,
		title = excluded.title,
		image_count = excluded.image_count,
		link_count = excluded.link_count
	`
	for i, page := range rep.Pages {
		if _, err := tx.ExecContext(ctx, pageQuery,
			harvestID, i+1, page.URL, page.Title, len(page.Images), page.LinkCount,
		); err != nil {
			return 0, fmt.Errorf("failed to insert page %d: %w", i+1, err)
		}
	}

	imageQuery := `
	INSERT INTO images (harvest_id, global_idx, url, page_no, location, alt, format, path, fingerprint, width, height)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(harvest_id, global_idx) DO UPDATE SET
		url = excluded.url,
		page_no = excluded.page_no,
		location = excluded.location,
		alt = excluded.alt,
		format = excluded.format,
		path = excluded.path,
		fingerprint = excluded.fingerprint,
		width = excluded.width,
		height = excluded.height
	`
	for _, img := range rep.Saved {
		if _, err := tx.ExecContext(ctx, imageQuery,
			harvestID,
			img.Ref.GlobalIndex,
			img.Ref.URL,
			img.Ref.PageNumber,
			img.Ref.Location,
			img.Ref.Alt,
			string(img.Format),
			img.Path,
			img.Fingerprint,
			img.Width,
			img.Height,
		); err != nil {
			return 0, fmt.Errorf("failed to insert image %d: %w", img.Ref.GlobalIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit harvest: %w", err)
	}
	return harvestID, nil
}

// HarvestRecord is the stored summary of one harvest run.
type HarvestRecord struct {
	// ID is the unique identifier of the harvest in the database.
	ID int64

	// Seed is the normalized URL the crawl started from.
	Seed string

	// BaseDomain is the same-domain prefix the crawl was bound to.
	BaseDomain string

	// StartedAt and FinishedAt bound the run, in UTC.
	StartedAt  time.Time
	FinishedAt time.Time

	// TotalPages, TotalImages, and TotalSaved are the run counters.
	TotalPages  int
	TotalImages int
	TotalSaved  int

	// Warnings is the number of recoverable failures recorded.
	Warnings int
}

// PageRecord is one stored page row.
type PageRecord struct {
	PageNo     int
	URL        string
	Title      string
	ImageCount int
	LinkCount  int
}

// ImageRecord is one stored image row.
type ImageRecord struct {
	GlobalIdx   int
	URL         string
	PageNo      int
	Location    string
	Alt         string
	Format      string
	Path        string
	Fingerprint string
	Width       int
	Height      int
}

// Harvest is a full stored harvest: the summary row plus its pages and
// images.
type Harvest struct {
	HarvestRecord

	// Pages are the stored page rows in crawl order.
	Pages []PageRecord

	// Images are the stored image rows in global ordinal order.
	Images []ImageRecord
}

// ListHarvests returns stored harvest summaries, newest first.
// A non-positive limit returns all rows.
func (hdb *HarvestDB) ListHarvests(ctx context.Context, limit int) ([]HarvestRecord, error) {
	query := `
	SELECT id, seed, base_domain, started_at, finished_at, total_pages, total_images, total_saved, warnings
	FROM harvests
	ORDER BY id DESC
	`
	args := make([]interface{}, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list harvests: %w", err)
	}
	defer rows.Close()

	var results []HarvestRecord
	for rows.Next() {
		rec, err := scanHarvestRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// GetHarvest retrieves one stored harvest with its pages and images.
// Returns nil without error when the id is unknown.
func (hdb *HarvestDB) GetHarvest(ctx context.Context, id int64) (*Harvest, error) {
	row := hdb.db.QueryRowContext(ctx, `
	SELECT id, seed, base_domain, started_at, finished_at, total_pages, total_images, total_saved, warnings
	FROM harvests
	WHERE id = ?
	`, id)

	rec, err := scanHarvestRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	harvest := &Harvest{HarvestRecord: rec}

	pages, err := hdb.harvestPages(ctx, id)
	if err != nil {
		return nil, err
	}
	harvest.Pages = pages

	images, err := hdb.harvestImages(ctx, id)
	if err != nil {
		return nil, err
	}
	harvest.Images = images

	return harvest, nil
}

// harvestPages loads the page rows for one harvest in crawl order.
func (hdb *HarvestDB) harvestPages(ctx context.Context, id int64) ([]PageRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT page_no, url, title, image_count, link_count
	FROM pages
	WHERE harvest_id = ?
	ORDER BY page_no
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var p PageRecord
		if err := rows.Scan(&p.PageNo, &p.URL, &p.Title, &p.ImageCount, &p.LinkCount); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// harvestImages loads the image rows for one harvest in ordinal order.
func (hdb *HarvestDB) harvestImages(ctx context.Context, id int64) ([]ImageRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT global_idx, url, page_no, location, alt, format, path, fingerprint, width, height
	FROM images
	WHERE harvest_id = ?
	ORDER BY global_idx
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []ImageRecord
	for rows.Next() {
		var img ImageRecord
		var location, alt, fingerprint sql.NullString
		var width, height sql.NullInt64
		if err := rows.Scan(
			&img.GlobalIdx, &img.URL, &img.PageNo,
			&location, &alt, &img.Format, &img.Path,
			&fingerprint, &width, &height,
		); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		img.Location = location.String
		img.Alt = alt.String
		img.Fingerprint = fingerprint.String
		img.Width = int(width.Int64)
		img.Height = int(height.Int64)
		images = append(images, img)
	}
	return images, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanHarvestRecord scans one harvests row.
func scanHarvestRecord(row rowScanner) (HarvestRecord, error) {
	var rec HarvestRecord
	var started, finished string

	err := row.Scan(
		&rec.ID,
		&rec.Seed,
		&rec.BaseDomain,
		&started,
		&finished,
		&rec.TotalPages,
		&rec.TotalImages,
		&rec.TotalSaved,
		&rec.Warnings,
	)
	if err == sql.ErrNoRows {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("failed to scan harvest: %w", err)
	}

	rec.StartedAt = parseTimestamp(started)
	rec.FinishedAt = parseTimestamp(finished)
	return rec, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,              // stored format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}
