package repository

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Cache stores fetched OCSF exports in SQLite, gzip-compressed and keyed
// by version, so repeated runs work offline.
type Cache struct {
	db *sql.DB
}

// CachedExport describes one cached export without its body.
type CachedExport struct {
	Version   string
	SizeBytes int64
	FetchedAt time.Time
}

// NewCache opens (or creates) the cache database at the given path.
func NewCache(dbPath string) (*Cache, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single connection
	// serializes access through Go's connection pool and avoids
	// "database is locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return &Cache{db: db}, nil
}

// Migrate runs all embedded SQL migration files in order.
func (c *Cache) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		name := entry.Name()

		var count int
		if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := c.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := c.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Put stores an export body for a version, replacing any previous copy.
func (c *Cache) Put(ctx context.Context, version string, body []byte) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return fmt.Errorf("compress export %s: %w", version, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress export %s: %w", version, err)
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO schema_exports (version, body, size_bytes, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(version) DO UPDATE SET body = excluded.body, size_bytes = excluded.size_bytes, fetched_at = excluded.fetched_at`,
		version, buf.Bytes(), int64(len(body)), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cache export %s: %w", version, err)
	}
	return nil
}

// Get returns the cached export body for a version, or ErrNotCached.
func (c *Cache) Get(ctx context.Context, version string) ([]byte, error) {
	var compressed []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT body FROM schema_exports WHERE version = ?", version).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("version %s: %w", version, ErrNotCached)
	}
	if err != nil {
		return nil, fmt.Errorf("read cached export %s: %w", version, err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decompress cached export %s: %w", version, err)
	}
	defer zr.Close()

	body, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress cached export %s: %w", version, err)
	}
	return body, nil
}

// Versions lists all cached exports, newest first.
func (c *Cache) Versions(ctx context.Context) ([]CachedExport, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT version, size_bytes, fetched_at FROM schema_exports ORDER BY fetched_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list cached exports: %w", err)
	}
	defer rows.Close()

	var exports []CachedExport
	for rows.Next() {
		var e CachedExport
		if err := rows.Scan(&e.Version, &e.SizeBytes, &e.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan cached export: %w", err)
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

// Delete removes a cached export. Deleting an uncached version is not an
// error.
func (c *Cache) Delete(ctx context.Context, version string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM schema_exports WHERE version = ?", version); err != nil {
		return fmt.Errorf("delete cached export %s: %w", version, err)
	}
	return nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
