// Package store provides a SQLite-backed cache of normalized usage records,
// keyed by source file so unchanged log files are not re-parsed.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/aibudget/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed usage record caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// ReplaceFileRecords atomically replaces the cached records for one source
// file and updates its tracking entry.
func (c *Cache) ReplaceFileRecords(path string, mtimeNs, sizeBytes int64, records []model.UsageRecord) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM usage_records WHERE file_path = ?", path); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO usage_records
		(file_path, ts, provider, model, input_tokens, output_tokens, cache_read, cache_write, explicit_cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		_, err = stmt.Exec(path, rec.Timestamp.UTC().Format(time.RFC3339Nano),
			rec.Provider, rec.Model,
			rec.InputTokens, rec.OutputTokens, rec.CacheReadTokens, rec.CacheWriteTokens,
			rec.ExplicitCost,
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes, parsed_at)
		VALUES (?, ?, ?, ?)`, path, mtimeNs, sizeBytes, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	return tx.Commit()
}

// LoadAllRecords reads every cached record, keyed by source file path.
func (c *Cache) LoadAllRecords() (map[string][]model.UsageRecord, error) {
	rows, err := c.db.Query(`SELECT
		file_path, ts, provider, model, input_tokens, output_tokens, cache_read, cache_write, explicit_cost
		FROM usage_records`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string][]model.UsageRecord)
	for rows.Next() {
		var path, tsStr string
		var rec model.UsageRecord
		err := rows.Scan(&path, &tsStr, &rec.Provider, &rec.Model,
			&rec.InputTokens, &rec.OutputTokens, &rec.CacheReadTokens, &rec.CacheWriteTokens,
			&rec.ExplicitCost)
		if err != nil {
			return nil, err
		}
		rec.Timestamp, err = time.Parse(time.RFC3339Nano, tsStr)
		if err != nil {
			continue // unreadable timestamp, skip the row
		}
		result[path] = append(result[path], rec)
	}
	return result, rows.Err()
}

// DeleteFile removes a file's records and tracking entry, used when a
// previously tracked log file disappears.
func (c *Cache) DeleteFile(path string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM usage_records WHERE file_path = ?", path); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM file_tracker WHERE file_path = ?", path); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordCount returns the number of cached usage records.
func (c *Cache) RecordCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM usage_records").Scan(&count)
	return count, err
}
