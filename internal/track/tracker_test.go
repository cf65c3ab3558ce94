package track

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/aibudget/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func logLine(ts string) string {
	return `{"timestamp":"` + ts + `","model":"gpt-4o","input_tokens":1000,"output_tokens":500}` + "\n"
}

func sessionLine(ts string) string {
	return `{"type":"message","timestamp":"` + ts + `","message":{"provider":"anthropic","model":"claude-sonnet-4","usage":{"input":2000,"output":100}}}` + "\n"
}

func TestTrackerLoadsBothDirs(t *testing.T) {
	logDir := t.TempDir()
	agentsDir := t.TempDir()
	ts := time.Now().UTC().Format(time.RFC3339)

	writeFile(t, filepath.Join(logDir, "requests.jsonl"), logLine(ts)+logLine(ts))
	writeFile(t, filepath.Join(agentsDir, "main", "sessions", "s1.jsonl"), sessionLine(ts))

	tracker := New(logDir, agentsDir)
	records, err := tracker.LoadRecords()
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("loaded %d records, want 3", len(records))
	}

	usage, err := tracker.AllProvidersUsage()
	if err != nil {
		t.Fatalf("AllProvidersUsage: %v", err)
	}
	if usage["openai"].Requests != 2 {
		t.Errorf("openai requests = %d, want 2", usage["openai"].Requests)
	}
	if usage["anthropic"].Requests != 1 {
		t.Errorf("anthropic requests = %d, want 1", usage["anthropic"].Requests)
	}
}

func TestTrackerMissingDirs(t *testing.T) {
	tracker := New(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "also-nope"))
	records, err := tracker.LoadRecords()
	if err != nil {
		t.Fatalf("LoadRecords on missing dirs: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records from missing dirs = %d, want 0", len(records))
	}
}

func TestTrackerCacheHit(t *testing.T) {
	logDir := t.TempDir()
	ts := time.Now().UTC().Format(time.RFC3339)
	logPath := filepath.Join(logDir, "requests.jsonl")
	writeFile(t, logPath, logLine(ts))

	cache, err := store.Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	tracker := New(logDir, t.TempDir()).WithCache(cache)

	// First load parses and populates the cache.
	records, err := tracker.LoadRecords()
	if err != nil {
		t.Fatalf("first LoadRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("first load: %d records, want 1", len(records))
	}
	count, _ := cache.RecordCount()
	if count != 1 {
		t.Fatalf("cached records = %d, want 1", count)
	}

	// Second load with the file untouched must come from the cache and
	// return identical records.
	cached, err := tracker.LoadRecords()
	if err != nil {
		t.Fatalf("second LoadRecords: %v", err)
	}
	if len(cached) != 1 {
		t.Fatalf("second load: %d records, want 1", len(cached))
	}
	if cached[0].Provider != "openai" || cached[0].InputTokens != 1000 {
		t.Errorf("cached record = %+v", cached[0])
	}
}

func TestTrackerCacheInvalidationOnChange(t *testing.T) {
	logDir := t.TempDir()
	ts := time.Now().UTC().Format(time.RFC3339)
	logPath := filepath.Join(logDir, "requests.jsonl")
	writeFile(t, logPath, logLine(ts))

	cache, err := store.Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	tracker := New(logDir, t.TempDir()).WithCache(cache)
	if _, err := tracker.LoadRecords(); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	// Append a line and bump the mtime past the cached value.
	writeFile(t, logPath, logLine(ts)+logLine(ts))
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(logPath, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	records, err := tracker.LoadRecords()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records after change = %d, want 2", len(records))
	}
	count, _ := cache.RecordCount()
	if count != 2 {
		t.Errorf("cached records after change = %d, want 2", count)
	}
}

func TestTrackerCachePrunesRemovedFiles(t *testing.T) {
	logDir := t.TempDir()
	ts := time.Now().UTC().Format(time.RFC3339)
	keep := filepath.Join(logDir, "keep.jsonl")
	gone := filepath.Join(logDir, "gone.jsonl")
	writeFile(t, keep, logLine(ts))
	writeFile(t, gone, logLine(ts))

	cache, err := store.Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	tracker := New(logDir, t.TempDir()).WithCache(cache)
	if _, err := tracker.LoadRecords(); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	if err := os.Remove(gone); err != nil {
		t.Fatalf("remove: %v", err)
	}

	records, err := tracker.LoadRecords()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records after removal = %d, want 1", len(records))
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		t.Fatalf("GetTrackedFiles: %v", err)
	}
	if _, ok := tracked[gone]; ok {
		t.Error("removed file still tracked in cache")
	}
}
