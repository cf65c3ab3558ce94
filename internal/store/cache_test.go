package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/aibudget/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func testRecords(n int) []model.UsageRecord {
	records := make([]model.UsageRecord, n)
	for i := range records {
		records[i] = model.UsageRecord{
			Timestamp:    time.Date(2025, 8, 1+i, 12, 0, 0, 0, time.UTC),
			Provider:     "openai",
			Model:        "gpt-4o",
			InputTokens:  1000 * int64(i+1),
			OutputTokens: 500,
		}
	}
	return records
}

func TestCacheRoundTrip(t *testing.T) {
	cache := openTestCache(t)

	records := testRecords(3)
	records[2].ExplicitCost = 1.25
	if err := cache.ReplaceFileRecords("/logs/a.jsonl", 100, 2048, records); err != nil {
		t.Fatalf("ReplaceFileRecords: %v", err)
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		t.Fatalf("GetTrackedFiles: %v", err)
	}
	fi, ok := tracked["/logs/a.jsonl"]
	if !ok {
		t.Fatal("file not tracked after replace")
	}
	if fi.MtimeNs != 100 || fi.SizeBytes != 2048 {
		t.Errorf("tracked file info = %+v, want mtime 100, size 2048", fi)
	}

	loaded, err := cache.LoadAllRecords()
	if err != nil {
		t.Fatalf("LoadAllRecords: %v", err)
	}
	got := loaded["/logs/a.jsonl"]
	if len(got) != 3 {
		t.Fatalf("loaded %d records, want 3", len(got))
	}
	if got[0].Provider != "openai" || got[0].Model != "gpt-4o" {
		t.Errorf("record provider/model = %s/%s", got[0].Provider, got[0].Model)
	}
	if !got[0].Timestamp.Equal(records[0].Timestamp) {
		t.Errorf("timestamp = %v, want %v", got[0].Timestamp, records[0].Timestamp)
	}
	if got[2].ExplicitCost != 1.25 {
		t.Errorf("explicit cost = %v, want 1.25", got[2].ExplicitCost)
	}
}

func TestCacheReplaceSupersedes(t *testing.T) {
	cache := openTestCache(t)

	if err := cache.ReplaceFileRecords("/logs/a.jsonl", 100, 1024, testRecords(5)); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if err := cache.ReplaceFileRecords("/logs/a.jsonl", 200, 1200, testRecords(2)); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	count, err := cache.RecordCount()
	if err != nil {
		t.Fatalf("RecordCount: %v", err)
	}
	if count != 2 {
		t.Errorf("count after replace = %d, want 2", count)
	}

	tracked, _ := cache.GetTrackedFiles()
	if fi := tracked["/logs/a.jsonl"]; fi.MtimeNs != 200 {
		t.Errorf("mtime after replace = %d, want 200", fi.MtimeNs)
	}
}

func TestCacheDeleteFile(t *testing.T) {
	cache := openTestCache(t)

	_ = cache.ReplaceFileRecords("/logs/a.jsonl", 100, 1024, testRecords(2))
	_ = cache.ReplaceFileRecords("/logs/b.jsonl", 100, 1024, testRecords(3))

	if err := cache.DeleteFile("/logs/a.jsonl"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	tracked, _ := cache.GetTrackedFiles()
	if _, ok := tracked["/logs/a.jsonl"]; ok {
		t.Error("deleted file still tracked")
	}
	if _, ok := tracked["/logs/b.jsonl"]; !ok {
		t.Error("unrelated file lost its tracking entry")
	}

	count, _ := cache.RecordCount()
	if count != 3 {
		t.Errorf("count after delete = %d, want 3", count)
	}
}

func TestCacheEmptyFile(t *testing.T) {
	cache := openTestCache(t)

	if err := cache.ReplaceFileRecords("/logs/empty.jsonl", 50, 0, nil); err != nil {
		t.Fatalf("ReplaceFileRecords with no records: %v", err)
	}

	tracked, _ := cache.GetTrackedFiles()
	if _, ok := tracked["/logs/empty.jsonl"]; !ok {
		t.Error("empty file should still be tracked to avoid re-parsing")
	}
}
