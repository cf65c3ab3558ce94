package track

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/theirongolddev/aibudget/internal/model"
	"github.com/theirongolddev/aibudget/internal/source"
	"github.com/theirongolddev/aibudget/internal/store"
)

// Tracker loads usage records from local logs: generic request logs under
// LogDir plus OpenClaw session files under AgentsDir. When a cache is
// attached, unchanged files are served from SQLite instead of re-parsed.
type Tracker struct {
	LogDir    string
	AgentsDir string

	cache *store.Cache
}

// New returns a tracker over the given log directories.
func New(logDir, agentsDir string) *Tracker {
	return &Tracker{LogDir: logDir, AgentsDir: agentsDir}
}

// WithCache attaches a parse cache. The tracker does not own the cache;
// the caller closes it.
func (t *Tracker) WithCache(cache *store.Cache) *Tracker {
	t.cache = cache
	return t
}

// MonthlyUsage returns the aggregated usage for one provider in the
// current UTC month.
func (t *Tracker) MonthlyUsage(providerID string) (model.MonthlyUsage, error) {
	records, err := t.LoadRecords()
	if err != nil {
		return model.MonthlyUsage{}, err
	}
	now := time.Now().UTC()
	return Aggregate(records, providerID, now.Year(), now.Month()), nil
}

// AllProvidersUsage returns the current month's usage for every known
// provider in one pass over the logs.
func (t *Tracker) AllProvidersUsage() (map[string]model.MonthlyUsage, error) {
	records, err := t.LoadRecords()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return AggregateAll(records, now.Year(), now.Month()), nil
}

// LoadRecords discovers and parses all log files, using the cache when
// attached. Individual unreadable files are skipped.
func (t *Tracker) LoadRecords() ([]model.UsageRecord, error) {
	files, err := t.discover()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	if t.cache != nil {
		if records, err := t.loadWithCache(files); err == nil {
			return records, nil
		}
		// Cache trouble falls back to a full parse.
	}

	return parseAll(files), nil
}

type discoveredFile struct {
	path    string
	session bool // OpenClaw session JSONL vs generic request log
}

func (t *Tracker) discover() ([]discoveredFile, error) {
	var files []discoveredFile

	logFiles, err := source.ScanLogDir(t.LogDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", t.LogDir, err)
	}
	for _, p := range logFiles {
		files = append(files, discoveredFile{path: p})
	}

	sessionFiles, err := source.ScanAgentsDir(t.AgentsDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", t.AgentsDir, err)
	}
	for _, p := range sessionFiles {
		files = append(files, discoveredFile{path: p, session: true})
	}

	return files, nil
}

// parseAll parses files with a bounded worker pool.
func parseAll(files []discoveredFile) []model.UsageRecord {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([][]model.UsageRecord, len(files))
	var wg sync.WaitGroup

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = parseOne(files[idx])
			}
		}()
	}
	wg.Wait()

	var records []model.UsageRecord
	for _, rs := range results {
		records = append(records, rs...)
	}
	return records
}

func parseOne(f discoveredFile) []model.UsageRecord {
	if f.session {
		records, err := source.ParseSessionFile(f.path)
		if err != nil {
			return nil
		}
		return records
	}

	content, err := os.ReadFile(f.path) //nolint:gosec // path comes from directory scan
	if err != nil {
		return nil
	}
	return source.NormalizeEntries(content)
}

// loadWithCache diffs discovered files against the cache by (mtime, size),
// re-parses only changed files, and prunes entries for removed files.
func (t *Tracker) loadWithCache(files []discoveredFile) ([]model.UsageRecord, error) {
	tracked, err := t.cache.GetTrackedFiles()
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(files))
	var changed []discoveredFile
	var unchanged []string

	for _, f := range files {
		present[f.path] = true
		info, err := os.Stat(f.path)
		if err != nil {
			continue
		}
		cached, ok := tracked[f.path]
		if ok && cached.MtimeNs == info.ModTime().UnixNano() && cached.SizeBytes == info.Size() {
			unchanged = append(unchanged, f.path)
		} else {
			changed = append(changed, f)
		}
	}

	for path := range tracked {
		if !present[path] {
			_ = t.cache.DeleteFile(path)
		}
	}

	var records []model.UsageRecord

	if len(unchanged) > 0 {
		cached, err := t.cache.LoadAllRecords()
		if err != nil {
			return nil, err
		}
		for _, path := range unchanged {
			records = append(records, cached[path]...)
		}
	}

	for _, f := range changed {
		recs := parseOne(f)
		records = append(records, recs...)
		if info, err := os.Stat(f.path); err == nil {
			_ = t.cache.ReplaceFileRecords(f.path, info.ModTime().UnixNano(), info.Size(), recs)
		}
	}

	return records, nil
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "aibudget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "aibudget")
}

// CachePath returns the default parse cache database path.
func CachePath() string {
	return filepath.Join(CacheDir(), "usage.db")
}
