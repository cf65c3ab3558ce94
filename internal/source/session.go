package source

import (
	"bufio"
	"encoding/json"
	"os"
	"time"

	"github.com/theirongolddev/aibudget/internal/model"
)

// sessionEntry is a single line in an OpenClaw session JSONL file.
// Only "message" entries carry usage data.
type sessionEntry struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	TS        string          `json:"ts,omitempty"`
	Message   *sessionMessage `json:"message,omitempty"`
}

type sessionMessage struct {
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Usage    *sessionUsage `json:"usage,omitempty"`
}

// sessionUsage holds token counts from the agent runtime. The cost field
// is polymorphic across runtime versions (object with "total", or absent),
// so it is kept raw and parsed defensively.
type sessionUsage struct {
	Input      int64           `json:"input"`
	Output     int64           `json:"output"`
	CacheRead  int64           `json:"cacheRead"`
	CacheWrite int64           `json:"cacheWrite"`
	Cost       json.RawMessage `json:"cost,omitempty"`
}

// ParseSessionFile reads one session JSONL file and returns its usage
// records. Lines that are blank, malformed, or missing a provider or
// timestamp are skipped; a read error on open is returned to the caller.
func ParseSessionFile(path string) ([]model.UsageRecord, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from directory scan
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []model.UsageRecord

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry sessionEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Type != "message" || entry.Message == nil || entry.Message.Usage == nil {
			continue
		}
		if entry.Message.Provider == "" {
			continue
		}

		tsStr := entry.Timestamp
		if tsStr == "" {
			tsStr = entry.TS
		}
		ts, err := time.Parse(time.RFC3339Nano, tsStr)
		if err != nil {
			ts, err = time.Parse(time.RFC3339, tsStr)
			if err != nil {
				continue
			}
		}

		u := entry.Message.Usage
		rec := model.UsageRecord{
			Timestamp:        ts.UTC(),
			Provider:         entry.Message.Provider,
			Model:            entry.Message.Model,
			InputTokens:      clampNonNegative(u.Input),
			OutputTokens:     clampNonNegative(u.Output),
			CacheReadTokens:  clampNonNegative(u.CacheRead),
			CacheWriteTokens: clampNonNegative(u.CacheWrite),
		}

		if total := parseCostTotal(u.Cost); total > 0 {
			rec.ExplicitCost = total
		}

		records = append(records, rec)
	}

	return records, scanner.Err()
}

// parseCostTotal extracts cost.total from the polymorphic cost field.
// Handles an object with "total", a bare number, or garbage (→ 0).
func parseCostTotal(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var obj struct {
		Total float64 `json:"total"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Total > 0 {
		return obj.Total
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil && f > 0 {
		return f
	}

	return 0
}

func clampNonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
