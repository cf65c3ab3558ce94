// Package source discovers and normalizes heterogeneous AI usage logs.
//
// Two on-disk shapes are supported: generic request logs (JSON-lines or a
// single JSON array of loosely-typed objects) and OpenClaw session JSONL
// files. Both normalize into model.UsageRecord; malformed entries are
// dropped individually, never failing a batch.
package source

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/aibudget/internal/model"
)

// modelProviderPrefixes maps model-name prefixes to provider IDs, used when
// a record carries no explicit provider field. Checked in order so that
// more specific prefixes win.
var modelProviderPrefixes = []struct {
	prefix   string
	provider string
}{
	{"claude", model.ProviderAnthropic},
	{"gpt", model.ProviderOpenAI},
	{"o1", model.ProviderOpenAI},
	{"o3", model.ProviderOpenAI},
	{"o4", model.ProviderOpenAI},
	{"gemini", model.ProviderGoogle},
	{"grok", model.ProviderXAI},
}

// ProviderForModel infers a provider ID from a model name.
// Returns "" when no prefix matches.
func ProviderForModel(modelName string) string {
	m := strings.ToLower(modelName)
	for _, e := range modelProviderPrefixes {
		if strings.HasPrefix(m, e.prefix) {
			return e.provider
		}
	}
	return ""
}

// NormalizeEntries parses raw log file content into usage records.
// The content may be JSON-lines (one object per line) or a single JSON
// array; the shape is detected from the first non-space byte. Blank lines,
// malformed lines, and non-object elements are skipped silently.
func NormalizeEntries(content []byte) []model.UsageRecord {
	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return nil
	}

	var records []model.UsageRecord

	switch trimmed[0] {
	case '{':
		for _, line := range strings.Split(trimmed, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			var entry map[string]any
			if err := json.Unmarshal([]byte(line), &entry); err != nil {
				continue
			}
			if rec, ok := NormalizeEntry(entry); ok {
				records = append(records, rec)
			}
		}
	case '[':
		var entries []any
		if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
			return nil
		}
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if rec, ok := NormalizeEntry(entry); ok {
				records = append(records, rec)
			}
		}
	}

	return records
}

// NormalizeEntry converts one loosely-typed log entry into a usage record.
// Returns false when the entry has no parseable timestamp. Records whose
// provider cannot be resolved keep an empty Provider and are excluded from
// per-provider aggregates downstream.
func NormalizeEntry(entry map[string]any) (model.UsageRecord, bool) {
	ts, ok := coerceTimestamp(entry["timestamp"])
	if !ok {
		return model.UsageRecord{}, false
	}

	modelName, _ := entry["model"].(string)

	provider, _ := entry["provider"].(string)
	if provider == "" {
		provider = ProviderForModel(modelName)
	}

	rec := model.UsageRecord{
		Timestamp:        ts,
		Provider:         provider,
		Model:            modelName,
		InputTokens:      coerceInt(firstOf(entry, "input_tokens", "tokens_in")),
		OutputTokens:     coerceInt(firstOf(entry, "output_tokens", "tokens_out")),
		CacheReadTokens:  coerceInt(firstOf(entry, "cache_read_tokens", "cache_read")),
		CacheWriteTokens: coerceInt(firstOf(entry, "cache_write_tokens", "cache_write")),
	}

	if cost := explicitCost(entry["cost"]); cost > 0 {
		rec.ExplicitCost = cost
	}

	return rec, true
}

// explicitCost extracts a verbatim cost from either a flat numeric/string
// field or a nested cost object's "total". Non-positive values are ignored.
func explicitCost(v any) float64 {
	switch c := v.(type) {
	case map[string]any:
		return coerceFloat(c["total"])
	default:
		return coerceFloat(v)
	}
}

func firstOf(entry map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := entry[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// coerceTimestamp accepts an ISO-8601 string (trailing Z treated as UTC)
// or a numeric epoch-seconds value.
func coerceTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts.UTC(), true
			}
		}
		return time.Time{}, false
	case float64:
		return time.Unix(int64(t), 0).UTC(), true
	case json.Number:
		if sec, err := t.Int64(); err == nil {
			return time.Unix(sec, 0).UTC(), true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// coerceInt safely converts heterogeneous JSON values to a non-negative int64.
// Anything unparseable becomes zero.
func coerceInt(v any) int64 {
	var n int64
	switch t := v.(type) {
	case float64:
		n = int64(t)
	case int64:
		n = t
	case int:
		n = int64(t)
	case json.Number:
		n, _ = t.Int64()
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}

// coerceFloat safely converts heterogeneous JSON values to a non-negative float64.
func coerceFloat(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		f, _ = t.Float64()
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if f < 0 {
		return 0
	}
	return f
}
