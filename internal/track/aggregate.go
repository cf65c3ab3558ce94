// Package track aggregates normalized usage records into monthly
// per-provider summaries, loading them from local logs with an optional
// SQLite-backed parse cache.
package track

import (
	"time"

	"github.com/theirongolddev/aibudget/internal/config"
	"github.com/theirongolddev/aibudget/internal/model"
)

// RecordCost returns the billable cost of a single record: the explicit
// cost when present and positive, otherwise the pricing-table estimate.
func RecordCost(rec model.UsageRecord) float64 {
	if rec.ExplicitCost > 0 {
		return rec.ExplicitCost
	}
	return config.CalculateCost(rec.Model, rec.InputTokens, rec.OutputTokens,
		rec.CacheReadTokens, rec.CacheWriteTokens)
}

// Aggregate sums records for one provider in one UTC calendar month.
// Cache tokens count toward input (they are billable input-equivalent).
// Records with a different provider, a different month, or an empty
// provider are excluded.
func Aggregate(records []model.UsageRecord, providerID string, year int, month time.Month) model.MonthlyUsage {
	var usage model.MonthlyUsage
	for _, rec := range records {
		if rec.Provider != providerID || providerID == "" {
			continue
		}
		if !inMonth(rec.Timestamp, year, month) {
			continue
		}
		usage.Spend += RecordCost(rec)
		usage.InputTokens += rec.InputTokens + rec.CacheReadTokens + rec.CacheWriteTokens
		usage.OutputTokens += rec.OutputTokens
		usage.Requests++
	}
	return usage
}

// AggregateAll computes the month's usage for every known provider in one
// pass. Records with an unmatched provider contribute to no bucket.
func AggregateAll(records []model.UsageRecord, year int, month time.Month) map[string]model.MonthlyUsage {
	results := make(map[string]model.MonthlyUsage, len(model.ProviderIDs))
	for _, id := range model.ProviderIDs {
		results[id] = model.MonthlyUsage{}
	}

	for _, rec := range records {
		usage, ok := results[rec.Provider]
		if !ok {
			continue
		}
		if !inMonth(rec.Timestamp, year, month) {
			continue
		}
		usage.Spend += RecordCost(rec)
		usage.InputTokens += rec.InputTokens + rec.CacheReadTokens + rec.CacheWriteTokens
		usage.OutputTokens += rec.OutputTokens
		usage.Requests++
		results[rec.Provider] = usage
	}

	return results
}

// PercentOfLimit converts a remaining/limit pair from rate-limit style
// sources into a usage percentage, clamped to [0, 100]. A non-positive
// limit yields 0.
func PercentOfLimit(remaining, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	used := (1 - remaining/limit) * 100
	if used < 0 {
		return 0
	}
	if used > 100 {
		return 100
	}
	return used
}

func inMonth(ts time.Time, year int, month time.Month) bool {
	u := ts.UTC()
	return u.Year() == year && u.Month() == month
}
