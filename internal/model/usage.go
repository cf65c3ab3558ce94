// Package model defines the core usage data types shared across the app.
package model

import (
	"fmt"
	"time"
)

// Known provider IDs. Records may carry other identifiers; these are the
// ones with a configured budget and a resolver.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderXAI       = "xai"
)

// ProviderIDs lists the built-in providers in display order.
var ProviderIDs = []string{ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderXAI}

// ProviderNames maps provider IDs to display labels.
var ProviderNames = map[string]string{
	ProviderAnthropic: "Anthropic",
	ProviderOpenAI:    "OpenAI",
	ProviderGoogle:    "Google",
	ProviderXAI:       "xAI",
}

// ProviderName returns the display label for a provider ID,
// falling back to the ID itself for unknown providers.
func ProviderName(id string) string {
	if name, ok := ProviderNames[id]; ok {
		return name
	}
	return id
}

// UsageRecord is one normalized API call extracted from a log entry.
// All token fields are non-negative; coercion failures become zero.
type UsageRecord struct {
	Timestamp        time.Time
	Provider         string // empty when the record matched no known provider
	Model            string
	InputTokens      int64
	OutputTokens     int64
	CacheReadTokens  int64
	CacheWriteTokens int64
	// ExplicitCost, when > 0, is used verbatim instead of computing
	// from the pricing table.
	ExplicitCost float64
}

// MonthlyUsage is the aggregate for one provider in one calendar month.
type MonthlyUsage struct {
	Spend        float64
	InputTokens  int64
	OutputTokens int64
	Requests     int
}

// Snapshot is the latest known usage/spend summary for one provider.
type Snapshot struct {
	ProviderID   string    `json:"provider_id"`
	ProviderName string    `json:"provider_name"`
	CurrentSpend float64   `json:"current_spend"`
	Budget       float64   `json:"monthly_budget"`
	InputTokens  int64     `json:"tokens_in"`
	OutputTokens int64     `json:"tokens_out"`
	Requests     int       `json:"requests,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
	// Note is a non-fatal diagnostic annotation, e.g. "falling back to
	// local tracking" or a rate-limit remaining hint.
	Note string `json:"note,omitempty"`
	// Subscription marks a flat-rate plan where CurrentSpend/Budget hold
	// the plan price and PlanLabel replaces the dollar display.
	Subscription bool   `json:"is_subscription,omitempty"`
	PlanLabel    string `json:"plan_label,omitempty"`
}

// Remaining returns the unspent budget, floored at zero.
func (s Snapshot) Remaining() float64 {
	if r := s.Budget - s.CurrentSpend; r > 0 {
		return r
	}
	return 0
}

// UsagePercent returns spend as a percentage of budget, capped at 100.
// A zero or negative budget yields 0.
func (s Snapshot) UsagePercent() float64 {
	if s.Budget <= 0 {
		return 0
	}
	pct := s.CurrentSpend / s.Budget * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// FormatSpend renders "spend/budget" for display, or the plan label for
// subscription providers.
func (s Snapshot) FormatSpend() string {
	if s.Subscription && s.PlanLabel != "" {
		return s.PlanLabel
	}
	return fmt.Sprintf("$%.2f/$%.0f", s.CurrentSpend, s.Budget)
}

// FormatTokens renders "1.2M in / 340K out".
func (s Snapshot) FormatTokens() string {
	return fmt.Sprintf("%s in / %s out", formatCount(s.InputTokens), formatCount(s.OutputTokens))
}

func formatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.0fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
