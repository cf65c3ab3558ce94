package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/aibudget/internal/config"
	"github.com/theirongolddev/aibudget/internal/model"
)

// Anthropic resolves usage from local session logs. There is no billing
// API for Max subscription users, so spend is computed from token counts;
// the OpenClaw rate-limit snapshot file, when present, is surfaced as a
// note on the snapshot.
type Anthropic struct {
	usage        UsageSource
	snapshotPath string
	plan         string
	planPrice    *float64
}

// NewAnthropic builds the Anthropic resolver from its config section.
func NewAnthropic(usage UsageSource, cfg config.AnthropicConfig) *Anthropic {
	return &Anthropic{
		usage:        usage,
		snapshotPath: defaultRatelimitPath(),
		plan:         cfg.SubscriptionPlan,
		planPrice:    cfg.SubscriptionPrice,
	}
}

func (a *Anthropic) ID() string   { return model.ProviderAnthropic }
func (a *Anthropic) Name() string { return "Anthropic" }

// Fetch aggregates local logs; with no logged requests a configured
// subscription plan is shown instead, and with neither a zero snapshot.
func (a *Anthropic) Fetch(_ context.Context, _ string, budget float64) (model.Snapshot, error) {
	if a.usage != nil {
		usage, err := a.usage.MonthlyUsage(model.ProviderAnthropic)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("anthropic: local usage: %w", err)
		}
		if usage.Requests > 0 {
			snap := snapshotFromUsage(model.ProviderAnthropic, budget, usage)
			snap.Note = a.ratelimitNote()
			return snap, nil
		}
	}

	if a.plan != "" {
		snap := baseSnapshot(model.ProviderAnthropic, budget)
		snap.Subscription = true
		snap.PlanLabel = a.plan
		if a.planPrice != nil {
			snap.CurrentSpend = *a.planPrice
		}
		return snap, nil
	}

	return baseSnapshot(model.ProviderAnthropic, budget), nil
}

type ratelimitSnapshot struct {
	Headers map[string]string `json:"headers"`
}

// ratelimitNote reads the OpenClaw rate-limit snapshot and returns a
// display note, or "" when the file is missing or unreadable.
func (a *Anthropic) ratelimitNote() string {
	data, err := os.ReadFile(a.snapshotPath) //nolint:gosec // fixed state path
	if err != nil {
		return ""
	}
	var snap ratelimitSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return ""
	}
	remaining, ok := snap.Headers["anthropic-ratelimit-unified-remaining"]
	if !ok || remaining == "" {
		return ""
	}
	return "Rate limit remaining: " + remaining
}

func defaultRatelimitPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".openclaw", "state", "anthropic-ratelimit.json")
}
