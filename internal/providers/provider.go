// Package providers resolves current-month spend per AI provider. Each
// resolver tries its best data source first and degrades to cheaper ones:
// billing APIs where a provider has one, local log aggregation otherwise,
// and finally a zero-usage snapshot so a misconfigured provider still
// renders instead of disappearing.
package providers

import (
	"context"
	"errors"
	"time"

	"github.com/theirongolddev/aibudget/internal/config"
	"github.com/theirongolddev/aibudget/internal/model"
)

const (
	requestTimeout = 15 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

var (
	// ErrUnauthorized indicates the API key is expired, revoked, or lacks scope.
	ErrUnauthorized = errors.New("providers: unauthorized (key invalid or missing scope)")
	// ErrRateLimited indicates the provider API rate limit was hit.
	ErrRateLimited = errors.New("providers: rate limited")
)

// UsageSource supplies aggregated local usage for one provider. The track
// package's Tracker satisfies it.
type UsageSource interface {
	MonthlyUsage(providerID string) (model.MonthlyUsage, error)
}

// Resolver fetches a current-month usage snapshot for one provider.
type Resolver interface {
	ID() string
	Name() string
	// Fetch returns this month's snapshot. apiKey may be empty for
	// resolvers that only read local logs.
	Fetch(ctx context.Context, apiKey string, budget float64) (model.Snapshot, error)
}

// All builds resolvers for every enabled provider, in the config's sorted
// order.
func All(cfg config.Config, usage UsageSource) []Resolver {
	var resolvers []Resolver
	for _, id := range cfg.EnabledProviders() {
		switch id {
		case model.ProviderAnthropic:
			resolvers = append(resolvers, NewAnthropic(usage, cfg.Anthropic))
		case model.ProviderOpenAI:
			resolvers = append(resolvers, NewOpenAI(usage, cfg.OpenAI))
		case model.ProviderGoogle:
			resolvers = append(resolvers, NewGoogle(usage))
		case model.ProviderXAI:
			resolvers = append(resolvers, NewXAI(usage, cfg.XAI))
		}
	}
	return resolvers
}

// baseSnapshot fills the fields every resolver sets the same way.
func baseSnapshot(providerID string, budget float64) model.Snapshot {
	return model.Snapshot{
		ProviderID:   providerID,
		ProviderName: model.ProviderName(providerID),
		Budget:       budget,
		LastUpdated:  time.Now().UTC(),
	}
}

// snapshotFromUsage converts a local aggregate into a snapshot.
func snapshotFromUsage(providerID string, budget float64, usage model.MonthlyUsage) model.Snapshot {
	snap := baseSnapshot(providerID, budget)
	snap.CurrentSpend = usage.Spend
	snap.InputTokens = usage.InputTokens
	snap.OutputTokens = usage.OutputTokens
	snap.Requests = usage.Requests
	return snap
}
