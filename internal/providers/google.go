package providers

import (
	"context"
	"fmt"

	"github.com/theirongolddev/aibudget/internal/model"
)

// Google resolves usage from local logs only. The Gemini API has no
// billing endpoint for API-key auth, so token counts priced from the
// pricing table are the best available estimate.
type Google struct {
	usage UsageSource
}

// NewGoogle builds the Google resolver.
func NewGoogle(usage UsageSource) *Google {
	return &Google{usage: usage}
}

func (g *Google) ID() string   { return model.ProviderGoogle }
func (g *Google) Name() string { return "Google" }

func (g *Google) Fetch(_ context.Context, _ string, budget float64) (model.Snapshot, error) {
	if g.usage == nil {
		return baseSnapshot(model.ProviderGoogle, budget), nil
	}
	usage, err := g.usage.MonthlyUsage(model.ProviderGoogle)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("google: local usage: %w", err)
	}
	return snapshotFromUsage(model.ProviderGoogle, budget, usage), nil
}
