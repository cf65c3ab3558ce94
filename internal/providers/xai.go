package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/theirongolddev/aibudget/internal/config"
	"github.com/theirongolddev/aibudget/internal/model"
)

const defaultXAIBaseURL = "https://management-api.x.ai"

// XAI resolves usage from local logs first, then the management API's
// invoice preview when a team ID and key are configured, then a manual
// spend figure from config.
type XAI struct {
	usage       UsageSource
	teamID      string
	manualSpend *float64
	baseURL     string
	http        *http.Client
}

// NewXAI builds the xAI resolver from its config section.
func NewXAI(usage UsageSource, cfg config.XAIConfig) *XAI {
	base := cfg.BaseURL
	if base == "" {
		base = defaultXAIBaseURL
	}
	return &XAI{
		usage:       usage,
		teamID:      cfg.TeamID,
		manualSpend: cfg.ManualSpend,
		baseURL:     base,
		http:        &http.Client{},
	}
}

func (x *XAI) ID() string   { return model.ProviderXAI }
func (x *XAI) Name() string { return "xAI" }

// Fetch walks the tiers in order: logs, invoice preview, manual spend.
// An invoice failure still falls through to manual spend, but with no
// tier left it is returned so the caller keeps its previous snapshot.
func (x *XAI) Fetch(ctx context.Context, apiKey string, budget float64) (model.Snapshot, error) {
	if x.usage != nil {
		usage, err := x.usage.MonthlyUsage(model.ProviderXAI)
		if err == nil && usage.Requests > 0 {
			return snapshotFromUsage(model.ProviderXAI, budget, usage), nil
		}
	}

	var apiErr error
	if x.teamID != "" && apiKey != "" {
		spend, err := x.InvoicePreview(ctx, apiKey)
		if err == nil {
			snap := baseSnapshot(model.ProviderXAI, budget)
			snap.CurrentSpend = spend
			return snap, nil
		}
		apiErr = err
	}

	if x.manualSpend != nil {
		snap := baseSnapshot(model.ProviderXAI, budget)
		snap.CurrentSpend = *x.manualSpend
		snap.Note = "manual"
		return snap, nil
	}

	if apiErr != nil {
		return model.Snapshot{}, apiErr
	}
	return baseSnapshot(model.ProviderXAI, budget), nil
}

// InvoicePreview fetches the team's postpaid invoice preview and returns
// the running total in dollars. The response schema has been unstable, so
// several total fields are tried in order and a cents currency unit is
// converted.
func (x *XAI) InvoicePreview(ctx context.Context, apiKey string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/v1/billing/teams/%s/postpaid/invoice/preview", x.baseURL, x.teamID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("xai: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := x.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("xai: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return 0, ErrUnauthorized
	case http.StatusTooManyRequests:
		return 0, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("xai: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, fmt.Errorf("xai: reading response: %w", err)
	}

	var invoice map[string]any
	if err := json.Unmarshal(body, &invoice); err != nil {
		return 0, fmt.Errorf("xai: parsing invoice: %w", err)
	}

	total := 0.0
	for _, field := range []string{"total", "amount", "total_amount", "subtotal"} {
		if v, ok := invoice[field]; ok {
			if f, ok := toFloat(v); ok {
				total = f
				break
			}
		}
	}

	if invoice["currency_unit"] == "cents" || invoice["unit"] == "cents" {
		total /= 100.0
	}
	return total, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
