package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/theirongolddev/aibudget/internal/config"
	"github.com/theirongolddev/aibudget/internal/model"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com"
	costsPageLimit       = 180
	maxCostsPages        = 50
)

// OpenAI resolves spend from the organization costs API when an admin key
// with the api.usage.read scope is available, and falls back to local log
// aggregation otherwise.
type OpenAI struct {
	usage    UsageSource
	adminKey string
	baseURL  string
	http     *http.Client
}

// NewOpenAI builds the OpenAI resolver from its config section. The admin
// key may also arrive via Fetch's apiKey argument.
func NewOpenAI(usage UsageSource, cfg config.OpenAIConfig) *OpenAI {
	base := cfg.BaseURL
	if base == "" {
		base = defaultOpenAIBaseURL
	}
	return &OpenAI{
		usage:    usage,
		adminKey: cfg.AdminKey,
		baseURL:  base,
		http:     &http.Client{},
	}
}

func (o *OpenAI) ID() string   { return model.ProviderOpenAI }
func (o *OpenAI) Name() string { return "OpenAI" }

// Fetch tries the costs API first, then local log aggregation. When a
// configured API fails and the logs have nothing either, the error is
// returned so the caller keeps its previous snapshot. The zero snapshot
// is reserved for providers with no data source at all.
func (o *OpenAI) Fetch(ctx context.Context, apiKey string, budget float64) (model.Snapshot, error) {
	key := o.adminKey
	if key == "" {
		key = apiKey
	}

	var apiErr error
	if key != "" {
		spend, err := o.fetchCosts(ctx, key)
		if err == nil {
			snap := baseSnapshot(model.ProviderOpenAI, budget)
			snap.CurrentSpend = spend
			return snap, nil
		}
		apiErr = err
	}

	if o.usage != nil {
		usage, err := o.usage.MonthlyUsage(model.ProviderOpenAI)
		if err == nil && usage.Requests > 0 {
			return snapshotFromUsage(model.ProviderOpenAI, budget, usage), nil
		}
	}

	if apiErr != nil {
		return model.Snapshot{}, apiErr
	}
	return baseSnapshot(model.ProviderOpenAI, budget), nil
}

type costsResponse struct {
	Data     []costsBucket `json:"data"`
	HasMore  bool          `json:"has_more"`
	NextPage string        `json:"next_page"`
}

type costsBucket struct {
	Results []costsResult `json:"results"`
}

type costsResult struct {
	// amount is {"value": 1.23, "currency": "usd"} in current responses
	// but has shipped as a bare number before.
	Amount json.RawMessage `json:"amount"`
}

// fetchCosts sums this month's cost buckets, following pagination.
func (o *OpenAI) fetchCosts(ctx context.Context, key string) (float64, error) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	total := 0.0
	page := ""
	for i := 0; i < maxCostsPages; i++ {
		resp, err := o.costsPage(ctx, key, monthStart.Unix(), now.Unix(), page)
		if err != nil {
			return 0, err
		}

		for _, bucket := range resp.Data {
			for _, result := range bucket.Results {
				total += parseAmount(result.Amount)
			}
		}

		if !resp.HasMore || resp.NextPage == "" {
			return total, nil
		}
		page = resp.NextPage
	}
	return total, nil
}

func (o *OpenAI) costsPage(ctx context.Context, key string, startTime, endTime int64, page string) (*costsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("start_time", strconv.FormatInt(startTime, 10))
	params.Set("end_time", strconv.FormatInt(endTime, 10))
	params.Set("limit", strconv.Itoa(costsPageLimit))
	if page != "" {
		params.Set("page", page)
	}

	reqURL := o.baseURL + "/v1/organization/costs?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("openai: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("openai: reading response: %w", err)
	}

	var parsed costsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openai: parsing costs: %w", err)
	}
	return &parsed, nil
}

// parseAmount handles both the object and bare-number forms of the
// amount field. Unparseable amounts count as zero.
func parseAmount(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var obj struct {
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Value
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	return 0
}
