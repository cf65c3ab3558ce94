package config

import (
	"sort"
	"strings"
)

// ModelPricing holds per-million-token prices for a model.
type ModelPricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cache token multipliers, applied to the input price.
const (
	CacheReadMultiplier  = 0.10
	CacheWriteMultiplier = 1.25
)

// DefaultPricing maps model base names to their pricing (USD per 1M tokens).
// Lookup is case-insensitive: exact key match first, then longest matching prefix.
var DefaultPricing = map[string]ModelPricing{
	// Anthropic
	"claude-opus-4-6":   {InputPerMTok: 15.00, OutputPerMTok: 75.00},
	"claude-opus-4":     {InputPerMTok: 15.00, OutputPerMTok: 75.00},
	"claude-sonnet-4-5": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-sonnet-4":   {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-haiku-3-5":  {InputPerMTok: 0.80, OutputPerMTok: 4.00},
	"claude-haiku-3.5":  {InputPerMTok: 0.80, OutputPerMTok: 4.00},

	// OpenAI
	"gpt-4o":       {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"gpt-4o-mini":  {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"gpt-4.1":      {InputPerMTok: 2.00, OutputPerMTok: 8.00},
	"gpt-4.1-mini": {InputPerMTok: 0.40, OutputPerMTok: 1.60},
	"gpt-4.1-nano": {InputPerMTok: 0.10, OutputPerMTok: 0.40},
	"o1":           {InputPerMTok: 15.00, OutputPerMTok: 60.00},
	"o3":           {InputPerMTok: 10.00, OutputPerMTok: 40.00},
	"o3-mini":      {InputPerMTok: 1.10, OutputPerMTok: 4.40},
	"o4-mini":      {InputPerMTok: 1.10, OutputPerMTok: 4.40},
	"gpt-5.2-pro":  {InputPerMTok: 10.00, OutputPerMTok: 40.00},

	// Google
	"gemini-2.5-pro":   {InputPerMTok: 1.25, OutputPerMTok: 10.00},
	"gemini-2.5-flash": {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"gemini-2.0-flash": {InputPerMTok: 0.10, OutputPerMTok: 0.40},
	"gemini-3-pro":     {InputPerMTok: 1.25, OutputPerMTok: 10.00},
	"gemini-1.5-pro":   {InputPerMTok: 1.25, OutputPerMTok: 5.00},

	// xAI
	"grok-3":      {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"grok-3-mini": {InputPerMTok: 0.30, OutputPerMTok: 0.50},
	"grok-4":      {InputPerMTok: 3.00, OutputPerMTok: 15.00},
}

// pricingKeysByLength holds the table keys sorted longest-first so prefix
// matching resolves "gpt-4.1-mini-2025" to gpt-4.1-mini, never gpt-4.1.
var pricingKeysByLength = sortedPricingKeys(DefaultPricing)

func sortedPricingKeys(table map[string]ModelPricing) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// LookupPricing returns the pricing entry for a model name.
// Matching is case-insensitive: an exact key match wins, otherwise the
// longest registered key that is a prefix of the model name.
// Returns zero pricing and false for unpriced models.
func LookupPricing(model string) (ModelPricing, bool) {
	m := strings.ToLower(strings.TrimSpace(model))
	if m == "" {
		return ModelPricing{}, false
	}
	if p, ok := DefaultPricing[m]; ok {
		return p, true
	}
	for _, key := range pricingKeysByLength {
		if strings.HasPrefix(m, key) {
			return DefaultPricing[key], true
		}
	}
	return ModelPricing{}, false
}

// CalculateCost computes the estimated USD cost for a single API call.
// Cache reads bill at 10% of the input rate, cache writes at 125%.
// Unknown models cost zero. Negative token counts are clamped to zero.
func CalculateCost(model string, inputTokens, outputTokens, cacheRead, cacheWrite int64) float64 {
	pricing, ok := LookupPricing(model)
	if !ok {
		return 0
	}

	cost := float64(clampTokens(inputTokens)) * pricing.InputPerMTok / 1_000_000
	cost += float64(clampTokens(outputTokens)) * pricing.OutputPerMTok / 1_000_000
	cost += float64(clampTokens(cacheRead)) * pricing.InputPerMTok * CacheReadMultiplier / 1_000_000
	cost += float64(clampTokens(cacheWrite)) * pricing.InputPerMTok * CacheWriteMultiplier / 1_000_000

	return cost
}

func clampTokens(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
