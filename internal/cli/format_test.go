package cli

import (
	"strings"
	"testing"
	"time"
)

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234, "1.2K"},
		{1_234_567, "1.2M"},
		{1_234_567_890, "1.2B"},
	}
	for _, tt := range tests {
		if got := FormatTokens(tt.n); got != tt.want {
			t.Errorf("FormatTokens(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatCost(t *testing.T) {
	tests := []struct {
		cost float64
		want string
	}{
		{0, "$0.00"},
		{9.999, "$10.00"},
		{12.35, "$12.35"},
		{42.5, "$42.5"},
		{150, "$150"},
		{1234.5, "$1,235"},
	}
	for _, tt := range tests {
		if got := FormatCost(tt.cost); got != tt.want {
			t.Errorf("FormatCost(%v) = %q, want %q", tt.cost, got, tt.want)
		}
	}
}

func TestFormatSpendPair(t *testing.T) {
	if got := FormatSpendPair(12.35, 80); got != "$12.35 / $80" {
		t.Errorf("FormatSpendPair = %q", got)
	}
	// No budget set shows spend alone.
	if got := FormatSpendPair(12.35, 0); got != "$12.35" {
		t.Errorf("FormatSpendPair without budget = %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatUpdated(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"zero time", time.Time{}, "not yet updated"},
		{"just now", now.Add(-20 * time.Second), "updated just now"},
		{"one minute", now.Add(-90 * time.Second), "updated 1 min ago"},
		{"several minutes", now.Add(-7 * time.Minute), "updated 7 min ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatUpdated(tt.at, now); got != tt.want {
				t.Errorf("FormatUpdated = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderBudgetBarClamps(t *testing.T) {
	over := RenderBudgetBar(140, 10)
	if !strings.Contains(over, "100%") {
		t.Errorf("over-budget bar = %q, want clamped to 100%%", over)
	}
	under := RenderBudgetBar(-5, 10)
	if !strings.Contains(under, "0%") {
		t.Errorf("negative bar = %q, want clamped to 0%%", under)
	}
}

func TestRenderTableShape(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Provider", "Spend"},
		Rows: [][]string{
			{"Anthropic", "$21.40"},
			{"OpenAI", "$5.00"},
		},
	})
	for _, want := range []string{"Provider", "Anthropic", "$21.40", "╭", "╯"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}
