package model

import (
	"math"
	"testing"
)

func TestSnapshotRemaining(t *testing.T) {
	tests := []struct {
		name   string
		spend  float64
		budget float64
		want   float64
	}{
		{"under budget", 25, 80, 55},
		{"at budget", 80, 80, 0},
		{"over budget", 95, 80, 0},
		{"zero budget", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Snapshot{CurrentSpend: tt.spend, Budget: tt.budget}
			if got := s.Remaining(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Remaining() = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestSnapshotUsagePercent(t *testing.T) {
	tests := []struct {
		name   string
		spend  float64
		budget float64
		want   float64
	}{
		{"half", 40, 80, 50},
		{"capped at 100", 200, 80, 100},
		{"zero budget", 40, 0, 0},
		{"negative budget", 40, -5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Snapshot{CurrentSpend: tt.spend, Budget: tt.budget}
			if got := s.UsagePercent(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("UsagePercent() = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestSnapshotFormatSpend(t *testing.T) {
	s := Snapshot{CurrentSpend: 12.345, Budget: 80}
	if got := s.FormatSpend(); got != "$12.35/$80" {
		t.Errorf("FormatSpend() = %q, want $12.35/$80", got)
	}

	sub := Snapshot{Subscription: true, PlanLabel: "Max 20x", CurrentSpend: 200, Budget: 200}
	if got := sub.FormatSpend(); got != "Max 20x" {
		t.Errorf("subscription FormatSpend() = %q, want plan label", got)
	}
}

func TestFormatTokens(t *testing.T) {
	s := Snapshot{InputTokens: 1_234_567, OutputTokens: 45_000}
	if got := s.FormatTokens(); got != "1.2M in / 45K out" {
		t.Errorf("FormatTokens() = %q", got)
	}
}

func TestProviderName(t *testing.T) {
	if got := ProviderName(ProviderXAI); got != "xAI" {
		t.Errorf("ProviderName(xai) = %q", got)
	}
	if got := ProviderName("mystery"); got != "mystery" {
		t.Errorf("ProviderName(unknown) = %q, want passthrough", got)
	}
}
