package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/aibudget/internal/config"
	"github.com/theirongolddev/aibudget/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, _ := config.Load()

	budgets := make(map[string]*string, len(model.ProviderIDs))
	enabled := make(map[string]*bool, len(model.ProviderIDs))
	for _, id := range model.ProviderIDs {
		b := fmt.Sprintf("%.0f", cfg.ProviderBudget(id))
		e := cfg.ProviderEnabled(id)
		budgets[id] = &b
		enabled[id] = &e
	}

	thresholds := joinInts(cfg.Alerts.Thresholds)
	adminKey := cfg.OpenAI.AdminKey
	interval := strconv.Itoa(cfg.General.RefreshIntervalMinutes)

	var groups []*huh.Group
	for _, id := range model.ProviderIDs {
		name := model.ProviderName(id)
		groups = append(groups, huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Track %s?", name)).
				Value(enabled[id]),
			huh.NewInput().
				Title(fmt.Sprintf("%s monthly budget (USD)", name)).
				Value(budgets[id]).
				Validate(validateMoney),
		))
	}

	groups = append(groups, huh.NewGroup(
		huh.NewInput().
			Title("Alert thresholds (percent, comma separated)").
			Description("Notify when a provider crosses these budget percentages.").
			Value(&thresholds),
		huh.NewInput().
			Title("Refresh interval (minutes)").
			Value(&interval).
			Validate(validateMinutes),
		huh.NewInput().
			Title("OpenAI admin key (optional)").
			Description("Needs the api.usage.read scope for the costs API. Leave blank to use local logs.").
			EchoMode(huh.EchoModePassword).
			Value(&adminKey),
	))

	if err := huh.NewForm(groups...).Run(); err != nil {
		return fmt.Errorf("setup canceled: %w", err)
	}

	for _, id := range model.ProviderIDs {
		pc := cfg.Providers[id]
		pc.Enabled = *enabled[id]
		if v, err := strconv.ParseFloat(strings.TrimSpace(*budgets[id]), 64); err == nil {
			pc.Budget = v
		}
		cfg.Providers[id] = pc
	}
	cfg.Alerts.Thresholds = parseInts(thresholds)
	if v, err := strconv.Atoi(strings.TrimSpace(interval)); err == nil {
		cfg.General.RefreshIntervalMinutes = v
	}
	cfg.OpenAI.AdminKey = strings.TrimSpace(adminKey)

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `aibudget setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func validateMoney(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return fmt.Errorf("enter a non-negative amount")
	}
	return nil
}

func validateMinutes(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 1 || v > 1440 {
		return fmt.Errorf("enter minutes between 1 and 1440")
	}
	return nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func parseInts(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		if v, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, v)
		}
	}
	return out
}
