package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/aibudget/internal/config"
	"github.com/theirongolddev/aibudget/internal/model"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Refresh interval: %d min\n", cfg.General.RefreshIntervalMinutes)
	fmt.Printf("    Log directory:    %s\n", cfg.General.LogDir)
	fmt.Printf("    Agents directory: %s\n", cfg.General.AgentsDir)
	fmt.Println()

	fmt.Println("  [Providers]")
	for _, id := range model.ProviderIDs {
		state := "off"
		if cfg.ProviderEnabled(id) {
			state = "on"
		}
		fmt.Printf("    %-10s %-4s budget $%.0f\n", model.ProviderName(id), state, cfg.ProviderBudget(id))
	}
	fmt.Printf("    Total budget: $%.0f\n", cfg.TotalBudget())
	fmt.Println()

	fmt.Println("  [Alerts]")
	fmt.Printf("    Thresholds: %s\n", joinInts(cfg.Alerts.Thresholds)+"%")
	fmt.Println()

	fmt.Println("  [OpenAI]")
	if key := config.OpenAIAdminKey(cfg); key != "" {
		fmt.Printf("    Admin key: %s\n", maskAPIKey(key))
	} else {
		fmt.Println("    Admin key: not configured")
	}
	fmt.Println()

	fmt.Println("  [xAI]")
	if cfg.XAI.TeamID != "" {
		fmt.Printf("    Team ID: %s\n", cfg.XAI.TeamID)
	}
	if cfg.XAI.ManualSpend != nil {
		fmt.Printf("    Manual spend: $%.2f\n", *cfg.XAI.ManualSpend)
	}
	if cfg.XAI.TeamID == "" && cfg.XAI.ManualSpend == nil {
		fmt.Println("    Local logs only")
	}
	fmt.Println()

	if cfg.Anthropic.SubscriptionPlan != "" {
		fmt.Println("  [Anthropic]")
		plan := cfg.Anthropic.SubscriptionPlan
		if cfg.Anthropic.SubscriptionPrice != nil {
			plan += fmt.Sprintf(" ($%.0f/mo)", *cfg.Anthropic.SubscriptionPrice)
		}
		fmt.Printf("    Subscription: %s\n", plan)
		fmt.Println()
	}

	fmt.Println("  Run `aibudget setup` to reconfigure.")
	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return strings.Repeat("*", len(key))
}
