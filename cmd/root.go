// Package cmd implements the aibudget CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/aibudget/internal/alert"
	"github.com/theirongolddev/aibudget/internal/config"
	"github.com/theirongolddev/aibudget/internal/keyring"
	"github.com/theirongolddev/aibudget/internal/monitor"
	"github.com/theirongolddev/aibudget/internal/notify"
	"github.com/theirongolddev/aibudget/internal/providers"
	"github.com/theirongolddev/aibudget/internal/store"
	"github.com/theirongolddev/aibudget/internal/track"

	"github.com/spf13/cobra"
)

var (
	flagLogDir    string
	flagAgentsDir string
	flagNoCache   bool
	flagQuiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "aibudget",
	Short: "AI API spend tracker",
	Long:  "Track monthly spend across Anthropic, OpenAI, Google, and xAI against per-provider budgets.",
	RunE:  runStatus,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "Usage log directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagAgentsDir, "agents-dir", "", "OpenClaw agents directory (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite parse cache, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadConfig loads the config file and applies directory flag overrides.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Config error, using defaults: %v\n", err)
	}
	if flagLogDir != "" {
		cfg.General.LogDir = flagLogDir
	}
	if flagAgentsDir != "" {
		cfg.General.AgentsDir = flagAgentsDir
	}
	return cfg
}

// buildTracker wires the log tracker with the parse cache unless --no-cache.
// The returned closer is non-nil when a cache was opened.
func buildTracker(cfg config.Config) (*track.Tracker, func()) {
	tracker := track.New(cfg.General.LogDir, cfg.General.AgentsDir)
	if flagNoCache {
		return tracker, nil
	}
	cache, err := store.Open(track.CachePath())
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Cache unavailable, doing full parse\n")
		}
		return tracker, nil
	}
	tracker.WithCache(cache)
	return tracker, func() { _ = cache.Close() }
}

// keyAdapter exposes config-stored keys to the keyring chain.
type keyAdapter struct{ cfg config.Config }

func (k keyAdapter) APIKey(providerID string) string {
	if providerID == "openai" {
		return k.cfg.OpenAI.AdminKey
	}
	return ""
}

// buildMonitor assembles the full refresh stack: tracker, resolvers,
// credential chain, and alerting.
func buildMonitor(cfg config.Config, withAlerts bool) (*monitor.Monitor, func()) {
	tracker, closer := buildTracker(cfg)
	resolvers := providers.All(cfg, tracker)
	keys := keyring.NewChain(keyAdapter{cfg: cfg})

	var alerts *alert.Notifier
	if withAlerts {
		alerts = alert.New(notify.Best())
	}
	return monitor.New(cfg, resolvers, keys, alerts), closer
}
