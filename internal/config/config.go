// Package config manages aibudget configuration and the model pricing table.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Default alert thresholds (percent of budget).
var defaultThresholds = []int{80, 95}

// Config holds all aibudget configuration.
type Config struct {
	General   GeneralConfig             `toml:"general"`
	Providers map[string]ProviderConfig `toml:"providers"`
	Alerts    AlertConfig               `toml:"alerts"`
	OpenAI    OpenAIConfig              `toml:"openai"`
	XAI       XAIConfig                 `toml:"xai"`
	Anthropic AnthropicConfig           `toml:"anthropic"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	RefreshIntervalMinutes int    `toml:"refresh_interval_minutes"`
	LogDir                 string `toml:"log_dir,omitempty"`
	AgentsDir              string `toml:"agents_dir,omitempty"`
}

// ProviderConfig holds per-provider budget settings.
type ProviderConfig struct {
	Budget  float64 `toml:"budget"`
	Enabled bool    `toml:"enabled"`
}

// AlertConfig holds budget alert settings.
type AlertConfig struct {
	Thresholds []int `toml:"thresholds,omitempty"`
}

// OpenAIConfig holds OpenAI billing API settings.
type OpenAIConfig struct {
	AdminKey string `toml:"admin_key,omitempty"`
	BaseURL  string `toml:"base_url,omitempty"`
}

// XAIConfig holds xAI management API and manual override settings.
type XAIConfig struct {
	TeamID      string   `toml:"team_id,omitempty"`
	BaseURL     string   `toml:"base_url,omitempty"`
	ManualSpend *float64 `toml:"manual_spend,omitempty"`
}

// AnthropicConfig holds subscription plan settings for Claude Max users.
type AnthropicConfig struct {
	SubscriptionPlan  string   `toml:"subscription_plan,omitempty"`
	SubscriptionPrice *float64 `toml:"subscription_price,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		General: GeneralConfig{
			RefreshIntervalMinutes: 15,
			LogDir:                 filepath.Join(home, ".openclaw", "logs"),
			AgentsDir:              filepath.Join(home, ".openclaw", "agents"),
		},
		Providers: map[string]ProviderConfig{
			"anthropic": {Budget: 80, Enabled: true},
			"openai":    {Budget: 60, Enabled: true},
			"google":    {Budget: 30, Enabled: true},
			"xai":       {Budget: 30, Enabled: true},
		},
		Alerts: AlertConfig{Thresholds: append([]int(nil), defaultThresholds...)},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "aibudget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "aibudget")
}

// ConfigPath returns the full path to the config file. The AIBUDGET_CONFIG
// env var overrides the default location.
func ConfigPath() string {
	if p := os.Getenv("AIBUDGET_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning validated defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads and validates a config file at the given path.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // config path is user-controlled by design
	if err != nil {
		if os.IsNotExist(err) {
			return cfg.validated(), nil
		}
		return cfg.validated(), fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig().validated(), fmt.Errorf("parsing config: %w", err)
	}

	return cfg.validated(), nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := filepath.Dir(ConfigPath())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// validated clamps and repairs config values in place.
func (c Config) validated() Config {
	if c.General.RefreshIntervalMinutes < 1 {
		c.General.RefreshIntervalMinutes = 15
	}
	if c.General.RefreshIntervalMinutes > 1440 {
		c.General.RefreshIntervalMinutes = 1440
	}

	valid := c.Alerts.Thresholds[:0]
	for _, t := range c.Alerts.Thresholds {
		if t >= 1 && t <= 100 {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		valid = append([]int(nil), defaultThresholds...)
	}
	sort.Ints(valid)
	c.Alerts.Thresholds = valid

	if c.Providers == nil {
		c.Providers = DefaultConfig().Providers
	}
	for id, pc := range c.Providers {
		if pc.Budget < 0 {
			pc.Budget = 0
			c.Providers[id] = pc
		}
	}

	if c.General.LogDir == "" {
		c.General.LogDir = DefaultConfig().General.LogDir
	}
	if c.General.AgentsDir == "" {
		c.General.AgentsDir = DefaultConfig().General.AgentsDir
	}

	return c
}

// ProviderBudget returns the configured budget for a provider, or 0.
func (c Config) ProviderBudget(id string) float64 {
	return c.Providers[id].Budget
}

// ProviderEnabled reports whether a provider is enabled.
func (c Config) ProviderEnabled(id string) bool {
	return c.Providers[id].Enabled
}

// EnabledProviders returns the enabled provider IDs, sorted.
func (c Config) EnabledProviders() []string {
	var ids []string
	for id, pc := range c.Providers {
		if pc.Enabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// TotalBudget sums the budgets of all enabled providers.
func (c Config) TotalBudget() float64 {
	var total float64
	for _, pc := range c.Providers {
		if pc.Enabled {
			total += pc.Budget
		}
	}
	return total
}

// OpenAIAdminKey returns the OpenAI admin key from env var or config, in that order.
func OpenAIAdminKey(cfg Config) string {
	if key := os.Getenv("OPENAI_ADMIN_KEY"); key != "" {
		return key
	}
	return cfg.OpenAI.AdminKey
}
