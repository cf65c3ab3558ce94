// Package keyring resolves provider API keys. Resolution order is
// environment variable, then config, then the OS keychain, so a key set
// for one session always wins over a stored one.
package keyring

import (
	"os"
	"strings"
)

const serviceName = "aibudget"

// envVars maps provider IDs to the environment variables checked first.
var envVars = map[string][]string{
	"anthropic": {"ANTHROPIC_API_KEY"},
	"openai":    {"OPENAI_ADMIN_KEY", "OPENAI_API_KEY"},
	"google":    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	"xai":       {"XAI_API_KEY"},
}

// ConfigKeys supplies keys stored in the config file. The config package's
// Config satisfies it via a thin adapter in cmd.
type ConfigKeys interface {
	APIKey(providerID string) string
}

// Chain resolves keys through env, config, and keychain in order.
type Chain struct {
	config ConfigKeys
}

// NewChain returns a resolver. config may be nil.
func NewChain(config ConfigKeys) *Chain {
	return &Chain{config: config}
}

// Get returns the API key for a provider, or "" when none is available
// anywhere in the chain.
func (c *Chain) Get(providerID string) string {
	for _, env := range envVars[providerID] {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}

	if c.config != nil {
		if v := strings.TrimSpace(c.config.APIKey(providerID)); v != "" {
			return v
		}
	}

	if v, err := keychainGet(serviceName, account(providerID)); err == nil && v != "" {
		return v
	}
	return ""
}

// Set stores a key in the OS keychain.
func (c *Chain) Set(providerID, key string) error {
	return keychainSet(serviceName, account(providerID), key)
}

// Delete removes a stored key. Deleting a missing key is not an error.
func (c *Chain) Delete(providerID string) error {
	return keychainDelete(serviceName, account(providerID))
}

func account(providerID string) string {
	return providerID + "-api-key"
}
