package keyring

import "testing"

type mapKeys map[string]string

func (m mapKeys) APIKey(providerID string) string { return m[providerID] }

func TestEnvWinsOverConfig(t *testing.T) {
	t.Setenv("XAI_API_KEY", "xai-from-env")
	chain := NewChain(mapKeys{"xai": "xai-from-config"})
	if got := chain.Get("xai"); got != "xai-from-env" {
		t.Errorf("Get = %q, want env value", got)
	}
}

func TestConfigFallback(t *testing.T) {
	t.Setenv("XAI_API_KEY", "")
	chain := NewChain(mapKeys{"xai": "xai-from-config"})
	if got := chain.Get("xai"); got != "xai-from-config" {
		t.Errorf("Get = %q, want config value", got)
	}
}

func TestAdminKeyPreferredForOpenAI(t *testing.T) {
	t.Setenv("OPENAI_ADMIN_KEY", "sk-admin")
	t.Setenv("OPENAI_API_KEY", "sk-regular")
	chain := NewChain(nil)
	if got := chain.Get("openai"); got != "sk-admin" {
		t.Errorf("Get = %q, want admin key first", got)
	}
}

func TestMissingEverywhere(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	chain := NewChain(mapKeys{})
	// Keychain lookups for an account this test never wrote must miss.
	if got := chain.Get("anthropic"); got != "" {
		t.Errorf("Get = %q, want empty", got)
	}
}

func TestWhitespaceKeyIgnored(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "   ")
	t.Setenv("GEMINI_API_KEY", "gm-key")
	chain := NewChain(nil)
	if got := chain.Get("google"); got != "gm-key" {
		t.Errorf("Get = %q, want fall through to second env var", got)
	}
}
