package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/aibudget/internal/keyring"
	"github.com/theirongolddev/aibudget/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider API keys in the OS keychain",
}

var keysSetCmd = &cobra.Command{
	Use:   "set <provider>",
	Short: "Store an API key for a provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysSet,
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Remove a stored API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysDelete,
}

func init() {
	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysDeleteCmd)
	rootCmd.AddCommand(keysCmd)
}

func validProvider(id string) error {
	for _, known := range model.ProviderIDs {
		if id == known {
			return nil
		}
	}
	return fmt.Errorf("unknown provider %q (one of: %s)", id, strings.Join(model.ProviderIDs, ", "))
}

func runKeysSet(_ *cobra.Command, args []string) error {
	id := strings.ToLower(args[0])
	if err := validProvider(id); err != nil {
		return err
	}

	var key string
	prompt := huh.NewInput().
		Title(fmt.Sprintf("%s API key", model.ProviderName(id))).
		EchoMode(huh.EchoModePassword).
		Value(&key)
	if err := prompt.Run(); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("empty key, nothing stored")
	}

	if err := keyring.NewChain(nil).Set(id, key); err != nil {
		return err
	}
	fmt.Printf("  Stored %s key in keychain\n", model.ProviderName(id))
	return nil
}

func runKeysDelete(_ *cobra.Command, args []string) error {
	id := strings.ToLower(args[0])
	if err := validProvider(id); err != nil {
		return err
	}
	if err := keyring.NewChain(nil).Delete(id); err != nil {
		return err
	}
	fmt.Printf("  Removed %s key from keychain\n", model.ProviderName(id))
	return nil
}
