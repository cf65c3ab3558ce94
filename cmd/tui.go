package cmd

import (
	"fmt"

	"github.com/theirongolddev/aibudget/internal/tui"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	// Force TrueColor profile so all background styling produces ANSI codes.
	// Without this, lipgloss may default to Ascii profile (no colors).
	lipgloss.SetColorProfile(termenv.TrueColor)

	m, closer := buildMonitor(cfg, true)
	if closer != nil {
		defer closer()
	}

	if err := tui.Run(cfg, m); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
