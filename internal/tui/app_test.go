package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/aibudget/internal/config"
	"github.com/theirongolddev/aibudget/internal/model"
	"github.com/theirongolddev/aibudget/internal/monitor"
)

func testApp() *App {
	cfg := config.DefaultConfig()
	return NewApp(cfg, monitor.New(cfg, nil, nil, nil))
}

func TestQuitKeys(t *testing.T) {
	keys := []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	}
	for _, key := range keys {
		app := testApp()
		_, cmd := app.Update(key)
		if cmd == nil {
			t.Errorf("key %q produced no command, want quit", key.String())
			continue
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %q did not quit", key.String())
		}
	}
}

func TestRefreshDoneUpdatesView(t *testing.T) {
	app := testApp()
	app.width = 100

	now := time.Now().UTC()
	updated, _ := app.Update(RefreshDoneMsg{
		Snapshots: []model.Snapshot{{
			ProviderID:   "anthropic",
			ProviderName: "Anthropic",
			CurrentSpend: 21.4,
			Budget:       80,
			LastUpdated:  now,
		}},
		At: now,
	})
	app = updated.(*App)

	view := app.View()
	if !strings.Contains(view, "Anthropic") {
		t.Errorf("view missing provider name:\n%s", view)
	}
	if !strings.Contains(view, "$21.40 / $80") {
		t.Errorf("view missing spend pair:\n%s", view)
	}
	if !strings.Contains(view, "Total") {
		t.Errorf("view missing totals line:\n%s", view)
	}
}

func TestNarrowTerminalMessage(t *testing.T) {
	app := testApp()
	updated, _ := app.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	app = updated.(*App)
	if !strings.Contains(app.View(), "too narrow") {
		t.Error("narrow terminal not reported")
	}
}

func TestRefreshKeyStartsRefreshOnce(t *testing.T) {
	app := testApp()
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("r key did not start a refresh")
	}
	if !app.refreshing {
		t.Fatal("refreshing flag not set")
	}
	// A second r while refreshing is ignored.
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd != nil {
		t.Error("second r key started an overlapping refresh")
	}
}
