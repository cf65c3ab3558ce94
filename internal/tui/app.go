// Package tui provides the interactive Bubble Tea dashboard for aibudget.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/aibudget/internal/cli"
	"github.com/theirongolddev/aibudget/internal/config"
	"github.com/theirongolddev/aibudget/internal/model"
	"github.com/theirongolddev/aibudget/internal/monitor"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	minTerminalWidth = 60
	tickInterval     = 30 * time.Second
	refreshTimeout   = 60 * time.Second
)

// RefreshDoneMsg is sent when a background refresh completes.
type RefreshDoneMsg struct {
	Snapshots []model.Snapshot
	At        time.Time
	Err       string
	Skipped   bool // another refresh was already running
}

type tickMsg time.Time

// App is the root Bubble Tea model.
type App struct {
	cfg     config.Config
	monitor *monitor.Monitor

	snapshots   []model.Snapshot
	lastRefresh time.Time
	lastError   string

	refreshing bool
	spinner    spinner.Model

	width    int
	height   int
	showHelp bool
}

// NewApp builds the dashboard over an already constructed monitor.
func NewApp(cfg config.Config, m *monitor.Monitor) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cli.ColorAccent)

	return &App{
		cfg:     cfg,
		monitor: m,
		spinner: sp,
	}
}

// Run starts the dashboard in the alternate screen.
func Run(cfg config.Config, m *monitor.Monitor) error {
	p := tea.NewProgram(NewApp(cfg, m), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.refreshCmd(), tickEvery())
}

func tickEvery() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// refreshCmd runs a monitor refresh off the UI goroutine.
func (a *App) refreshCmd() tea.Cmd {
	m := a.monitor
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if !m.RefreshAll(ctx) {
			return RefreshDoneMsg{Skipped: true, Snapshots: m.Snapshots(), At: m.LastRefresh()}
		}
		return RefreshDoneMsg{
			Snapshots: m.Snapshots(),
			At:        m.LastRefresh(),
			Err:       m.LastError(),
		}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return a, tea.Quit
		case "r":
			if !a.refreshing {
				a.refreshing = true
				return a, a.refreshCmd()
			}
		case "?", "h":
			a.showHelp = !a.showHelp
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickEvery()}
		if !a.refreshing {
			a.refreshing = true
			cmds = append(cmds, a.refreshCmd())
		}
		return a, tea.Batch(cmds...)

	case RefreshDoneMsg:
		a.refreshing = false
		a.snapshots = msg.Snapshots
		a.lastRefresh = msg.At
		a.lastError = msg.Err
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) View() string {
	if a.width > 0 && a.width < minTerminalWidth {
		return fmt.Sprintf("\n  terminal too narrow (%d cols, need %d)\n", a.width, minTerminalWidth)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(cli.RenderTitle("AI Budget"))
	b.WriteString("\n\n")

	if len(a.snapshots) == 0 {
		if a.refreshing {
			b.WriteString("  " + a.spinner.View() + " fetching provider usage...\n")
		} else {
			b.WriteString("  no provider data yet, press r to refresh\n")
		}
		return b.String()
	}

	for _, snap := range a.snapshots {
		b.WriteString(a.renderProvider(snap))
		b.WriteString("\n")
	}

	b.WriteString(a.renderTotals())
	b.WriteString("\n")
	b.WriteString(a.renderFooter())

	if a.showHelp {
		b.WriteString("\n  q quit   r refresh   ? toggle help\n")
	}
	return b.String()
}

var (
	nameStyle  = lipgloss.NewStyle().Bold(true).Foreground(cli.ColorText).Width(12)
	noteStyle  = lipgloss.NewStyle().Foreground(cli.ColorTextMuted)
	totalStyle = lipgloss.NewStyle().Bold(true).Foreground(cli.ColorAccent)
	errStyle   = lipgloss.NewStyle().Foreground(cli.ColorRed)
)

func (a *App) renderProvider(snap model.Snapshot) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(nameStyle.Render(snap.ProviderName))

	if snap.Subscription {
		b.WriteString(noteStyle.Render(snap.FormatSpend()))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(cli.RenderBudgetBar(snap.UsagePercent(), 24))
	b.WriteString("  ")
	b.WriteString(cli.FormatSpendPair(snap.CurrentSpend, snap.Budget))
	b.WriteString("\n")

	detail := "  " + strings.Repeat(" ", 12) + snap.FormatTokens()
	if snap.Note != "" {
		detail += "  " + snap.Note
	}
	b.WriteString(noteStyle.Render(detail))
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderTotals() string {
	var spend, budget float64
	for _, snap := range a.snapshots {
		spend += snap.CurrentSpend
		budget += snap.Budget
	}
	return "  " + totalStyle.Render(fmt.Sprintf("Total %s", cli.FormatSpendPair(spend, budget))) + "\n"
}

func (a *App) renderFooter() string {
	var b strings.Builder
	b.WriteString("  ")
	if a.refreshing {
		b.WriteString(a.spinner.View() + " refreshing")
	} else {
		b.WriteString(noteStyle.Render(cli.FormatUpdated(a.lastRefresh, time.Now().UTC())))
	}
	if a.lastError != "" {
		b.WriteString("  " + errStyle.Render(a.lastError))
	}
	b.WriteString("\n")
	return b.String()
}
