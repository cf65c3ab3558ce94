package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/theirongolddev/aibudget/internal/cli"
	"github.com/theirongolddev/aibudget/internal/config"
	"github.com/theirongolddev/aibudget/internal/model"

	"github.com/spf13/cobra"
)

var flagStatusLocal bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current-month spend per provider",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&flagStatusLocal, "local", false, "Aggregate local logs only, skip provider APIs")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	if flagStatusLocal {
		return runStatusLocal(cfg)
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Fetching provider usage...\n")
	}

	m, closer := buildMonitor(cfg, false)
	if closer != nil {
		defer closer()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	m.RefreshAll(ctx)

	snapshots := m.Snapshots()
	if len(snapshots) == 0 {
		fmt.Println("\n  No provider data. Check enabled providers with `aibudget config`.")
		return nil
	}

	now := time.Now().UTC()
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("AI BUDGET  %s", now.Format("January 2006"))))
	fmt.Println()

	rows := make([][]string, 0, len(snapshots)+2)
	for _, snap := range snapshots {
		rows = append(rows, statusRow(snap))
	}

	spend, budget := m.Totals()
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", cli.FormatSpendPair(spend, budget), "", ""})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Provider", "Spend", "Used", "Tokens"},
		Rows:    rows,
	}))

	if err := m.LastError(); err != "" {
		fmt.Fprintf(os.Stderr, "\n  Partial data: %s\n", err)
	}
	return nil
}

func statusRow(snap model.Snapshot) []string {
	if snap.Subscription {
		return []string{snap.ProviderName, snap.FormatSpend(), "-", "-"}
	}
	row := []string{
		snap.ProviderName,
		cli.FormatSpendPair(snap.CurrentSpend, snap.Budget),
		cli.FormatPercent(snap.UsagePercent()),
		snap.FormatTokens(),
	}
	return row
}

// runStatusLocal renders this month's aggregates straight from the log
// files, without touching any billing API.
func runStatusLocal(cfg config.Config) error {
	tracker, closer := buildTracker(cfg)
	if closer != nil {
		defer closer()
	}

	usage, err := tracker.AllProvidersUsage()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("LOCAL LOGS  %s", now.Format("January 2006"))))
	fmt.Println()

	var rows [][]string
	var totalSpend float64
	var totalTokens int64
	for _, id := range model.ProviderIDs {
		u := usage[id]
		if u.Requests == 0 {
			continue
		}
		rows = append(rows, []string{
			model.ProviderName(id),
			cli.FormatCost(u.Spend),
			cli.FormatTokens(u.InputTokens + u.OutputTokens),
			strconv.Itoa(u.Requests),
		})
		totalSpend += u.Spend
		totalTokens += u.InputTokens + u.OutputTokens
	}
	if len(rows) == 0 {
		fmt.Println("  No usage found in local logs this month.")
		return nil
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", cli.FormatCost(totalSpend), cli.FormatTokens(totalTokens), ""})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Provider", "Spend", "Tokens", "Requests"},
		Rows:    rows,
	}))
	return nil
}
