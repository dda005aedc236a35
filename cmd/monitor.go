package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"carrito-cli/internal/dashboard"
	"carrito-cli/internal/ui"
)

var (
	monitorReload  string
	monitorMetrics string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive page with live tables and metrics",
	Long: `Shows the last movements and obstacles with a sparkline of their status,
plus totals, last activity and uptime. Live events are prepended as they arrive.

Console commands:
  reload [movements|obstacles]  poll the tables now
  metrics                       recompute the metrics now`,
	Run: func(cmd *cobra.Command, args []string) {
		reload := mustDuration("reload", monitorReload)
		metrics := mustDuration("metrics", monitorMetrics)
		s := newPageSession()
		page := dashboard.NewMonitor(s.rt.settings(), s.rt.api, s.live, s.term, s.rt.logger)

		s.console.Handle("reload", ui.Command{
			Usage: "[movements|obstacles]",
			Help:  "poll the tables",
			Run: func(ctx context.Context, args []string) error {
				which := ""
				if len(args) > 0 {
					which = args[0]
				}
				switch which {
				case "", "all":
					if err := page.ReloadMovements(ctx); err != nil {
						return err
					}
					return page.ReloadObstacles(ctx)
				case "movements", "mv":
					return page.ReloadMovements(ctx)
				case "obstacles", "obst":
					return page.ReloadObstacles(ctx)
				}
				return ui.ErrUsage
			},
		})
		s.console.Handle("metrics", ui.Command{
			Help: "recompute the metrics",
			Run: func(ctx context.Context, args []string) error {
				if err := page.RefreshMetrics(ctx); err != nil {
					return err
				}
				if jsonOutput {
					printJSON(page.Metrics())
				}
				return nil
			},
		})

		s.run(page.Start, func(ctx context.Context) { page.Run(ctx, reload, metrics) })
	},
}

func mustDuration(flag, raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		fmt.Printf("Error parsing --%s: %q is not a positive duration\n", flag, raw)
		os.Exit(1)
	}
	return d
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVar(&monitorReload, "reload", dashboard.MonitorReloadInterval.String(), "Table reload interval")
	monitorCmd.Flags().StringVar(&monitorMetrics, "metrics", dashboard.MonitorMetricsInterval.String(), "Metrics refresh interval")
}
