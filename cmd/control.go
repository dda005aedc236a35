package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"carrito-cli/internal/dashboard"
	"carrito-cli/internal/ui"
)

var controlRefresh string

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive page to drive the device",
	Long: `Shows the latest movement and obstacle status, updated live, and sends
movement commands typed on the console.

Console commands:
  move <status_id> [notes...]   send a movement
  obstacle                      simulate an obstacle
  refresh                       poll the latest status now`,
	Run: func(cmd *cobra.Command, args []string) {
		interval := mustDuration("refresh", controlRefresh)
		s := newPageSession()
		page := dashboard.NewControl(s.rt.settings(), s.rt.api, s.live, s.term, s.rt.logger)

		s.console.Handle("move", ui.Command{
			Usage: "<status_id> [notes...]",
			Help:  "send a movement command",
			Run: func(ctx context.Context, args []string) error {
				status, err := argInt(args, 0)
				if err != nil {
					return err
				}
				_ = page.SendMovement(ctx, status, strings.Join(args[1:], " "))
				return nil
			},
		})
		s.console.Handle("obstacle", ui.Command{
			Help: "simulate an obstacle",
			Run: func(ctx context.Context, args []string) error {
				_ = page.SimulateObstacle(ctx)
				return nil
			},
		})
		s.console.Handle("refresh", ui.Command{
			Help: "poll the latest status",
			Run: func(ctx context.Context, args []string) error {
				return page.Refresh(ctx)
			},
		})

		s.run(page.Start, func(ctx context.Context) { page.Run(ctx, interval) })
	},
}

func init() {
	rootCmd.AddCommand(controlCmd)
	controlCmd.Flags().StringVar(&controlRefresh, "refresh", dashboard.ControlRefreshInterval.String(), "Auto refresh interval")
}
