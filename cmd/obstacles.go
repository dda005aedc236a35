package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"carrito-cli/internal/dashboard"
	"carrito-cli/internal/timefmt"
	"carrito-cli/pkg/models"
)

var (
	obstStatus  int
	obstDetails string
	obstLimit   int
)

var obstaclesCmd = &cobra.Command{
	Use:     "obstacles",
	Aliases: []string{"obst"},
	Short:   "Report and list obstacles",
}

var obstaclesSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Report an obstacle",
	Run: func(cmd *cobra.Command, args []string) {
		postObstacle(obstStatus, obstDetails)
	},
}

var obstaclesSimulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Report the fixed test obstacle",
	Run: func(cmd *cobra.Command, args []string) {
		postObstacle(dashboard.ObstacleSimulateStatus, dashboard.ObstacleSimulateDetail)
	},
}

func postObstacle(status int, details string) {
	rt := loadRuntime()
	defer rt.logger.Sync()

	req := models.NewObstacle{
		DeviceID: rt.cfg.DeviceID,
		StatusID: status,
		ClientID: &sessionID,
	}
	if details != "" {
		req.Details = &details
	}
	o, err := rt.api.PostObstacle(context.Background(), req)
	if err != nil {
		fmt.Printf("Error reporting obstacle: %v\n", err)
		os.Exit(1)
	}
	if jsonOutput {
		printJSON(o)
		return
	}
	if o == nil {
		fmt.Println("Obstacle reported.")
		return
	}
	fmt.Printf("Obstacle %d reported at %s.\n", o.ID, rt.format.Format(o.OccurredAt))
}

var obstaclesLastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the latest obstacle",
	Run: func(cmd *cobra.Command, args []string) {
		rt := loadRuntime()
		defer rt.logger.Sync()

		o, err := rt.api.GetLastObstacle(context.Background(), rt.cfg.DeviceID, rt.cfg.TimeZone)
		if err != nil {
			fmt.Printf("Error fetching last obstacle: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(o)
			return
		}
		if o == nil {
			fmt.Println(dashboard.NoObstacle)
			return
		}
		printObstacles(rt.format, []models.Obstacle{*o})
	},
}

var obstaclesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent obstacles, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		rt := loadRuntime()
		defer rt.logger.Sync()

		list, err := rt.api.GetLastObstacles(context.Background(), rt.cfg.DeviceID, obstLimit, rt.cfg.TimeZone)
		if err != nil {
			fmt.Printf("Error fetching obstacles: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(list)
			return
		}
		if len(list) == 0 {
			fmt.Println("No obstacles found.")
			return
		}
		printObstacles(rt.format, list)
	},
}

func printObstacles(f timefmt.Formatter, list []models.Obstacle) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTEXT\tOCCURRED\tDETAILS")
	fmt.Fprintln(w, "--\t------\t----\t--------\t-------")
	for _, o := range list {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
			o.ID, o.StatusID, orDash(o.StatusText), f.Format(o.OccurredAt), orDash(o.Details))
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(obstaclesCmd)
	obstaclesCmd.AddCommand(obstaclesSendCmd, obstaclesSimulateCmd, obstaclesLastCmd, obstaclesListCmd)

	obstaclesSendCmd.Flags().IntVarP(&obstStatus, "status", "s", 0, "Obstacle status ID")
	obstaclesSendCmd.Flags().StringVar(&obstDetails, "details", "", "Free-text details")
	_ = obstaclesSendCmd.MarkFlagRequired("status")

	obstaclesListCmd.Flags().IntVarP(&obstLimit, "limit", "n", 20, "Number of obstacles to show")
}
