package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"carrito-cli/internal/timefmt"
	"carrito-cli/pkg/models"
)

var (
	moveStatus int
	moveNotes  string
	moveLimit  int
)

var movementsCmd = &cobra.Command{
	Use:     "movements",
	Aliases: []string{"mv"},
	Short:   "Send and list movement commands",
}

var movementsSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a movement command to the device",
	Run: func(cmd *cobra.Command, args []string) {
		rt := loadRuntime()
		defer rt.logger.Sync()

		req := models.NewMovement{
			DeviceID: rt.cfg.DeviceID,
			StatusID: moveStatus,
			ClientID: &sessionID,
		}
		if moveNotes != "" {
			req.Notes = &moveNotes
		}
		m, err := rt.api.PostMovement(context.Background(), req)
		if err != nil {
			fmt.Printf("Error sending movement: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(m)
			return
		}
		if m == nil {
			fmt.Println("Movement sent.")
			return
		}
		fmt.Printf("Movement %d sent at %s.\n", m.ID, rt.format.Format(m.OccurredAt))
	},
}

var movementsLastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the latest movement",
	Run: func(cmd *cobra.Command, args []string) {
		rt := loadRuntime()
		defer rt.logger.Sync()

		m, err := rt.api.GetLastMovement(context.Background(), rt.cfg.DeviceID, rt.cfg.TimeZone)
		if err != nil {
			fmt.Printf("Error fetching last movement: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(m)
			return
		}
		if m == nil {
			fmt.Println("No movements found.")
			return
		}
		printMovements(rt.format, []models.Movement{*m})
	},
}

var movementsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent movements, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		rt := loadRuntime()
		defer rt.logger.Sync()

		list, err := rt.api.GetLastMovements(context.Background(), rt.cfg.DeviceID, moveLimit, rt.cfg.TimeZone)
		if err != nil {
			fmt.Printf("Error fetching movements: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(list)
			return
		}
		if len(list) == 0 {
			fmt.Println("No movements found.")
			return
		}
		printMovements(rt.format, list)
	},
}

func printMovements(f timefmt.Formatter, list []models.Movement) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTEXT\tOCCURRED\tNOTES")
	fmt.Fprintln(w, "--\t------\t----\t--------\t-----")
	for _, m := range list {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
			m.ID, m.StatusID, orDash(m.StatusText), f.Format(m.OccurredAt), orDash(m.Notes))
	}
	w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return timefmt.Placeholder
	}
	return s
}

func init() {
	rootCmd.AddCommand(movementsCmd)
	movementsCmd.AddCommand(movementsSendCmd, movementsLastCmd, movementsListCmd)

	movementsSendCmd.Flags().IntVarP(&moveStatus, "status", "s", 0, "Movement status ID")
	movementsSendCmd.Flags().StringVar(&moveNotes, "notes", "", "Free-text notes")
	_ = movementsSendCmd.MarkFlagRequired("status")

	movementsListCmd.Flags().IntVarP(&moveLimit, "limit", "n", 20, "Number of movements to show")
}
