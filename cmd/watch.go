package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"carrito-cli/internal/journal"
	"carrito-cli/internal/live"
)

var (
	watchEvents  string
	watchJournal string
	historyEvent string
	historyLimit int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live events to the terminal",
	Long: `Connects to the live channel, joins the configured device and prints
every event as it arrives. With --journal, events are also stored in a sqlite
file that 'watch history' can read back.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt := loadRuntime()
		defer rt.logger.Sync()

		events := live.Events
		if watchEvents != "" {
			events = splitList(watchEvents)
		}

		ctx, cancel := signalContext()
		defer cancel()

		var j *journal.Journal
		if watchJournal != "" {
			var err error
			j, err = journal.Open(ctx, watchJournal)
			if err != nil {
				fmt.Printf("Error opening journal: %v\n", err)
				os.Exit(1)
			}
			defer j.Close()
		}

		lc := rt.newLive()
		lc.OnState(func(s live.State) {
			if !jsonOutput {
				fmt.Printf("-- live: %s\n", s)
			}
		})

		var outMu sync.Mutex
		for _, event := range events {
			event := event
			lc.On(event, func(payload json.RawMessage) error {
				received := time.Now()
				if j != nil {
					if _, err := j.Record(ctx, event, payload, received); err != nil {
						rt.logger.Warn("journal write failed", zap.String("event", event), zap.Error(err))
					}
				}

				outMu.Lock()
				defer outMu.Unlock()
				if jsonOutput {
					line, err := json.Marshal(journal.Entry{Event: event, Payload: payload, ReceivedAt: received.UTC()})
					if err != nil {
						return err
					}
					fmt.Println(string(line))
					return nil
				}
				fmt.Printf("%s  %-16s %s\n", rt.format.FormatTime(received), event, compactJSON(payload))
				return nil
			})
		}

		if !jsonOutput {
			fmt.Printf("Watching %s on %s (device %d). Ctrl-C to stop.\n",
				strings.Join(events, ", "), rt.cfg.LiveURL, rt.cfg.DeviceID)
		}
		if err := lc.Run(ctx); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var watchHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show events recorded by 'watch --journal'",
	Run: func(cmd *cobra.Command, args []string) {
		rt := loadRuntime()
		defer rt.logger.Sync()

		if watchJournal == "" {
			fmt.Println("Error: --journal is required.")
			os.Exit(1)
		}
		ctx := context.Background()
		j, err := journal.Open(ctx, watchJournal)
		if err != nil {
			fmt.Printf("Error opening journal: %v\n", err)
			os.Exit(1)
		}
		defer j.Close()

		entries, err := j.Recent(ctx, historyEvent, historyLimit)
		if err != nil {
			fmt.Printf("Error reading journal: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(entries)
			return
		}
		if len(entries) == 0 {
			fmt.Println("No events recorded.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tRECEIVED\tEVENT\tPAYLOAD")
		fmt.Fprintln(w, "--\t--------\t-----\t-------")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.ID, rt.format.FormatTime(e.ReceivedAt), e.Event, compactJSON(e.Payload))
		}
		w.Flush()

		counts, err := j.Count(ctx)
		if err != nil {
			rt.logger.Warn("journal count failed", zap.Error(err))
			return
		}
		fmt.Printf("\nRecorded: %s\n", formatCounts(counts))
	},
}

// formatCounts renders per-event totals in event name order.
func formatCounts(counts map[string]int64) string {
	if len(counts) == 0 {
		return "none"
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, counts[name])
	}
	return strings.Join(parts, ", ")
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func compactJSON(raw json.RawMessage) string {
	var b bytes.Buffer
	if err := json.Compact(&b, raw); err != nil {
		return string(raw)
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.AddCommand(watchHistoryCmd)

	watchCmd.PersistentFlags().StringVar(&watchJournal, "journal", "", "sqlite file to record events in")
	watchCmd.Flags().StringVar(&watchEvents, "events", "", "Comma separated list of events (default all)")

	watchHistoryCmd.Flags().StringVar(&historyEvent, "event", "", "Only show this event")
	watchHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "Number of entries to show")
}
