package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"carrito-cli/internal/dashboard"
	"carrito-cli/internal/timefmt"
	"carrito-cli/internal/ui"
	"carrito-cli/pkg/models"
)

var (
	demoName   string
	demoBy     string
	demoRepeat int
	demoSteps  []string
	demoFile   string
)

// demoSpec is the layout of a --file sequence definition.
type demoSpec struct {
	Name         string            `yaml:"seq_name"`
	ProgrammedBy string            `yaml:"programmed_by"`
	RepeatCount  int               `yaml:"repeat_count"`
	Steps        []models.DemoStep `yaml:"steps"`
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Build, list and launch demo sequences",
}

var demoCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a demo sequence",
	Long: `Creates a named sequence from --step flags or a YAML file.

Each --step is status:duration_ms:speed:wait_ms; trailing fields may be omitted.

Example:
  carrito-cli demo create --name square --step 1:2000:80:500 --step 3:800:60
  carrito-cli demo create --file square.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		rt := loadRuntime()
		defer rt.logger.Sync()

		spec := demoSpec{Name: demoName, ProgrammedBy: demoBy, RepeatCount: demoRepeat}
		if demoFile != "" {
			fileSpec, err := readDemoFile(demoFile)
			if err != nil {
				fmt.Printf("Error reading %s: %v\n", demoFile, err)
				os.Exit(1)
			}
			spec = mergeDemoSpec(fileSpec, spec)
		}

		var builder dashboard.StepBuilder
		for _, s := range spec.Steps {
			builder.Add(s)
		}
		for _, raw := range demoSteps {
			parts := append(strings.Split(raw, ":"), "", "", "")
			if _, err := builder.AddRaw(parts[0], parts[1], parts[2], parts[3]); err != nil {
				fmt.Printf("Error parsing step %q: %v\n", raw, err)
				os.Exit(1)
			}
		}

		req, err := newDemoRequest(rt.cfg.DeviceID, spec, builder.Steps())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		seq, err := rt.api.CreateDemo(context.Background(), req)
		if err != nil {
			fmt.Printf("Error creating demo: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(seq)
			return
		}
		if seq == nil || seq.SequenceID == 0 {
			fmt.Printf("Demo %q created with %d steps.\n", req.SeqName, len(req.Steps))
			return
		}
		fmt.Printf("Demo %d %q created with %d steps.\n", seq.SequenceID, req.SeqName, len(req.Steps))
	},
}

var demoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the last 20 demo sequences",
	Run: func(cmd *cobra.Command, args []string) {
		rt := loadRuntime()
		defer rt.logger.Sync()

		list, err := rt.api.GetLast20Demos(context.Background())
		if err != nil {
			fmt.Printf("Error fetching demos: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(list)
			return
		}
		if len(list) == 0 {
			fmt.Println("No demos found.")
			return
		}
		printDemos(rt.format, list)
	},
}

var demoLaunchCmd = &cobra.Command{
	Use:   "launch [sequence_id]",
	Short: "Start a new run of a sequence",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := argInt64(args, 0)
		if err != nil || id <= 0 {
			fmt.Printf("Error: invalid sequence id %q\n", args[0])
			os.Exit(1)
		}
		rt := loadRuntime()
		defer rt.logger.Sync()

		run, err := rt.api.LaunchDemo(context.Background(), id)
		if err != nil {
			fmt.Printf("Error launching demo: %v\n", err)
			os.Exit(1)
		}
		printRun(run, fmt.Sprintf("Demo %d launched", id))
	},
}

var demoRepeatCmd = &cobra.Command{
	Use:   "repeat [run_id]",
	Short: "Replay an earlier run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := argInt64(args, 0)
		if err != nil || id <= 0 {
			fmt.Printf("Error: invalid run id %q\n", args[0])
			os.Exit(1)
		}
		rt := loadRuntime()
		defer rt.logger.Sync()

		run, err := rt.api.RepeatDemo(context.Background(), id)
		if err != nil {
			fmt.Printf("Error repeating demo: %v\n", err)
			os.Exit(1)
		}
		printRun(run, fmt.Sprintf("Demo repeated (run %d)", id))
	},
}

var demoConsoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive demo builder",
	Long: `Builds a sequence step by step and launches sequences, showing run
notifications live.

Console commands:
  add <status> [duration_ms] [speed] [wait_ms]
  rm <n>            remove step n (1-based)
  clear             drop every pending step
  create <name> [programmed_by] [repeat_count]
  reload            refresh the sequence list
  launch <sequence_id>
  repeat <run_id>
  exec <sequence_id>  launch from the selector panel`,
	Run: func(cmd *cobra.Command, args []string) {
		s := newPageSession()
		page := dashboard.NewDemo(s.rt.settings(), s.rt.api, s.live, s.term, s.rt.logger)
		registerDemoConsole(s.console, page)
		s.run(page.Start, func(ctx context.Context) { <-ctx.Done() })
	},
}

func registerDemoConsole(c *ui.Console, page *dashboard.Demo) {
	c.Handle("add", ui.Command{
		Usage: "<status> [duration_ms] [speed] [wait_ms]",
		Help:  "append a step",
		Run: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return ui.ErrUsage
			}
			parts := append(args, "", "", "")
			_ = page.AddStep(parts[0], parts[1], parts[2], parts[3])
			return nil
		},
	})
	c.Handle("rm", ui.Command{
		Usage: "<n>",
		Help:  "remove a step",
		Run: func(ctx context.Context, args []string) error {
			n, err := argInt(args, 0)
			if err != nil {
				return err
			}
			page.RemoveStep(n - 1)
			return nil
		},
	})
	c.Handle("clear", ui.Command{
		Help: "drop pending steps",
		Run: func(ctx context.Context, args []string) error {
			page.ClearSteps()
			return nil
		},
	})
	c.Handle("create", ui.Command{
		Usage: "<name> [programmed_by] [repeat]",
		Help:  "create a sequence from the steps",
		Run: func(ctx context.Context, args []string) error {
			var name, by string
			repeat := 0
			if len(args) > 0 {
				name = args[0]
			}
			if len(args) > 1 {
				by = args[1]
			}
			if len(args) > 2 {
				n, err := argInt(args, 2)
				if err != nil {
					return err
				}
				repeat = n
			}
			_, _ = page.Create(ctx, name, by, repeat)
			return nil
		},
	})
	c.Handle("reload", ui.Command{
		Help: "refresh the sequence list",
		Run: func(ctx context.Context, args []string) error {
			return page.Reload(ctx)
		},
	})
	c.Handle("launch", ui.Command{
		Usage: "<sequence_id>",
		Help:  "start a new run",
		Run: func(ctx context.Context, args []string) error {
			id, err := argInt64(args, 0)
			if err != nil {
				return err
			}
			_, _ = page.Launch(ctx, id)
			return nil
		},
	})
	c.Handle("repeat", ui.Command{
		Usage: "<run_id>",
		Help:  "replay a run",
		Run: func(ctx context.Context, args []string) error {
			id, err := argInt64(args, 0)
			if err != nil {
				return err
			}
			_, _ = page.Repeat(ctx, id)
			return nil
		},
	})
	c.Handle("exec", ui.Command{
		Usage: "<sequence_id>",
		Help:  "launch the selected sequence once",
		Run: func(ctx context.Context, args []string) error {
			_, _ = page.ExecuteSelected(ctx, strings.Join(args, " "))
			return nil
		},
	})
}

func readDemoFile(path string) (demoSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return demoSpec{}, err
	}
	var spec demoSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return demoSpec{}, fmt.Errorf("parse yaml: %w", err)
	}
	return spec, nil
}

// mergeDemoSpec lets explicit flags override values from the file.
func mergeDemoSpec(file, flags demoSpec) demoSpec {
	out := file
	if flags.Name != "" {
		out.Name = flags.Name
	}
	if flags.ProgrammedBy != "" {
		out.ProgrammedBy = flags.ProgrammedBy
	}
	if flags.RepeatCount > 0 {
		out.RepeatCount = flags.RepeatCount
	}
	return out
}

// newDemoRequest applies the same checks and defaults as the demo page.
func newDemoRequest(deviceID int64, spec demoSpec, steps []models.DemoStep) (models.NewDemo, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return models.NewDemo{}, dashboard.ErrBlankName
	}
	if len(steps) == 0 {
		return models.NewDemo{}, dashboard.ErrNoSteps
	}
	by := strings.TrimSpace(spec.ProgrammedBy)
	if by == "" {
		by = dashboard.DefaultProgrammedBy
	}
	repeat := spec.RepeatCount
	if repeat <= 0 {
		repeat = dashboard.DefaultRepeatCount
	}
	return models.NewDemo{
		DeviceID:     deviceID,
		SeqName:      name,
		ProgrammedBy: by,
		RepeatCount:  repeat,
		Steps:        steps,
	}, nil
}

func printDemos(f timefmt.Formatter, list []models.DemoSequence) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBY\tREPEAT\tSTEPS\tCREATED\tLAST RUN")
	fmt.Fprintln(w, "--\t----\t--\t------\t-----\t-------\t--------")
	for _, s := range list {
		lastRun := timefmt.Placeholder
		if s.LastRunID != nil {
			lastRun = fmt.Sprint(*s.LastRunID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			s.SequenceID, s.SeqName, orDash(s.ProgrammedBy), s.RepeatCount, len(s.Steps), f.Format(s.CreatedAt), lastRun)
	}
	w.Flush()
}

func printRun(run *models.DemoRun, fallback string) {
	if jsonOutput {
		printJSON(run)
		return
	}
	if run == nil || run.RunID == 0 {
		fmt.Printf("%s.\n", fallback)
		return
	}
	fmt.Printf("%s: run %d (%s).\n", fallback, run.RunID, run.Kind)
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.AddCommand(demoCreateCmd, demoListCmd, demoLaunchCmd, demoRepeatCmd, demoConsoleCmd)

	demoCreateCmd.Flags().StringVar(&demoName, "name", "", "Sequence name")
	demoCreateCmd.Flags().StringVar(&demoBy, "by", "", "Programmed by (default admin)")
	demoCreateCmd.Flags().IntVar(&demoRepeat, "repeat", 0, "Repeat count (default 1)")
	demoCreateCmd.Flags().StringArrayVar(&demoSteps, "step", nil, "Step as status:duration_ms:speed:wait_ms (repeatable)")
	demoCreateCmd.Flags().StringVarP(&demoFile, "file", "f", "", "YAML file with seq_name, programmed_by, repeat_count and steps")
}
