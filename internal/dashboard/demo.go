package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"carrito-cli/internal/timefmt"
	"carrito-cli/pkg/models"
)

var (
	ErrBlankName = errors.New("sequence name is required")
	ErrNoSteps   = errors.New("sequence needs at least one step")
	ErrNoDemo    = errors.New("no demo selected")
	ErrInvalidID = errors.New("invalid demo id")
)

const (
	DefaultProgrammedBy = "admin"
	DefaultRepeatCount  = 1

	// DemoCacheSize caps the cached and rendered sequence list.
	DemoCacheSize = 20

	TableSteps = "steps"
	TableDemos = "demos"
)

var (
	stepHeader = []string{"#", "STATUS", "DURATION_MS", "SPEED", "WAIT_MS"}
	demoHeader = []string{"ID", "NAME", "CREATED", "LAST RUN"}
)

// Demo is the page for building, listing and launching demo sequences.
type Demo struct {
	page
	Steps *StepBuilder

	mu        sync.Mutex
	sequences []models.DemoSequence
	reloads   chan struct{}
}

func NewDemo(s Settings, api API, lv Live, d Display, logger *zap.Logger) *Demo {
	return &Demo{
		page:    newPage(s, api, lv, d, logger),
		Steps:   &StepBuilder{},
		reloads: make(chan struct{}, 1),
	}
}

// Start renders the empty step list and the latest sequences, then subscribes
// to demo run notifications. Reloads triggered by live events run on a
// separate goroutine until ctx is done.
func (d *Demo) Start(ctx context.Context) error {
	if err := d.begin(); err != nil {
		return err
	}
	d.badges()
	d.renderSteps()
	if err := d.Reload(ctx); err != nil {
		d.logger.Warn("initial demo load failed", zap.Error(err))
	}

	go d.reloadLoop(ctx)
	d.live.OnDemoRun(func(r models.DemoRun) {
		name := r.SeqName
		if name == "" {
			name = "DEMO"
		}
		d.display.SetText(FieldLiveInfo, fmt.Sprintf("Running: %s (run %d)", name, r.RunID))
		d.requestReload()
	})
	d.attachLink()
	d.goLive()
	return nil
}

// AddStep parses and appends a step, reporting bad input as a toast.
func (d *Demo) AddStep(status, duration, speed, wait string) error {
	if _, err := d.Steps.AddRaw(status, duration, speed, wait); err != nil {
		d.display.Toast(LevelDanger, "Invalid movement")
		return err
	}
	d.renderSteps()
	return nil
}

func (d *Demo) RemoveStep(i int) {
	if d.Steps.Remove(i) {
		d.renderSteps()
	}
}

func (d *Demo) ClearSteps() {
	d.Steps.Clear()
	d.renderSteps()
}

// Create stores the pending steps as a new sequence. Nothing is sent when the
// name is blank or there are no steps.
func (d *Demo) Create(ctx context.Context, name, programmedBy string, repeat int) (*models.DemoSequence, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		d.display.Toast(LevelWarning, "Name the sequence")
		return nil, ErrBlankName
	}
	steps := d.Steps.Steps()
	if len(steps) == 0 {
		d.display.Toast(LevelWarning, "Add at least 1 step")
		return nil, ErrNoSteps
	}
	programmedBy = strings.TrimSpace(programmedBy)
	if programmedBy == "" {
		programmedBy = DefaultProgrammedBy
	}
	if repeat <= 0 {
		repeat = DefaultRepeatCount
	}

	var created *models.DemoSequence
	a := Action{Control: "create", Success: "Demo created", Failure: "Failed to create demo"}
	err := d.controls.Do(a, func() error {
		var err error
		created, err = d.api.CreateDemo(ctx, models.NewDemo{
			DeviceID:     d.settings.DeviceID,
			SeqName:      name,
			ProgrammedBy: programmedBy,
			RepeatCount:  repeat,
			Steps:        steps,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := d.Reload(ctx); err != nil {
		d.logger.Warn("demo reload after create failed", zap.Error(err))
	}
	// Steps added while the request was in flight stay pending.
	d.Steps.DropPrefix(steps)
	d.renderSteps()
	return created, nil
}

// Reload fetches the latest sequences. On failure the table shows an error row
// and the previous cache is kept.
func (d *Demo) Reload(ctx context.Context) error {
	list, err := d.api.GetLast20Demos(ctx)
	if err != nil {
		d.display.RenderTable(TableDemos, demoHeader, [][]string{{"Failed to load demos"}})
		return fmt.Errorf("reload demos: %w", err)
	}
	if len(list) > DemoCacheSize {
		list = list[:DemoCacheSize]
	}
	d.mu.Lock()
	d.sequences = list
	d.mu.Unlock()
	d.renderDemos(list)
	return nil
}

// Sequences returns the cached list from the last successful reload.
func (d *Demo) Sequences() []models.DemoSequence {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.DemoSequence(nil), d.sequences...)
}

// Launch starts a new run of a sequence.
func (d *Demo) Launch(ctx context.Context, sequenceID int64) (*models.DemoRun, error) {
	var run *models.DemoRun
	a := Action{
		Control: fmt.Sprintf("launch:%d", sequenceID),
		Success: fmt.Sprintf("Demo %d launched", sequenceID),
		Failure: "Failed to launch demo",
	}
	err := d.controls.Do(a, func() error {
		var err error
		run, err = d.api.LaunchDemo(ctx, sequenceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	d.reloadQuietly(ctx)
	return run, nil
}

// Repeat replays an earlier run.
func (d *Demo) Repeat(ctx context.Context, runID int64) (*models.DemoRun, error) {
	var run *models.DemoRun
	a := Action{
		Control: fmt.Sprintf("repeat:%d", runID),
		Success: fmt.Sprintf("Demo repeated (run %d)", runID),
		Failure: "Failed to repeat demo",
	}
	err := d.controls.Do(a, func() error {
		var err error
		run, err = d.api.RepeatDemo(ctx, runID)
		return err
	})
	if err != nil {
		return nil, err
	}
	d.reloadQuietly(ctx)
	return run, nil
}

// ExecuteSelected launches the sequence chosen in the selector panel, where
// value is the raw selection.
func (d *Demo) ExecuteSelected(ctx context.Context, value string) (*models.DemoRun, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		d.display.Toast(LevelWarning, "Select a demo first")
		return nil, ErrNoDemo
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		d.display.Toast(LevelDanger, "Invalid demo id")
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, value)
	}

	var run *models.DemoRun
	a := Action{
		Control: "execute",
		Success: fmt.Sprintf("Demo %d launched", id),
		Failure: "Failed to launch demo from selector",
	}
	err = d.controls.Do(a, func() error {
		var err error
		run, err = d.api.LaunchDemo(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	d.reloadQuietly(ctx)
	return run, nil
}

// requestReload queues one reload without waiting for it. Requests made while
// one is already queued are merged.
func (d *Demo) requestReload() {
	select {
	case d.reloads <- struct{}{}:
	default:
	}
}

func (d *Demo) reloadLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.reloads:
			d.reloadQuietly(ctx)
		}
	}
}

func (d *Demo) reloadQuietly(ctx context.Context) {
	if err := d.Reload(ctx); err != nil {
		d.logger.Warn("demo reload failed", zap.Error(err))
	}
}

func (d *Demo) renderSteps() {
	steps := d.Steps.Steps()
	rows := make([][]string, 0, len(steps))
	for i, s := range steps {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(s.StatusID),
			strconv.Itoa(s.DurationMs),
			strconv.Itoa(s.Speed),
			strconv.Itoa(s.WaitMs),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"Add the first step to begin"})
	}
	d.display.RenderTable(TableSteps, stepHeader, rows)
}

func (d *Demo) renderDemos(list []models.DemoSequence) {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		lastRun := ""
		if s.LastRunID != nil {
			lastRun = strconv.FormatInt(*s.LastRunID, 10)
		}
		rows = append(rows, []string{
			idText(s.SequenceID),
			orPlaceholder(s.SeqName, "DEMO"),
			d.settings.Formatter.Format(s.CreatedAt),
			orPlaceholder(lastRun, timefmt.Placeholder),
		})
	}
	d.display.RenderTable(TableDemos, demoHeader, rows)
}
