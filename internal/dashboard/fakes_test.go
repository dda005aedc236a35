package dashboard

import (
	"context"
	"slices"
	"sync"

	"carrito-cli/internal/live"
	"carrito-cli/pkg/models"
)

type toast struct {
	Level Level
	Msg   string
}

type fakeDisplay struct {
	mu     sync.Mutex
	texts  map[Field]string
	busy   []string
	toasts []toast
	tables map[string][][]string
	series map[string][]Point
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{
		texts:  make(map[Field]string),
		tables: make(map[string][][]string),
		series: make(map[string][]Point),
	}
}

func (f *fakeDisplay) SetText(field Field, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts[field] = text
}

func (f *fakeDisplay) SetBusy(control string, busy bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := "off"
	if busy {
		state = "on"
	}
	f.busy = append(f.busy, control+":"+state)
}

func (f *fakeDisplay) Toast(level Level, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, toast{level, msg})
}

func (f *fakeDisplay) RenderTable(table string, header []string, rows [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = rows
}

func (f *fakeDisplay) RenderSeries(series string, points []Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.series[series] = points
}

func (f *fakeDisplay) text(field Field) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts[field]
}

func (f *fakeDisplay) table(name string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tables[name]
}

func (f *fakeDisplay) lastToast() toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.toasts) == 0 {
		return toast{}
	}
	return f.toasts[len(f.toasts)-1]
}

// fakeAPI answers from fixed data and counts calls per operation.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	lastMovement *models.Movement
	lastObstacle *models.Obstacle
	movements    []models.Movement
	obstacles    []models.Obstacle
	demos        []models.DemoSequence
	err          error

	postedMovements []models.NewMovement
	postedObstacles []models.NewObstacle
	createdDemos    []models.NewDemo
	limits          []int

	// block, when set, holds PostMovement until closed.
	block chan struct{}
	// demosBlock holds GetLast20Demos the same way.
	demosBlock chan struct{}
	// onCreate runs while a CreateDemo request is in flight.
	onCreate func()
}

func (f *fakeAPI) holdDemos() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.demosBlock = make(chan struct{})
	return f.demosBlock
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int)}
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.err
}

func (f *fakeAPI) PostMovement(ctx context.Context, m models.NewMovement) (*models.Movement, error) {
	if f.block != nil {
		<-f.block
	}
	if err := f.record("PostMovement"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.postedMovements = append(f.postedMovements, m)
	f.mu.Unlock()
	return nil, nil
}

func (f *fakeAPI) GetLastMovement(ctx context.Context, deviceID int64, tz string) (*models.Movement, error) {
	if err := f.record("GetLastMovement"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastMovement, nil
}

func (f *fakeAPI) GetLastMovements(ctx context.Context, deviceID int64, limit int, tz string) ([]models.Movement, error) {
	if err := f.record("GetLastMovements"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	if limit < len(f.movements) {
		return append([]models.Movement(nil), f.movements[:limit]...), nil
	}
	return append([]models.Movement(nil), f.movements...), nil
}

func (f *fakeAPI) PostObstacle(ctx context.Context, o models.NewObstacle) (*models.Obstacle, error) {
	if err := f.record("PostObstacle"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.postedObstacles = append(f.postedObstacles, o)
	f.mu.Unlock()
	return nil, nil
}

func (f *fakeAPI) GetLastObstacle(ctx context.Context, deviceID int64, tz string) (*models.Obstacle, error) {
	if err := f.record("GetLastObstacle"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastObstacle, nil
}

func (f *fakeAPI) GetLastObstacles(ctx context.Context, deviceID int64, limit int, tz string) ([]models.Obstacle, error) {
	if err := f.record("GetLastObstacles"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit < len(f.obstacles) {
		return append([]models.Obstacle(nil), f.obstacles[:limit]...), nil
	}
	return append([]models.Obstacle(nil), f.obstacles...), nil
}

func (f *fakeAPI) CreateDemo(ctx context.Context, d models.NewDemo) (*models.DemoSequence, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	if err := f.record("CreateDemo"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdDemos = append(f.createdDemos, d)
	seq := models.DemoSequence{
		SequenceID:   int64(len(f.demos) + 1),
		SeqName:      d.SeqName,
		ProgrammedBy: d.ProgrammedBy,
		RepeatCount:  d.RepeatCount,
		Steps:        d.Steps,
	}
	f.demos = append([]models.DemoSequence{seq}, f.demos...)
	return &seq, nil
}

func (f *fakeAPI) GetLast20Demos(ctx context.Context) ([]models.DemoSequence, error) {
	f.mu.Lock()
	block := f.demosBlock
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err := f.record("GetLast20Demos"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.DemoSequence(nil), f.demos...), nil
}

func (f *fakeAPI) LaunchDemo(ctx context.Context, sequenceID int64) (*models.DemoRun, error) {
	if err := f.record("LaunchDemo"); err != nil {
		return nil, err
	}
	return &models.DemoRun{RunID: 100 + sequenceID, SequenceID: sequenceID, Kind: models.RunNew}, nil
}

func (f *fakeAPI) RepeatDemo(ctx context.Context, runID int64) (*models.DemoRun, error) {
	if err := f.record("RepeatDemo"); err != nil {
		return nil, err
	}
	return &models.DemoRun{RunID: runID + 1, Kind: models.RunRepeat}, nil
}

// fakeLive stores subscriptions so tests can push events synchronously.
type fakeLive struct {
	mu        sync.Mutex
	state     live.State
	movements []func(models.Movement)
	obstacles []func(models.Obstacle)
	runs      []func(models.DemoRun)
	states    []func(live.State)
}

func (f *fakeLive) OnMovement(fn func(models.Movement)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movements = append(f.movements, fn)
}

func (f *fakeLive) OnObstacle(fn func(models.Obstacle)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obstacles = append(f.obstacles, fn)
}

func (f *fakeLive) OnDemoRun(fn func(models.DemoRun)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, fn)
}

func (f *fakeLive) OnState(fn func(live.State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, fn)
}

func (f *fakeLive) State() live.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeLive) pushMovement(m models.Movement) {
	f.mu.Lock()
	hs := slices.Clone(f.movements)
	f.mu.Unlock()
	for _, h := range hs {
		h(m)
	}
}

func (f *fakeLive) pushObstacle(o models.Obstacle) {
	f.mu.Lock()
	hs := slices.Clone(f.obstacles)
	f.mu.Unlock()
	for _, h := range hs {
		h(o)
	}
}

func (f *fakeLive) pushRun(r models.DemoRun) {
	f.mu.Lock()
	hs := slices.Clone(f.runs)
	f.mu.Unlock()
	for _, h := range hs {
		h(r)
	}
}

func (f *fakeLive) setState(s live.State) {
	f.mu.Lock()
	f.state = s
	hs := slices.Clone(f.states)
	f.mu.Unlock()
	for _, h := range hs {
		h(s)
	}
}
