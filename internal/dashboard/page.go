package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"carrito-cli/internal/live"
	"carrito-cli/internal/timefmt"
	"carrito-cli/pkg/models"
)

// Phase is the lifecycle stage of a page.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLive
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLive:
		return "live"
	default:
		return "idle"
	}
}

// ErrAlreadyStarted is returned by Start on a page that is already running.
var ErrAlreadyStarted = errors.New("page already started")

// API is the subset of the REST client the pages use.
type API interface {
	PostMovement(ctx context.Context, m models.NewMovement) (*models.Movement, error)
	GetLastMovement(ctx context.Context, deviceID int64, tz string) (*models.Movement, error)
	GetLastMovements(ctx context.Context, deviceID int64, limit int, tz string) ([]models.Movement, error)
	PostObstacle(ctx context.Context, o models.NewObstacle) (*models.Obstacle, error)
	GetLastObstacle(ctx context.Context, deviceID int64, tz string) (*models.Obstacle, error)
	GetLastObstacles(ctx context.Context, deviceID int64, limit int, tz string) ([]models.Obstacle, error)
	CreateDemo(ctx context.Context, d models.NewDemo) (*models.DemoSequence, error)
	GetLast20Demos(ctx context.Context) ([]models.DemoSequence, error)
	LaunchDemo(ctx context.Context, sequenceID int64) (*models.DemoRun, error)
	RepeatDemo(ctx context.Context, runID int64) (*models.DemoRun, error)
}

// Live is the subset of the live client the pages subscribe to.
type Live interface {
	OnMovement(fn func(models.Movement))
	OnObstacle(fn func(models.Obstacle))
	OnDemoRun(fn func(models.DemoRun))
	OnState(fn func(live.State))
	State() live.State
}

// Settings are the per-session values every page needs.
type Settings struct {
	DeviceID  int64
	TimeZone  string
	ClientID  string
	Formatter timefmt.Formatter
}

type page struct {
	settings Settings
	api      API
	live     Live
	display  Display
	controls *Controls
	logger   *zap.Logger

	mu    sync.Mutex
	phase Phase
}

func newPage(s Settings, api API, lv Live, d Display, logger *zap.Logger) page {
	if logger == nil {
		logger = zap.NewNop()
	}
	return page{
		settings: s,
		api:      api,
		live:     lv,
		display:  d,
		controls: NewControls(d, logger),
		logger:   logger,
	}
}

// Phase reports the current lifecycle stage.
func (p *page) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// begin moves Idle to Loading, failing if the page was already started.
func (p *page) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != PhaseIdle {
		return ErrAlreadyStarted
	}
	p.phase = PhaseLoading
	return nil
}

func (p *page) goLive() {
	p.mu.Lock()
	p.phase = PhaseLive
	p.mu.Unlock()
}

func (p *page) badges() {
	p.display.SetText(FieldZone, p.settings.TimeZone)
	p.display.SetText(FieldDevice, fmt.Sprintf("Device %d", p.settings.DeviceID))
}

func (p *page) attachLink() {
	p.display.SetText(FieldLink, linkText(p.live.State()))
	p.live.OnState(func(s live.State) {
		p.display.SetText(FieldLink, linkText(s))
	})
}

func linkText(s live.State) string {
	return "live: " + s.String()
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
