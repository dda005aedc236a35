package dashboard

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Field names a text slot on a page.
type Field string

const (
	FieldZone           Field = "zone"
	FieldDevice         Field = "device"
	FieldLink           Field = "link"
	FieldLastStatus     Field = "last_status"
	FieldObstacle       Field = "obstacle"
	FieldLiveInfo       Field = "live_info"
	FieldTotalMovements Field = "total_movements"
	FieldTotalObstacles Field = "total_obstacles"
	FieldLastActivity   Field = "last_activity"
	FieldUptime         Field = "uptime"
	FieldMovementRows   Field = "movement_rows"
	FieldObstacleRows   Field = "obstacle_rows"
)

// Level is the flavour of a toast.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Point is one sample of a chart series.
type Point struct {
	Label string
	Value float64
}

// Display is everything a page controller writes to. Implementations must be
// safe for concurrent use: live events, timers and user input all render.
type Display interface {
	SetText(field Field, text string)
	SetBusy(control string, busy bool)
	Toast(level Level, msg string)
	RenderTable(table string, header []string, rows [][]string)
	RenderSeries(series string, points []Point)
}

// ErrControlBusy is returned when a control is triggered while its previous
// request is still in flight.
var ErrControlBusy = errors.New("control is busy")

// Action describes one user-triggered request.
type Action struct {
	Control string
	Success string
	Failure string
}

// Controls tracks which controls are busy.
type Controls struct {
	display Display
	logger  *zap.Logger

	mu   sync.Mutex
	busy map[string]bool
}

func NewControls(display Display, logger *zap.Logger) *Controls {
	return &Controls{
		display: display,
		logger:  logger,
		busy:    make(map[string]bool),
	}
}

// Do disables the control, runs fn once, re-enables the control and reports
// the outcome as a toast. fn is not called if the control is already busy.
func (c *Controls) Do(a Action, fn func() error) error {
	c.mu.Lock()
	if c.busy[a.Control] {
		c.mu.Unlock()
		return ErrControlBusy
	}
	c.busy[a.Control] = true
	c.mu.Unlock()

	c.display.SetBusy(a.Control, true)
	defer func() {
		c.mu.Lock()
		delete(c.busy, a.Control)
		c.mu.Unlock()
		c.display.SetBusy(a.Control, false)
	}()

	if err := fn(); err != nil {
		c.logger.Error("action failed", zap.String("control", a.Control), zap.Error(err))
		c.display.Toast(LevelDanger, a.Failure+": "+err.Error())
		return err
	}
	c.display.Toast(LevelSuccess, a.Success)
	return nil
}

// Busy reports whether control has a request in flight.
func (c *Controls) Busy(control string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[control]
}
