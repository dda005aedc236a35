package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carrito-cli/internal/timefmt"
	"carrito-cli/pkg/models"
)

const (
	// ObstacleSimulateStatus is the status sent by the simulate-obstacle control.
	ObstacleSimulateStatus = 5
	ObstacleSimulateDetail = "Simulated (temporary control)"

	// NoObstacle is shown when no obstacle has been reported.
	NoObstacle = "NONE"

	ControlRefreshInterval = 10 * time.Second
)

// Control is the page that sends movement commands and shows the latest
// movement and obstacle status.
type Control struct {
	page
	movGate  Gate
	obstGate Gate
}

func NewControl(s Settings, api API, lv Live, d Display, logger *zap.Logger) *Control {
	return &Control{page: newPage(s, api, lv, d, logger)}
}

// Start renders the badges and initial status, then subscribes to live updates.
func (c *Control) Start(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	c.badges()

	if m, err := c.api.GetLastMovement(ctx, c.settings.DeviceID, c.settings.TimeZone); err != nil {
		c.logger.Warn("initial movement load failed", zap.Error(err))
		c.showMovement(nil)
	} else {
		c.showMovement(m)
	}
	if o, err := c.api.GetLastObstacle(ctx, c.settings.DeviceID, c.settings.TimeZone); err != nil {
		c.logger.Warn("initial obstacle load failed", zap.Error(err))
		c.showObstacle(nil)
	} else {
		c.showObstacle(o)
	}

	c.live.OnMovement(func(m models.Movement) {
		c.movGate.Pushed(m.OccurredAt)
		c.showMovement(&m)
	})
	c.live.OnObstacle(func(o models.Obstacle) {
		c.obstGate.Pushed(o.OccurredAt)
		c.showObstacle(&o)
	})
	c.attachLink()
	c.goLive()
	return nil
}

// SendMovement posts a movement command with the session client id.
func (c *Control) SendMovement(ctx context.Context, statusID int, notes string) error {
	a := Action{
		Control: fmt.Sprintf("move:%d", statusID),
		Success: "Movement sent",
		Failure: "Failed to send movement",
	}
	return c.controls.Do(a, func() error {
		req := models.NewMovement{
			DeviceID: c.settings.DeviceID,
			StatusID: statusID,
			ClientID: optional(c.settings.ClientID),
			Notes:    optional(notes),
		}
		_, err := c.api.PostMovement(ctx, req)
		return err
	})
}

// SimulateObstacle reports a fixed obstacle for testing the pipeline end to end.
func (c *Control) SimulateObstacle(ctx context.Context) error {
	a := Action{
		Control: "obstacle:simulate",
		Success: "Obstacle simulated",
		Failure: "Failed to simulate obstacle",
	}
	return c.controls.Do(a, func() error {
		detail := ObstacleSimulateDetail
		req := models.NewObstacle{
			DeviceID: c.settings.DeviceID,
			StatusID: ObstacleSimulateStatus,
			ClientID: optional(c.settings.ClientID),
			Details:  &detail,
		}
		_, err := c.api.PostObstacle(ctx, req)
		return err
	})
}

// Refresh polls the latest movement and obstacle. Results older than what
// live events already showed are dropped.
func (c *Control) Refresh(ctx context.Context) error {
	m, err := c.api.GetLastMovement(ctx, c.settings.DeviceID, c.settings.TimeZone)
	if err != nil {
		return fmt.Errorf("refresh movement: %w", err)
	}
	if c.movGate.Fresh(movementTime(m)) {
		c.showMovement(m)
	} else {
		c.logger.Debug("stale movement poll discarded")
	}

	o, err := c.api.GetLastObstacle(ctx, c.settings.DeviceID, c.settings.TimeZone)
	if err != nil {
		return fmt.Errorf("refresh obstacle: %w", err)
	}
	if c.obstGate.Fresh(obstacleTime(o)) {
		c.showObstacle(o)
	} else {
		c.logger.Debug("stale obstacle poll discarded")
	}
	return nil
}

// Run refreshes every interval until ctx is done.
func (c *Control) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = ControlRefreshInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
				c.logger.Warn("auto refresh failed", zap.Error(err))
			}
		}
	}
}

func (c *Control) showMovement(m *models.Movement) {
	text := timefmt.Placeholder
	if m != nil {
		text = orPlaceholder(m.StatusText, timefmt.Placeholder)
	}
	c.display.SetText(FieldLastStatus, text)
}

func (c *Control) showObstacle(o *models.Obstacle) {
	text := NoObstacle
	if o != nil {
		text = orPlaceholder(o.StatusText, NoObstacle)
	}
	c.display.SetText(FieldObstacle, text)
}

func movementTime(m *models.Movement) string {
	if m == nil {
		return ""
	}
	return m.OccurredAt
}

func obstacleTime(o *models.Obstacle) string {
	if o == nil {
		return ""
	}
	return o.OccurredAt
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
