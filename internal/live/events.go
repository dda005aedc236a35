package live

import (
	"encoding/json"
	"fmt"

	"carrito-cli/pkg/models"
)

// Server event names.
const (
	EventMovement      = "movement:new"
	EventObstacle      = "obstacle:new"
	EventDemoRunNew    = "demo:run:new"
	EventDemoRunRepeat = "demo:run:repeat"

	// EventJoinDevice is emitted by the client after every connect.
	EventJoinDevice = "join_device"
)

// Events lists every event the dashboard can subscribe to.
var Events = []string{EventMovement, EventObstacle, EventDemoRunNew, EventDemoRunRepeat}

type joinDevice struct {
	DeviceID int64 `json:"device_id"`
}

// On registers a raw handler for any server event.
func (c *Client) On(event string, h Handler) {
	c.registry.On(event, h)
}

// OnMovement registers fn for movement:new. Payloads failing validation are
// logged and never reach fn.
func (c *Client) OnMovement(fn func(models.Movement)) {
	c.registry.On(EventMovement, func(payload json.RawMessage) error {
		var m models.Movement
		if err := decode(payload, &m); err != nil {
			return err
		}
		if err := m.Validate(); err != nil {
			return err
		}
		fn(m)
		return nil
	})
}

// OnObstacle registers fn for obstacle:new.
func (c *Client) OnObstacle(fn func(models.Obstacle)) {
	c.registry.On(EventObstacle, func(payload json.RawMessage) error {
		var o models.Obstacle
		if err := decode(payload, &o); err != nil {
			return err
		}
		if err := o.Validate(); err != nil {
			return err
		}
		fn(o)
		return nil
	})
}

// OnDemoRun registers fn for both demo:run:new and demo:run:repeat; the run's
// Kind tells them apart.
func (c *Client) OnDemoRun(fn func(models.DemoRun)) {
	for _, sub := range []struct {
		event string
		kind  models.RunKind
	}{
		{EventDemoRunNew, models.RunNew},
		{EventDemoRunRepeat, models.RunRepeat},
	} {
		sub := sub
		c.registry.On(sub.event, func(payload json.RawMessage) error {
			var r models.DemoRun
			if err := decode(payload, &r); err != nil {
				return err
			}
			if err := r.Validate(); err != nil {
				return err
			}
			r.Kind = sub.kind
			fn(r)
			return nil
		})
	}
}

func decode(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
