package models

import (
	"encoding/json"
	"fmt"
)

// Obstacle is a timestamped obstacle report for a device.
type Obstacle struct {
	ID         int64  `json:"id"`
	DeviceID   int64  `json:"device_id"`
	StatusID   int    `json:"status_id"`
	StatusText string `json:"status_text"`
	ClientID   string `json:"client_id,omitempty"`
	Details    string `json:"details,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

type obstacleWire struct {
	ID          *int64     `json:"id"`
	ObstID      *int64     `json:"obst_id"`
	DeviceID    int64      `json:"device_id"`
	StatusID    *int       `json:"status_id"`
	StatusText  string     `json:"status_text"`
	StatusTexto string     `json:"status_texto"`
	ClientID    FlexString `json:"client_id"`
	Details     string     `json:"details"`
	OccurredAt  string     `json:"occurred_at"`
}

func (o *Obstacle) UnmarshalJSON(b []byte) error {
	var w obstacleWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*o = Obstacle{
		DeviceID:   w.DeviceID,
		StatusText: firstString(w.StatusText, w.StatusTexto),
		ClientID:   string(w.ClientID),
		Details:    w.Details,
		OccurredAt: w.OccurredAt,
	}
	o.ID = firstInt64(w.ID, w.ObstID)
	if w.StatusID != nil {
		o.StatusID = *w.StatusID
	}
	return nil
}

// Validate checks the fields every obstacle must carry once decoded.
func (o Obstacle) Validate() error {
	switch {
	case o.ID <= 0:
		return fmt.Errorf("%w: obstacle id", ErrMissingField)
	case o.OccurredAt == "":
		return fmt.Errorf("%w: obstacle occurred_at", ErrMissingField)
	}
	return nil
}

// NewObstacle is the body for POST /api/obstacles
type NewObstacle struct {
	DeviceID int64   `json:"device_id"`
	StatusID int     `json:"status_id"`
	ClientID *string `json:"client_id"`
	Details  *string `json:"details"`
}
