package models

import (
	"encoding/json"
	"fmt"
)

// Movement is a timestamped movement status reported for a device.
type Movement struct {
	ID         int64  `json:"id"`
	DeviceID   int64  `json:"device_id"`
	StatusID   int    `json:"status_id"`
	StatusText string `json:"status_text"`
	ClientID   string `json:"client_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// movementWire is the shape seen on the wire, including the aliases older
// backend revisions emit (move_id, status_texto).
type movementWire struct {
	ID          *int64     `json:"id"`
	MoveID      *int64     `json:"move_id"`
	DeviceID    int64      `json:"device_id"`
	StatusID    *int       `json:"status_id"`
	StatusText  string     `json:"status_text"`
	StatusTexto string     `json:"status_texto"`
	ClientID    FlexString `json:"client_id"`
	Notes       string     `json:"notes"`
	OccurredAt  string     `json:"occurred_at"`
}

func (m *Movement) UnmarshalJSON(b []byte) error {
	var w movementWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*m = Movement{
		DeviceID:   w.DeviceID,
		StatusText: firstString(w.StatusText, w.StatusTexto),
		ClientID:   string(w.ClientID),
		Notes:      w.Notes,
		OccurredAt: w.OccurredAt,
	}
	m.ID = firstInt64(w.ID, w.MoveID)
	if w.StatusID != nil {
		m.StatusID = *w.StatusID
	}
	return nil
}

// Validate checks the fields every movement must carry once decoded.
func (m Movement) Validate() error {
	switch {
	case m.ID <= 0:
		return fmt.Errorf("%w: movement id", ErrMissingField)
	case m.OccurredAt == "":
		return fmt.Errorf("%w: movement occurred_at", ErrMissingField)
	}
	return nil
}

// NewMovement is the body for POST /api/movements
type NewMovement struct {
	DeviceID int64   `json:"device_id"`
	StatusID int     `json:"status_id"`
	ClientID *string `json:"client_id"`
	Notes    *string `json:"notes"`
}
