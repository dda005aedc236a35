package models

import (
	"encoding/json"
	"fmt"
)

// DemoStep is one movement inside a demo sequence.
type DemoStep struct {
	StatusID   int `json:"status_id" yaml:"status_id"`
	DurationMs int `json:"duration_ms" yaml:"duration_ms"`
	Speed      int `json:"speed" yaml:"speed"`
	WaitMs     int `json:"wait_ms" yaml:"wait_ms"`
}

// DemoSequence is a named, replayable list of steps stored by the backend.
type DemoSequence struct {
	SequenceID   int64      `json:"sequence_id"`
	SeqName      string     `json:"seq_name"`
	ProgrammedBy string     `json:"programmed_by,omitempty"`
	RepeatCount  int        `json:"repeat_count"`
	Steps        []DemoStep `json:"steps,omitempty"`
	CreatedAt    string     `json:"created_at,omitempty"`
	LastRunID    *int64     `json:"last_run_id,omitempty"`
}

type demoSequenceWire struct {
	SequenceID   *int64     `json:"sequence_id"`
	ID           *int64     `json:"id"`
	SeqName      string     `json:"seq_name"`
	Name         string     `json:"name"`
	ProgrammedBy string     `json:"programmed_by"`
	RepeatCount  int        `json:"repeat_count"`
	Steps        []DemoStep `json:"steps"`
	CreatedAt    string     `json:"created_at"`
	LastRunID    *int64     `json:"last_run_id"`
}

func (d *DemoSequence) UnmarshalJSON(b []byte) error {
	var w demoSequenceWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*d = DemoSequence{
		SequenceID:   firstInt64(w.SequenceID, w.ID),
		SeqName:      firstString(w.SeqName, w.Name),
		ProgrammedBy: w.ProgrammedBy,
		RepeatCount:  w.RepeatCount,
		Steps:        w.Steps,
		CreatedAt:    w.CreatedAt,
		LastRunID:    w.LastRunID,
	}
	if d.SeqName == "" && d.SequenceID > 0 {
		d.SeqName = fmt.Sprintf("DEMO %d", d.SequenceID)
	}
	return nil
}

// Validate checks the fields every listed sequence must carry.
func (d DemoSequence) Validate() error {
	if d.SequenceID <= 0 {
		return fmt.Errorf("%w: demo sequence_id", ErrMissingField)
	}
	return nil
}

// RunKind tells a first launch apart from a repeat.
type RunKind string

const (
	RunNew    RunKind = "new"
	RunRepeat RunKind = "repeat"
)

// DemoRun is one execution of a demo sequence. The dashboard only observes runs.
type DemoRun struct {
	RunID      int64   `json:"run_id"`
	SequenceID int64   `json:"sequence_id,omitempty"`
	SeqName    string  `json:"seq_name,omitempty"`
	Kind       RunKind `json:"kind,omitempty"`
	StartedAt  string  `json:"started_at,omitempty"`
}

// Validate checks the fields every run notification must carry.
func (r DemoRun) Validate() error {
	if r.RunID <= 0 {
		return fmt.Errorf("%w: demo run_id", ErrMissingField)
	}
	return nil
}

// NewDemo is the body for POST /api/demo/create
type NewDemo struct {
	DeviceID     int64      `json:"device_id"`
	SeqName      string     `json:"seq_name"`
	ProgrammedBy string     `json:"programmed_by"`
	RepeatCount  int        `json:"repeat_count"`
	Steps        []DemoStep `json:"steps"`
}

// LaunchRequest is the body for POST /api/demo/launch
type LaunchRequest struct {
	SequenceID int64 `json:"sequence_id"`
}

// RepeatRequest is the body for POST /api/demo/repeat
type RepeatRequest struct {
	RunID int64 `json:"run_id"`
}
