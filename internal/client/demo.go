package client

import (
	"context"
	"net/http"

	"carrito-cli/pkg/models"
)

// CreateDemo stores a new demo sequence. The backend may answer with the
// created sequence or with nothing at all.
func (c *CarritoClient) CreateDemo(ctx context.Context, d models.NewDemo) (*models.DemoSequence, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/demo/create", nil, d)
	if err != nil {
		return nil, err
	}
	return decodeFirst[models.DemoSequence](env, false)
}

// GetLast20Demos lists the most recently created sequences.
func (c *CarritoClient) GetLast20Demos(ctx context.Context) ([]models.DemoSequence, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/demo/last-20", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.DemoSequence](env, true)
}

// LaunchDemo starts a new run of a sequence.
func (c *CarritoClient) LaunchDemo(ctx context.Context, sequenceID int64) (*models.DemoRun, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/demo/launch", nil, models.LaunchRequest{SequenceID: sequenceID})
	if err != nil {
		return nil, err
	}
	run, err := decodeFirst[models.DemoRun](env, false)
	if run != nil {
		run.Kind = models.RunNew
		if run.SequenceID == 0 {
			run.SequenceID = sequenceID
		}
	}
	return run, err
}

// RepeatDemo replays an earlier run.
func (c *CarritoClient) RepeatDemo(ctx context.Context, runID int64) (*models.DemoRun, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/demo/repeat", nil, models.RepeatRequest{RunID: runID})
	if err != nil {
		return nil, err
	}
	run, err := decodeFirst[models.DemoRun](env, false)
	if run != nil {
		run.Kind = models.RunRepeat
	}
	return run, err
}
