package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carrito-cli/pkg/models"
)

// fakeDemoBackend keeps created sequences in memory.
type fakeDemoBackend struct {
	mu        sync.Mutex
	sequences []models.NewDemo
	launched  []int64
	repeated  []int64
}

func (f *fakeDemoBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/api/demo/create":
		var d models.NewDemo
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.sequences = append(f.sequences, d)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"sequence_id": len(f.sequences)}})
	case "/api/demo/last-20":
		out := make([]map[string]any, 0, len(f.sequences))
		for i := len(f.sequences) - 1; i >= 0; i-- {
			d := f.sequences[i]
			out = append(out, map[string]any{
				"sequence_id":   i + 1,
				"seq_name":      d.SeqName,
				"programmed_by": d.ProgrammedBy,
				"repeat_count":  d.RepeatCount,
				"steps":         d.Steps,
				"created_at":    "2025-11-17 19:16:42",
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": out})
	case "/api/demo/launch":
		var req models.LaunchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.launched = append(f.launched, req.SequenceID)
		_, _ = io.WriteString(w, `{"data": {"run_id": 77}}`)
	case "/api/demo/repeat":
		var req models.RepeatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.repeated = append(f.repeated, req.RunID)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func TestCreatedDemoIsListedWithSameNameAndSteps(t *testing.T) {
	backend := &fakeDemoBackend{}
	srv := httptest.NewServer(backend)
	defer srv.Close()
	api := New(ClientConfig{BaseURL: srv.URL}, zap.NewNop())
	ctx := context.Background()

	steps := []models.DemoStep{
		{StatusID: 1, DurationMs: 1000, Speed: 80, WaitMs: 200},
		{StatusID: 3, DurationMs: 500, Speed: 60, WaitMs: 0},
	}
	created, err := api.CreateDemo(ctx, models.NewDemo{DeviceID: 1, SeqName: "Zigzag", ProgrammedBy: "admin", RepeatCount: 2, Steps: steps})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, int64(1), created.SequenceID)

	list, err := api.GetLast20Demos(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Zigzag", list[0].SeqName)
	assert.Len(t, list[0].Steps, len(steps))
	assert.Equal(t, 2, list[0].RepeatCount)
}

func TestLaunchAndRepeat(t *testing.T) {
	backend := &fakeDemoBackend{}
	srv := httptest.NewServer(backend)
	defer srv.Close()
	api := New(ClientConfig{BaseURL: srv.URL}, zap.NewNop())
	ctx := context.Background()

	run, err := api.LaunchDemo(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, int64(77), run.RunID)
	assert.Equal(t, int64(5), run.SequenceID)
	assert.Equal(t, models.RunNew, run.Kind)

	run, err = api.RepeatDemo(ctx, 77)
	require.NoError(t, err)
	assert.Nil(t, run)

	assert.Equal(t, []int64{5}, backend.launched)
	assert.Equal(t, []int64{77}, backend.repeated)
}
