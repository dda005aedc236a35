package journal

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)
	at := time.Date(2025, 11, 17, 19, 16, 42, 0, time.UTC)

	_, err := j.Record(ctx, "movement:new", json.RawMessage(`{"id":1}`), at)
	require.NoError(t, err)
	_, err = j.Record(ctx, "obstacle:new", json.RawMessage(`{"id":7}`), at.Add(time.Second))
	require.NoError(t, err)
	id, err := j.Record(ctx, "movement:new", json.RawMessage(`{"id":2}`), at.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	all, err := j.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "movement:new", all[0].Event)
	assert.JSONEq(t, `{"id":2}`, string(all[0].Payload))
	assert.Equal(t, at.Add(2*time.Second), all[0].ReceivedAt)

	moves, err := j.Recent(ctx, "movement:new", 1)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, int64(3), moves[0].ID)

	counts, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"movement:new": 2, "obstacle:new": 1}, counts)
}

func TestJournalReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = j.Record(ctx, "demo:run:new", json.RawMessage(`{"run_id":5}`), time.Now())
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open(ctx, path)
	require.NoError(t, err)
	defer j.Close()
	got, err := j.Recent(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
