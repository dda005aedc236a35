package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carrito-cli/internal/client"
	"carrito-cli/internal/live"
	"carrito-cli/pkg/models"
)

func testSettings() Settings {
	return Settings{DeviceID: 1, TimeZone: "America/Mexico_City", ClientID: "session-1"}
}

func TestControlStartRendersLatestStatus(t *testing.T) {
	api := newFakeAPI()
	api.lastMovement = &models.Movement{ID: 3, StatusText: "Forward", OccurredAt: "2025-11-17 10:00:00"}
	d := newFakeDisplay()
	lv := &fakeLive{state: live.Connecting}

	c := NewControl(testSettings(), api, lv, d, zap.NewNop())
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, PhaseLive, c.Phase())
	assert.Equal(t, "America/Mexico_City", d.text(FieldZone))
	assert.Equal(t, "Device 1", d.text(FieldDevice))
	assert.Equal(t, "Forward", d.text(FieldLastStatus))
	assert.Equal(t, NoObstacle, d.text(FieldObstacle))
	assert.Equal(t, "live: connecting", d.text(FieldLink))

	lv.setState(live.Connected)
	assert.Equal(t, "live: connected", d.text(FieldLink))

	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyStarted)
}

func TestControlStartShowsPlaceholdersOnFailure(t *testing.T) {
	api := newFakeAPI()
	api.err = &client.APIError{StatusCode: 500, Body: "boom"}
	d := newFakeDisplay()

	c := NewControl(testSettings(), api, &fakeLive{}, d, zap.NewNop())
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, "—", d.text(FieldLastStatus))
	assert.Equal(t, NoObstacle, d.text(FieldObstacle))
}

func TestControlLiveEventsUpdateStatus(t *testing.T) {
	d := newFakeDisplay()
	lv := &fakeLive{}
	c := NewControl(testSettings(), newFakeAPI(), lv, d, zap.NewNop())
	require.NoError(t, c.Start(context.Background()))

	lv.pushMovement(models.Movement{ID: 4, StatusText: "Stop", OccurredAt: "2025-11-17 10:01:00"})
	lv.pushObstacle(models.Obstacle{ID: 2, StatusText: "Obstacle ahead", OccurredAt: "2025-11-17 10:01:00"})

	assert.Equal(t, "Stop", d.text(FieldLastStatus))
	assert.Equal(t, "Obstacle ahead", d.text(FieldObstacle))
}

func TestControlSendMovement(t *testing.T) {
	api := newFakeAPI()
	d := newFakeDisplay()
	c := NewControl(testSettings(), api, &fakeLive{}, d, zap.NewNop())

	require.NoError(t, c.SendMovement(context.Background(), 1, "Forward"))

	require.Len(t, api.postedMovements, 1)
	got := api.postedMovements[0]
	assert.Equal(t, int64(1), got.DeviceID)
	assert.Equal(t, 1, got.StatusID)
	require.NotNil(t, got.ClientID)
	assert.Equal(t, "session-1", *got.ClientID)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "Forward", *got.Notes)
	assert.Equal(t, toast{LevelSuccess, "Movement sent"}, d.lastToast())
	assert.Equal(t, []string{"move:1:on", "move:1:off"}, d.busy)
}

func TestControlSendMovementFailureReenablesControl(t *testing.T) {
	api := newFakeAPI()
	api.err = &client.APIError{StatusCode: 500, Body: "boom"}
	d := newFakeDisplay()
	c := NewControl(testSettings(), api, &fakeLive{}, d, zap.NewNop())

	err := c.SendMovement(context.Background(), 3, "")
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, 500))

	assert.Equal(t, LevelDanger, d.lastToast().Level)
	assert.Contains(t, d.lastToast().Msg, "boom")
	assert.Equal(t, []string{"move:3:on", "move:3:off"}, d.busy)
	assert.False(t, c.controls.Busy("move:3"))
	assert.Equal(t, 1, api.count("PostMovement"))
}

func TestControlSimulateObstacle(t *testing.T) {
	api := newFakeAPI()
	c := NewControl(testSettings(), api, &fakeLive{}, newFakeDisplay(), zap.NewNop())

	require.NoError(t, c.SimulateObstacle(context.Background()))

	require.Len(t, api.postedObstacles, 1)
	got := api.postedObstacles[0]
	assert.Equal(t, ObstacleSimulateStatus, got.StatusID)
	require.NotNil(t, got.Details)
	assert.Equal(t, "Simulated (temporary control)", *got.Details)
	require.NotNil(t, got.ClientID)
	assert.Equal(t, "session-1", *got.ClientID)
}

func TestControlRefreshDropsStalePoll(t *testing.T) {
	api := newFakeAPI()
	d := newFakeDisplay()
	lv := &fakeLive{}
	c := NewControl(testSettings(), api, lv, d, zap.NewNop())
	require.NoError(t, c.Start(context.Background()))

	lv.pushMovement(models.Movement{ID: 9, StatusText: "Left", OccurredAt: "2025-11-17T10:05:00Z"})

	api.mu.Lock()
	api.lastMovement = &models.Movement{ID: 8, StatusText: "Forward", OccurredAt: "2025-11-17 10:04:00"}
	api.mu.Unlock()
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, "Left", d.text(FieldLastStatus))

	api.mu.Lock()
	api.lastMovement = &models.Movement{ID: 10, StatusText: "Right", OccurredAt: "2025-11-17 10:06:00"}
	api.mu.Unlock()
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, "Right", d.text(FieldLastStatus))
}
