package client

import (
	"context"
	"net/http"

	"carrito-cli/pkg/models"
)

// PostObstacle records an obstacle report for a device.
func (c *CarritoClient) PostObstacle(ctx context.Context, o models.NewObstacle) (*models.Obstacle, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/obstacles", nil, o)
	if err != nil {
		return nil, err
	}
	return decodeFirst[models.Obstacle](env, false)
}

// GetLastObstacle returns the most recent obstacle, or nil when there is none.
func (c *CarritoClient) GetLastObstacle(ctx context.Context, deviceID int64, tz string) (*models.Obstacle, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/obstacles/last", deviceQuery(deviceID, 0, tz), nil)
	if err != nil {
		return nil, err
	}
	return decodeFirst[models.Obstacle](env, true)
}

// GetLastObstacles returns at most limit obstacles, newest first.
func (c *CarritoClient) GetLastObstacles(ctx context.Context, deviceID int64, limit int, tz string) ([]models.Obstacle, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/obstacles/last-n", deviceQuery(deviceID, limit, tz), nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeList[models.Obstacle](env, true)
	if err != nil {
		return nil, err
	}
	return newestFirst(items, limit, func(o models.Obstacle) string { return o.OccurredAt }), nil
}
