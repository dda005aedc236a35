package client

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"carrito-cli/internal/timefmt"
	"carrito-cli/pkg/models"
)

// PostMovement records a movement command for a device.
func (c *CarritoClient) PostMovement(ctx context.Context, m models.NewMovement) (*models.Movement, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/movements", nil, m)
	if err != nil {
		return nil, err
	}
	return decodeFirst[models.Movement](env, false)
}

// GetLastMovement returns the most recent movement, or nil when the device has none.
func (c *CarritoClient) GetLastMovement(ctx context.Context, deviceID int64, tz string) (*models.Movement, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/movements/last", deviceQuery(deviceID, 0, tz), nil)
	if err != nil {
		return nil, err
	}
	return decodeFirst[models.Movement](env, true)
}

// GetLastMovements returns at most limit movements, newest first.
func (c *CarritoClient) GetLastMovements(ctx context.Context, deviceID int64, limit int, tz string) ([]models.Movement, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/movements/last-n", deviceQuery(deviceID, limit, tz), nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeList[models.Movement](env, true)
	if err != nil {
		return nil, err
	}
	return newestFirst(items, limit, func(m models.Movement) string { return m.OccurredAt }), nil
}

func deviceQuery(deviceID int64, limit int, tz string) map[string]string {
	q := map[string]string{
		"device_id": strconv.FormatInt(deviceID, 10),
	}
	if limit > 0 {
		q["limit"] = strconv.Itoa(limit)
	}
	if tz != "" {
		q["tz"] = tz
	}
	return q
}

// newestFirst orders items by timestamp, descending, and keeps at most limit
// of them. When any timestamp is unreadable the server order is kept.
func newestFirst[T any](items []T, limit int, at func(T) string) []T {
	sortable := true
	for _, it := range items {
		if _, ok := timefmt.Parse(at(it)); !ok {
			sortable = false
			break
		}
	}
	if sortable {
		sort.SliceStable(items, func(i, j int) bool {
			ti, _ := timefmt.Parse(at(items[i]))
			tj, _ := timefmt.Parse(at(items[j]))
			return ti.After(tj)
		})
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
