package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"carrito-cli/internal/timefmt"
	"carrito-cli/pkg/models"
)

const (
	// TableRows is how many rows and chart points each monitor stream keeps.
	TableRows = 20
	// MetricsSample is the limit used when folding metrics over history.
	MetricsSample = 9999

	MonitorReloadInterval  = 10 * time.Second
	MonitorMetricsInterval = 5 * time.Second

	TableMovements  = "movements"
	TableObstacles  = "obstacles"
	SeriesMovements = "movements"
	SeriesObstacles = "obstacles"
)

var (
	movementHeader = []string{"ID", "STATUS", "OCCURRED", "NOTES"}
	obstacleHeader = []string{"ID", "STATUS", "OCCURRED", "DETAILS"}
)

// MetricsView is the monitor's aggregate panel.
type MetricsView struct {
	TotalMovements int64
	TotalObstacles int64
	LastActivity   time.Time
	Uptime         string
	MovementRows   int
	ObstacleRows   int
}

// Monitor is the read-only page with recent-event tables, charts and metrics.
type Monitor struct {
	page

	movements   *Feed[models.Movement]
	obstacles   *Feed[models.Obstacle]
	movSeries   *Feed[Point]
	obstSeries  *Feed[Point]
	movTracker  Tracker
	obstTracker Tracker
	movGate     Gate
	obstGate    Gate

	now func() time.Time
}

func NewMonitor(s Settings, api API, lv Live, d Display, logger *zap.Logger) *Monitor {
	return &Monitor{
		page:       newPage(s, api, lv, d, logger),
		movements:  NewFeed[models.Movement](TableRows),
		obstacles:  NewFeed[models.Obstacle](TableRows),
		movSeries:  NewFeed[Point](TableRows),
		obstSeries: NewFeed[Point](TableRows),
		now:        time.Now,
	}
}

// Start loads both streams and the metrics, then subscribes to live updates.
// Load failures are logged and leave the tables empty.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}
	m.badges()

	if err := m.ReloadMovements(ctx); err != nil {
		m.logger.Warn("initial movements load failed", zap.Error(err))
		m.renderMovements()
	}
	if err := m.ReloadObstacles(ctx); err != nil {
		m.logger.Warn("initial obstacles load failed", zap.Error(err))
		m.renderObstacles()
	}
	if err := m.RefreshMetrics(ctx); err != nil {
		m.logger.Warn("initial metrics load failed", zap.Error(err))
		m.renderMetrics()
	}

	m.live.OnMovement(func(mv models.Movement) {
		m.movGate.Pushed(mv.OccurredAt)
		m.movements.Prepend(mv)
		m.movSeries.Prepend(m.point(mv.OccurredAt, mv.StatusID))
		m.movTracker.Observe(mv.ID, mv.OccurredAt)
		m.renderMovements()
		m.renderMetrics()
	})
	m.live.OnObstacle(func(o models.Obstacle) {
		m.obstGate.Pushed(o.OccurredAt)
		m.obstacles.Prepend(o)
		m.obstSeries.Prepend(m.point(o.OccurredAt, o.StatusID))
		m.obstTracker.Observe(o.ID, o.OccurredAt)
		m.renderObstacles()
		m.renderMetrics()
	})
	m.attachLink()
	m.goLive()
	return nil
}

// ReloadMovements replaces the movements table and chart with a fresh poll.
func (m *Monitor) ReloadMovements(ctx context.Context) error {
	list, err := m.api.GetLastMovements(ctx, m.settings.DeviceID, TableRows, m.settings.TimeZone)
	if err != nil {
		return fmt.Errorf("reload movements: %w", err)
	}
	newest := ""
	if len(list) > 0 {
		newest = list[0].OccurredAt
	}
	if !m.movGate.Fresh(newest) {
		m.logger.Debug("stale movements poll discarded")
		return nil
	}

	points := make([]Point, 0, len(list))
	samples := make([]Sample, 0, len(list))
	for _, mv := range list {
		points = append(points, m.point(mv.OccurredAt, mv.StatusID))
		samples = append(samples, Sample{ID: mv.ID, OccurredAt: mv.OccurredAt})
	}
	m.movements.Reset(list)
	m.movSeries.Reset(points)
	m.movTracker.Fold(samples)
	m.renderMovements()
	m.renderMetrics()
	return nil
}

// ReloadObstacles replaces the obstacles table and chart with a fresh poll.
func (m *Monitor) ReloadObstacles(ctx context.Context) error {
	list, err := m.api.GetLastObstacles(ctx, m.settings.DeviceID, TableRows, m.settings.TimeZone)
	if err != nil {
		return fmt.Errorf("reload obstacles: %w", err)
	}
	newest := ""
	if len(list) > 0 {
		newest = list[0].OccurredAt
	}
	if !m.obstGate.Fresh(newest) {
		m.logger.Debug("stale obstacles poll discarded")
		return nil
	}

	points := make([]Point, 0, len(list))
	samples := make([]Sample, 0, len(list))
	for _, o := range list {
		points = append(points, m.point(o.OccurredAt, o.StatusID))
		samples = append(samples, Sample{ID: o.ID, OccurredAt: o.OccurredAt})
	}
	m.obstacles.Reset(list)
	m.obstSeries.Reset(points)
	m.obstTracker.Fold(samples)
	m.renderObstacles()
	m.renderMetrics()
	return nil
}

// RefreshMetrics folds a large history sample of both streams into the trackers.
func (m *Monitor) RefreshMetrics(ctx context.Context) error {
	movs, err := m.api.GetLastMovements(ctx, m.settings.DeviceID, MetricsSample, m.settings.TimeZone)
	if err != nil {
		return fmt.Errorf("metrics movements: %w", err)
	}
	obsts, err := m.api.GetLastObstacles(ctx, m.settings.DeviceID, MetricsSample, m.settings.TimeZone)
	if err != nil {
		return fmt.Errorf("metrics obstacles: %w", err)
	}
	for _, mv := range movs {
		m.movTracker.Observe(mv.ID, mv.OccurredAt)
	}
	for _, o := range obsts {
		m.obstTracker.Observe(o.ID, o.OccurredAt)
	}
	m.renderMetrics()
	return nil
}

// Metrics returns the current aggregate panel.
func (m *Monitor) Metrics() MetricsView {
	movFirst, movLast := m.movTracker.Span()
	obstFirst, obstLast := m.obstTracker.Span()
	return MetricsView{
		TotalMovements: m.movTracker.MaxID(),
		TotalObstacles: m.obstTracker.MaxID(),
		LastActivity:   later(movLast, obstLast),
		Uptime:         Uptime(earlier(movFirst, obstFirst), m.now()),
		MovementRows:   m.movements.Len(),
		ObstacleRows:   m.obstacles.Len(),
	}
}

// Movements returns the rows currently shown, newest first.
func (m *Monitor) Movements() []models.Movement { return m.movements.Items() }

// Obstacles returns the rows currently shown, newest first.
func (m *Monitor) Obstacles() []models.Obstacle { return m.obstacles.Items() }

// Run reloads the tables every reloadEvery and the metrics every metricsEvery
// until ctx is done.
func (m *Monitor) Run(ctx context.Context, reloadEvery, metricsEvery time.Duration) {
	if reloadEvery <= 0 {
		reloadEvery = MonitorReloadInterval
	}
	if metricsEvery <= 0 {
		metricsEvery = MonitorMetricsInterval
	}
	reload := time.NewTicker(reloadEvery)
	defer reload.Stop()
	metrics := time.NewTicker(metricsEvery)
	defer metrics.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-reload.C:
			for _, fn := range []func(context.Context) error{m.ReloadMovements, m.ReloadObstacles} {
				if err := fn(ctx); err != nil && ctx.Err() == nil {
					m.logger.Warn("auto reload failed", zap.Error(err))
				}
			}
		case <-metrics.C:
			if err := m.RefreshMetrics(ctx); err != nil && ctx.Err() == nil {
				m.logger.Warn("metrics refresh failed", zap.Error(err))
			}
		}
	}
}

func (m *Monitor) point(occurredAt string, status int) Point {
	return Point{Label: m.settings.Formatter.Format(occurredAt), Value: float64(status)}
}

func (m *Monitor) renderMovements() {
	items := m.movements.Items()
	rows := make([][]string, 0, len(items))
	for _, mv := range items {
		rows = append(rows, []string{
			idText(mv.ID),
			orPlaceholder(mv.StatusText, timefmt.Placeholder),
			m.settings.Formatter.Format(mv.OccurredAt),
			orPlaceholder(mv.Notes, timefmt.Placeholder),
		})
	}
	m.display.RenderTable(TableMovements, movementHeader, rows)
	m.display.RenderSeries(SeriesMovements, m.movSeries.Items())
}

func (m *Monitor) renderObstacles() {
	items := m.obstacles.Items()
	rows := make([][]string, 0, len(items))
	for _, o := range items {
		rows = append(rows, []string{
			idText(o.ID),
			orPlaceholder(o.StatusText, timefmt.Placeholder),
			m.settings.Formatter.Format(o.OccurredAt),
			orPlaceholder(o.Details, timefmt.Placeholder),
		})
	}
	m.display.RenderTable(TableObstacles, obstacleHeader, rows)
	m.display.RenderSeries(SeriesObstacles, m.obstSeries.Items())
}

func (m *Monitor) renderMetrics() {
	v := m.Metrics()
	m.display.SetText(FieldTotalMovements, strconv.FormatInt(v.TotalMovements, 10))
	m.display.SetText(FieldTotalObstacles, strconv.FormatInt(v.TotalObstacles, 10))
	last := timefmt.Placeholder
	if !v.LastActivity.IsZero() {
		last = m.settings.Formatter.FormatTime(v.LastActivity)
	}
	m.display.SetText(FieldLastActivity, last)
	m.display.SetText(FieldUptime, v.Uptime)
	m.display.SetText(FieldMovementRows, strconv.Itoa(v.MovementRows))
	m.display.SetText(FieldObstacleRows, strconv.Itoa(v.ObstacleRows))
}

func idText(id int64) string {
	if id <= 0 {
		return timefmt.Placeholder
	}
	return strconv.FormatInt(id, 10)
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case a.Before(b):
		return a
	}
	return b
}
