package exporter

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"carrito-cli/internal/dashboard"
	"carrito-cli/internal/live"
	"carrito-cli/pkg/models"
)

// API is the part of the REST client the collector scrapes.
type API interface {
	GetLastMovements(ctx context.Context, deviceID int64, limit int, tz string) ([]models.Movement, error)
	GetLastObstacles(ctx context.Context, deviceID int64, limit int, tz string) ([]models.Obstacle, error)
	GetLast20Demos(ctx context.Context) ([]models.DemoSequence, error)
}

var (
	upDesc = prometheus.NewDesc(
		"carrito_up", "Was the last scrape successful.", nil, nil,
	)
	scrapeDurationDesc = prometheus.NewDesc(
		"carrito_scrape_duration_seconds", "Time taken to scrape the API.", nil, nil,
	)
	movementsDesc = prometheus.NewDesc(
		"carrito_movements_total", "Highest movement id seen for the device.", []string{"device"}, nil,
	)
	obstaclesDesc = prometheus.NewDesc(
		"carrito_obstacles_total", "Highest obstacle id seen for the device.", []string{"device"}, nil,
	)
	lastActivityDesc = prometheus.NewDesc(
		"carrito_last_activity_timestamp_seconds", "Unix time of the newest movement or obstacle.", []string{"device"}, nil,
	)
	lastStatusDesc = prometheus.NewDesc(
		"carrito_last_movement_status", "Status id of the newest movement.", []string{"device", "status_text"}, nil,
	)
	demosDesc = prometheus.NewDesc(
		"carrito_demo_sequences", "Sequences returned by the last-20 listing.", nil, nil,
	)
	liveUpDesc = prometheus.NewDesc(
		"carrito_live_up", "Live channel state (1 connected, 0.5 connecting, 0 disconnected).", nil, nil,
	)
)

// Collector scrapes the backend on every Prometheus collection. Totals are
// folded into trackers so they never go backwards between scrapes.
type Collector struct {
	API      API
	DeviceID int64
	TimeZone string
	Sample   int
	Timeout  time.Duration
	Logger   *zap.Logger

	movTracker  dashboard.Tracker
	obstTracker dashboard.Tracker
	liveState   atomic.Int32

	events *prometheus.CounterVec
}

func NewCollector(api API, deviceID int64, tz string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		API:      api,
		DeviceID: deviceID,
		TimeZone: tz,
		Sample:   dashboard.MetricsSample,
		Timeout:  10 * time.Second,
		Logger:   logger,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carrito_live_events_total",
			Help: "Live events received, by event name.",
		}, []string{"event"}),
	}
}

// Watch subscribes the collector to a live client so pushed events count
// immediately and the link state is exported.
func (c *Collector) Watch(lc *live.Client) {
	lc.OnState(c.SetLiveState)
	lc.OnMovement(func(m models.Movement) {
		c.events.WithLabelValues(live.EventMovement).Inc()
		c.movTracker.Observe(m.ID, m.OccurredAt)
	})
	lc.OnObstacle(func(o models.Obstacle) {
		c.events.WithLabelValues(live.EventObstacle).Inc()
		c.obstTracker.Observe(o.ID, o.OccurredAt)
	})
	lc.OnDemoRun(func(r models.DemoRun) {
		event := live.EventDemoRunNew
		if r.Kind == models.RunRepeat {
			event = live.EventDemoRunRepeat
		}
		c.events.WithLabelValues(event).Inc()
	})
}

// SetLiveState records the live link state. It never waits on a scrape.
func (c *Collector) SetLiveState(s live.State) {
	c.liveState.Store(int32(s))
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- upDesc
	ch <- scrapeDurationDesc
	ch <- movementsDesc
	ch <- obstaclesDesc
	ch <- lastActivityDesc
	ch <- lastStatusDesc
	ch <- demosDesc
	ch <- liveUpDesc
	c.events.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	start := time.Now()
	success := 1.0
	device := formatID(c.DeviceID)

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	if movs, err := c.API.GetLastMovements(ctx, c.DeviceID, c.Sample, c.TimeZone); err == nil {
		for _, m := range movs {
			c.movTracker.Observe(m.ID, m.OccurredAt)
		}
		if len(movs) > 0 {
			ch <- prometheus.MustNewConstMetric(lastStatusDesc, prometheus.GaugeValue,
				float64(movs[0].StatusID), device, movs[0].StatusText)
		}
	} else {
		success = 0
		c.Logger.Warn("scrape movements failed", zap.Error(err))
	}

	if obsts, err := c.API.GetLastObstacles(ctx, c.DeviceID, c.Sample, c.TimeZone); err == nil {
		for _, o := range obsts {
			c.obstTracker.Observe(o.ID, o.OccurredAt)
		}
	} else {
		success = 0
		c.Logger.Warn("scrape obstacles failed", zap.Error(err))
	}

	if demos, err := c.API.GetLast20Demos(ctx); err == nil {
		ch <- prometheus.MustNewConstMetric(demosDesc, prometheus.GaugeValue, float64(len(demos)))
	} else {
		success = 0
		c.Logger.Warn("scrape demos failed", zap.Error(err))
	}

	ch <- prometheus.MustNewConstMetric(movementsDesc, prometheus.GaugeValue, float64(c.movTracker.MaxID()), device)
	ch <- prometheus.MustNewConstMetric(obstaclesDesc, prometheus.GaugeValue, float64(c.obstTracker.MaxID()), device)

	_, movLast := c.movTracker.Span()
	_, obstLast := c.obstTracker.Span()
	last := movLast
	if obstLast.After(last) {
		last = obstLast
	}
	if !last.IsZero() {
		ch <- prometheus.MustNewConstMetric(lastActivityDesc, prometheus.GaugeValue, float64(last.Unix()), device)
	}

	ch <- prometheus.MustNewConstMetric(liveUpDesc, prometheus.GaugeValue, liveValue(live.State(c.liveState.Load())))
	c.events.Collect(ch)

	ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, success)
	ch <- prometheus.MustNewConstMetric(scrapeDurationDesc, prometheus.GaugeValue, time.Since(start).Seconds())
}

func liveValue(s live.State) float64 {
	switch s {
	case live.Connected:
		return 1
	case live.Connecting:
		return 0.5
	}
	return 0
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
