package dashboard

import (
	"fmt"
	"sync"
	"time"

	"carrito-cli/internal/timefmt"
)

// Tracker is a running aggregate over one event stream: the highest id seen
// and the earliest and latest timestamps. It only ever grows.
type Tracker struct {
	mu       sync.Mutex
	maxID    int64
	earliest time.Time
	latest   time.Time
}

// Observe folds one event into the aggregate.
func (t *Tracker) Observe(id int64, occurredAt string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id > t.maxID {
		t.maxID = id
	}
	at, ok := timefmt.Parse(occurredAt)
	if !ok {
		return
	}
	if t.earliest.IsZero() || at.Before(t.earliest) {
		t.earliest = at
	}
	if t.latest.IsZero() || at.After(t.latest) {
		t.latest = at
	}
}

// MaxID is the highest id observed so far.
func (t *Tracker) MaxID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxID
}

// Span returns the earliest and latest timestamps; zero values when nothing was seen.
func (t *Tracker) Span() (time.Time, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.earliest, t.latest
}

// Uptime renders the time elapsed since earliest as "Xh Ym", or "0h" when unknown.
func Uptime(earliest, now time.Time) string {
	if earliest.IsZero() {
		return "0h"
	}
	d := now.Sub(earliest)
	if d < 0 {
		d = 0
	}
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", h, m)
}

// Gate decides whether a polled snapshot may overwrite what live pushes
// already rendered: snapshots whose newest timestamp is older than the newest
// pushed one are stale.
type Gate struct {
	mu       sync.Mutex
	lastPush time.Time
}

// Pushed records the timestamp of a live event.
func (g *Gate) Pushed(occurredAt string) {
	at, ok := timefmt.Parse(occurredAt)
	if !ok {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if at.After(g.lastPush) {
		g.lastPush = at
	}
}

// Fresh reports whether a poll whose newest record has timestamp newest may be applied.
// An empty newest means the poll returned nothing.
func (g *Gate) Fresh(newest string) bool {
	g.mu.Lock()
	last := g.lastPush
	g.mu.Unlock()

	if last.IsZero() {
		return true
	}
	at, ok := timefmt.Parse(newest)
	if !ok {
		return false
	}
	return !at.Before(last)
}

// Sample is the part of a stream event the tracker aggregates.
type Sample struct {
	ID         int64
	OccurredAt string
}

// Fold observes every sample of a polled snapshot.
func (t *Tracker) Fold(samples []Sample) {
	for _, s := range samples {
		t.Observe(s.ID, s.OccurredAt)
	}
}
