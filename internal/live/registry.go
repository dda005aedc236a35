package live

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Handler receives one event object. A returned error is logged and does not
// stop the remaining handlers.
type Handler func(payload json.RawMessage) error

// Registry maps event names to handlers kept in registration order.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// On appends h to the handlers of event.
func (r *Registry) On(event string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[event] = append(r.handlers[event], h)
}

// Count returns how many handlers are registered for event.
func (r *Registry) Count(event string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[event])
}

// Dispatch runs every handler of event in registration order and returns how many failed.
func (r *Registry) Dispatch(event string, payload json.RawMessage) int {
	r.mu.RLock()
	hs := make([]Handler, len(r.handlers[event]))
	copy(hs, r.handlers[event])
	r.mu.RUnlock()

	failed := 0
	for i, h := range hs {
		if err := r.invoke(h, payload); err != nil {
			failed++
			r.logger.Warn("live handler failed",
				zap.String("event", event),
				zap.Int("handler", i),
				zap.Error(err),
			)
		}
	}
	return failed
}

func (r *Registry) invoke(h Handler, payload json.RawMessage) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()
	return h(payload)
}
