package live

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRegistryRunsHandlersInOrder(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		r.On("x", func(json.RawMessage) error {
			order = append(order, i)
			return nil
		})
	}

	assert.Equal(t, 0, r.Dispatch("x", json.RawMessage(`{}`)))
	assert.Equal(t, []int{0, 1, 2}, order)
	assert.Equal(t, 3, r.Count("x"))
	assert.Equal(t, 0, r.Count("y"))
}

func TestRegistryIsolatesFailingHandlers(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	var calls []string
	r.On("x", func(json.RawMessage) error {
		calls = append(calls, "error")
		return errors.New("bad")
	})
	r.On("x", func(json.RawMessage) error {
		calls = append(calls, "panic")
		panic("worse")
	})
	r.On("x", func(json.RawMessage) error {
		calls = append(calls, "ok")
		return nil
	})

	failed := r.Dispatch("x", json.RawMessage(`{}`))
	assert.Equal(t, 2, failed)
	assert.Equal(t, []string{"error", "panic", "ok"}, calls)
}

func TestRegistryUnknownEvent(t *testing.T) {
	r := NewRegistry(nil)
	assert.Equal(t, 0, r.Dispatch("nobody", nil))
}
