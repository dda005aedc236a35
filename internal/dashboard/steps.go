package dashboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"carrito-cli/pkg/models"
)

// ErrInvalidStatus is returned when a step has no numeric status.
var ErrInvalidStatus = errors.New("invalid movement status")

// StepBuilder accumulates demo steps before a sequence is created.
type StepBuilder struct {
	mu    sync.Mutex
	steps []models.DemoStep
}

func (b *StepBuilder) Add(step models.DemoStep) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps = append(b.steps, step)
}

// AddRaw parses form-style input. Status is required; the other fields
// default to zero when blank or not numeric.
func (b *StepBuilder) AddRaw(status, duration, speed, wait string) (models.DemoStep, error) {
	id, err := strconv.Atoi(strings.TrimSpace(status))
	if err != nil {
		return models.DemoStep{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	step := models.DemoStep{
		StatusID:   id,
		DurationMs: atoiOrZero(duration),
		Speed:      atoiOrZero(speed),
		WaitMs:     atoiOrZero(wait),
	}
	b.Add(step)
	return step, nil
}

// Remove drops the step at index i. Out of range indexes are ignored.
func (b *StepBuilder) Remove(i int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.steps) {
		return false
	}
	b.steps = append(b.steps[:i], b.steps[i+1:]...)
	return true
}

func (b *StepBuilder) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps = nil
}

// DropPrefix removes the leading steps that still match sent, leaving any
// steps added after sent was taken.
func (b *StepBuilder) DropPrefix(sent []models.DemoStep) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for n < len(sent) && n < len(b.steps) && b.steps[n] == sent[n] {
		n++
	}
	b.steps = append([]models.DemoStep(nil), b.steps[n:]...)
}

// Steps returns a copy of the pending steps in insertion order.
func (b *StepBuilder) Steps() []models.DemoStep {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.DemoStep(nil), b.steps...)
}

func (b *StepBuilder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.steps)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
