package dashboard

import "sync"

// Feed keeps the newest max items, newest first.
type Feed[T any] struct {
	mu    sync.Mutex
	max   int
	items []T
}

func NewFeed[T any](max int) *Feed[T] {
	return &Feed[T]{max: max}
}

// Prepend adds item as the newest entry and drops the oldest beyond max.
func (f *Feed[T]) Prepend(item T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append([]T{item}, f.items...)
	if len(f.items) > f.max {
		f.items = f.items[:f.max]
	}
}

// Reset replaces the contents with items, which must already be newest first.
func (f *Feed[T]) Reset(items []T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(items) > f.max {
		items = items[:f.max]
	}
	f.items = append([]T(nil), items...)
}

// Items returns a copy of the contents, newest first.
func (f *Feed[T]) Items() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]T(nil), f.items...)
}

func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
