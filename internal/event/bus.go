// Package event is the in-process publish/subscribe dispatcher decoupling
// business services from audit-log handling.
package event

import (
	"context"
	"sync"
	"userhub/internal/domain/model"
)

// EventCreateLog is the bus topic the log listener subscribes to.
const EventCreateLog = "create.log"

// Listener handles one event. A listener error surfaces from Emit.
type Listener func(ctx context.Context, event *model.LogEvent) error

// Bus dispatches events synchronously to listeners in registration order.
// The registry is append-only; Subscribe is safe under concurrent use.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[string][]Listener)}
}

func (b *Bus) Subscribe(name string, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[name] = append(b.listeners[name], listener)
}

// Emit invokes every listener registered for name, in registration order,
// awaiting each. The first listener error stops dispatch and is returned;
// callers must not assume Emit is infallible.
func (b *Bus) Emit(ctx context.Context, name string, event *model.LogEvent) error {
	b.mu.RLock()
	listeners := b.listeners[name]
	b.mu.RUnlock()

	for _, listener := range listeners {
		if err := listener(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
