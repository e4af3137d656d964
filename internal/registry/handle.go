package registry

import (
	"context"
	"sync"
)

// Environment is the opaque object injected at registry construction and
// forwarded to every callback. The registry never inspects it.
type Environment any

// Constructor builds a component. It receives the fresh handle, may store a
// value on it and hand over attach/detach behaviors. A returned error leaves
// the component unregistered.
type Constructor func(h *Handle) error

// Callback is invoked once a single component is ready.
type Callback func(h *Handle, env Environment)

// MultiCallback is invoked once every requested component is ready, with the
// handles in request order.
type MultiCallback func(hs []*Handle, env Environment)

// Behavior is an attach/detach pair a component hands over for the host's
// page lifecycle. Either function may be nil.
type Behavior struct {
	Component string
	Name      string
	Attach    func(ctx context.Context) error
	Detach    func(ctx context.Context) error
}

// Handle is the consumer-facing object of a constructed component.
type Handle struct {
	name     string
	settings Settings

	mu        sync.RWMutex
	value     any
	behaviors []Behavior
}

func newHandle(name string, settings Settings) *Handle {
	return &Handle{name: name, settings: settings}
}

// Name returns the component name.
func (h *Handle) Name() string {
	return h.name
}

// Settings returns the settings the component was constructed with.
func (h *Handle) Settings() Settings {
	return h.settings
}

// SetValue stores the component's public value.
func (h *Handle) SetValue(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.value = v
}

// Value returns the value stored by the constructor, if any.
func (h *Handle) Value() any {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.value
}

// AddBehavior hands an attach/detach pair over to the lifecycle host.
func (h *Handle) AddBehavior(name string, attach, detach func(ctx context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.behaviors = append(h.behaviors, Behavior{
		Component: h.name,
		Name:      name,
		Attach:    attach,
		Detach:    detach,
	})
}

// Behaviors returns the behaviors handed over so far, in order.
func (h *Handle) Behaviors() []Behavior {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Behavior, len(h.behaviors))
	copy(out, h.behaviors)
	return out
}
