package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/vk/compkit/internal/feature"
	"github.com/vk/compkit/internal/future"
)

// Core is the public surface shared by the registry and its degraded no-op
// counterpart.
type Core interface {
	RegisterComponent(name string, ctor Constructor) Registration
	AddComponent(name string, ctor Constructor) Registration
	WhenReady(name string, cb Callback) Core
	WhenAllReady(names []string, cb MultiCallback) Core
	Delay(names []string, gate future.Waiter) Core
	Settings(name string) Settings
	Component(name string) (*Handle, bool)
	Enabled() bool
	Describe() []Descriptor
}

// Status tells a caller what a RegisterComponent call did.
type Status int

const (
	// StatusRegistered is the first construction for the name.
	StatusRegistered Status = iota
	// StatusDuplicate means a construction already ran or is in flight for
	// the name. The new construction still runs and replaces the instance.
	StatusDuplicate
	// StatusDeclared means no constructor was given; the descriptor exists
	// but stays unregistered.
	StatusDeclared
	// StatusDisabled is returned by the degraded core.
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusRegistered:
		return "registered"
	case StatusDuplicate:
		return "duplicate"
	case StatusDeclared:
		return "declared"
	case StatusDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Registration is the result of RegisterComponent.
type Registration struct {
	// Core is the registry, for chaining.
	Core Core
	// Status discriminates first, repeated and ignored registrations.
	Status Status
	// Ready settles with the handle built by this registration. It is nil
	// for the degraded core.
	Ready *future.Future[*Handle]
}

// descriptor is the bookkeeping record of one component name.
type descriptor struct {
	name          string
	instance      *Handle
	pending       []Callback
	registered    bool
	constructions int
	waiting       []*delayGate
	lastErr       error
	ready         *future.Future[*Handle]
}

// Registry is the component registry core. All methods are safe for
// concurrent use and may be called from within callbacks and constructors.
type Registry struct {
	opts options

	mu          sync.Mutex
	descriptors map[string]*descriptor
	order       []string
	gates       []*delayGate
}

// New returns a registry that assumes the host supports every primitive.
func New(opts ...Option) *Registry {
	return newRegistry(buildOptions(opts))
}

func newRegistry(o options) *Registry {
	return &Registry{
		opts:        o,
		descriptors: make(map[string]*descriptor),
	}
}

// Open checks the host environment once and returns either a working
// registry or the degraded no-op core.
func Open(env feature.Env, opts ...Option) Core {
	o := buildOptions(opts)
	if !env.SupportsCore() {
		o.logger.Warn("Host lacks required primitives, component registry disabled.", "missing", env.Missing())
		return noopCore{}
	}
	return newRegistry(o)
}

// ensure returns the descriptor for name, creating it if needed. Callers
// must hold r.mu.
func (r *Registry) ensure(name string) *descriptor {
	d, ok := r.descriptors[name]
	if !ok {
		d = &descriptor{name: name, ready: future.New[*Handle]()}
		r.descriptors[name] = d
		r.order = append(r.order, name)
	}
	return d
}

// RegisterComponent declares a component and, when ctor is non-nil, starts
// its gated construction.
func (r *Registry) RegisterComponent(name string, ctor Constructor) Registration {
	r.mu.Lock()
	d := r.ensure(name)
	if ctor == nil {
		r.mu.Unlock()
		r.opts.logger.Debug("Component declared without constructor.", "component", name)
		return Registration{Core: r, Status: StatusDeclared, Ready: d.ready}
	}

	status := StatusRegistered
	if d.constructions > 0 {
		status = StatusDuplicate
	}
	d.constructions++
	gates := r.snapshotGates(name)
	d.waiting = gates
	r.mu.Unlock()

	if status == StatusDuplicate {
		r.opts.logger.Warn("Component registered more than once, constructing again.", "component", name)
	}

	ready := future.New[*Handle]()
	if len(gates) == 0 {
		r.construct(d, ctor, ready)
	} else {
		r.opts.logger.Debug("Component construction gated.", "component", name, "gates", len(gates))
		go r.awaitGates(d, ctor, ready, gates)
	}
	return Registration{Core: r, Status: status, Ready: ready}
}

// AddComponent is an alias of RegisterComponent.
func (r *Registry) AddComponent(name string, ctor Constructor) Registration {
	return r.RegisterComponent(name, ctor)
}

// snapshotGates returns the unsettled gates applying to name. Callers must
// hold r.mu.
func (r *Registry) snapshotGates(name string) []*delayGate {
	var out []*delayGate
	for _, g := range r.gates {
		if g.appliesToName(name) && !g.settled() {
			out = append(out, g)
		}
	}
	return out
}

func (r *Registry) awaitGates(d *descriptor, ctor Constructor, ready *future.Future[*Handle], gates []*delayGate) {
	waiters := make([]future.Waiter, len(gates))
	for i, g := range gates {
		waiters[i] = g.waiter
	}
	all := future.AllSettled(waiters...)

	var timeout, stall <-chan time.Time
	if r.opts.gateTimeout > 0 {
		t := time.NewTimer(r.opts.gateTimeout)
		defer t.Stop()
		timeout = t.C
	}
	if r.opts.stallAfter > 0 {
		t := time.NewTimer(r.opts.stallAfter)
		defer t.Stop()
		stall = t.C
	}

wait:
	for {
		select {
		case <-all.Done():
			break wait
		case <-timeout:
			r.opts.logger.Warn("Delay gates timed out, constructing anyway.", "component", d.name, "timeout", r.opts.gateTimeout)
			break wait
		case <-stall:
			stall = nil
			r.opts.logger.Warn("Component still waiting on delay gates.", "component", d.name, "waited", r.opts.stallAfter, "gates", countUnsettled(gates))
		}
	}
	r.construct(d, ctor, ready)
}

// construct runs ctor, publishes the handle and drains queued callbacks in
// FIFO order. Callbacks run without r.mu held.
func (r *Registry) construct(d *descriptor, ctor Constructor, ready *future.Future[*Handle]) {
	h := newHandle(d.name, r.Settings(d.name))
	if err := runConstructor(ctor, h); err != nil {
		r.opts.logger.Error("Component constructor failed.", "component", d.name, "error", err)
		r.mu.Lock()
		d.waiting = nil
		d.lastErr = err
		r.mu.Unlock()
		ready.Reject(err)
		return
	}

	r.mu.Lock()
	d.instance = h
	d.registered = true
	d.waiting = nil
	d.lastErr = nil
	pending := d.pending
	d.pending = nil
	r.mu.Unlock()

	r.opts.logger.Debug("Component registered.", "component", d.name, "callbacks", len(pending))
	ready.Resolve(h)
	d.ready.Resolve(h)
	for _, cb := range pending {
		r.invoke(d.name, cb, h)
	}
}

func runConstructor(ctor Constructor, h *Handle) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("constructor panicked: %v", p)
		}
	}()
	return ctor(h)
}

func (r *Registry) invoke(name string, cb Callback, h *Handle) {
	defer func() {
		if p := recover(); p != nil {
			r.opts.logger.Error("Component callback panicked.", "component", name, "panic", p)
		}
	}()
	cb(h, r.opts.env)
}

func (r *Registry) invokeMulti(cb MultiCallback, hs []*Handle) {
	defer func() {
		if p := recover(); p != nil {
			r.opts.logger.Error("Multi-component callback panicked.", "panic", p)
		}
	}()
	cb(hs, r.opts.env)
}

// WhenReady calls cb with the named component's handle, synchronously when
// the component is registered and after its construction otherwise.
func (r *Registry) WhenReady(name string, cb Callback) Core {
	if cb == nil {
		return r
	}
	r.mu.Lock()
	d := r.ensure(name)
	if d.registered {
		h := d.instance
		r.mu.Unlock()
		r.invoke(name, cb, h)
		return r
	}
	d.pending = append(d.pending, cb)
	r.mu.Unlock()
	return r
}

// WhenAllReady calls cb once every named component is ready, with the
// handles in the order of names. No names fires cb at once with an empty
// slice, a single name behaves like WhenReady.
func (r *Registry) WhenAllReady(names []string, cb MultiCallback) Core {
	if cb == nil {
		return r
	}
	switch len(names) {
	case 0:
		r.invokeMulti(cb, []*Handle{})
		return r
	case 1:
		return r.WhenReady(names[0], func(h *Handle, _ Environment) {
			r.invokeMulti(cb, []*Handle{h})
		})
	}

	handles := make([]*Handle, len(names))
	waiters := make([]future.Waiter, len(names))
	for i, name := range names {
		f := future.New[*Handle]()
		waiters[i] = f
		r.WhenReady(name, func(h *Handle, _ Environment) {
			handles[i] = h
			f.Resolve(h)
		})
	}
	all := future.AllSettled(waiters...)
	go func() {
		<-all.Done()
		r.invokeMulti(cb, handles)
	}()
	return r
}

// Delay registers a gate future holding back the named components, or all
// components when names is empty. Only constructions that begin after this
// call observe the gate.
func (r *Registry) Delay(names []string, gate future.Waiter) Core {
	if gate == nil {
		return r
	}
	g := newDelayGate(names, gate)
	r.mu.Lock()
	r.gates = append(r.gates, g)
	r.mu.Unlock()
	r.opts.logger.Debug("Delay gate registered.", "components", names)
	return r
}

// Settings returns the provider's settings for name, or an empty map.
func (r *Registry) Settings(name string) Settings {
	if r.opts.settings != nil {
		if s := r.opts.settings.Settings(name); s != nil {
			return s
		}
	}
	return Settings{}
}

// Component returns the handle of a registered component.
func (r *Registry) Component(name string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.descriptors[name]
	if !ok || !d.registered {
		return nil, false
	}
	return d.instance, true
}

// Enabled reports the feature gate verdict; always true for a Registry.
func (r *Registry) Enabled() bool {
	return true
}
