// Package boot implements the two-phase framework handle.
//
// A Framework starts in PhasePending with a stub.Stub capturing every call.
// Install hands it a real registry.Core: the captured calls are replayed
// through the core in their original order and the handle switches to
// PhaseReady, after which calls are forwarded directly. Calls made while
// the replay is running, including from callbacks fired by the replay, are
// captured and replayed after the ones before them.
package boot

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vk/compkit/internal/future"
	"github.com/vk/compkit/internal/registry"
	"github.com/vk/compkit/internal/stub"
)

var (
	// ErrAlreadyInstalled is returned by a second Install.
	ErrAlreadyInstalled = errors.New("boot: core already installed")
	// ErrNilCore is returned when Install is given no core.
	ErrNilCore = errors.New("boot: nil core")
)

// Phase tags which implementation backs the framework handle.
type Phase int

const (
	// PhasePending means calls are captured by the stub.
	PhasePending Phase = iota
	// PhaseReady means calls go to the installed core.
	PhaseReady
)

func (p Phase) String() string {
	if p == PhaseReady {
		return "ready"
	}
	return "pending"
}

// Option configures a Framework.
type Option func(*Framework)

// WithLogger sets the logger used while replaying.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Framework) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Framework is the process-wide component framework handle.
type Framework struct {
	logger *slog.Logger

	mu         sync.Mutex
	phase      Phase
	installing bool
	stub       *stub.Stub
	core       registry.Core
}

// New returns a pending framework.
func New(opts ...Option) *Framework {
	f := &Framework{
		logger: slog.New(slog.DiscardHandler),
		stub:   stub.New(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Phase reports the current phase.
func (f *Framework) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Core returns the installed core, if any.
func (f *Framework) Core() (registry.Core, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.core, f.phase == PhaseReady
}

// Captured returns the calls captured before installation.
func (f *Framework) Captured() map[string][]stub.Call {
	return f.stub.CapturedCalls()
}

// Install replays the captured calls through core and switches the handle
// to it.
func (f *Framework) Install(core registry.Core) error {
	if core == nil {
		return ErrNilCore
	}
	f.mu.Lock()
	if f.phase == PhaseReady || f.installing {
		f.mu.Unlock()
		return ErrAlreadyInstalled
	}
	f.installing = true
	f.mu.Unlock()

	var last uint64
	replayed := 0
	for {
		f.mu.Lock()
		batch := f.stub.CallsAfter(last)
		if len(batch) == 0 {
			f.core = core
			f.phase = PhaseReady
			f.installing = false
			f.mu.Unlock()
			break
		}
		f.mu.Unlock()

		for _, c := range batch {
			if err := replay(core, c); err != nil {
				f.logger.Warn("Skipping captured call.", "method", c.Method, "seq", c.Seq, "error", err)
			} else {
				replayed++
			}
			last = c.Seq
		}
	}
	f.logger.Debug("Framework core installed.", "replayed", replayed)
	return nil
}

func replay(core registry.Core, c stub.Call) error {
	switch c.Method {
	case stub.MethodRegisterComponent, stub.MethodAddComponent:
		name, ok := argString(c, 0)
		if !ok {
			return fmt.Errorf("argument 0 is not a component name")
		}
		ctor, _ := arg(c, 1).(registry.Constructor)
		if c.Method == stub.MethodAddComponent {
			core.AddComponent(name, ctor)
		} else {
			core.RegisterComponent(name, ctor)
		}
	case stub.MethodWhenReady:
		name, ok := argString(c, 0)
		if !ok {
			return fmt.Errorf("argument 0 is not a component name")
		}
		cb, _ := arg(c, 1).(registry.Callback)
		core.WhenReady(name, cb)
	case stub.MethodWhenAllReady:
		names, ok := arg(c, 0).([]string)
		if !ok {
			return fmt.Errorf("argument 0 is not a name list")
		}
		cb, _ := arg(c, 1).(registry.MultiCallback)
		core.WhenAllReady(names, cb)
	case stub.MethodDelay:
		names, ok := arg(c, 0).([]string)
		if !ok && arg(c, 0) != nil {
			return fmt.Errorf("argument 0 is not a name list")
		}
		gate, _ := arg(c, 1).(future.Waiter)
		core.Delay(names, gate)
	case stub.MethodComponent:
		name, ok := argString(c, 0)
		if !ok {
			return fmt.Errorf("argument 0 is not a component name")
		}
		core.Component(name)
	default:
		return fmt.Errorf("unknown method %q", c.Method)
	}
	return nil
}

func arg(c stub.Call, i int) any {
	if i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

func argString(c stub.Call, i int) (string, bool) {
	s, ok := arg(c, i).(string)
	return s, ok
}

// forward captures the call while pending, otherwise runs it against the
// core outside the lock.
func (f *Framework) forward(capture func(*stub.Stub), call func(registry.Core)) *Framework {
	f.mu.Lock()
	if f.phase != PhaseReady {
		capture(f.stub)
		f.mu.Unlock()
		return f
	}
	core := f.core
	f.mu.Unlock()
	call(core)
	return f
}

// RegisterComponent registers name, or captures the call while pending.
func (f *Framework) RegisterComponent(name string, ctor registry.Constructor) *Framework {
	return f.forward(
		func(s *stub.Stub) { s.RegisterComponent(name, ctor) },
		func(c registry.Core) { c.RegisterComponent(name, ctor) },
	)
}

// AddComponent is an alias of RegisterComponent.
func (f *Framework) AddComponent(name string, ctor registry.Constructor) *Framework {
	return f.forward(
		func(s *stub.Stub) { s.AddComponent(name, ctor) },
		func(c registry.Core) { c.AddComponent(name, ctor) },
	)
}

// WhenReady queues cb for name.
func (f *Framework) WhenReady(name string, cb registry.Callback) *Framework {
	return f.forward(
		func(s *stub.Stub) { s.WhenReady(name, cb) },
		func(c registry.Core) { c.WhenReady(name, cb) },
	)
}

// WhenAllReady queues cb until every name is registered.
func (f *Framework) WhenAllReady(names []string, cb registry.MultiCallback) *Framework {
	return f.forward(
		func(s *stub.Stub) { s.WhenAllReady(names, cb) },
		func(c registry.Core) { c.WhenAllReady(names, cb) },
	)
}

// Delay gates the named components on gate.
func (f *Framework) Delay(names []string, gate future.Waiter) *Framework {
	return f.forward(
		func(s *stub.Stub) { s.Delay(names, gate) },
		func(c registry.Core) { c.Delay(names, gate) },
	)
}

// Component returns a registered component. While pending the access is
// captured and nothing is returned.
func (f *Framework) Component(name string) (*registry.Handle, bool) {
	var (
		h  *registry.Handle
		ok bool
	)
	f.forward(
		func(s *stub.Stub) { s.Component(name) },
		func(c registry.Core) { h, ok = c.Component(name) },
	)
	return h, ok
}

// Settings returns the settings of name; empty while pending.
func (f *Framework) Settings(name string) registry.Settings {
	if core, ok := f.Core(); ok {
		return core.Settings(name)
	}
	return registry.Settings{}
}

// Enabled reports whether a working core is installed.
func (f *Framework) Enabled() bool {
	core, ok := f.Core()
	return ok && core.Enabled()
}

// Describe reports the installed core's descriptors; nil while pending.
func (f *Framework) Describe() []registry.Descriptor {
	if core, ok := f.Core(); ok {
		return core.Describe()
	}
	return nil
}

var (
	defaultMu        sync.Mutex
	defaultFramework *Framework
)

// Default returns the process-wide framework, creating it on first use.
func Default() *Framework {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultFramework == nil {
		defaultFramework = New()
	}
	return defaultFramework
}

// SetDefault replaces the process-wide framework and returns the previous
// one.
func SetDefault(f *Framework) *Framework {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultFramework
	defaultFramework = f
	return prev
}

// ResetDefault drops the process-wide framework; the next Default call
// creates a fresh one.
func ResetDefault() {
	SetDefault(nil)
}
