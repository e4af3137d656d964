// Package stub provides the call-capturing stand-in that occupies the
// framework handle before a real registry exists.
//
// A Stub is inert storage: it records every call with its arguments and
// returns itself, and it never gates, constructs or fires anything.
// Replaying the captured calls is the job of package boot.
package stub

import (
	"slices"
	"sync"

	"github.com/vk/compkit/internal/future"
	"github.com/vk/compkit/internal/registry"
)

// Method names recorded by the stub.
const (
	MethodRegisterComponent = "registerComponent"
	MethodAddComponent      = "addComponent"
	MethodWhenReady         = "whenReady"
	MethodWhenAllReady      = "whenAllReady"
	MethodDelay             = "delay"
	MethodComponent         = "component"
)

// Call is one captured invocation.
type Call struct {
	Method string
	Args   []any
	// Seq orders calls across methods, starting at 1.
	Seq uint64
}

// Stub records calls for later replay.
type Stub struct {
	mu    sync.Mutex
	calls map[string][]Call
	// log holds every call in Seq order.
	log []Call
	seq uint64
}

// New returns an empty stub.
func New() *Stub {
	return &Stub{calls: make(map[string][]Call)}
}

func (s *Stub) record(method string, args ...any) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	c := Call{Method: method, Args: args, Seq: s.seq}
	s.calls[method] = append(s.calls[method], c)
	s.log = append(s.log, c)
	return s
}

// RegisterComponent records a registerComponent call.
func (s *Stub) RegisterComponent(name string, ctor registry.Constructor) *Stub {
	return s.record(MethodRegisterComponent, name, ctor)
}

// AddComponent records an addComponent call.
func (s *Stub) AddComponent(name string, ctor registry.Constructor) *Stub {
	return s.record(MethodAddComponent, name, ctor)
}

// WhenReady records a whenReady call.
func (s *Stub) WhenReady(name string, cb registry.Callback) *Stub {
	return s.record(MethodWhenReady, name, cb)
}

// WhenAllReady records a whenAllReady call.
func (s *Stub) WhenAllReady(names []string, cb registry.MultiCallback) *Stub {
	return s.record(MethodWhenAllReady, slices.Clone(names), cb)
}

// Delay records a delay call.
func (s *Stub) Delay(names []string, gate future.Waiter) *Stub {
	return s.record(MethodDelay, slices.Clone(names), gate)
}

// Component records a component access.
func (s *Stub) Component(name string) *Stub {
	return s.record(MethodComponent, name)
}

// CapturedCalls returns the captured calls grouped by method name, each
// list in call order. The result is a copy.
func (s *Stub) CapturedCalls() map[string][]Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]Call, len(s.calls))
	for method, calls := range s.calls {
		cp := make([]Call, len(calls))
		for i, c := range calls {
			c.Args = slices.Clone(c.Args)
			cp[i] = c
		}
		out[method] = cp
	}
	return out
}

// Calls returns every captured call in global call order.
func (s *Stub) Calls() []Call {
	return s.CallsAfter(0)
}

// CallsAfter returns the calls with a Seq greater than seq, in call order.
// Only that tail is copied.
func (s *Stub) CallsAfter(seq uint64) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, _ := slices.BinarySearchFunc(s.log, seq+1, func(c Call, target uint64) int {
		switch {
		case c.Seq < target:
			return -1
		case c.Seq > target:
			return 1
		default:
			return 0
		}
	})
	if i == len(s.log) {
		return nil
	}
	out := make([]Call, len(s.log)-i)
	for j, c := range s.log[i:] {
		c.Args = slices.Clone(c.Args)
		out[j] = c
	}
	return out
}

// Len returns the number of captured calls.
func (s *Stub) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.seq)
}
