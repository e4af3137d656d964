// Package registry is the component framework core: a lazy, gated,
// asynchronous registry that every component bootstraps through.
//
// A component is known by name. The registry keeps one descriptor per name,
// created the first time the name is referenced, whether by registration or
// by a consumer subscribing before the component exists. Consumers subscribe
// with WhenReady or WhenAllReady and are called back with the constructed
// Handle and the environment object injected at construction time.
//
// # Delay gates
//
// External code can postpone construction with Delay. A gate applies to the
// named components, or to every component when no names are given. The set
// of gates a component waits on is captured when RegisterComponent is
// called; gates declared afterwards do not affect a construction already in
// progress. A gate that never settles strands its components forever unless
// the registry was opened WithGateTimeout or the gate future is cancelled.
//
// # Timing
//
// WhenReady fires synchronously when the component is already registered and
// queues otherwise. Queued callbacks fire in FIFO order right after
// construction. RegisterComponent with no applicable gates constructs in the
// caller's goroutine; gated constructions run on their own goroutine once
// every gate has settled.
//
// # Degraded mode
//
// Open returns a no-op Core when the host lacks the required primitives.
// Every method of that core does nothing and returns the core itself.
package registry
