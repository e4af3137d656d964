// Package feature decides whether a host environment provides the
// primitives the component framework needs.
//
// The verdict is taken once, when a registry or watcher is opened. A host
// that fails the core check gets a registry whose methods are all no-ops
// for the rest of its lifetime; there is no re-check.
package feature

// Env records which host primitives are available.
type Env struct {
	// ArrayPredicate is an array-type test.
	ArrayPredicate bool
	// Futures is a future/promise implementation.
	Futures bool
	// AllSettled is the "all settle" combinator over futures.
	AllSettled bool
	// Containment is array membership testing, used by gate bookkeeping.
	Containment bool
	// SubtreeObserver is a DOM subtree insertion observer. Only the global
	// watcher needs it.
	SubtreeObserver bool
}

// Native returns an Env with every primitive present. A Go host always
// provides them.
func Native() Env {
	return Env{
		ArrayPredicate:  true,
		Futures:         true,
		AllSettled:      true,
		Containment:     true,
		SubtreeObserver: true,
	}
}

// SupportsCore reports whether the registry core can run.
func (e Env) SupportsCore() bool {
	return e.ArrayPredicate && e.Futures && e.AllSettled && e.Containment
}

// SupportsGlobalWatch reports whether the global availability watcher can
// run. It is strictly stronger than SupportsCore.
func (e Env) SupportsGlobalWatch() bool {
	return e.SupportsCore() && e.SubtreeObserver
}

// Missing lists the absent primitives by name.
func (e Env) Missing() []string {
	var missing []string
	if !e.ArrayPredicate {
		missing = append(missing, "array_predicate")
	}
	if !e.Futures {
		missing = append(missing, "futures")
	}
	if !e.AllSettled {
		missing = append(missing, "all_settled")
	}
	if !e.Containment {
		missing = append(missing, "containment")
	}
	if !e.SubtreeObserver {
		missing = append(missing, "subtree_observer")
	}
	return missing
}
