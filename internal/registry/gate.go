package registry

import "github.com/vk/compkit/internal/future"

// delayGate postpones construction of the components it applies to until
// its waiter completes.
type delayGate struct {
	appliesTo map[string]struct{}
	waiter    future.Waiter
}

func newDelayGate(names []string, w future.Waiter) *delayGate {
	g := &delayGate{waiter: w}
	if len(names) > 0 {
		g.appliesTo = make(map[string]struct{}, len(names))
		for _, n := range names {
			g.appliesTo[n] = struct{}{}
		}
	}
	return g
}

// appliesToName reports whether the gate holds back the named component. An
// empty name set applies to every component.
func (g *delayGate) appliesToName(name string) bool {
	if len(g.appliesTo) == 0 {
		return true
	}
	_, ok := g.appliesTo[name]
	return ok
}

func (g *delayGate) settled() bool {
	select {
	case <-g.waiter.Done():
		return true
	default:
		return false
	}
}
