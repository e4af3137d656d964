package registry

// Descriptor is a point-in-time view of one component's bookkeeping.
type Descriptor struct {
	Name             string `json:"name"`
	Registered       bool   `json:"registered"`
	PendingCallbacks int    `json:"pending_callbacks"`
	Constructions    int    `json:"constructions"`
	GatesWaiting     int    `json:"gates_waiting"`
	Error            string `json:"error,omitempty"`
}

// Describe lists every known component in first-reference order.
func (r *Registry) Describe() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		d := r.descriptors[name]
		desc := Descriptor{
			Name:             d.name,
			Registered:       d.registered,
			PendingCallbacks: len(d.pending),
			Constructions:    d.constructions,
			GatesWaiting:     countUnsettled(d.waiting),
		}
		if d.lastErr != nil {
			desc.Error = d.lastErr.Error()
		}
		out = append(out, desc)
	}
	return out
}

// Stalled returns the components that were referenced but are not
// registered.
func (r *Registry) Stalled() []Descriptor {
	var out []Descriptor
	for _, d := range r.Describe() {
		if !d.Registered {
			out = append(out, d)
		}
	}
	return out
}

func countUnsettled(gates []*delayGate) int {
	n := 0
	for _, g := range gates {
		if !g.settled() {
			n++
		}
	}
	return n
}
