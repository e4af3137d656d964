package app

import (
	"errors"
	"log/slog"
	"time"

	"github.com/vk/compkit/internal/config"
	"github.com/vk/compkit/internal/future"
)

var (
	// ErrUnknownGate is returned for a gate name the manifest does not declare.
	ErrUnknownGate = errors.New("unknown gate")
	// ErrGateSettled is returned when a gate was already opened or canceled.
	ErrGateSettled = errors.New("gate already settled")
)

// GateStatus describes one manifest gate.
type GateStatus struct {
	Name       string   `json:"name"`
	Components []string `json:"components"`
	Settled    bool     `json:"settled"`
	Canceled   bool     `json:"canceled"`
}

type manifestGate struct {
	def    *config.Gate
	signal *future.Future[struct{}]
}

// gateSet holds the futures backing manifest gates.
type gateSet struct {
	byName  map[string]*manifestGate
	ordered []*manifestGate
}

func newGateSet(defs []*config.Gate) *gateSet {
	s := &gateSet{byName: make(map[string]*manifestGate, len(defs))}
	for _, def := range defs {
		g := &manifestGate{def: def, signal: future.Signal()}
		if def.Open {
			g.signal = future.Resolved(struct{}{})
		}
		s.byName[def.Name] = g
		s.ordered = append(s.ordered, g)
	}
	return s
}

func (s *gateSet) open(name string) error {
	g, ok := s.byName[name]
	if !ok {
		return ErrUnknownGate
	}
	if !g.signal.Resolve(struct{}{}) {
		return ErrGateSettled
	}
	return nil
}

func (s *gateSet) cancel(name string) error {
	g, ok := s.byName[name]
	if !ok {
		return ErrUnknownGate
	}
	if !g.signal.Cancel() {
		return ErrGateSettled
	}
	return nil
}

// startTimers cancels each gate with a timeout once it elapses. The
// returned function stops the pending timers.
func (s *gateSet) startTimers(logger *slog.Logger) func() {
	var timers []*time.Timer
	for _, g := range s.ordered {
		if g.def.Timeout <= 0 || g.signal.Settled() {
			continue
		}
		timers = append(timers, time.AfterFunc(g.def.Timeout, func() {
			if g.signal.Cancel() {
				logger.Warn("Gate timed out, releasing its components.", "gate", g.def.Name, "timeout", g.def.Timeout)
			}
		}))
	}
	return func() {
		for _, t := range timers {
			t.Stop()
		}
	}
}

func (s *gateSet) status() []GateStatus {
	out := make([]GateStatus, 0, len(s.ordered))
	for _, g := range s.ordered {
		_, err := g.signal.Value()
		out = append(out, GateStatus{
			Name:       g.def.Name,
			Components: g.def.Components,
			Settled:    g.signal.Settled(),
			Canceled:   errors.Is(err, future.ErrCanceled),
		})
	}
	return out
}

// OpenGate settles the named manifest gate, releasing its components.
func (a *App) OpenGate(name string) error {
	if err := a.gates.open(name); err != nil {
		return err
	}
	a.logger.Info("Gate opened.", "gate", name)
	return nil
}

// CancelGate cancels the named manifest gate. Its components are released
// as if it had settled.
func (a *App) CancelGate(name string) error {
	if err := a.gates.cancel(name); err != nil {
		return err
	}
	a.logger.Info("Gate canceled.", "gate", name)
	return nil
}

// Gates reports the state of every manifest gate.
func (a *App) Gates() []GateStatus {
	return a.gates.status()
}
