package config

import (
	"context"
	"maps"
	"time"

	"github.com/vk/compkit/internal/feature"
	"github.com/vk/compkit/internal/registry"
)

// Loader is the interface for a format-specific manifest loader.
type Loader interface {
	// Load reads every manifest under paths and merges them into one model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Model is the unified, format-agnostic representation of the manifest.
type Model struct {
	Host       *HostSpec
	Components map[string]*Component
	Gates      []*Gate
	Expects    []*Expect
	Sources    []*Source
}

// NewModel returns an empty model with every primitive assumed present.
func NewModel() *Model {
	return &Model{
		Host:       DefaultHost(),
		Components: make(map[string]*Component),
	}
}

// HostSpec declares which host primitives are available. Omitted fields
// default to true.
type HostSpec struct {
	ArrayPredicate  bool
	Futures         bool
	AllSettled      bool
	Containment     bool
	SubtreeObserver bool
}

// DefaultHost returns a HostSpec with every primitive present.
func DefaultHost() *HostSpec {
	env := feature.Native()
	return &HostSpec{
		ArrayPredicate:  env.ArrayPredicate,
		Futures:         env.Futures,
		AllSettled:      env.AllSettled,
		Containment:     env.Containment,
		SubtreeObserver: env.SubtreeObserver,
	}
}

// Env converts the host block into the feature gate input.
func (h *HostSpec) Env() feature.Env {
	if h == nil {
		return feature.Native()
	}
	return feature.Env{
		ArrayPredicate:  h.ArrayPredicate,
		Futures:         h.Futures,
		AllSettled:      h.AllSettled,
		Containment:     h.Containment,
		SubtreeObserver: h.SubtreeObserver,
	}
}

// Component is a `component` block.
type Component struct {
	Name        string
	Description string
	Settings    registry.Settings
}

// Gate is a named delay gate holding back a set of components until it is
// opened, canceled or times out.
type Gate struct {
	Name       string
	Components []string
	// Timeout of zero means the gate waits indefinitely.
	Timeout time.Duration
	// Open gates are settled at startup.
	Open bool
}

// Expect names a global symbol path the application waits for.
type Expect struct {
	Path        string
	Description string
}

// SourceKind selects a script source implementation.
type SourceKind string

const (
	SourceDir      SourceKind = "dir"
	SourceSocketIO SourceKind = "socketio"
)

// Source is a `source` block.
type Source struct {
	Kind               SourceKind
	Path               string
	Patterns           []string
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
}

// Settings implements registry.SettingsProvider.
func (m *Model) Settings(component string) registry.Settings {
	if m == nil {
		return nil
	}
	c, ok := m.Components[component]
	if !ok {
		return nil
	}
	return maps.Clone(c.Settings)
}

// Merge folds other into m. Components are merged key by key with other
// winning; gates, expects and sources are appended. A host block in other
// replaces m's.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	if other.Host != nil {
		m.Host = other.Host
	}
	if m.Components == nil {
		m.Components = make(map[string]*Component)
	}
	for name, c := range other.Components {
		existing, ok := m.Components[name]
		if !ok {
			m.Components[name] = c
			continue
		}
		if c.Description != "" {
			existing.Description = c.Description
		}
		if existing.Settings == nil {
			existing.Settings = registry.Settings{}
		}
		maps.Copy(existing.Settings, c.Settings)
	}
	m.Gates = append(m.Gates, other.Gates...)
	m.Expects = append(m.Expects, other.Expects...)
	m.Sources = append(m.Sources, other.Sources...)
}
