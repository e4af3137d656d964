package hcl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/compkit/internal/config"
	"github.com/vk/compkit/internal/ctxlog"
	"github.com/vk/compkit/internal/registry"
)

// translateFile converts one decoded file into a partial model. Host is
// left nil when the file has no host block.
func (l *Loader) translateFile(ctx context.Context, file string, root *fileRoot) (*config.Model, error) {
	m := &config.Model{Components: make(map[string]*config.Component)}

	if root.Host != nil {
		m.Host = translateHost(root.Host)
	}
	for _, c := range root.Components {
		comp, err := l.translateComponent(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		m.Components[comp.Name] = comp
	}
	for _, g := range root.Gates {
		gate, err := translateGate(g)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		m.Gates = append(m.Gates, gate)
	}
	for _, e := range root.Expects {
		path, err := normalizeGlobalPath(e.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: expect %q: %w", file, e.Path, err)
		}
		m.Expects = append(m.Expects, &config.Expect{Path: path, Description: e.Description})
	}
	for _, s := range root.Sources {
		src, err := translateSource(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		m.Sources = append(m.Sources, src)
	}
	return m, nil
}

func translateHost(h *hostBlock) *config.HostSpec {
	spec := config.DefaultHost()
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&spec.ArrayPredicate, h.ArrayPredicate)
	set(&spec.Futures, h.Futures)
	set(&spec.AllSettled, h.AllSettled)
	set(&spec.Containment, h.Containment)
	set(&spec.SubtreeObserver, h.SubtreeObserver)
	return spec
}

// translateComponent evaluates the settings attributes into plain Go values.
func (l *Loader) translateComponent(ctx context.Context, c *componentBlock) (*config.Component, error) {
	logger := ctxlog.FromContext(ctx)
	comp := &config.Component{
		Name:        c.Name,
		Description: c.Description,
		Settings:    registry.Settings{},
	}
	if c.Settings == nil || c.Settings.Body == nil {
		return comp, nil
	}

	attrs, diags := c.Settings.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("component %q settings: %w", c.Name, diags)
	}
	evalCtx := newEvalContext()
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("component %q setting %q: %w", c.Name, name, diags)
		}
		v, err := ctyValueToInterface(val)
		if err != nil {
			return nil, fmt.Errorf("component %q setting %q: %w", c.Name, name, err)
		}
		comp.Settings[name] = v
	}
	logger.Debug("Translated component.", "component", c.Name, "settings", len(comp.Settings))
	return comp, nil
}

func translateGate(g *gateBlock) (*config.Gate, error) {
	gate := &config.Gate{
		Name:       g.Name,
		Components: g.Components,
		Open:       g.Open != nil && *g.Open,
	}
	if g.Timeout != "" {
		d, err := time.ParseDuration(g.Timeout)
		if err != nil {
			return nil, fmt.Errorf("gate %q: invalid timeout: %w", g.Name, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("gate %q: timeout must not be negative", g.Name)
		}
		gate.Timeout = d
	}
	return gate, nil
}

func translateSource(s *sourceBlock) (*config.Source, error) {
	src := &config.Source{
		Kind:               config.SourceKind(s.Kind),
		Path:               s.Path,
		Patterns:           s.Patterns,
		URL:                s.URL,
		Namespace:          s.Namespace,
		Event:              s.Event,
		InsecureSkipVerify: s.InsecureSkipVerify != nil && *s.InsecureSkipVerify,
	}
	switch src.Kind {
	case config.SourceDir:
		if src.Path == "" {
			return nil, fmt.Errorf(`source "dir" requires path`)
		}
	case config.SourceSocketIO:
		if src.URL == "" {
			return nil, fmt.Errorf(`source "socketio" requires url`)
		}
	default:
		return nil, fmt.Errorf("unknown source kind %q", s.Kind)
	}
	return src, nil
}

// normalizeGlobalPath checks that path is a plain dotted traversal such as
// "jQuery.fn.once" and returns it in canonical form.
func normalizeGlobalPath(path string) (string, error) {
	traversal, diags := hclsyntax.ParseTraversalAbs([]byte(path), "expect", hcl.InitialPos)
	if diags.HasErrors() {
		return "", diags
	}
	segs := make([]string, 0, len(traversal))
	for _, step := range traversal {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			segs = append(segs, s.Name)
		case hcl.TraverseAttr:
			segs = append(segs, s.Name)
		default:
			return "", fmt.Errorf("only dotted names are allowed")
		}
	}
	return strings.Join(segs, "."), nil
}
