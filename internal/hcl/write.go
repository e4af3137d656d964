package hcl

import (
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/compkit/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// Render writes m back out as an HCL manifest. Components are emitted in
// name order; everything else keeps model order.
func Render(m *config.Model) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	if m.Host != nil {
		hb := body.AppendNewBlock("host", nil).Body()
		hb.SetAttributeValue("array_predicate", cty.BoolVal(m.Host.ArrayPredicate))
		hb.SetAttributeValue("futures", cty.BoolVal(m.Host.Futures))
		hb.SetAttributeValue("all_settled", cty.BoolVal(m.Host.AllSettled))
		hb.SetAttributeValue("containment", cty.BoolVal(m.Host.Containment))
		hb.SetAttributeValue("subtree_observer", cty.BoolVal(m.Host.SubtreeObserver))
	}

	names := make([]string, 0, len(m.Components))
	for name := range m.Components {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		c := m.Components[name]
		body.AppendNewline()
		cb := body.AppendNewBlock("component", []string{name}).Body()
		if c.Description != "" {
			cb.SetAttributeValue("description", cty.StringVal(c.Description))
		}
		if len(c.Settings) == 0 {
			continue
		}
		sb := cb.AppendNewBlock("settings", nil).Body()
		keys := make([]string, 0, len(c.Settings))
		for k := range c.Settings {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			v, err := interfaceToCtyValue(c.Settings[k])
			if err != nil {
				return nil, fmt.Errorf("component %q setting %q: %w", name, k, err)
			}
			sb.SetAttributeValue(k, v)
		}
	}

	for _, g := range m.Gates {
		body.AppendNewline()
		gb := body.AppendNewBlock("gate", []string{g.Name}).Body()
		comps, _ := interfaceToCtyValue(g.Components)
		gb.SetAttributeValue("components", comps)
		if g.Timeout > 0 {
			gb.SetAttributeValue("timeout", cty.StringVal(g.Timeout.String()))
		}
		if g.Open {
			gb.SetAttributeValue("open", cty.True)
		}
	}

	for _, e := range m.Expects {
		body.AppendNewline()
		eb := body.AppendNewBlock("expect", []string{e.Path}).Body()
		if e.Description != "" {
			eb.SetAttributeValue("description", cty.StringVal(e.Description))
		}
	}

	for _, s := range m.Sources {
		body.AppendNewline()
		sb := body.AppendNewBlock("source", []string{string(s.Kind)}).Body()
		setString := func(name, v string) {
			if v != "" {
				sb.SetAttributeValue(name, cty.StringVal(v))
			}
		}
		setString("path", s.Path)
		if len(s.Patterns) > 0 {
			pats, _ := interfaceToCtyValue(s.Patterns)
			sb.SetAttributeValue("patterns", pats)
		}
		setString("url", s.URL)
		setString("namespace", s.Namespace)
		setString("event", s.Event)
		if s.InsecureSkipVerify {
			sb.SetAttributeValue("insecure_skip_verify", cty.True)
		}
	}

	return f.Bytes(), nil
}
