// Package print provides a diagnostic component that logs its settings
// when attached and detached.
package print

import (
	"context"
	"sort"

	"github.com/vk/compkit/internal/boot"
	"github.com/vk/compkit/internal/ctxlog"
	"github.com/vk/compkit/internal/registry"
)

// Name is the component name.
const Name = "print"

// Module implements app.Module for this package.
type Module struct{}

// construct hands over a behavior that logs the settings in key order.
func construct(h *registry.Handle) error {
	settings := h.Settings()
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h.SetValue(keys)

	h.AddBehavior("log",
		func(ctx context.Context) error {
			logger := ctxlog.FromContext(ctx).With("component", Name)
			if len(keys) == 0 {
				logger.Info("Printing settings", "settings", "(none)")
				return nil
			}
			for _, k := range keys {
				logger.Info("Printing setting", "key", k, "value", settings[k])
			}
			return nil
		},
		func(ctx context.Context) error {
			ctxlog.FromContext(ctx).Info("Print component detached.", "component", Name)
			return nil
		},
	)
	return nil
}

// Register registers the component with the framework.
func (m *Module) Register(fw *boot.Framework) {
	fw.RegisterComponent(Name, construct)
}
