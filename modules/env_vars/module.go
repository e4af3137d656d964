// Package env_vars publishes the process environment into the global
// namespace under "env" once its component is constructed.
package env_vars

import (
	"os"
	"strings"

	"github.com/vk/compkit/internal/boot"
	"github.com/vk/compkit/internal/host"
	"github.com/vk/compkit/internal/registry"
)

const (
	// Name is the component name.
	Name = "env_vars"
	// GlobalPath is where the variables are published.
	GlobalPath = "env"
	// ScriptSource identifies the publication to the global watcher.
	ScriptSource = "module:env_vars"
)

// Module implements app.Module for this package.
type Module struct{}

// collect returns the environment, keeping only names with the configured
// prefix. The prefix is stripped when the "strip_prefix" setting is true.
func collect(settings registry.Settings) map[string]any {
	prefix := settings.String("prefix", "")
	strip := settings.Bool("strip_prefix", false)

	out := make(map[string]any)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], prefix) {
			continue
		}
		key := pair[0]
		if strip && prefix != "" {
			key = strings.TrimPrefix(key, prefix)
			if key == "" {
				continue
			}
		}
		out[key] = pair[1]
	}
	return out
}

func construct(h *registry.Handle) error {
	h.SetValue(collect(h.Settings()))
	return nil
}

// publish defines the variables in the namespace and tells the watcher.
func publish(h *registry.Handle, env registry.Environment) {
	hst, ok := host.From(env)
	if !ok {
		return
	}
	vars, _ := h.Value().(map[string]any)
	hst.Namespace.Merge(map[string]any{GlobalPath: vars})
	resolved := hst.Globals.ScriptLoaded(ScriptSource)
	hst.Logger.Debug("Environment published.", "count", len(vars), "resolved_globals", resolved)
}

// Register registers the component with the framework.
func (m *Module) Register(fw *boot.Framework) {
	fw.RegisterComponent(Name, construct).WhenReady(Name, publish)
}
