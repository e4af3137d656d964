// Package host defines the environment object handed to every component
// callback: the shared namespace, the global watcher and a logger.
package host

import (
	"log/slog"

	"github.com/vk/compkit/internal/globals"
	"github.com/vk/compkit/internal/registry"
)

// Host is the environment the app injects into the registry.
type Host struct {
	Namespace *globals.Namespace
	Globals   globals.Watcher
	Logger    *slog.Logger
}

// New bundles the host services. A nil logger discards output.
func New(ns *globals.Namespace, w globals.Watcher, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Host{Namespace: ns, Globals: w, Logger: logger}
}

// From extracts the Host from a callback environment.
func From(env registry.Environment) (*Host, bool) {
	h, ok := env.(*Host)
	return h, ok && h != nil
}
