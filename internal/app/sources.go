package app

import (
	"github.com/vk/compkit/internal/config"
	"github.com/vk/compkit/internal/scriptsource"
)

// buildSources collects the script sources from the manifest and the
// command line. The in-process channel source is always first.
func (a *App) buildSources() []scriptsource.Source {
	sources := []scriptsource.Source{a.scripts}
	for _, s := range a.model.Sources {
		switch s.Kind {
		case config.SourceDir:
			sources = append(sources, scriptsource.Dir{Root: s.Path, Patterns: s.Patterns})
		case config.SourceSocketIO:
			sources = append(sources, scriptsource.SocketIO{
				URL:                s.URL,
				Namespace:          s.Namespace,
				Event:              s.Event,
				InsecureSkipVerify: s.InsecureSkipVerify,
			})
		}
	}
	for _, dir := range a.config.ScriptDirs {
		sources = append(sources, scriptsource.Dir{Root: dir})
	}
	if a.config.SocketURL != "" {
		sources = append(sources, scriptsource.SocketIO{URL: a.config.SocketURL, Event: a.config.SocketEvent})
	}
	return sources
}
