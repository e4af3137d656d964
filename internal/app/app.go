package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/vk/compkit/internal/boot"
	"github.com/vk/compkit/internal/config"
	"github.com/vk/compkit/internal/ctxlog"
	"github.com/vk/compkit/internal/globals"
	"github.com/vk/compkit/internal/host"
	"github.com/vk/compkit/internal/registry"
	"github.com/vk/compkit/internal/scriptsource"
	"github.com/vk/compkit/internal/settings"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	closeLog func() error
	config   *Config
	model    *config.Model

	framework *boot.Framework
	namespace *globals.Namespace
	watcher   globals.Watcher
	host      *host.Host
	gates     *gateSet
	scripts   scriptsource.Chan
	sources   []scriptsource.Source

	mu       sync.Mutex
	attached []registry.Behavior
	detached bool
}

// NewApp is the constructor for the main application. It loads the
// manifest, lets every module register into a pending framework handle,
// then opens the registry for the declared host and installs it, replaying
// the captured registrations.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...Module) (*App, error) {
	logger, closeLog := newLogger(appConfig.LogLevel, appConfig.LogFormat, appConfig.LogFile, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.ManifestPaths...)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	logger.Debug("Manifest loaded and translated into unified model.")

	provider := settings.Layered{model}
	if len(appConfig.SettingsFiles) > 0 {
		files, err := settings.LoadFiles(appConfig.SettingsFiles...)
		if err != nil {
			_ = closeLog()
			return nil, err
		}
		provider = append(provider, files)
	}

	env := model.Host.Env()
	fw := boot.New(boot.WithLogger(logger))

	// Manifest gates are declared first so they apply to every module
	// registration captured below.
	gates := newGateSet(model.Gates)
	for _, g := range gates.ordered {
		fw.Delay(g.def.Components, g.signal)
	}

	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(fw)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "captured", len(fw.Captured()))

	ns := globals.NewNamespace()
	watcher := globals.New(ns, env, globals.WithLogger(logger))
	h := host.New(ns, watcher, logger)

	core := registry.Open(env,
		registry.WithSettings(provider),
		registry.WithEnvironment(h),
		registry.WithLogger(logger),
		registry.WithGateTimeout(appConfig.GateTimeout),
		registry.WithStallReport(appConfig.StallReport),
	)
	if err := fw.Install(core); err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to install registry: %w", err)
	}
	logger.Info("Component registry installed.", "enabled", core.Enabled(), "watcher_enabled", watcher.Enabled())

	for _, e := range model.Expects {
		path := e.Path
		watcher.WhenGlobalReady(path, func(any) {
			logger.Info("Expected global is available.", "path", path)
		})
	}

	a := &App{
		outW:      outW,
		logger:    logger,
		closeLog:  closeLog,
		config:    appConfig,
		model:     model,
		framework: fw,
		namespace: ns,
		watcher:   watcher,
		host:      h,
		gates:     gates,
		scripts:   make(scriptsource.Chan, 16),
	}
	a.sources = a.buildSources()
	return a, nil
}

// Framework returns the application's framework handle.
func (a *App) Framework() *boot.Framework {
	return a.framework
}

// Host returns the environment object shared with component callbacks.
func (a *App) Host() *host.Host {
	return a.host
}

// Model returns the loaded manifest.
func (a *App) Model() *config.Model {
	return a.model
}

// Scripts returns the in-process script source. Events sent on it are
// observed while Run is active.
func (a *App) Scripts() chan<- scriptsource.Event {
	return a.scripts
}

// Close releases the log file, if any.
func (a *App) Close() error {
	return a.closeLog()
}
