package app

import (
	"context"
	"errors"
	"slices"

	"github.com/vk/compkit/internal/ctxlog"
	"github.com/vk/compkit/internal/registry"
	"golang.org/x/sync/errgroup"
)

// Run observes the script sources, serves the status endpoints and
// attaches the behaviors of every component as it becomes ready. It blocks
// until ctx is done or a source fails, then detaches behaviors in reverse
// attach order.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.mu.Lock()
	a.detached = false
	a.mu.Unlock()

	stopTimers := a.gates.startTimers(a.logger)
	defer stopTimers()

	g, gctx := errgroup.WithContext(ctx)

	for _, src := range a.sources {
		g.Go(func() error {
			return a.watcher.Observe(gctx, src)
		})
	}

	if a.config.StatusPort > 0 {
		if err := a.startStatusServer(gctx, g); err != nil {
			return err
		}
	} else {
		a.logger.Debug("Status server not started: disabled")
	}

	for _, name := range a.componentNames() {
		a.framework.WhenReady(name, func(h *registry.Handle, _ registry.Environment) {
			a.attach(gctx, h)
		})
	}
	a.logger.Info("🚀 Components wired, waiting for events.", "sources", len(a.sources))

	<-gctx.Done()
	err := g.Wait()
	a.detachAll(context.WithoutCancel(ctx))

	a.logger.Debug("App.Run method finished.")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// componentNames lists every component known to the registry or declared
// in the manifest, in first-seen order.
func (a *App) componentNames() []string {
	var names []string
	for _, d := range a.framework.Describe() {
		names = append(names, d.Name)
	}
	for name := range a.model.Components {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

// attach runs the behaviors of h and records them for detachAll. A
// behavior whose attach finishes after detachAll ran is detached at once.
func (a *App) attach(ctx context.Context, h *registry.Handle) {
	for _, b := range h.Behaviors() {
		a.mu.Lock()
		stopped := a.detached || ctx.Err() != nil
		a.mu.Unlock()
		if stopped {
			return
		}

		bctx, logger := ctxlog.With(ctx, "component", b.Component, "behavior", b.Name)
		if b.Attach != nil {
			if err := b.Attach(bctx); err != nil {
				logger.Error("Behavior failed to attach.", "error", err)
				continue
			}
		}

		a.mu.Lock()
		late := a.detached
		if !late {
			a.attached = append(a.attached, b)
		}
		a.mu.Unlock()
		if late {
			logger.Debug("Behavior attached after shutdown, detaching.")
			a.detach(context.WithoutCancel(ctx), b)
			return
		}
		logger.Debug("Behavior attached.")
	}
}

func (a *App) detachAll(ctx context.Context) {
	a.mu.Lock()
	attached := a.attached
	a.attached = nil
	a.detached = true
	a.mu.Unlock()

	for i := len(attached) - 1; i >= 0; i-- {
		a.detach(ctx, attached[i])
	}
	if len(attached) > 0 {
		a.logger.Info("🏁 Behaviors detached.", "count", len(attached))
	}
}

func (a *App) detach(ctx context.Context, b registry.Behavior) {
	if b.Detach == nil {
		return
	}
	bctx, logger := ctxlog.With(ctx, "component", b.Component, "behavior", b.Name)
	if err := b.Detach(bctx); err != nil {
		logger.Error("Behavior failed to detach.", "error", err)
	}
}

// Attached returns the behaviors currently attached.
func (a *App) Attached() []registry.Behavior {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.attached)
}
