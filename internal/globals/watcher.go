package globals

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vk/compkit/internal/feature"
	"github.com/vk/compkit/internal/future"
	"github.com/vk/compkit/internal/scriptsource"
)

// Callback receives the resolved value of a global path.
type Callback func(value any)

// MultiCallback receives resolved values in request order.
type MultiCallback func(values []any)

// Watcher is the public surface of the global availability watcher.
type Watcher interface {
	WhenGlobalReady(path string, cb Callback) Watcher
	WhenGlobalReadyContext(ctx context.Context, path string, cb Callback) Watcher
	WhenAllGlobalsReady(paths []string, cb MultiCallback) Watcher
	ScriptLoaded(src string) int
	Observe(ctx context.Context, src scriptsource.Source) error
	Outstanding() map[string]int
	Enabled() bool
}

// Option configures a watcher.
type Option func(*watcher)

// WithLogger sets the watcher logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(w *watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// waitEntry is one queued callback.
type waitEntry struct {
	id   uint64
	cb   Callback
	stop func() bool
}

// record holds every callback waiting on one path.
type record struct {
	path    string
	entries []*waitEntry
}

type watcher struct {
	ns     *Namespace
	logger *slog.Logger

	mu      sync.Mutex
	records map[string]*record
	order   []string
	nextID  uint64
}

// New returns a watcher over ns, or a no-op watcher when the host cannot
// observe script insertion.
func New(ns *Namespace, env feature.Env, opts ...Option) Watcher {
	w := &watcher{
		ns:      ns,
		logger:  slog.New(slog.DiscardHandler),
		records: make(map[string]*record),
	}
	for _, opt := range opts {
		opt(w)
	}
	if !env.SupportsGlobalWatch() {
		w.logger.Warn("Host cannot observe script insertion, global watcher disabled.", "missing", env.Missing())
		return noopWatcher{}
	}
	return w
}

// WhenGlobalReady calls cb immediately when path resolves, otherwise queues
// it until a script load makes the path reachable.
func (w *watcher) WhenGlobalReady(path string, cb Callback) Watcher {
	return w.WhenGlobalReadyContext(context.Background(), path, cb)
}

// WhenGlobalReadyContext is WhenGlobalReady with cancellation: when ctx is
// done before the path resolves, the callback is dropped and never fires.
func (w *watcher) WhenGlobalReadyContext(ctx context.Context, path string, cb Callback) Watcher {
	if cb == nil {
		return w
	}
	w.mu.Lock()
	if v, ok := w.ns.Resolve(path); ok {
		w.mu.Unlock()
		w.invoke(path, cb, v)
		return w
	}
	if ctx.Err() != nil {
		w.mu.Unlock()
		return w
	}
	rec, ok := w.records[path]
	if !ok {
		rec = &record{path: path}
		w.records[path] = rec
		w.order = append(w.order, path)
	}
	w.nextID++
	entry := &waitEntry{id: w.nextID, cb: cb}
	rec.entries = append(rec.entries, entry)
	if ctx.Done() != nil {
		entry.stop = context.AfterFunc(ctx, func() { w.remove(path, entry.id) })
	}
	w.mu.Unlock()
	return w
}

func (w *watcher) remove(path string, id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rec, ok := w.records[path]
	if !ok {
		return
	}
	for i, e := range rec.entries {
		if e.id == id {
			rec.entries = append(rec.entries[:i], rec.entries[i+1:]...)
			break
		}
	}
	if len(rec.entries) == 0 {
		w.dropRecord(path)
	}
	w.logger.Debug("Global wait canceled.", "path", path)
}

// dropRecord removes the record for path. Callers must hold w.mu.
func (w *watcher) dropRecord(path string) {
	delete(w.records, path)
	for i, p := range w.order {
		if p == path {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// WhenAllGlobalsReady calls cb once every path resolved, with the values in
// the order of paths.
func (w *watcher) WhenAllGlobalsReady(paths []string, cb MultiCallback) Watcher {
	if cb == nil {
		return w
	}
	switch len(paths) {
	case 0:
		w.invokeMulti(paths, cb, []any{})
		return w
	case 1:
		return w.WhenGlobalReady(paths[0], func(v any) { w.invokeMulti(paths, cb, []any{v}) })
	}

	values := make([]any, len(paths))
	waiters := make([]future.Waiter, len(paths))
	for i, p := range paths {
		f := future.New[any]()
		waiters[i] = f
		w.WhenGlobalReady(p, func(v any) {
			values[i] = v
			f.Resolve(v)
		})
	}
	all := future.AllSettled(waiters...)
	go func() {
		<-all.Done()
		w.invokeMulti(paths, cb, values)
	}()
	return w
}

type firing struct {
	path    string
	value   any
	entries []*waitEntry
}

// ScriptLoaded re-checks every outstanding path, fires the callbacks of
// those that now resolve in FIFO order and forgets them. It returns the
// number of paths resolved.
func (w *watcher) ScriptLoaded(src string) int {
	w.mu.Lock()
	var fire []firing
	for _, path := range append([]string(nil), w.order...) {
		v, ok := w.ns.Resolve(path)
		if !ok {
			continue
		}
		fire = append(fire, firing{path: path, value: v, entries: w.records[path].entries})
		w.dropRecord(path)
	}
	w.mu.Unlock()

	w.logger.Debug("Script loaded, outstanding globals re-checked.", "src", src, "resolved", len(fire))
	for _, f := range fire {
		for _, e := range f.entries {
			if e.stop != nil {
				e.stop()
			}
			w.invoke(f.path, e.cb, f.value)
		}
	}
	return len(fire)
}

func (w *watcher) invoke(path string, cb Callback, v any) {
	defer func() {
		if p := recover(); p != nil {
			w.logger.Error("Global callback panicked.", "path", path, "panic", p)
		}
	}()
	cb(v)
}

func (w *watcher) invokeMulti(paths []string, cb MultiCallback, values []any) {
	defer func() {
		if p := recover(); p != nil {
			w.logger.Error("Global callback panicked.", "paths", paths, "panic", p)
		}
	}()
	cb(values)
}

// Observe runs src until ctx is done, merging the globals each event
// carries into the namespace before re-checking outstanding waits.
func (w *watcher) Observe(ctx context.Context, src scriptsource.Source) error {
	return src.Run(ctx, func(ev scriptsource.Event) {
		w.ns.Merge(ev.Globals)
		w.ScriptLoaded(ev.Src)
	})
}

// Outstanding returns the number of queued callbacks per unresolved path.
func (w *watcher) Outstanding() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]int, len(w.records))
	for path, rec := range w.records {
		out[path] = len(rec.entries)
	}
	return out
}

// Enabled reports the feature gate verdict; always true here.
func (w *watcher) Enabled() bool {
	return true
}

// noopWatcher replaces the watcher on hosts without subtree observation.
type noopWatcher struct{}

func (n noopWatcher) WhenGlobalReady(string, Callback) Watcher { return n }
func (n noopWatcher) WhenGlobalReadyContext(context.Context, string, Callback) Watcher {
	return n
}
func (n noopWatcher) WhenAllGlobalsReady([]string, MultiCallback) Watcher { return n }
func (n noopWatcher) ScriptLoaded(string) int                             { return 0 }
func (n noopWatcher) Observe(context.Context, scriptsource.Source) error  { return nil }
func (n noopWatcher) Outstanding() map[string]int                         { return map[string]int{} }
func (n noopWatcher) Enabled() bool                                       { return false }
