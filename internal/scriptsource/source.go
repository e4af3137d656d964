// Package scriptsource provides the signals that tell the global watcher an
// externally loaded script has finished executing.
//
// A Source emits one Event per loaded script. The event optionally carries
// the globals the script defined; the watcher merges them into its namespace
// before re-checking outstanding waits.
package scriptsource

import "context"

// Event reports that a script finished loading.
type Event struct {
	// Src identifies the script (URL or file path).
	Src string
	// Globals holds the symbols the script attached to the global
	// namespace, keyed by top-level name. May be nil.
	Globals map[string]any
}

// Source produces script load events until ctx is done.
type Source interface {
	Run(ctx context.Context, emit func(Event)) error
}

// Chan is an in-process Source fed by the embedding program.
type Chan chan Event

// Run forwards events until ctx is done or the channel is closed.
func (c Chan) Run(ctx context.Context, emit func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-c:
			if !ok {
				return nil
			}
			emit(ev)
		}
	}
}
