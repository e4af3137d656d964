package registry

import (
	"log/slog"
	"time"
)

type options struct {
	settings    SettingsProvider
	env         Environment
	logger      *slog.Logger
	gateTimeout time.Duration
	stallAfter  time.Duration
}

// Option configures a Registry.
type Option func(*options)

// WithSettings sets the provider consulted for every constructed handle.
func WithSettings(p SettingsProvider) Option {
	return func(o *options) {
		o.settings = p
	}
}

// WithEnvironment sets the object forwarded to every callback.
func WithEnvironment(env Environment) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithLogger sets the registry logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithGateTimeout bounds how long a construction waits on its delay gates.
// When the timeout elapses the remaining gates are treated as settled. Zero
// waits forever.
func WithGateTimeout(d time.Duration) Option {
	return func(o *options) {
		o.gateTimeout = d
	}
}

// WithStallReport logs a warning for every construction still waiting on
// its gates after d. Zero disables the report.
func WithStallReport(d time.Duration) Option {
	return func(o *options) {
		o.stallAfter = d
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
