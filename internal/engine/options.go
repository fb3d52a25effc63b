package engine

import "log/slog"

const (
	// DefaultStore is created with every engine.
	DefaultStore = "memory"

	// DefaultMaxTriples caps each store.
	DefaultMaxTriples = 1_000_000

	// DefaultMaxBindings caps every intermediate solution sequence.
	DefaultMaxBindings = 1_000_000
)

// Option configures an Engine.
type Option func(*Engine)

// WithMaxTriples sets the per-store triple ceiling. Zero or less disables it.
func WithMaxTriples(n int) Option {
	return func(e *Engine) {
		e.maxTriples = n
	}
}

// WithMaxBindings sets the intermediate binding ceiling for queries.
// Zero or less disables it.
func WithMaxBindings(n int) Option {
	return func(e *Engine) {
		e.maxBindings = n
	}
}

// WithDefaultStore names the store created up front. An empty name creates
// none.
func WithDefaultStore(name string) Option {
	return func(e *Engine) {
		e.defaultStore = name
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithNormalization toggles Unicode NFC normalization of loaded and queried
// text. Default: on.
func WithNormalization(on bool) Option {
	return func(e *Engine) {
		e.normalize = on
	}
}
