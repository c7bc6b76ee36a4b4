package loader

import (
	"log/slog"

	"github.com/aretw0/fabstate/pkg/domain"
)

// Option defines a functional option for configuring the Loader.
type Option func(*Loader)

// WithConfig overrides the scope property names. Empty fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(l *Loader) {
		l.cfg = cfg.WithDefaults()
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks for registration, stop and send.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(l *Loader) {
		l.hooks = hooks
	}
}

// WithHostContext replaces the host context shared with every state.
func WithHostContext(host domain.Tree) Option {
	return func(l *Loader) {
		if host != nil {
			l.host = host
		}
	}
}
