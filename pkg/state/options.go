package state

import (
	"log/slog"

	"github.com/aretw0/fabstate/pkg/domain"
)

// Option configures the runtime behaviour of a Descriptor.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
	debug  bool
	hooks  domain.LifecycleHooks
}

// WithLogger sets the structured logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDebug logs every dispatch together with a snapshot of the state tree.
func WithDebug(debug bool) Option {
	return func(s *settings) {
		s.debug = debug
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}
