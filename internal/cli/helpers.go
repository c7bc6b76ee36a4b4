package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/fabstate/internal/logging"
	"github.com/aretw0/fabstate/pkg/adapters/memory"
	"github.com/aretw0/fabstate/pkg/adapters/redis"
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/ports"
)

// createLogger configures the application logger.
// Logs always go to Stderr to keep Stdout for the JSON report; without debug only the
// JSON format logs anything, at Info level.
func createLogger(opts Options) *slog.Logger {
	switch {
	case opts.LogJSON && opts.Debug:
		return logging.NewJSON(os.Stderr, slog.LevelDebug)
	case opts.LogJSON:
		return logging.NewJSON(os.Stderr, slog.LevelInfo)
	case opts.Debug:
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnInit: func(e *domain.StateEvent) {
			logger.Debug("State Init", "state", e.State)
		},
		OnRegister: func(e *domain.StateEvent) {
			logger.Debug("State Registered", "state", e.State)
		},
		OnStop: func(e *domain.StateEvent) {
			logger.Debug("State Stopped", "state", e.State)
		},
		OnDispatch: func(e *domain.DispatchEvent) {
			logger.Debug("Dispatch", "state", e.State, "action", e.Action, "handled", e.Handled, "mixins", e.Mixins)
		},
		OnSend: func(e *domain.SendEvent) {
			if e.Err != nil {
				logger.Debug("Form Send (Error)", "tag", e.Tag, "err", e.Err)
			} else {
				logger.Debug("Form Send", "tag", e.Tag, "save", e.Save, "states", e.States)
			}
		},
	}
}

// createSubmitter returns the Redis submitter when a URL is configured and an in-memory
// recorder otherwise. The returned func releases the submitter.
func createSubmitter(opts Options) (ports.Submitter, func() error, error) {
	if opts.RedisURL == "" {
		return memory.NewRecorder(), func() error { return nil }, nil
	}
	var redisOpts []redis.Option
	if opts.RedisTTL > 0 {
		redisOpts = append(redisOpts, redis.WithTTL(opts.RedisTTL))
	}
	sub, err := redis.NewFromURL(opts.RedisURL, redisOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup redis submitter: %w", err)
	}
	return sub, sub.Close, nil
}
