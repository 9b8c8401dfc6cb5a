// Package retry runs calls against slow or overloaded remote services with
// exponential backoff, classifying failures as transient or terminal.
package retry

import (
	"context"
	"time"

	"github.com/malik-zulfi/Jiggar-sub000/internal/utils"
	"go.uber.org/zap"
)

// Config holds retry configuration.
type Config struct {
	// MaxAttempts is the total number of attempts, the first call included.
	MaxAttempts int `mapstructure:"max-attempts"`
	// BaseDelay is the backoff before the first retry; it doubles on every retry.
	BaseDelay time.Duration `mapstructure:"base-delay"`
	// MaxBackoff caps a single backoff. Zero means uncapped.
	MaxBackoff time.Duration `mapstructure:"max-backoff"`
}

// DefaultConfig returns the defaults used when a field is left unset.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxBackoff:  30 * time.Second,
	}
}

// Retrier applies a Config. The zero value is not usable; call New.
type Retrier struct {
	cfg      Config
	logger   *zap.Logger
	classify func(error) bool
	waitFor  func(context.Context, time.Duration) error
}

// New builds a Retrier, filling unset fields from DefaultConfig.
func New(cfg Config, logger *zap.Logger) *Retrier {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = 0
	}
	if cfg.MaxBackoff < 0 {
		cfg.MaxBackoff = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Retrier{
		cfg:      cfg,
		logger:   logger,
		classify: IsTransient,
		waitFor:  utils.WaitFor,
	}
}

// Config returns the effective configuration.
func (r *Retrier) Config() Config {
	return r.cfg
}

// Backoff returns the delay slept after the given zero-based failed attempt.
func (r *Retrier) Backoff(attempt int) time.Duration {
	delay := r.cfg.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if r.cfg.MaxBackoff > 0 && delay >= r.cfg.MaxBackoff {
			return r.cfg.MaxBackoff
		}
	}
	if r.cfg.MaxBackoff > 0 && delay > r.cfg.MaxBackoff {
		return r.cfg.MaxBackoff
	}
	return delay
}

// Do calls fn until it succeeds, fails with a non-transient error, or the
// attempts run out. Every failure is returned as *UnavailableError.
func Do[T any](ctx context.Context, r *Retrier, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if r == nil {
		r = New(Config{}, nil)
	}

	log := r.logger.With(zap.String("operation", operation))

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		attempts++
		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Info("operation succeeded after retry", zap.Int("attempt", attempts))
			}
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if !r.classify(err) {
			log.Warn("operation failed with non-retryable error",
				zap.Int("attempt", attempts),
				zap.Error(err),
			)
			break
		}

		if attempts >= r.cfg.MaxAttempts {
			log.Warn("operation failed, attempts exhausted",
				zap.Int("attempt", attempts),
				zap.Error(err),
			)
			break
		}

		backoff := r.Backoff(attempt)
		log.Warn("transient failure, retrying",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", r.cfg.MaxAttempts),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		if err := r.waitFor(ctx, backoff); err != nil {
			return zero, err
		}
	}

	return zero, &UnavailableError{Operation: operation, Attempts: attempts, Err: lastErr}
}
