package chain

import (
	"context"
	"time"

	"github.com/house-of-voi/hov-engine/errors"
)

// RetryPolicy is an explicit bounded retry: a fixed number of
// attempts with an interval that grows by BackoffFactor after each
// failure. Exhausting the budget returns a timeout error instead of
// looping silently.
type RetryPolicy struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	Interval      time.Duration `mapstructure:"interval"`
	BackoffFactor float64       `mapstructure:"backoff_factor"`
}

// DefaultConfirmationPolicy waits roughly a minute for a round to
// confirm.
func DefaultConfirmationPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   20,
		Interval:      3 * time.Second,
		BackoffFactor: 1.0,
	}
}

// Do runs fn until it succeeds, the attempt budget is exhausted or the
// context is cancelled. The last attempt error is wrapped in the
// timeout error so callers can surface the root cause.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	interval := p.Interval
	backoff := p.BackoffFactor
	if backoff < 1.0 {
		backoff = 1.0
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrTimeout, "retry cancelled")
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.ErrTimeout, "retry cancelled")
		case <-time.After(interval):
		}
		interval = time.Duration(float64(interval) * backoff)
	}
	return errors.Wrapf(lastErr, errors.ErrTimeout, "gave up after %d attempts", attempts)
}

// WaitForBlock polls the seed source until the chain reaches the
// target round, then returns that round's block.
func WaitForBlock(ctx context.Context, src SeedSource, target uint64, policy RetryPolicy) (Block, error) {
	var block Block
	err := policy.Do(ctx, func(ctx context.Context) error {
		current, err := src.CurrentBlock(ctx)
		if err != nil {
			return err
		}
		if current < target {
			return errors.Newf(errors.ErrChain, "round %d not reached, chain is at %d", target, current)
		}
		block, err = src.BlockSeed(ctx, target)
		return err
	})
	return block, err
}
