package chain

import (
	"context"
	"testing"
	"time"

	"github.com/house-of-voi/hov-engine/errors"
)

func TestRetryPolicySucceedsMidway(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, Interval: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New(errors.ErrChain, "not yet")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryPolicyExhaustsBudget(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, Interval: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New(errors.ErrChain, "still failing")
	})

	if !errors.HasCode(err, errors.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
}

func TestRetryPolicyHonorsContext(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 100, Interval: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := policy.Do(ctx, func(ctx context.Context) error {
		return errors.New(errors.ErrChain, "never succeeds")
	})
	if !errors.HasCode(err, errors.ErrTimeout) {
		t.Fatalf("expected timeout error on cancelled context, got %v", err)
	}
}

func TestRetryPolicyZeroAttemptsRunsOnce(t *testing.T) {
	policy := RetryPolicy{}

	calls := 0
	_ = policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New(errors.ErrChain, "fail")
	})
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

type fakeSeedSource struct {
	current uint64
	blocks  map[uint64]Block
	calls   int
}

func (f *fakeSeedSource) CurrentBlock(ctx context.Context) (uint64, error) {
	f.calls++
	// The chain advances one round per poll.
	f.current++
	return f.current, nil
}

func (f *fakeSeedSource) BlockSeed(ctx context.Context, round uint64) (Block, error) {
	b, ok := f.blocks[round]
	if !ok {
		return Block{}, errors.Newf(errors.ErrChain, "round %d not found", round)
	}
	return b, nil
}

func TestWaitForBlock(t *testing.T) {
	src := &fakeSeedSource{
		current: 97,
		blocks:  map[uint64]Block{100: {Number: 100, Seed: []byte("seed-for-round-100")}},
	}
	policy := RetryPolicy{MaxAttempts: 10, Interval: time.Millisecond}

	block, err := WaitForBlock(context.Background(), src, 100, policy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if block.Number != 100 {
		t.Errorf("expected round 100, got %d", block.Number)
	}
	if src.calls != 3 {
		t.Errorf("expected 3 polls to reach round 100, got %d", src.calls)
	}
}

func TestWaitForBlockTimesOut(t *testing.T) {
	src := &fakeSeedSource{current: 0, blocks: map[uint64]Block{}}
	policy := RetryPolicy{MaxAttempts: 2, Interval: time.Millisecond}

	_, err := WaitForBlock(context.Background(), src, 1_000, policy)
	if !errors.HasCode(err, errors.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
