package jackpot

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func testService(t *testing.T) *Service {
	t.Helper()
	s := NewService(ServiceConfig{
		BroadcastInterval: 10 * time.Millisecond,
		Logger:            zerolog.Nop(),
		Store:             NewMemoryStore(),
	})
	t.Cleanup(s.Stop)
	return s
}

func TestContributeAccumulates(t *testing.T) {
	s := testService(t)
	s.RegisterPool(PoolConfig{
		MachineID: "w2w-buffalo",
		Reset:     100_000_000,
		Rate:      decimal.NewFromFloat(0.01),
	})

	ctx := context.Background()

	value, err := s.Contribute(ctx, "w2w-buffalo", "spin-1", 20_000_000)
	if err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	if value != 100_200_000 {
		t.Errorf("expected pool 100200000 after first bet, got %d", value)
	}

	value, err = s.Contribute(ctx, "w2w-buffalo", "spin-2", 20_000_000)
	if err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	if value != 100_400_000 {
		t.Errorf("expected pool 100400000 after second bet, got %d", value)
	}
}

func TestHitPaysAdvertisedValue(t *testing.T) {
	s := testService(t)
	s.RegisterPool(PoolConfig{
		MachineID: "w2w-buffalo",
		Reset:     100_000_000,
		Rate:      decimal.NewFromFloat(0.01),
	})

	ctx := context.Background()

	before, err := s.CurrentValue(ctx, "w2w-buffalo")
	if err != nil {
		t.Fatalf("current value failed: %v", err)
	}

	after, err := s.Contribute(ctx, "w2w-buffalo", "spin-1", 20_000_000)
	if err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	if after < before {
		t.Fatalf("pool shrank from %d to %d after a contribution", before, after)
	}

	paid, err := s.Hit(ctx, "w2w-buffalo", "spin-2")
	if err != nil {
		t.Fatalf("hit failed: %v", err)
	}
	if paid != after {
		t.Errorf("hit paid %d but the pool advertised %d", paid, after)
	}
}

func TestHitBeforeAnyContributionPaysReset(t *testing.T) {
	s := testService(t)
	s.RegisterPool(PoolConfig{
		MachineID: "w2w-buffalo",
		Reset:     100_000_000,
		Rate:      decimal.NewFromFloat(0.01),
	})

	paid, err := s.Hit(context.Background(), "w2w-buffalo", "spin-1")
	if err != nil {
		t.Fatalf("hit failed: %v", err)
	}
	if paid != 100_000_000 {
		t.Errorf("expected the base pool, got %d", paid)
	}
}

func TestContributeUnregisteredMachine(t *testing.T) {
	s := testService(t)

	value, err := s.Contribute(context.Background(), "unknown", "spin-1", 20_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 0 {
		t.Errorf("expected no contribution, got %d", value)
	}
}

func TestCurrentValueSeedsUnwrittenPool(t *testing.T) {
	s := testService(t)
	s.RegisterPool(PoolConfig{
		MachineID: "w2w-buffalo",
		Reset:     100_000_000,
		Rate:      decimal.NewFromFloat(0.01),
	})

	value, err := s.CurrentValue(context.Background(), "w2w-buffalo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 100_000_000 {
		t.Errorf("expected reset value for unwritten pool, got %d", value)
	}
}

func TestHitDrainsAndReseeds(t *testing.T) {
	s := testService(t)
	s.RegisterPool(PoolConfig{
		MachineID: "w2w-buffalo",
		Reset:     100_000_000,
		Rate:      decimal.NewFromFloat(0.05),
	})

	ctx := context.Background()
	if _, err := s.Contribute(ctx, "w2w-buffalo", "spin-1", 100_000_000); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}

	paid, err := s.Hit(ctx, "w2w-buffalo", "spin-2")
	if err != nil {
		t.Fatalf("hit failed: %v", err)
	}
	if paid != 105_000_000 {
		t.Errorf("expected payout 105000000, got %d", paid)
	}

	value, err := s.CurrentValue(ctx, "w2w-buffalo")
	if err != nil {
		t.Fatalf("current value failed: %v", err)
	}
	if value != 100_000_000 {
		t.Errorf("expected pool reseeded to reset value, got %d", value)
	}
}

func TestHitUnregisteredMachine(t *testing.T) {
	s := testService(t)

	if _, err := s.Hit(context.Background(), "unknown", "spin-1"); err == nil {
		t.Errorf("expected error hitting an unregistered pool")
	}
}

func TestListenReceivesBufferedUpdates(t *testing.T) {
	s := testService(t)
	s.RegisterPool(PoolConfig{
		MachineID: "w2w-buffalo",
		Reset:     100_000_000,
		Rate:      decimal.NewFromFloat(0.01),
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	updates, stop := s.Listen(ctx)
	defer stop()

	if _, err := s.Contribute(ctx, "w2w-buffalo", "spin-1", 20_000_000); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}

	select {
	case u := <-updates:
		if u.MachineID != "w2w-buffalo" || u.Value != 100_200_000 {
			t.Errorf("unexpected update: %+v", u)
		}
	case <-ctx.Done():
		t.Fatalf("no update received before timeout")
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, ok, _ := store.Current(ctx, "m"); ok {
		t.Errorf("expected unwritten pool")
	}

	if err := store.Init(ctx, "m", 7); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := store.Init(ctx, "m", 99); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if v, _, _ := store.Current(ctx, "m"); v != 7 {
		t.Errorf("second init must not overwrite, got %d", v)
	}

	v, _ := store.Add(ctx, "m", 10)
	if v != 17 {
		t.Errorf("expected 17, got %d", v)
	}

	prev, _ := store.Reset(ctx, "m", 3)
	if prev != 17 {
		t.Errorf("expected previous 17, got %d", prev)
	}
	v, ok, _ := store.Current(ctx, "m")
	if !ok || v != 3 {
		t.Errorf("expected 3, got %d", v)
	}
}
