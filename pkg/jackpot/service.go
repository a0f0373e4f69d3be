// Package jackpot tracks the per-machine progressive pools: every bet
// contributes a configured share, a jackpot hit drains the pool and
// reseeds it, and buffered value updates are broadcast to listeners.
package jackpot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/house-of-voi/hov-engine/errors"
)

// DefaultBroadcastInterval is the default flush interval for buffered
// updates.
const DefaultBroadcastInterval = 2 * time.Second

// Service encapsulates pool registration, contributions and update
// broadcasting. It is transport-agnostic; callers subscribe via
// Listen().
type Service struct {
	mu       sync.RWMutex
	pools    map[string]PoolConfig
	buffer   map[string]Update
	broad    *Broadcaster
	logger   zerolog.Logger
	interval time.Duration
	ticker   *time.Ticker
	stopChan chan struct{}
	store    Store
}

// NewService creates a jackpot service and starts its broadcast loop.
func NewService(cfg ServiceConfig) *Service {
	interval := cfg.BroadcastInterval
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	s := &Service{
		pools:    make(map[string]PoolConfig),
		buffer:   make(map[string]Update),
		broad:    NewBroadcaster(128),
		logger:   cfg.Logger,
		interval: interval,
		stopChan: make(chan struct{}),
		store:    cfg.Store,
	}
	s.start()
	return s
}

// RegisterPool registers a machine's pool.
func (s *Service) RegisterPool(cfg PoolConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[cfg.MachineID] = cfg
}

// Contribute applies a bet's pool share and returns the new pool
// value. Machines without a registered pool contribute nothing.
func (s *Service) Contribute(ctx context.Context, machineID, spinID string, totalBet uint64) (uint64, error) {
	s.mu.RLock()
	pool, ok := s.pools[machineID]
	s.mu.RUnlock()
	if !ok {
		return 0, nil
	}

	delta := decimal.NewFromUint64(totalBet).Mul(pool.Rate).Floor().BigInt().Uint64()
	if delta == 0 {
		return s.CurrentValue(ctx, machineID)
	}

	// Deltas accumulate on top of the reset value, never from zero;
	// the pool a player is shown must be the pool a hit pays.
	if err := s.store.Init(ctx, machineID, pool.Reset); err != nil {
		return 0, errors.Wrapf(err, errors.ErrStateStore, "jackpot seed for machine %s failed", machineID)
	}

	value, err := s.store.Add(ctx, machineID, delta)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrStateStore, "jackpot contribution for machine %s failed", machineID)
	}

	s.bufferUpdate(Update{
		MachineID: machineID,
		Value:     value,
		SpinID:    spinID,
		Timestamp: time.Now(),
	})
	return value, nil
}

// CurrentValue returns the pool value, seeding an unwritten pool with
// its reset value.
func (s *Service) CurrentValue(ctx context.Context, machineID string) (uint64, error) {
	s.mu.RLock()
	pool, registered := s.pools[machineID]
	s.mu.RUnlock()
	if !registered {
		return 0, nil
	}

	value, exists, err := s.store.Current(ctx, machineID)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrStateStore, "jackpot read for machine %s failed", machineID)
	}
	if !exists {
		return pool.Reset, nil
	}
	return value, nil
}

// Hit drains the pool for a jackpot win. It returns the paid amount and
// reseeds the pool with its reset value.
func (s *Service) Hit(ctx context.Context, machineID, spinID string) (uint64, error) {
	s.mu.RLock()
	pool, registered := s.pools[machineID]
	s.mu.RUnlock()
	if !registered {
		return 0, errors.Newf(errors.ErrMachineNotFound, "machine %s has no jackpot pool", machineID)
	}

	// A pool hit before any contribution still pays its base.
	if err := s.store.Init(ctx, machineID, pool.Reset); err != nil {
		return 0, errors.Wrapf(err, errors.ErrStateStore, "jackpot seed for machine %s failed", machineID)
	}

	previous, err := s.store.Reset(ctx, machineID, pool.Reset)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrStateStore, "jackpot reset for machine %s failed", machineID)
	}

	s.bufferUpdate(Update{
		MachineID: machineID,
		Value:     pool.Reset,
		Hit:       true,
		SpinID:    spinID,
		Timestamp: time.Now(),
	})

	s.logger.Info().
		Str("machine_id", machineID).
		Str("spin_id", spinID).
		Uint64("paid", previous).
		Msg("Jackpot hit")
	return previous, nil
}

// HandleRemoteUpdate buffers a pool update applied by another engine
// instance. The store already holds the new value; only listeners need
// to hear about it.
func (s *Service) HandleRemoteUpdate(u Update) {
	s.mu.RLock()
	_, registered := s.pools[u.MachineID]
	s.mu.RUnlock()
	if !registered {
		return
	}
	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now()
	}
	s.bufferUpdate(u)
}

// Listen subscribes to buffered pool updates.
func (s *Service) Listen(ctx context.Context) (<-chan Update, context.CancelFunc) {
	return s.broad.Listen(ctx)
}

// Stop terminates the broadcast loop.
func (s *Service) Stop() {
	close(s.stopChan)
	if s.ticker != nil {
		s.ticker.Stop()
	}
}

func (s *Service) bufferUpdate(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A hit must not be coalesced away by a later contribution.
	if existing, ok := s.buffer[u.MachineID]; ok && existing.Hit {
		u.Hit = true
	}
	s.buffer[u.MachineID] = u
}

func (s *Service) start() {
	s.ticker = time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-s.stopChan:
				return
			case <-s.ticker.C:
				s.flush()
			}
		}
	}()
}

func (s *Service) flush() {
	s.mu.Lock()
	pending := s.buffer
	s.buffer = make(map[string]Update)
	s.mu.Unlock()

	for _, u := range pending {
		if !s.broad.SendWithTimeout(u, 100*time.Millisecond) {
			s.logger.Warn().
				Str("machine_id", u.MachineID).
				Msg("Dropped pool update, broadcast buffer full")
		}
	}
}
