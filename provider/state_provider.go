package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	coreredis "github.com/house-of-voi/hov-engine/db/redis"
	"github.com/house-of-voi/hov-engine/errors"
	"github.com/house-of-voi/hov-engine/spin"
)

// snapshotTTL keeps stale session queues from accumulating.
const snapshotTTL = 24 * time.Hour

// StateProvider persists per-session queue snapshots in Redis so a
// reconnecting client can resume its in-flight spins.
type StateProvider struct {
	redis  *coreredis.Client
	logger zerolog.Logger
}

// NewStateProvider creates a state provider.
func NewStateProvider(redisClient *coreredis.Client, logger zerolog.Logger) *StateProvider {
	return &StateProvider{
		redis:  redisClient,
		logger: logger.With().Str("component", "state_provider").Logger(),
	}
}

func (p *StateProvider) queueKey(sessionID string) string {
	return fmt.Sprintf("engine:queue:%s", sessionID)
}

// SaveQueue stores a session's queue snapshot.
func (p *StateProvider) SaveQueue(ctx context.Context, sessionID string, spins []spin.QueuedSpin) error {
	key := p.queueKey(sessionID)
	if err := p.redis.SetJSON(ctx, key, spins, snapshotTTL); err != nil {
		return errors.Wrapf(err, errors.ErrStateStore, "failed to save queue for session %s", sessionID)
	}
	return nil
}

// LoadQueue retrieves a session's queue snapshot. A missing key
// returns an empty queue.
func (p *StateProvider) LoadQueue(ctx context.Context, sessionID string) ([]spin.QueuedSpin, error) {
	key := p.queueKey(sessionID)

	exists, err := p.redis.Exists(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStateStore, "failed to check queue for session %s", sessionID)
	}
	if !exists {
		p.logger.Debug().Str("key", key).Msg("No stored queue, starting empty")
		return []spin.QueuedSpin{}, nil
	}

	var spins []spin.QueuedSpin
	if err := p.redis.GetJSON(ctx, key, &spins); err != nil {
		return nil, errors.Wrapf(err, errors.ErrStateStore, "failed to load queue for session %s", sessionID)
	}
	return spins, nil
}

// DeleteQueue removes a session's queue snapshot.
func (p *StateProvider) DeleteQueue(ctx context.Context, sessionID string) error {
	if err := p.redis.Delete(ctx, p.queueKey(sessionID)); err != nil {
		return errors.Wrapf(err, errors.ErrStateStore, "failed to delete queue for session %s", sessionID)
	}
	return nil
}
