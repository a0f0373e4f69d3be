package jackpot

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PoolConfig describes one machine's progressive pool.
type PoolConfig struct {
	MachineID string
	// Reset is the value the pool is reseeded with after a hit, in
	// microVOI.
	Reset uint64
	// Rate is the share of each total bet contributed to the pool,
	// e.g. 0.01 for 1%.
	Rate decimal.Decimal
}

// Update is a pool value change pushed to listeners.
type Update struct {
	MachineID string    `json:"machineId"`
	Value     uint64    `json:"value"`
	Hit       bool      `json:"hit"`
	SpinID    string    `json:"spinId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Store persists pool values across instances. The Redis-backed
// implementation is the default; tests use an in-memory one.
type Store interface {
	// Init writes value only if the pool has never been written, so the
	// advertised base survives restarts without clobbering accumulation.
	Init(ctx context.Context, machineID string, value uint64) error
	// Add atomically adds delta to the pool and returns the new value.
	Add(ctx context.Context, machineID string, delta uint64) (uint64, error)
	// Reset sets the pool to the given value and returns the value it
	// held before.
	Reset(ctx context.Context, machineID string, value uint64) (uint64, error)
	// Current returns the pool value, or false when the pool has never
	// been written.
	Current(ctx context.Context, machineID string) (uint64, bool, error)
}

// ServiceConfig configures the jackpot service.
type ServiceConfig struct {
	// BroadcastInterval controls how often buffered updates are
	// flushed to listeners.
	BroadcastInterval time.Duration

	Logger zerolog.Logger
	Store  Store
}
