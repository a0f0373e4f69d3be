// Package chain defines the narrow interfaces the engine needs from
// the Voi chain collaborators and the bounded retry policy used for
// confirmation waits. Transaction building and signing happen outside
// this module; the engine only consumes confirmed public values.
package chain

import (
	"context"

	"github.com/house-of-voi/hov-engine/betkey"
)

// Block carries the chain values the engine reads from a confirmed
// round.
type Block struct {
	Number uint64 `json:"number"`
	Seed   []byte `json:"seed"`
}

// SeedSource yields block seeds once rounds are confirmed. The seed
// for a round is immutable after confirmation; callers must not
// request seeds for unconfirmed rounds.
type SeedSource interface {
	CurrentBlock(ctx context.Context) (uint64, error)
	BlockSeed(ctx context.Context, round uint64) (Block, error)
}

// SubmitResult is the chain's acknowledgement of a spin transaction.
type SubmitResult struct {
	BetKey     betkey.BetKey
	ClaimBlock uint64
	TxID       string
}

// Submitter hands a spin to the external wallet/signer pipeline and
// reports the bet key and claim round the contract assigned.
type Submitter interface {
	SubmitSpin(ctx context.Context, machineAppID, betPerLine, paylines uint64) (SubmitResult, error)
	ClaimOutcome(ctx context.Context, key betkey.BetKey, claimBlock uint64) (Block, error)
}
