package chain

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/house-of-voi/hov-engine/errors"
	"github.com/house-of-voi/hov-engine/httpclient"
)

// IndexerSeedSource reads block seeds from a chain indexer's REST API.
type IndexerSeedSource struct {
	client *httpclient.Client
	logger zerolog.Logger
}

// NewIndexerSeedSource creates a seed source backed by an indexer.
func NewIndexerSeedSource(client *httpclient.Client, logger zerolog.Logger) *IndexerSeedSource {
	return &IndexerSeedSource{
		client: client,
		logger: logger.With().Str("component", "indexer").Logger(),
	}
}

// CurrentBlock returns the latest confirmed round.
func (s *IndexerSeedSource) CurrentBlock(ctx context.Context) (uint64, error) {
	var result struct {
		CurrentRound uint64 `json:"current-round"`
	}
	if err := s.client.GetJSON(ctx, "/v2/status", &result); err != nil {
		return 0, err
	}
	return result.CurrentRound, nil
}

// BlockSeed fetches the seed of a confirmed round. The indexer encodes
// seeds as base64.
func (s *IndexerSeedSource) BlockSeed(ctx context.Context, round uint64) (Block, error) {
	var result struct {
		Seed string `json:"seed"`
	}
	path := fmt.Sprintf("/v2/blocks/%d", round)
	if err := s.client.GetJSON(ctx, path, &result); err != nil {
		return Block{}, err
	}

	seed, err := base64.StdEncoding.DecodeString(result.Seed)
	if err != nil {
		return Block{}, errors.Wrapf(err, errors.ErrChain, "round %d seed is not valid base64", round)
	}
	if len(seed) == 0 {
		return Block{}, errors.Newf(errors.ErrChain, "round %d has no seed", round)
	}

	s.logger.Debug().Uint64("round", round).Msg("fetched block seed")
	return Block{Number: round, Seed: seed}, nil
}
