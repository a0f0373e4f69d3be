package provider

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/house-of-voi/hov-engine/betkey"
	"github.com/house-of-voi/hov-engine/chain"
	"github.com/house-of-voi/hov-engine/config"
	"github.com/house-of-voi/hov-engine/errors"
	"github.com/house-of-voi/hov-engine/httpclient"
)

// SpinSubmitter drives spin transactions through the wallet service's
// signing pipeline. It satisfies chain.Submitter. The wallet service
// builds, signs and broadcasts the transaction; the engine only gets
// back the bet key and claim round the contract assigned.
type SpinSubmitter struct {
	client  *httpclient.Client
	address string
	logger  zerolog.Logger
}

// NewSpinSubmitter creates a submitter bound to one player address.
func NewSpinSubmitter(cfg *config.Config, address string, logger zerolog.Logger) *SpinSubmitter {
	client := httpclient.New(httpclient.Config{
		BaseURL: cfg.Wallet.BaseURL,
		Timeout: cfg.Wallet.Timeout,
		Logger:  logger,
	})
	return &SpinSubmitter{
		client:  client,
		address: address,
		logger:  logger.With().Str("component", "spin_submitter").Logger(),
	}
}

type submitSpinRequest struct {
	Address    string `json:"address"`
	AppID      uint64 `json:"appId"`
	BetPerLine uint64 `json:"betPerLine"`
	Paylines   uint64 `json:"paylines"`
}

type submitSpinResponse struct {
	Data struct {
		BetKey     string `json:"betKey"`
		ClaimBlock uint64 `json:"claimBlock"`
		TxID       string `json:"txId"`
	} `json:"data"`
}

// SubmitSpin asks the wallet service to sign and broadcast a spin
// transaction against the machine contract.
func (s *SpinSubmitter) SubmitSpin(ctx context.Context, machineAppID, betPerLine, paylines uint64) (chain.SubmitResult, error) {
	req := submitSpinRequest{
		Address:    s.address,
		AppID:      machineAppID,
		BetPerLine: betPerLine,
		Paylines:   paylines,
	}

	var resp submitSpinResponse
	if err := s.client.PostJSON(ctx, "/wallet/spin", req, &resp); err != nil {
		return chain.SubmitResult{}, errors.Wrap(err, errors.ErrWallet, "spin submission failed")
	}

	key, err := betkey.Parse(resp.Data.BetKey)
	if err != nil {
		return chain.SubmitResult{}, errors.Wrap(err, errors.ErrWallet, "wallet returned malformed bet key")
	}

	s.logger.Info().
		Uint64("app_id", machineAppID).
		Uint64("claim_block", resp.Data.ClaimBlock).
		Str("tx_id", resp.Data.TxID).
		Msg("Spin transaction submitted")

	return chain.SubmitResult{
		BetKey:     key,
		ClaimBlock: resp.Data.ClaimBlock,
		TxID:       resp.Data.TxID,
	}, nil
}

type claimOutcomeRequest struct {
	Address    string `json:"address"`
	BetKey     string `json:"betKey"`
	ClaimBlock uint64 `json:"claimBlock"`
}

type claimOutcomeResponse struct {
	Data chain.Block `json:"data"`
}

// ClaimOutcome settles a confirmed spin on-chain and returns the block
// whose seed fixed the outcome.
func (s *SpinSubmitter) ClaimOutcome(ctx context.Context, key betkey.BetKey, claimBlock uint64) (chain.Block, error) {
	req := claimOutcomeRequest{
		Address:    s.address,
		BetKey:     key.Hex(),
		ClaimBlock: claimBlock,
	}

	var resp claimOutcomeResponse
	if err := s.client.PostJSON(ctx, "/wallet/claim", req, &resp); err != nil {
		return chain.Block{}, errors.Wrap(err, errors.ErrWallet, "outcome claim failed")
	}
	return resp.Data, nil
}
