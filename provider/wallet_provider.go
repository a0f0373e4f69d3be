// Package provider implements the engine's external collaborators:
// the wallet service, the Redis-backed queue snapshot store and the
// Kafka audit trail.
package provider

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/house-of-voi/hov-engine/config"
	"github.com/house-of-voi/hov-engine/errors"
	"github.com/house-of-voi/hov-engine/httpclient"
	"github.com/house-of-voi/hov-engine/validation"
)

// WalletProvider reads balances and lock state from the wallet
// service. Transaction signing stays in the wallet service; the engine
// never sees keys.
type WalletProvider struct {
	client *httpclient.Client
	logger zerolog.Logger
}

// NewWalletProvider creates a wallet provider from the app config.
func NewWalletProvider(cfg *config.Config, logger zerolog.Logger) *WalletProvider {
	client := httpclient.New(httpclient.Config{
		BaseURL: cfg.Wallet.BaseURL,
		Timeout: cfg.Wallet.Timeout,
		Logger:  logger,
	})
	return &WalletProvider{
		client: client,
		logger: logger.With().Str("component", "wallet_provider").Logger(),
	}
}

// Balance is the wallet service's view of one account.
type Balance struct {
	MicroVOI   uint64 `json:"microVoi"`
	Locked     bool   `json:"locked"`
	LockReason string `json:"lockReason,omitempty"`
}

// VOI renders the balance in whole VOI for display.
func (b Balance) VOI() decimal.Decimal {
	return decimal.NewFromUint64(b.MicroVOI).Div(decimal.NewFromInt(validation.MicroVOIPerVOI))
}

// GetBalance retrieves the account balance in microVOI.
func (p *WalletProvider) GetBalance(ctx context.Context, address string) (Balance, error) {
	var result struct {
		Data Balance `json:"data"`
	}
	path := fmt.Sprintf("/wallet/balance?address=%s", address)
	if err := p.client.GetJSON(ctx, path, &result); err != nil {
		return Balance{}, errors.Wrap(err, errors.ErrWallet, "failed to get balance")
	}
	return result.Data, nil
}

// GetContractBalance reads a machine contract's spendable liquidity.
// The bridge refuses spins when it drops below the machine minimum.
func (p *WalletProvider) GetContractBalance(ctx context.Context, appID uint64) (uint64, error) {
	var result struct {
		Data struct {
			MicroVOI uint64 `json:"microVoi"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/wallet/contract-balance?appId=%d", appID)
	if err := p.client.GetJSON(ctx, path, &result); err != nil {
		return 0, errors.Wrap(err, errors.ErrWallet, "failed to get contract balance")
	}
	return result.Data.MicroVOI, nil
}

// GetCreditBalance retrieves the off-chain credit (bonus) balance.
func (p *WalletProvider) GetCreditBalance(ctx context.Context, address string) (uint64, error) {
	var result struct {
		Data struct {
			Credits uint64 `json:"credits"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/wallet/credits?address=%s", address)
	if err := p.client.GetJSON(ctx, path, &result); err != nil {
		return 0, errors.Wrap(err, errors.ErrWallet, "failed to get credit balance")
	}
	return result.Data.Credits, nil
}
