package bridge

import (
	"context"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/house-of-voi/hov-engine/chain"
	"github.com/house-of-voi/hov-engine/errors"
	"github.com/house-of-voi/hov-engine/grid"
	"github.com/house-of-voi/hov-engine/machine"
	"github.com/house-of-voi/hov-engine/payline"
	"github.com/house-of-voi/hov-engine/provider"
	"github.com/house-of-voi/hov-engine/spin"
	"github.com/house-of-voi/hov-engine/validation"
	"github.com/house-of-voi/hov-engine/verify"
	"github.com/house-of-voi/hov-engine/ways"
)

// Wallet is the balance view the bridge needs from the wallet service.
type Wallet interface {
	GetBalance(ctx context.Context, address string) (provider.Balance, error)
	GetCreditBalance(ctx context.Context, address string) (uint64, error)
}

// Jackpot is the progressive pool surface the bridge drives.
// jackpot.Service satisfies it.
type Jackpot interface {
	Contribute(ctx context.Context, machineID, spinID string, totalBet uint64) (uint64, error)
	CurrentValue(ctx context.Context, machineID string) (uint64, error)
	Hit(ctx context.Context, machineID, spinID string) (uint64, error)
}

// Auditor records resolved spins and verification verdicts.
// provider.AuditProvider satisfies it.
type Auditor interface {
	SpinResolved(event provider.SpinOutcomeEvent)
	OutcomeVerified(machineID string, cert verify.Certificate)
}

// Config wires one bridge session.
type Config struct {
	Machine      *machine.Machine
	Wallet       Wallet
	Submitter    chain.Submitter
	Seeds        chain.SeedSource
	Confirmation chain.RetryPolicy

	// Jackpot and Audit are optional; nil disables them.
	Jackpot Jackpot
	Audit   Auditor

	// ContractBalance reports machine contract liquidity; nil skips
	// the operational check.
	ContractBalance func(ctx context.Context) (uint64, error)

	SessionID string
	Address   string
	Logger    zerolog.Logger

	// Send delivers events to the game client. Must be safe for
	// concurrent use; the session layer serializes writes.
	Send func(Event)
}

// Bridge is the per-session state machine between a game client and
// the engine. It owns the session's spin queue; nothing else writes
// to it.
type Bridge struct {
	cfg    Config
	queue  *spin.Queue
	logger zerolog.Logger

	bonusMu    sync.Mutex
	bonusSpins int
}

// New creates a bridge for one session.
func New(cfg Config) *Bridge {
	return &Bridge{
		cfg:   cfg,
		queue: spin.NewQueue(),
		logger: cfg.Logger.With().
			Str("component", "bridge").
			Str("session_id", cfg.SessionID).
			Logger(),
	}
}

// Queue exposes the session queue for snapshot persistence.
func (b *Bridge) Queue() *spin.Queue {
	return b.queue
}

// HandleMessage parses and dispatches one inbound frame. Messages
// outside the namespace and malformed payloads are dropped at the
// boundary; they never mutate queue state.
func (b *Bridge) HandleMessage(ctx context.Context, data []byte) {
	cmd, err := ParseCommand(data)
	if err != nil {
		if err == ErrOutOfNamespace {
			return
		}
		b.logger.Warn().Err(err).Msg("Dropping malformed bridge message")
		return
	}
	b.Dispatch(ctx, cmd)
}

// Dispatch routes a parsed command to its handler.
func (b *Bridge) Dispatch(ctx context.Context, cmd Command) {
	switch cmd.Type {
	case TypeSpinRequest:
		b.handleSpinRequest(ctx, *cmd.SpinRequest)
	case TypeGetBalance:
		b.handleGetBalance(ctx)
	case TypeGetCreditBalance:
		b.handleGetCreditBalance(ctx)
	case TypeAbandonSpin:
		b.handleAbandon(cmd.AbandonSpin.SpinID)
	case TypeClearQueue:
		b.queue.Clear()
		b.sendQueue()
	case TypeGetQueue:
		b.sendQueue()
	}
}

// ExpireOverdue sweeps the queue and notifies the client of every spin
// that ran out its confirmation budget. The session layer calls this
// on a timer.
func (b *Bridge) ExpireOverdue(maxAge time.Duration) {
	for _, id := range b.queue.ExpireOverdue(maxAge) {
		b.sendError(errors.ErrTimeout, "spin expired waiting for confirmation", id)
		b.audit(id, string(spin.StatusExpired), 0, 0, 0)
	}
}

func (b *Bridge) handleSpinRequest(ctx context.Context, req SpinRequest) {
	m := b.cfg.Machine
	totalBet := req.BetPerLine * req.Paylines

	betRes := validation.ValidateBet(req.BetPerLine, req.Paylines, m.Limits)
	if !betRes.IsValid {
		b.sendError(errors.ErrInvalidRequest, joinErrors(betRes.Errors), "")
		return
	}

	balance, err := b.cfg.Wallet.GetBalance(ctx, b.cfg.Address)
	if err != nil {
		b.sendError(errors.GetCode(err), "failed to read balance", "")
		return
	}
	if balance.Locked {
		b.send(Event{Type: TypeAccountLocked, AccountLocked: &AccountLockedEvent{
			Locked: true,
			Reason: balance.LockReason,
		}})
		return
	}

	reserved := validation.CalculateReservedBalance(b.queue.Snapshot(), m.Fees.Total())
	balRes := validation.ValidateBalance(balance.MicroVOI, reserved, totalBet, m.Fees)
	if !balRes.IsValid {
		b.sendError(errors.ErrInsufficientBalance, joinErrors(balRes.Errors), "")
		return
	}

	safetyRes := validation.ValidateBetSafety(totalBet, balance.MicroVOI)
	if !safetyRes.IsValid {
		b.sendError(errors.ErrInvalidRequest, joinErrors(safetyRes.Errors), "")
		return
	}

	if b.cfg.ContractBalance != nil {
		liquidity, err := b.cfg.ContractBalance(ctx)
		if err != nil {
			b.sendError(errors.GetCode(err), "failed to read contract balance", "")
			return
		}
		opRes := validation.ValidateContractOperational(liquidity, m.MinContractBalance)
		if !opRes.IsValid {
			b.sendError(errors.ErrServiceUnavailable, joinErrors(opRes.Errors), "")
			return
		}
	}

	queued := b.queue.Enqueue(m.ID, totalBet, req.Paylines)

	warnings := append(append([]string{}, betRes.Warnings...), balRes.Warnings...)
	warnings = append(warnings, safetyRes.Warnings...)
	b.send(Event{Type: TypeSpinAccepted, SpinAccepted: &SpinAcceptedEvent{
		SpinID:   queued.ID,
		Warnings: warnings,
	}})

	go b.resolve(context.WithoutCancel(ctx), queued.ID, req)
}

// resolve drives one spin from submission through confirmation to a
// terminal state. Every internal error lands the spin in Failed or
// Expired with an outbound error; nothing escapes mid-spin.
func (b *Bridge) resolve(ctx context.Context, spinID string, req SpinRequest) {
	m := b.cfg.Machine
	logger := b.logger.With().Str("spin_id", spinID).Logger()

	submit, err := b.cfg.Submitter.SubmitSpin(ctx, m.AppID, req.BetPerLine, req.Paylines)
	if err != nil {
		b.failSpin(spinID, err, "transaction submission failed")
		return
	}
	if err := b.queue.MarkSubmitted(spinID, submit.BetKey, submit.ClaimBlock); err != nil {
		// The spin was abandoned or expired while the signer ran.
		logger.Warn().Err(err).Msg("Spin left pending state before submission landed")
		return
	}

	if b.cfg.Jackpot != nil {
		if _, err := b.cfg.Jackpot.Contribute(ctx, m.ID, spinID, req.BetPerLine*req.Paylines); err != nil {
			logger.Error().Err(err).Msg("Jackpot contribution failed")
		}
	}

	block, err := chain.WaitForBlock(ctx, b.cfg.Seeds, submit.ClaimBlock, b.cfg.Confirmation)
	if err != nil {
		if expireErr := b.queue.Expire(spinID); expireErr != nil {
			logger.Warn().Err(expireErr).Msg("Could not expire spin")
		}
		b.sendError(errors.ErrTimeout, "confirmation wait exhausted", spinID)
		b.audit(spinID, string(spin.StatusExpired), req.BetPerLine*req.Paylines, 0, 0)
		return
	}

	// Settle the wager on-chain before deriving the outcome. The wallet
	// reports the block that fixed the claim; it must carry the same
	// seed the indexer confirmed.
	claimed, err := b.cfg.Submitter.ClaimOutcome(ctx, submit.BetKey, submit.ClaimBlock)
	if err != nil {
		b.failSpin(spinID, err, "outcome claim failed")
		return
	}
	if len(claimed.Seed) > 0 {
		block = claimed
	}

	outcome, cert, err := b.computeOutcome(ctx, submit, block)
	if err != nil {
		b.failSpin(spinID, err, "outcome computation failed")
		return
	}
	if !cert.Valid {
		b.failSpin(spinID, errors.New(errors.ErrVerificationMismatch, "recomputed outcome does not match"), "verification failed")
		return
	}

	if err := b.queue.Complete(spinID, outcome); err != nil {
		logger.Warn().Err(err).Msg("Spin left submitted state before completion")
		return
	}

	// Drain the pool only once the spin is terminally Completed, so a
	// verification or queue failure cannot leave the pool reseeded with
	// no payout on record.
	if outcome.JackpotTriggered && b.cfg.Jackpot != nil {
		paid, err := b.cfg.Jackpot.Hit(ctx, m.ID, spinID)
		if err != nil {
			logger.Error().Err(err).Msg("Jackpot drain failed for completed spin")
		} else if paid != outcome.JackpotValue {
			logger.Warn().
				Uint64("paid", paid).
				Uint64("advertised", outcome.JackpotValue).
				Msg("Pool moved between payout and drain")
		}
	}

	if b.cfg.Audit != nil {
		b.cfg.Audit.OutcomeVerified(m.ID, cert)
	}
	b.audit(spinID, string(spin.StatusCompleted), req.BetPerLine*req.Paylines, outcome.TotalPayout, block.Number)

	b.send(Event{Type: TypeSpinOutcome, SpinOutcome: &SpinOutcomeEvent{
		SpinID:      spinID,
		Outcome:     outcome,
		Certificate: cert,
	}})
}

// computeOutcome derives the grid and payout for a confirmed spin and
// replays the derivation through the verifier to produce the fairness
// certificate. A triggered jackpot is priced from the pool's current
// value; the caller drains it after the spin completes.
func (b *Bridge) computeOutcome(ctx context.Context, submit chain.SubmitResult, block chain.Block) (spin.Outcome, verify.Certificate, error) {
	m := b.cfg.Machine

	g, err := grid.GenerateFromBetKey(block.Seed, submit.BetKey, m.ReelData, m.ReelLength, m.WindowLength)
	if err != nil {
		return spin.Outcome{}, verify.Certificate{}, err
	}

	outcome := spin.Outcome{
		GridString:   g.String(),
		BlockNumber:  block.Number,
		BlockSeedHex: hex.EncodeToString(block.Seed),
		BetKeyHex:    submit.BetKey.Hex(),
	}

	jackpotValue := uint64(0)
	switch m.Variant {
	case machine.VariantPaylines:
		paylines := submit.BetKey.Paylines()
		if paylines > uint64(len(payline.DefaultPatterns)) {
			return spin.Outcome{}, verify.Certificate{}, errors.Newf(errors.ErrFormat, "bet key covers %d paylines, machine has %d", paylines, len(payline.DefaultPatterns))
		}
		betPerLine := submit.BetKey.Amount() / paylines
		lines, err := payline.Evaluate(g, payline.DefaultPatterns[:paylines], m.PaylinePaytable(), betPerLine)
		if err != nil {
			return spin.Outcome{}, verify.Certificate{}, err
		}
		outcome.WinningLines = lines
		outcome.TotalPayout = payline.TotalPayout(lines)

	case machine.VariantWays:
		outcome.BonusRound = b.consumeBonusSpin()
		res := ways.Evaluate(g, m.WaysPaytable(), outcome.BonusRound)
		outcome.WaysWins = res.Wins
		outcome.JackpotTriggered = res.JackpotTriggered
		outcome.BonusSpinsAwarded = res.BonusSpinsAwarded
		outcome.TotalPayout = res.LinePayout

		if res.BonusSpinsAwarded > 0 {
			b.grantBonusSpins(res.BonusSpinsAwarded)
		}

		if res.JackpotTriggered && b.cfg.Jackpot != nil {
			value, err := b.cfg.Jackpot.CurrentValue(ctx, m.ID)
			if err != nil {
				return spin.Outcome{}, verify.Certificate{}, err
			}
			jackpotValue = value
			outcome.JackpotValue = value
			outcome.TotalPayout += value
		}
	}

	cert, err := verify.VerifySpinOutcome(
		verify.Claim{GridString: outcome.GridString, TotalPayout: outcome.TotalPayout},
		outcome.BlockSeedHex,
		outcome.BetKeyHex,
		m.VerifyParams(outcome.BonusRound, jackpotValue),
	)
	if err != nil {
		return spin.Outcome{}, verify.Certificate{}, err
	}
	outcome.Verified = cert.Valid
	return outcome, cert, nil
}

// consumeBonusSpin takes one bonus spin from the session's balance and
// reports whether the spin being resolved runs under the bonus
// multiplier.
func (b *Bridge) consumeBonusSpin() bool {
	b.bonusMu.Lock()
	defer b.bonusMu.Unlock()
	if b.bonusSpins == 0 {
		return false
	}
	b.bonusSpins--
	return true
}

// grantBonusSpins credits spins awarded by a bonus trigger. Retriggers
// during a bonus round stack.
func (b *Bridge) grantBonusSpins(n int) {
	b.bonusMu.Lock()
	b.bonusSpins += n
	b.bonusMu.Unlock()
}

// BonusSpinsRemaining reports the session's unplayed bonus spins.
func (b *Bridge) BonusSpinsRemaining() int {
	b.bonusMu.Lock()
	defer b.bonusMu.Unlock()
	return b.bonusSpins
}

func (b *Bridge) handleGetBalance(ctx context.Context) {
	balance, err := b.cfg.Wallet.GetBalance(ctx, b.cfg.Address)
	if err != nil {
		b.sendError(errors.GetCode(err), "failed to read balance", "")
		return
	}
	if balance.Locked {
		b.send(Event{Type: TypeAccountLocked, AccountLocked: &AccountLockedEvent{
			Locked: true,
			Reason: balance.LockReason,
		}})
		return
	}
	b.send(Event{Type: TypeBalance, Balance: &BalanceEvent{MicroVOI: balance.MicroVOI}})
}

func (b *Bridge) handleGetCreditBalance(ctx context.Context) {
	credits, err := b.cfg.Wallet.GetCreditBalance(ctx, b.cfg.Address)
	if err != nil {
		b.sendError(errors.GetCode(err), "failed to read credit balance", "")
		return
	}
	b.send(Event{Type: TypeBalance, Balance: &BalanceEvent{MicroVOI: credits, Credits: true}})
}

func (b *Bridge) handleAbandon(spinID string) {
	if err := b.queue.Abandon(spinID); err != nil {
		b.sendError(errors.GetCode(err), "cannot abandon spin", spinID)
		return
	}
	b.sendQueue()
}

func (b *Bridge) failSpin(spinID string, cause error, msg string) {
	code := errors.GetCode(cause)
	if err := b.queue.Fail(spinID, code, cause.Error()); err != nil {
		b.logger.Warn().Err(err).Str("spin_id", spinID).Msg("Could not mark spin failed")
	}
	b.logger.Error().Err(cause).Str("spin_id", spinID).Msg(msg)
	b.sendError(code, msg, spinID)
	b.audit(spinID, string(spin.StatusFailed), 0, 0, 0)
}

func (b *Bridge) audit(spinID, status string, betAmount, payout, blockNumber uint64) {
	if b.cfg.Audit == nil {
		return
	}
	b.cfg.Audit.SpinResolved(provider.SpinOutcomeEvent{
		SpinID:      spinID,
		MachineID:   b.cfg.Machine.ID,
		SessionID:   b.cfg.SessionID,
		BetAmount:   betAmount,
		TotalPayout: payout,
		Status:      status,
		BlockNumber: blockNumber,
	})
}

func (b *Bridge) sendQueue() {
	b.send(Event{Type: TypeQueue, Queue: &QueueEvent{Spins: b.queue.Snapshot()}})
}

func (b *Bridge) sendError(code int, msg, spinID string) {
	b.send(Event{Type: TypeError, Error: &ErrorEvent{Code: code, Message: msg, SpinID: spinID}})
}

func (b *Bridge) send(e Event) {
	if b.cfg.Send != nil {
		b.cfg.Send(e)
	}
}

func joinErrors(errs []string) string {
	return strings.Join(errs, "; ")
}
