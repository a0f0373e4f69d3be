// Package validation holds the state-free guard functions that gate
// bets, balances and claims. Guards never return Go errors for rule
// violations; they return a structured Result the caller acts on.
package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/house-of-voi/hov-engine/spin"
)

// MicroVOIPerVOI is the chain's native unit scale.
const MicroVOIPerVOI = 1_000_000

// Safety thresholds as percent of total balance.
const (
	safetyNoticePercent  = 10
	safetyWarningPercent = 25
	safetyBlockPercent   = 50
)

// Result is the outcome of one guard. Errors block the action;
// warnings are advisory.
type Result struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newResult() Result {
	return Result{IsValid: true, Errors: []string{}, Warnings: []string{}}
}

func (r *Result) fail(format string, args ...interface{}) {
	r.IsValid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// BetLimits are the machine contract's bet bounds, all in microVOI.
type BetLimits struct {
	MinBet      uint64 `json:"minBet" mapstructure:"min_bet"`
	MaxBet      uint64 `json:"maxBet" mapstructure:"max_bet"`
	MaxPaylines uint64 `json:"maxPaylines" mapstructure:"max_paylines"`
	MaxTotalBet uint64 `json:"maxTotalBet" mapstructure:"max_total_bet"`
}

// FeeSchedule is the fixed per-spin cost breakdown in microVOI.
type FeeSchedule struct {
	SpinCost   uint64 `json:"spinCost" mapstructure:"spin_cost"`
	BoxCost    uint64 `json:"boxCost" mapstructure:"box_cost"`
	NetworkFee uint64 `json:"networkFee" mapstructure:"network_fee"`
	Buffer     uint64 `json:"buffer" mapstructure:"buffer"`
}

// Total is the full fee charged on top of the bet for one spin.
func (f FeeSchedule) Total() uint64 {
	return f.SpinCost + f.BoxCost + f.NetworkFee + f.Buffer
}

// ValidateBet checks bet-per-line and payline count against the
// machine limits. A bet that is not a whole number of VOI is flagged
// as a warning, not an error.
func ValidateBet(betPerLine, paylines uint64, limits BetLimits) Result {
	res := newResult()

	if betPerLine < limits.MinBet {
		res.fail("bet per line %d is below the minimum %d", betPerLine, limits.MinBet)
	}
	if betPerLine > limits.MaxBet {
		res.fail("bet per line %d exceeds the maximum %d", betPerLine, limits.MaxBet)
	}
	if paylines < 1 {
		res.fail("at least one payline is required")
	}
	if paylines > limits.MaxPaylines {
		res.fail("payline count %d exceeds the machine maximum %d", paylines, limits.MaxPaylines)
	}

	totalBet := betPerLine * paylines
	if limits.MaxTotalBet > 0 && totalBet > limits.MaxTotalBet {
		res.fail("total bet %d exceeds the contract maximum %d", totalBet, limits.MaxTotalBet)
	}

	voi := decimal.NewFromUint64(betPerLine).Div(decimal.NewFromInt(MicroVOIPerVOI))
	if !voi.IsInteger() {
		res.warn("bet per line %s VOI is not a whole VOI amount", voi.String())
	}
	return res
}

// ValidateBalance checks that the available balance covers the bet
// plus fees. Warns when available funds are below twice the estimated
// cost, or when more than half the total balance is already reserved.
func ValidateBalance(balance, reserved, totalBet uint64, fees FeeSchedule) Result {
	res := newResult()

	available := uint64(0)
	if balance > reserved {
		available = balance - reserved
	}
	cost := totalBet + fees.Total()

	if available < cost {
		res.fail("available balance %d does not cover cost %d", available, cost)
		return res
	}
	if available < 2*cost {
		res.warn("available balance %d is below twice the spin cost %d", available, cost)
	}
	if reserved > balance/2 {
		res.warn("reserved balance %d exceeds half of total balance %d", reserved, balance)
	}
	return res
}

// CalculateReservedBalance sums bet amount plus the per-spin fee over
// every non-terminal spin. The figure is recomputed from the live
// queue contents on each call, never maintained incrementally.
func CalculateReservedBalance(spins []spin.QueuedSpin, perSpinFee uint64) uint64 {
	var reserved uint64
	for _, s := range spins {
		if s.Status.Terminal() {
			continue
		}
		reserved += s.BetAmount + perSpinFee
	}
	return reserved
}

// ValidateContractOperational checks machine contract liquidity
// against its minimum threshold; warns below twice that threshold.
func ValidateContractOperational(contractBalance, minBalance uint64) Result {
	res := newResult()

	if contractBalance < minBalance {
		res.fail("contract balance %d is below the operational minimum %d", contractBalance, minBalance)
		return res
	}
	if contractBalance < 2*minBalance {
		res.warn("contract balance %d is below twice the operational minimum %d", contractBalance, minBalance)
	}
	return res
}

// ValidateSpinClaimable checks that a spin's claim block has passed
// and that the spin is still in flight.
func ValidateSpinClaimable(s spin.QueuedSpin, currentBlock uint64) Result {
	res := newResult()

	if s.Status.Terminal() {
		res.fail("spin %s is already %s", s.ID, s.Status)
	}
	if currentBlock < s.ClaimBlock {
		res.fail("claim block %d not reached, current block is %d", s.ClaimBlock, currentBlock)
	}
	return res
}

// ValidateBetSafety applies soft risk thresholds on the bet relative
// to the player's total balance. Above half the balance the bet is
// blocked outright.
func ValidateBetSafety(totalBet, balance uint64) Result {
	res := newResult()

	if balance == 0 {
		res.fail("cannot assess bet safety with zero balance")
		return res
	}

	percent := totalBet * 100 / balance
	switch {
	case percent >= safetyBlockPercent:
		res.fail("bet is %d%% of balance, above the %d%% limit", percent, safetyBlockPercent)
	case percent >= safetyWarningPercent:
		res.warn("bet is %d%% of balance, consider reducing it", percent)
	case percent >= safetyNoticePercent:
		res.warn("bet is %d%% of balance", percent)
	}
	return res
}
