// Package machine holds the static per-machine configuration: variant,
// reel strips, bet limits, fees and paytables. Machines are loaded
// from YAML files and are immutable at runtime.
package machine

import (
	"strconv"
	"strings"

	"github.com/house-of-voi/hov-engine/errors"
	"github.com/house-of-voi/hov-engine/grid"
	"github.com/house-of-voi/hov-engine/payline"
	"github.com/house-of-voi/hov-engine/validation"
	"github.com/house-of-voi/hov-engine/verify"
	"github.com/house-of-voi/hov-engine/ways"
)

// Machine variants.
const (
	VariantPaylines = verify.VariantPaylines
	VariantWays     = verify.VariantWays
)

// Machine is one slot machine contract's client-side configuration.
type Machine struct {
	ID      string `mapstructure:"id"`
	Name    string `mapstructure:"name"`
	Variant string `mapstructure:"variant"`
	AppID   uint64 `mapstructure:"app_id"`

	ReelData     string `mapstructure:"reel_data"`
	ReelLength   int    `mapstructure:"reel_length"`
	WindowLength int    `mapstructure:"window_length"`

	Limits validation.BetLimits   `mapstructure:"limits"`
	Fees   validation.FeeSchedule `mapstructure:"fees"`

	// MinContractBalance gates spins when contract liquidity runs dry.
	MinContractBalance uint64 `mapstructure:"min_contract_balance"`
	// JackpotResetValue seeds the progressive pool after a hit.
	JackpotResetValue uint64 `mapstructure:"jackpot_reset_value"`

	// Paytables keyed by symbol token then match count. Empty tables
	// fall back to the shipped defaults for the variant.
	Paytable map[string]map[string]uint64 `mapstructure:"paytable"`
}

// Validate checks structural consistency of a loaded machine.
func (m *Machine) Validate() error {
	if m.ID == "" {
		return errors.New(errors.ErrConfig, "machine id is required")
	}
	if m.Variant != VariantPaylines && m.Variant != VariantWays {
		return errors.Newf(errors.ErrConfig, "machine %s: unknown variant %q", m.ID, m.Variant)
	}
	if m.ReelLength <= 0 {
		return errors.Newf(errors.ErrConfig, "machine %s: reel length must be positive", m.ID)
	}
	if len(m.ReelData) != m.ReelLength*grid.Reels {
		return errors.Newf(errors.ErrConfig, "machine %s: reel data must be %d characters, got %d",
			m.ID, m.ReelLength*grid.Reels, len(m.ReelData))
	}
	for i := 0; i < len(m.ReelData); i++ {
		if !grid.Symbol(m.ReelData[i]).Valid() {
			return errors.Newf(errors.ErrConfig, "machine %s: invalid reel symbol %q at %d", m.ID, m.ReelData[i], i)
		}
	}
	if m.Limits.MinBet == 0 || m.Limits.MaxBet < m.Limits.MinBet {
		return errors.Newf(errors.ErrConfig, "machine %s: bet limits are inconsistent", m.ID)
	}
	if m.Variant == VariantPaylines && m.Limits.MaxPaylines > uint64(len(payline.DefaultPatterns)) {
		return errors.Newf(errors.ErrConfig, "machine %s: max paylines %d exceeds pattern count %d",
			m.ID, m.Limits.MaxPaylines, len(payline.DefaultPatterns))
	}
	if _, err := m.parsePaytable(); err != nil {
		return err
	}
	return nil
}

// parsePaytable converts the string-keyed config paytable to symbol
// and match-count keys. YAML map keys arrive as strings.
func (m *Machine) parsePaytable() (map[grid.Symbol]map[int]uint64, error) {
	if len(m.Paytable) == 0 {
		return nil, nil
	}
	out := make(map[grid.Symbol]map[int]uint64, len(m.Paytable))
	for symStr, tiers := range m.Paytable {
		symStr = strings.ToUpper(symStr)
		if len(symStr) != 1 || !grid.Symbol(symStr[0]).Valid() {
			return nil, errors.Newf(errors.ErrConfig, "machine %s: invalid paytable symbol %q", m.ID, symStr)
		}
		sym := grid.Symbol(symStr[0])
		out[sym] = make(map[int]uint64, len(tiers))
		for countStr, payout := range tiers {
			count, err := strconv.Atoi(countStr)
			if err != nil || count < 3 || count > grid.Reels {
				return nil, errors.Newf(errors.ErrConfig, "machine %s: invalid match count %q for symbol %s", m.ID, countStr, symStr)
			}
			out[sym][count] = payout
		}
	}
	return out, nil
}

// PaylinePaytable returns the effective payline paytable.
func (m *Machine) PaylinePaytable() payline.Paytable {
	parsed, err := m.parsePaytable()
	if err != nil || parsed == nil {
		return payline.DefaultPaytable
	}
	return payline.Paytable(parsed)
}

// WaysPaytable returns the effective ways paytable.
func (m *Machine) WaysPaytable() ways.Paytable {
	parsed, err := m.parsePaytable()
	if err != nil || parsed == nil {
		return ways.DefaultPaytable
	}
	return ways.Paytable(parsed)
}

// VerifyParams assembles the public replay parameters for this
// machine. Bonus state and jackpot value are per-spin inputs.
func (m *Machine) VerifyParams(bonusRound bool, jackpotValue uint64) verify.Params {
	p := verify.Params{
		Variant:      m.Variant,
		ReelData:     m.ReelData,
		ReelLength:   m.ReelLength,
		WindowLength: m.WindowLength,
		BonusRound:   bonusRound,
		JackpotValue: jackpotValue,
	}
	switch m.Variant {
	case VariantPaylines:
		p.Patterns = payline.DefaultPatterns
		p.PaylinePaytable = m.PaylinePaytable()
	case VariantWays:
		p.WaysPaytable = m.WaysPaytable()
	}
	return p
}
