// Package verify independently recomputes spin outcomes from public
// chain inputs and deep-compares them against claimed results. A
// mismatch is a hard integrity failure reported with full detail and
// never auto-corrected.
package verify

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/house-of-voi/hov-engine/betkey"
	"github.com/house-of-voi/hov-engine/errors"
	"github.com/house-of-voi/hov-engine/grid"
	"github.com/house-of-voi/hov-engine/payline"
	"github.com/house-of-voi/hov-engine/ways"
)

// Machine variants the verifier can replay.
const (
	VariantPaylines = "paylines"
	VariantWays     = "ways"
)

// Params carries the public machine configuration needed to replay a
// spin. All values are chain-sourced or static machine config; the
// verifier performs no network I/O.
type Params struct {
	Variant      string
	ReelData     string
	ReelLength   int
	WindowLength int

	// Payline variant configuration.
	Patterns        []payline.Pattern
	PaylinePaytable payline.Paytable

	// Ways variant configuration.
	WaysPaytable ways.Paytable
	BonusRound   bool
	JackpotValue uint64
}

// Claim is the outcome asserted by an external party.
type Claim struct {
	GridString  string `json:"grid"`
	TotalPayout uint64 `json:"totalPayout"`
}

// Mismatch pinpoints one field that differed between the claim and the
// recomputation. Reel and Row are -1 for non-cell fields.
type Mismatch struct {
	Field    string `json:"field"`
	Reel     int    `json:"reel"`
	Row      int    `json:"row"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Certificate is the human-inspectable fairness record for one spin:
// the public inputs, the recomputed outcome and the verdict.
type Certificate struct {
	BlockSeedHex     string     `json:"blockSeed"`
	BetKeyHex        string     `json:"betKey"`
	Variant          string     `json:"variant"`
	ClaimedGrid      string     `json:"claimedGrid"`
	ClaimedPayout    uint64     `json:"claimedPayout"`
	RecomputedGrid   string     `json:"recomputedGrid"`
	RecomputedPayout uint64     `json:"recomputedPayout"`
	Valid            bool       `json:"valid"`
	Mismatches       []Mismatch `json:"mismatches,omitempty"`
	VerifiedAt       time.Time  `json:"verifiedAt"`
}

// VerifySpinOutcome replays the grid derivation and payout evaluation
// from the block seed and bet key, then compares cell by cell against
// the claim. Malformed inputs fail with a format error; a clean replay
// that disagrees with the claim yields Valid=false with mismatch
// detail, not an error.
func VerifySpinOutcome(claim Claim, blockSeedHex, betKeyHex string, params Params) (Certificate, error) {
	cert := Certificate{
		BlockSeedHex:  blockSeedHex,
		BetKeyHex:     betKeyHex,
		Variant:       params.Variant,
		ClaimedGrid:   claim.GridString,
		ClaimedPayout: claim.TotalPayout,
		VerifiedAt:    time.Now().UTC(),
	}

	blockSeed, err := hex.DecodeString(blockSeedHex)
	if err != nil {
		return cert, errors.Wrap(err, errors.ErrFormat, "block seed is not valid hex")
	}
	key, err := betkey.Parse(betKeyHex)
	if err != nil {
		return cert, err
	}
	claimed, err := grid.Parse(claim.GridString)
	if err != nil {
		return cert, errors.Wrap(err, errors.ErrFormat, "claimed grid is malformed")
	}

	recomputed, err := grid.GenerateFromBetKey(blockSeed, key, params.ReelData, params.ReelLength, params.WindowLength)
	if err != nil {
		return cert, err
	}
	cert.RecomputedGrid = recomputed.String()

	payout, err := recomputePayout(recomputed, key, params)
	if err != nil {
		return cert, err
	}
	cert.RecomputedPayout = payout

	for reel := 0; reel < grid.Reels; reel++ {
		for row := 0; row < grid.Rows; row++ {
			if claimed[reel][row] != recomputed[reel][row] {
				cert.Mismatches = append(cert.Mismatches, Mismatch{
					Field:    "grid",
					Reel:     reel,
					Row:      row,
					Expected: string(recomputed[reel][row]),
					Actual:   string(claimed[reel][row]),
				})
			}
		}
	}
	if claim.TotalPayout != payout {
		cert.Mismatches = append(cert.Mismatches, Mismatch{
			Field:    "totalPayout",
			Reel:     -1,
			Row:      -1,
			Expected: fmt.Sprintf("%d", payout),
			Actual:   fmt.Sprintf("%d", claim.TotalPayout),
		})
	}

	cert.Valid = len(cert.Mismatches) == 0
	return cert, nil
}

func recomputePayout(g grid.Grid, key betkey.BetKey, params Params) (uint64, error) {
	switch params.Variant {
	case VariantPaylines:
		paylines := key.Paylines()
		if paylines == 0 || paylines > uint64(len(params.Patterns)) {
			return 0, errors.Newf(errors.ErrFormat, "bet key covers %d paylines, machine has %d", paylines, len(params.Patterns))
		}
		betPerLine := key.Amount() / paylines
		lines, err := payline.Evaluate(g, params.Patterns[:paylines], params.PaylinePaytable, betPerLine)
		if err != nil {
			return 0, err
		}
		return payline.TotalPayout(lines), nil
	case VariantWays:
		res := ways.Evaluate(g, params.WaysPaytable, params.BonusRound)
		return ways.CompletePayout(res, params.JackpotValue), nil
	}
	return 0, errors.Newf(errors.ErrFormat, "unknown machine variant %q", params.Variant)
}
