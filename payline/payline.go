// Package payline evaluates fixed line patterns on the 5-reel machine
// variant. Matches are left-aligned, exact (no wild substitution) and
// pay from three of a kind.
package payline

import (
	"github.com/house-of-voi/hov-engine/errors"
	"github.com/house-of-voi/hov-engine/grid"
)

// MinMatch is the shortest run that pays.
const MinMatch = 3

// Pattern is one payline: a row index per reel.
type Pattern [grid.Reels]int

// DefaultPatterns are the 20 fixed paylines shipped with the 5-reel
// machine contract, ordered by payline index.
var DefaultPatterns = []Pattern{
	{1, 1, 1, 1, 1}, // middle
	{0, 0, 0, 0, 0}, // top
	{2, 2, 2, 2, 2}, // bottom
	{0, 1, 2, 1, 0}, // v
	{2, 1, 0, 1, 2}, // inverted v
	{0, 0, 1, 2, 2},
	{2, 2, 1, 0, 0},
	{1, 0, 1, 2, 1},
	{1, 2, 1, 0, 1},
	{0, 1, 1, 1, 0},
	{2, 1, 1, 1, 2},
	{1, 0, 0, 0, 1},
	{1, 2, 2, 2, 1},
	{0, 1, 0, 1, 0},
	{2, 1, 2, 1, 2},
	{1, 1, 0, 1, 1},
	{1, 1, 2, 1, 1},
	{0, 0, 2, 0, 0},
	{2, 2, 0, 2, 2},
	{0, 2, 0, 2, 0},
}

// Paytable maps symbol and match count to a bet-per-line multiplier.
// Symbols absent from the table never pay.
type Paytable map[grid.Symbol]map[int]uint64

// DefaultPaytable covers the paying symbols A through D, high to low.
// Blanks and any symbol outside the table pay nothing.
var DefaultPaytable = Paytable{
	'A': {3: 100, 4: 1000, 5: 10000},
	'B': {3: 50, 4: 500, 5: 5000},
	'C': {3: 20, 4: 200, 5: 2000},
	'D': {3: 10, 4: 100, 5: 1000},
}

// Multiplier returns the multiplier for a symbol at a match count, zero
// when the combination does not pay.
func (p Paytable) Multiplier(sym grid.Symbol, matchCount int) uint64 {
	tiers, ok := p[sym]
	if !ok {
		return 0
	}
	return tiers[matchCount]
}

// WinningLine is one payline that produced a qualifying run.
type WinningLine struct {
	PaylineIndex int         `json:"paylineIndex"`
	Pattern      Pattern     `json:"pattern"`
	Symbol       grid.Symbol `json:"symbol"`
	MatchCount   int         `json:"matchCount"`
	Payout       uint64      `json:"payout"`
}

// Evaluate scans every pattern against the grid and returns one
// WinningLine per pattern with at least MinMatch consecutive matches of
// the reel-0 symbol. A blank at reel 0 never wins. Payout is
// betPerLine times the paytable multiplier.
func Evaluate(g grid.Grid, patterns []Pattern, paytable Paytable, betPerLine uint64) ([]WinningLine, error) {
	wins := make([]WinningLine, 0)

	for idx, pattern := range patterns {
		for reel := 0; reel < grid.Reels; reel++ {
			if pattern[reel] < 0 || pattern[reel] >= grid.Rows {
				return nil, errors.Newf(errors.ErrFormat, "payline %d holds row %d out of range", idx, pattern[reel])
			}
		}

		first := g[0][pattern[0]]
		if first == grid.Blank {
			continue
		}

		matchCount := 1
		for reel := 1; reel < grid.Reels; reel++ {
			if g[reel][pattern[reel]] != first {
				break
			}
			matchCount++
		}
		if matchCount < MinMatch {
			continue
		}

		multiplier := paytable.Multiplier(first, matchCount)
		if multiplier == 0 {
			continue
		}

		wins = append(wins, WinningLine{
			PaylineIndex: idx,
			Pattern:      pattern,
			Symbol:       first,
			MatchCount:   matchCount,
			Payout:       betPerLine * multiplier,
		})
	}
	return wins, nil
}

// TotalPayout sums the payouts of the given lines.
func TotalPayout(lines []WinningLine) uint64 {
	var total uint64
	for _, line := range lines {
		total += line.Payout
	}
	return total
}
