// Package ways evaluates the ways-to-win (W2W) machine variant: every
// symbol combination across adjacent reels pays, not fixed lines.
// Wilds substitute and carry payout multipliers; scatters trigger the
// jackpot and bonus rounds independently of reel adjacency.
package ways

import (
	"github.com/house-of-voi/hov-engine/grid"
)

const (
	// MinMatch is the shortest reel streak that pays.
	MinMatch = 3
	// BonusSpinCount is awarded on a bonus trigger.
	BonusSpinCount = 8
	// JackpotScatterMin is the HOV scatter count that hits the jackpot.
	JackpotScatterMin = 3
	// BonusScatterMin is the BONUS scatter count that starts a bonus round.
	BonusScatterMin = 2

	bonusMultiplierNum   = 15000
	bonusMultiplierDenom = 10000
)

// Special symbols on the W2W strip.
const (
	Wild1        grid.Symbol = 'B' // substitutes at 1x
	Wild2        grid.Symbol = 'C' // substitutes at 2x
	Wild3        grid.Symbol = 'D' // substitutes at 3x
	ScatterHOV   grid.Symbol = 'E'
	ScatterBonus grid.Symbol = 'F'
)

// Symbols is the full 16-token W2W vocabulary.
var Symbols = []grid.Symbol{
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
	'A', 'B', 'C', 'D', 'E', 'F',
}

// Paytable maps symbol and match length to a base payout. Wilds and
// scatters carry no entry; they never pay directly.
type Paytable map[grid.Symbol]map[int]uint64

// DefaultPaytable covers the paying W2W symbols. '0' (buffalo) is the
// premium symbol.
var DefaultPaytable = Paytable{
	'0': {3: 68, 4: 340, 5: 1700},
	'1': {3: 40, 4: 200, 5: 1000},
	'2': {3: 30, 4: 150, 5: 750},
	'3': {3: 24, 4: 120, 5: 600},
	'4': {3: 20, 4: 100, 5: 500},
	'5': {3: 16, 4: 80, 5: 400},
	'6': {3: 12, 4: 60, 5: 300},
	'7': {3: 10, 4: 50, 5: 250},
	'8': {3: 8, 4: 40, 5: 200},
	'9': {3: 6, 4: 30, 5: 150},
	'A': {3: 4, 4: 20, 5: 100},
}

// BasePayout returns the base payout for a symbol at a match length,
// zero when the combination does not pay.
func (p Paytable) BasePayout(sym grid.Symbol, matchLength int) uint64 {
	tiers, ok := p[sym]
	if !ok {
		return 0
	}
	return tiers[matchLength]
}

// WaysWin is the qualifying result for one symbol. A single grid can
// produce one entry per paying symbol.
type WaysWin struct {
	Symbol         grid.Symbol `json:"symbol"`
	Ways           int         `json:"ways"`
	MatchLength    int         `json:"matchLength"`
	Payout         uint64      `json:"payout"`
	WildMultiplier uint64      `json:"wildMultiplier"`
}

// Result is the complete evaluation of one W2W grid.
type Result struct {
	Wins              []WaysWin `json:"wins"`
	LinePayout        uint64    `json:"linePayout"`
	JackpotTriggered  bool      `json:"jackpotTriggered"`
	BonusTriggered    bool      `json:"bonusTriggered"`
	BonusSpinsAwarded int       `json:"bonusSpinsAwarded"`
	HOVScatterCount   int       `json:"hovScatterCount"`
	BonusScatterCount int       `json:"bonusScatterCount"`
}

// IsWild reports whether the symbol substitutes for paying symbols.
func IsWild(s grid.Symbol) bool {
	return s == Wild1 || s == Wild2 || s == Wild3
}

// WildMultiplierOf returns the payout multiplier a wild carries, zero
// for non-wilds.
func WildMultiplierOf(s grid.Symbol) uint64 {
	switch s {
	case Wild1:
		return 1
	case Wild2:
		return 2
	case Wild3:
		return 3
	}
	return 0
}

// matchesOnReel counts cells on one reel equal to the target or wild.
func matchesOnReel(g grid.Grid, reel int, target grid.Symbol) int {
	count := 0
	for row := 0; row < grid.Rows; row++ {
		sym := g[reel][row]
		if sym == target || IsWild(sym) {
			count++
		}
	}
	return count
}

// wildMultiplierOnReels scans the first matchLength reels and returns
// the highest wild multiplier present, defaulting to 1. Exits early on
// a 3x wild since no higher value exists.
func wildMultiplierOnReels(g grid.Grid, matchLength int) uint64 {
	best := uint64(1)
	for reel := 0; reel < matchLength; reel++ {
		for row := 0; row < grid.Rows; row++ {
			if m := WildMultiplierOf(g[reel][row]); m > best {
				best = m
				if best == 3 {
					return best
				}
			}
		}
	}
	return best
}

// evaluateSymbol runs the streak and ways calculation for one target.
// Wilds and scatters never anchor a win; searching for them yields
// nothing.
func evaluateSymbol(g grid.Grid, target grid.Symbol, paytable Paytable) (WaysWin, bool) {
	if IsWild(target) || target == ScatterHOV || target == ScatterBonus {
		return WaysWin{}, false
	}

	matchLength := 0
	ways := 1
	for reel := 0; reel < grid.Reels; reel++ {
		count := matchesOnReel(g, reel, target)
		if count == 0 {
			break
		}
		matchLength++
		ways *= count
	}
	if matchLength < MinMatch {
		return WaysWin{}, false
	}

	base := paytable.BasePayout(target, matchLength)
	if base == 0 {
		return WaysWin{}, false
	}

	multiplier := wildMultiplierOnReels(g, matchLength)
	return WaysWin{
		Symbol:         target,
		Ways:           ways,
		MatchLength:    matchLength,
		Payout:         base * uint64(ways) * multiplier,
		WildMultiplier: multiplier,
	}, true
}

// Evaluate runs the ways calculation for every symbol in the
// vocabulary and the scatter counts, returning the combined result.
// bonusRound scales the line payout by the contract's fixed-point 1.5x
// bonus multiplier.
func Evaluate(g grid.Grid, paytable Paytable, bonusRound bool) Result {
	res := Result{Wins: make([]WaysWin, 0)}

	for _, sym := range Symbols {
		if win, ok := evaluateSymbol(g, sym, paytable); ok {
			res.Wins = append(res.Wins, win)
			res.LinePayout += win.Payout
		}
	}
	if bonusRound {
		res.LinePayout = ApplyBonusMultiplier(res.LinePayout)
		for i := range res.Wins {
			res.Wins[i].Payout = ApplyBonusMultiplier(res.Wins[i].Payout)
		}
	}

	res.HOVScatterCount = g.CountSymbol(ScatterHOV)
	res.BonusScatterCount = g.CountSymbol(ScatterBonus)
	res.JackpotTriggered = res.HOVScatterCount >= JackpotScatterMin
	res.BonusTriggered = res.BonusScatterCount >= BonusScatterMin
	if res.BonusTriggered {
		res.BonusSpinsAwarded = BonusSpinCount
	}
	return res
}

// ApplyBonusMultiplier scales a payout by the contract's fixed-point
// 1.5x bonus factor, truncating. Integer arithmetic only; the contract
// uses fixed-point math and floats would drift.
func ApplyBonusMultiplier(payout uint64) uint64 {
	return payout * bonusMultiplierNum / bonusMultiplierDenom
}

// CompletePayout is the line payout plus the jackpot value when the
// jackpot scatter hit.
func CompletePayout(res Result, jackpotValue uint64) uint64 {
	total := res.LinePayout
	if res.JackpotTriggered {
		total += jackpotValue
	}
	return total
}
