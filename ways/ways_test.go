package ways

import (
	"testing"

	"github.com/house-of-voi/hov-engine/grid"
)

func mustParse(t *testing.T, s string) grid.Grid {
	t.Helper()
	g, err := grid.Parse(s)
	if err != nil {
		t.Fatalf("bad test grid %q: %v", s, err)
	}
	return g
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		gridStr    string
		bonusRound bool
		validate   func(t *testing.T, res Result)
	}{
		{
			name:    "buffalo on three full reels",
			gridStr: "000" + "000" + "000" + "111" + "111",
			validate: func(t *testing.T, res Result) {
				if len(res.Wins) != 1 {
					t.Fatalf("expected 1 win, got %d", len(res.Wins))
				}
				w := res.Wins[0]
				if w.Symbol != '0' {
					t.Errorf("expected symbol 0, got %c", w.Symbol)
				}
				if w.MatchLength != 3 {
					t.Errorf("expected match length 3, got %d", w.MatchLength)
				}
				if w.Ways != 27 {
					t.Errorf("expected 27 ways, got %d", w.Ways)
				}
				if w.WildMultiplier != 1 {
					t.Errorf("expected wild multiplier 1, got %d", w.WildMultiplier)
				}
				if w.Payout != 1836 {
					t.Errorf("expected payout 1836, got %d", w.Payout)
				}
				if res.LinePayout != 1836 {
					t.Errorf("expected line payout 1836, got %d", res.LinePayout)
				}
			},
		},
		{
			name:       "bonus round scales line payout",
			gridStr:    "000" + "000" + "000" + "111" + "111",
			bonusRound: true,
			validate: func(t *testing.T, res Result) {
				if res.LinePayout != 2754 {
					t.Errorf("expected line payout 2754, got %d", res.LinePayout)
				}
			},
		},
		{
			name:    "ways multiply per-reel match counts",
			gridStr: "009" + "000" + "099" + "111" + "111",
			validate: func(t *testing.T, res Result) {
				if len(res.Wins) != 1 {
					t.Fatalf("expected 1 win, got %d", len(res.Wins))
				}
				w := res.Wins[0]
				if w.Ways != 6 {
					t.Errorf("expected 6 ways (2*3*1), got %d", w.Ways)
				}
				if w.Payout != 68*6 {
					t.Errorf("expected payout %d, got %d", 68*6, w.Payout)
				}
			},
		},
		{
			name:    "wild3 dominates other wilds",
			gridStr: "0BD" + "0C0" + "000" + "111" + "111",
			validate: func(t *testing.T, res Result) {
				if len(res.Wins) != 1 {
					t.Fatalf("expected 1 win, got %d", len(res.Wins))
				}
				w := res.Wins[0]
				if w.WildMultiplier != 3 {
					t.Errorf("expected wild multiplier 3, got %d", w.WildMultiplier)
				}
				if w.Ways != 27 {
					t.Errorf("expected 27 ways, got %d", w.Ways)
				}
				if w.Payout != 68*27*3 {
					t.Errorf("expected payout %d, got %d", 68*27*3, w.Payout)
				}
			},
		},
		{
			name:    "streak of two pays nothing",
			gridStr: "000" + "000" + "111" + "000" + "000",
			validate: func(t *testing.T, res Result) {
				for _, w := range res.Wins {
					if w.Symbol == '0' {
						t.Errorf("symbol 0 should not pay with a 2-reel streak")
					}
				}
			},
		},
		{
			name:    "streak must start on reel zero",
			gridStr: "111" + "000" + "000" + "000" + "000",
			validate: func(t *testing.T, res Result) {
				for _, w := range res.Wins {
					if w.Symbol == '0' {
						t.Errorf("symbol 0 should not pay without a reel-0 match")
					}
				}
			},
		},
		{
			name:    "wilds never anchor a win",
			gridStr: "BBB" + "CCC" + "DDD" + "EEE" + "FFF",
			validate: func(t *testing.T, res Result) {
				for _, w := range res.Wins {
					if IsWild(w.Symbol) || w.Symbol == ScatterHOV || w.Symbol == ScatterBonus {
						t.Errorf("special symbol %c anchored a win", w.Symbol)
					}
				}
			},
		},
		{
			name:    "three scattered HOV triggers jackpot",
			gridStr: "E00" + "101" + "0E1" + "110" + "E01",
			validate: func(t *testing.T, res Result) {
				if !res.JackpotTriggered {
					t.Errorf("expected jackpot trigger with 3 scatters")
				}
				if res.HOVScatterCount != 3 {
					t.Errorf("expected 3 HOV scatters, got %d", res.HOVScatterCount)
				}
			},
		},
		{
			name:    "two HOV scatters do not trigger jackpot",
			gridStr: "E00" + "101" + "0E1" + "110" + "001",
			validate: func(t *testing.T, res Result) {
				if res.JackpotTriggered {
					t.Errorf("jackpot must not trigger with 2 scatters")
				}
			},
		},
		{
			name:    "two bonus scatters award eight spins",
			gridStr: "F00" + "101" + "011" + "1F0" + "001",
			validate: func(t *testing.T, res Result) {
				if !res.BonusTriggered {
					t.Errorf("expected bonus trigger with 2 scatters")
				}
				if res.BonusSpinsAwarded != BonusSpinCount {
					t.Errorf("expected %d bonus spins, got %d", BonusSpinCount, res.BonusSpinsAwarded)
				}
			},
		},
		{
			name:    "single bonus scatter awards nothing",
			gridStr: "F00" + "101" + "011" + "110" + "001",
			validate: func(t *testing.T, res Result) {
				if res.BonusTriggered {
					t.Errorf("bonus must not trigger with 1 scatter")
				}
				if res.BonusSpinsAwarded != 0 {
					t.Errorf("expected 0 bonus spins, got %d", res.BonusSpinsAwarded)
				}
			},
		},
		{
			name:    "multiple symbols win independently",
			gridStr: "012" + "012" + "012" + "345" + "345",
			validate: func(t *testing.T, res Result) {
				if len(res.Wins) != 3 {
					t.Fatalf("expected 3 wins, got %d", len(res.Wins))
				}
				var total uint64
				for _, w := range res.Wins {
					total += w.Payout
				}
				if res.LinePayout != total {
					t.Errorf("line payout %d does not equal win sum %d", res.LinePayout, total)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustParse(t, tt.gridStr)
			tt.validate(t, Evaluate(g, DefaultPaytable, tt.bonusRound))
		})
	}
}

func TestApplyBonusMultiplier(t *testing.T) {
	tests := []struct {
		in, want uint64
	}{
		{0, 0},
		{1, 1},
		{2, 3},
		{3, 4},
		{1836, 2754},
		{10000, 15000},
	}
	for _, tt := range tests {
		if got := ApplyBonusMultiplier(tt.in); got != tt.want {
			t.Errorf("ApplyBonusMultiplier(%d): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestCompletePayout(t *testing.T) {
	res := Result{LinePayout: 500, JackpotTriggered: true}
	if got := CompletePayout(res, 1_000_000); got != 1_000_500 {
		t.Errorf("expected 1000500, got %d", got)
	}

	res.JackpotTriggered = false
	if got := CompletePayout(res, 1_000_000); got != 500 {
		t.Errorf("expected 500, got %d", got)
	}
}

func TestWildMultiplierOf(t *testing.T) {
	if got := WildMultiplierOf(Wild3); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := WildMultiplierOf('0'); got != 0 {
		t.Errorf("expected 0 for non-wild, got %d", got)
	}
}
