package payline

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
		patterns   []Pattern
		betPerLine uint64
		validate   func(t *testing.T, wins []WinningLine)
	}{
		{
			name:       "five of a kind on middle line",
			gridStr:    "AAAAAAAAAAAAAAA",
			patterns:   []Pattern{{1, 1, 1, 1, 1}},
			betPerLine: 1_000_000,
			validate: func(t *testing.T, wins []WinningLine) {
				if len(wins) != 1 {
					t.Fatalf("expected 1 win, got %d", len(wins))
				}
				if wins[0].MatchCount != 5 {
					t.Errorf("expected match count 5, got %d", wins[0].MatchCount)
				}
				if wins[0].Payout != 10_000_000_000 {
					t.Errorf("expected payout 10000000000, got %d", wins[0].Payout)
				}
				if wins[0].Symbol != 'A' {
					t.Errorf("expected symbol A, got %c", wins[0].Symbol)
				}
			},
		},
		{
			name: "run stops at first mismatch",
			// Middle row reads A A A B A so the run is exactly 3.
			gridStr:    "_A__A__A__B__A_",
			patterns:   []Pattern{{1, 1, 1, 1, 1}},
			betPerLine: 1_000_000,
			validate: func(t *testing.T, wins []WinningLine) {
				if len(wins) != 1 {
					t.Fatalf("expected 1 win, got %d", len(wins))
				}
				if wins[0].MatchCount != 3 {
					t.Errorf("expected match count 3, got %d", wins[0].MatchCount)
				}
				if wins[0].Payout != 100_000_000 {
					t.Errorf("expected payout 100000000, got %d", wins[0].Payout)
				}
			},
		},
		{
			name: "two of a kind is not a win",
			// Middle row reads A A B A A.
			gridStr:    "_A__A__B__A__A_",
			patterns:   []Pattern{{1, 1, 1, 1, 1}},
			betPerLine: 1_000_000,
			validate: func(t *testing.T, wins []WinningLine) {
				if len(wins) != 0 {
					t.Fatalf("expected no wins, got %d", len(wins))
				}
			},
		},
		{
			name: "blank at reel zero never wins",
			// Middle row reads _ _ _ _ _.
			gridStr:    "A_AA_AA_AA_AA_A",
			patterns:   []Pattern{{1, 1, 1, 1, 1}},
			betPerLine: 1_000_000,
			validate: func(t *testing.T, wins []WinningLine) {
				if len(wins) != 0 {
					t.Fatalf("expected no wins, got %d", len(wins))
				}
			},
		},
		{
			name: "no wild substitution",
			// Middle row reads A D A A A; D is a plain symbol here and
			// breaks the run at reel 1.
			gridStr:    "_A__D__A__A__A_",
			patterns:   []Pattern{{1, 1, 1, 1, 1}},
			betPerLine: 1_000_000,
			validate: func(t *testing.T, wins []WinningLine) {
				if len(wins) != 0 {
					t.Fatalf("expected no wins, got %d", len(wins))
				}
			},
		},
		{
			name:       "multiple patterns win independently",
			gridStr:    "AAAAAAAAAAAAAAA",
			patterns:   DefaultPatterns,
			betPerLine: 1_000_000,
			validate: func(t *testing.T, wins []WinningLine) {
				if len(wins) != len(DefaultPatterns) {
					t.Fatalf("expected %d wins, got %d", len(DefaultPatterns), len(wins))
				}
				for _, w := range wins {
					if w.Payout != 10_000_000_000 {
						t.Errorf("payline %d: expected payout 10000000000, got %d", w.PaylineIndex, w.Payout)
					}
				}
			},
		},
		{
			name: "unpaid symbol yields no entry",
			// Middle row is all E which is absent from the paytable.
			gridStr:    "_E__E__E__E__E_",
			patterns:   []Pattern{{1, 1, 1, 1, 1}},
			betPerLine: 1_000_000,
			validate: func(t *testing.T, wins []WinningLine) {
				if len(wins) != 0 {
					t.Fatalf("expected no wins, got %d", len(wins))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustParse(t, tt.gridStr)

			wins, err := Evaluate(g, tt.patterns, DefaultPaytable, tt.betPerLine)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.validate(t, wins)
		})
	}
}

func TestEvaluateBadPattern(t *testing.T) {
	g := mustParse(t, "AAAAAAAAAAAAAAA")

	if _, err := Evaluate(g, []Pattern{{0, 0, 3, 0, 0}}, DefaultPaytable, 1); err == nil {
		t.Errorf("expected error for out-of-range row index")
	}
}

func TestDefaultPatternsShape(t *testing.T) {
	if len(DefaultPatterns) != 20 {
		t.Fatalf("expected 20 paylines, got %d", len(DefaultPatterns))
	}
	for i, p := range DefaultPatterns {
		for reel, row := range p {
			if row < 0 || row >= grid.Rows {
				t.Errorf("payline %d reel %d: row %d out of range", i, reel, row)
			}
		}
	}
}

func TestTotalPayout(t *testing.T) {
	lines := []WinningLine{{Payout: 100}, {Payout: 250}}
	if got := TotalPayout(lines); got != 350 {
		t.Errorf("expected 350, got %d", got)
	}
	if got := TotalPayout(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %d", got)
	}
}
