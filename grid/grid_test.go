package grid

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/house-of-voi/hov-engine/betkey"
	"github.com/house-of-voi/hov-engine/errors"
)

// testReelData builds five identical 100-symbol strips.
func testReelData() string {
	return strings.Repeat(strings.Repeat("ABCD_", 20), Reels)
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "all same symbol", input: strings.Repeat("A", Cells)},
		{name: "mixed vocabulary", input: "012ABCDEF_34567"},
		{name: "too short", input: strings.Repeat("A", Cells-1), wantErr: true},
		{name: "too long", input: strings.Repeat("A", Cells+1), wantErr: true},
		{name: "invalid token", input: "Z" + strings.Repeat("A", Cells-1), wantErr: true},
		{name: "lowercase rejected", input: strings.Repeat("a", Cells), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error but got none")
				}
				if !errors.HasCode(err, errors.ErrFormat) {
					t.Errorf("expected format error code, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if g.String() != tt.input {
				t.Errorf("round trip mismatch: got %s, want %s", g.String(), tt.input)
			}
		})
	}
}

func TestGenerateFromSeedPositions(t *testing.T) {
	reelData := testReelData()

	// Seed placing reel 0 at position 0 and reel 1 at position 98 so its
	// window wraps around the strip boundary.
	seed := make([]byte, SeedSize)
	binary.BigEndian.PutUint32(seed[0:4], 0)
	binary.BigEndian.PutUint32(seed[4:8], 98)

	g, err := GenerateFromSeed(seed, reelData, DefaultReelLength, DefaultWindowLength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Strip is "ABCD_" repeated; position 0 reads "ABC".
	if g[0][0] != 'A' || g[0][1] != 'B' || g[0][2] != 'C' {
		t.Errorf("reel 0 window mismatch: got %c%c%c", g[0][0], g[0][1], g[0][2])
	}
	// Position 98 reads strip[98], strip[99], strip[0] = "D_A".
	if g[1][0] != 'D' || g[1][1] != '_' || g[1][2] != 'A' {
		t.Errorf("reel 1 wrap mismatch: got %c%c%c", g[1][0], g[1][1], g[1][2])
	}
}

func TestGenerateFromSeedValidation(t *testing.T) {
	reelData := testReelData()
	seed := make([]byte, SeedSize)

	if _, err := GenerateFromSeed(seed[:16], reelData, DefaultReelLength, DefaultWindowLength); err == nil {
		t.Errorf("expected error for short seed")
	}
	if _, err := GenerateFromSeed(seed, reelData[:100], DefaultReelLength, DefaultWindowLength); err == nil {
		t.Errorf("expected error for short reel data")
	}
	if _, err := GenerateFromSeed(seed, reelData, DefaultReelLength, 4); err == nil {
		t.Errorf("expected error for wrong window length")
	}
}

func TestGenerateFromBetKeyDeterminism(t *testing.T) {
	reelData := testReelData()
	blockSeed := []byte("block-seed-from-confirmed-round!")

	var addr [32]byte
	copy(addr[:], []byte("determinism-test-player-address!"))
	key := betkey.New(addr, 2_000_000, 19, 1)

	first, err := GenerateFromBetKey(blockSeed, key, reelData, DefaultReelLength, DefaultWindowLength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := GenerateFromBetKey(blockSeed, key, reelData, DefaultReelLength, DefaultWindowLength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Errorf("identical inputs produced different grids: %s != %s", first, second)
	}
}

func TestGenerateFromBetKeyInputSensitivity(t *testing.T) {
	reelData := testReelData()
	blockSeed := []byte("block-seed-from-confirmed-round!")

	var addr [32]byte
	key := betkey.New(addr, 2_000_000, 19, 1)
	other := betkey.New(addr, 2_000_000, 19, 2)

	a, err := GenerateFromBetKey(blockSeed, key, reelData, DefaultReelLength, DefaultWindowLength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := GenerateFromBetKey(blockSeed, other, reelData, DefaultReelLength, DefaultWindowLength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a == b {
		t.Errorf("different bet keys produced identical grids")
	}
}

func TestCountSymbol(t *testing.T) {
	g, err := Parse("EAAEA" + "AAAAA" + "EAAAA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := g.CountSymbol('E'); got != 3 {
		t.Errorf("expected 3 scatters, got %d", got)
	}
	if got := g.CountSymbol('F'); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
