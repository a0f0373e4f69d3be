// Package grid implements the 5x3 symbol grid and its deterministic
// derivation from a block seed and bet key, mirroring the contract RNG.
package grid

import (
	"strings"

	"github.com/house-of-voi/hov-engine/errors"
)

const (
	// Reels is the number of reels (columns) on every grid.
	Reels = 5
	// Rows is the number of visible rows per reel.
	Rows = 3
	// Cells is the total number of visible symbols.
	Cells = Reels * Rows
)

// Symbol is a single-character symbol token. The vocabulary is '0'-'9',
// 'A'-'F' and '_' (blank); which subset is in play depends on the machine
// variant.
type Symbol byte

// Blank marks an empty cell on the 5-reel payline variant.
const Blank Symbol = '_'

// Valid reports whether the token belongs to the symbol vocabulary.
func (s Symbol) Valid() bool {
	switch {
	case s >= '0' && s <= '9':
		return true
	case s >= 'A' && s <= 'F':
		return true
	case s == Blank:
		return true
	}
	return false
}

// Grid is a reel-major 5x3 symbol matrix. Grids are value types and are
// never mutated after generation.
type Grid [Reels][Rows]Symbol

// String serializes the grid in column-major order: each reel's rows top
// to bottom, reels left to right, 15 characters total.
func (g Grid) String() string {
	var b strings.Builder
	b.Grow(Cells)
	for reel := 0; reel < Reels; reel++ {
		for row := 0; row < Rows; row++ {
			b.WriteByte(byte(g[reel][row]))
		}
	}
	return b.String()
}

// Parse decodes a 15-character column-major grid string.
// Returns a format error for wrong length or unknown symbol tokens.
func Parse(s string) (Grid, error) {
	var g Grid
	if len(s) != Cells {
		return g, errors.Newf(errors.ErrFormat, "grid string must be %d characters, got %d", Cells, len(s))
	}
	for i := 0; i < Cells; i++ {
		sym := Symbol(s[i])
		if !sym.Valid() {
			return g, errors.Newf(errors.ErrFormat, "invalid symbol %q at position %d", s[i], i)
		}
		g[i/Rows][i%Rows] = sym
	}
	return g, nil
}

// CountSymbol returns the number of cells holding the given symbol,
// anywhere on the grid.
func (g Grid) CountSymbol(target Symbol) int {
	count := 0
	for reel := 0; reel < Reels; reel++ {
		for row := 0; row < Rows; row++ {
			if g[reel][row] == target {
				count++
			}
		}
	}
	return count
}
