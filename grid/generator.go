package grid

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/house-of-voi/hov-engine/betkey"
	"github.com/house-of-voi/hov-engine/errors"
)

const (
	// SeedSize is the required seed length in bytes (a SHA-256 digest).
	SeedSize = sha256.Size
	// DefaultReelLength is the per-reel strip length used by the shipped
	// machine contracts.
	DefaultReelLength = 100
	// DefaultWindowLength is the visible window per reel.
	DefaultWindowLength = Rows
)

// GenerateFromSeed derives a grid from a 32-byte seed and the machine's
// reel data. For reel i, bytes [i*4, i*4+4) of the seed are read as a
// big-endian uint32 and reduced modulo reelLength to pick the reel-top
// position; windowLength consecutive symbols are then read from that
// reel's slice of reelData, wrapping at the reel boundary.
func GenerateFromSeed(seed []byte, reelData string, reelLength, windowLength int) (Grid, error) {
	var g Grid
	if len(seed) != SeedSize {
		return g, errors.Newf(errors.ErrFormat, "seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	if reelLength <= 0 {
		return g, errors.New(errors.ErrFormat, "reel length must be positive")
	}
	if windowLength != Rows {
		return g, errors.Newf(errors.ErrFormat, "window length must be %d, got %d", Rows, windowLength)
	}
	if len(reelData) != reelLength*Reels {
		return g, errors.Newf(errors.ErrFormat, "reel data must be %d characters, got %d", reelLength*Reels, len(reelData))
	}

	for reel := 0; reel < Reels; reel++ {
		raw := binary.BigEndian.Uint32(seed[reel*4 : reel*4+4])
		top := int(raw % uint32(reelLength))
		strip := reelData[reel*reelLength : (reel+1)*reelLength]

		for row := 0; row < windowLength; row++ {
			sym := Symbol(strip[(top+row)%reelLength])
			if !sym.Valid() {
				return Grid{}, errors.Newf(errors.ErrFormat, "reel %d holds invalid symbol %q", reel, strip[(top+row)%reelLength])
			}
			g[reel][row] = sym
		}
	}
	return g, nil
}

// GenerateFromBetKey derives the canonical grid for a spin. The seed is
// SHA-256 over blockSeed||betKey; the concatenation order and hash
// algorithm must match the contract exactly, otherwise the grid will
// never match on-chain results.
func GenerateFromBetKey(blockSeed []byte, key betkey.BetKey, reelData string, reelLength, windowLength int) (Grid, error) {
	buf := make([]byte, 0, len(blockSeed)+betkey.Size)
	buf = append(buf, blockSeed...)
	buf = append(buf, key[:]...)
	digest := sha256.Sum256(buf)
	return GenerateFromSeed(digest[:], reelData, reelLength, windowLength)
}
