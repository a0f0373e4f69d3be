// Package betkey implements the 56-byte bet key codec.
//
// A bet key binds a player address, bet amount, payline cap and player
// index to a single spin. It is produced by the wallet/contract layer and
// consumed here for grid derivation and verification. Wire format is a
// 112-character hex string over a fixed byte layout:
//
//	[0:32]  player address
//	[32:40] bet amount, big-endian uint64 (microVOI)
//	[40:48] max payline index, big-endian uint64
//	[48:56] player index, big-endian uint64
package betkey

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/house-of-voi/hov-engine/errors"
)

const (
	// Size is the bet key length in bytes.
	Size = 56
	// HexLength is the bet key length in hex characters.
	HexLength = Size * 2

	addressEnd = 32
	amountEnd  = 40
	paylineEnd = 48
)

// BetKey is an immutable 56-byte bet key.
type BetKey [Size]byte

// Parse decodes a 112-character hex string into a BetKey.
// Returns a format error when the length is wrong or a non-hex
// character is present. Input is never coerced.
func Parse(s string) (BetKey, error) {
	var k BetKey
	if len(s) != HexLength {
		return k, errors.Newf(errors.ErrFormat, "bet key must be %d hex characters, got %d", HexLength, len(s))
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return k, errors.Wrap(err, errors.ErrFormat, "bet key contains non-hex characters")
	}
	copy(k[:], decoded)
	return k, nil
}

// FromBytes builds a BetKey from a raw 56-byte slice.
func FromBytes(b []byte) (BetKey, error) {
	var k BetKey
	if len(b) != Size {
		return k, errors.Newf(errors.ErrFormat, "bet key must be %d bytes, got %d", Size, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// New assembles a BetKey from its fields.
func New(address [32]byte, amount, maxPaylineIndex, playerIndex uint64) BetKey {
	var k BetKey
	copy(k[:addressEnd], address[:])
	binary.BigEndian.PutUint64(k[addressEnd:amountEnd], amount)
	binary.BigEndian.PutUint64(k[amountEnd:paylineEnd], maxPaylineIndex)
	binary.BigEndian.PutUint64(k[paylineEnd:], playerIndex)
	return k
}

// Hex encodes the key as a 112-character lowercase hex string.
func (k BetKey) Hex() string {
	return hex.EncodeToString(k[:])
}

// Bytes returns a copy of the raw key bytes.
func (k BetKey) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, k[:])
	return out
}

// Address returns the 32-byte player address.
func (k BetKey) Address() [32]byte {
	var addr [32]byte
	copy(addr[:], k[:addressEnd])
	return addr
}

// Amount returns the bet amount in microVOI.
func (k BetKey) Amount() uint64 {
	return binary.BigEndian.Uint64(k[addressEnd:amountEnd])
}

// MaxPaylineIndex returns the highest payline index covered by the bet.
func (k BetKey) MaxPaylineIndex() uint64 {
	return binary.BigEndian.Uint64(k[amountEnd:paylineEnd])
}

// PlayerIndex returns the player index.
func (k BetKey) PlayerIndex() uint64 {
	return binary.BigEndian.Uint64(k[paylineEnd:])
}

// Paylines returns the number of paylines the bet covers.
func (k BetKey) Paylines() uint64 {
	return k.MaxPaylineIndex() + 1
}
