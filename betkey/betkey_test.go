package betkey

import (
	"strings"
	"testing"

	"github.com/house-of-voi/hov-engine/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		validate func(t *testing.T, k BetKey)
	}{
		{
			name:    "valid key round trips",
			input:   strings.Repeat("ab", Size),
			wantErr: false,
			validate: func(t *testing.T, k BetKey) {
				if k.Hex() != strings.Repeat("ab", Size) {
					t.Errorf("expected hex round trip, got %s", k.Hex())
				}
			},
		},
		{
			name:    "too short",
			input:   strings.Repeat("ab", Size-1),
			wantErr: true,
		},
		{
			name:    "too long",
			input:   strings.Repeat("ab", Size+1),
			wantErr: true,
		},
		{
			name:    "non-hex characters",
			input:   "zz" + strings.Repeat("0", HexLength-2),
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := Parse(tt.input)

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
			if tt.validate != nil {
				tt.validate(t, k)
			}
		})
	}
}

func TestFieldExtraction(t *testing.T) {
	var addr [32]byte
	for i := range addr {
		addr[i] = byte(i)
	}

	k := New(addr, 5_000_000, 19, 42)

	if got := k.Address(); got != addr {
		t.Errorf("address mismatch: got %x", got)
	}
	if got := k.Amount(); got != 5_000_000 {
		t.Errorf("expected amount 5000000, got %d", got)
	}
	if got := k.MaxPaylineIndex(); got != 19 {
		t.Errorf("expected max payline index 19, got %d", got)
	}
	if got := k.PlayerIndex(); got != 42 {
		t.Errorf("expected player index 42, got %d", got)
	}
	if got := k.Paylines(); got != 20 {
		t.Errorf("expected 20 paylines, got %d", got)
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	var addr [32]byte
	copy(addr[:], []byte("player-address-for-round-trip-00"))

	original := New(addr, 1_000_000, 9, 7)

	parsed, err := Parse(original.Hex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != original {
		t.Errorf("round trip mismatch: %x != %x", parsed, original)
	}
}

func TestFromBytes(t *testing.T) {
	raw := make([]byte, Size)
	raw[0] = 0xff

	k, err := FromBytes(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k[0] != 0xff {
		t.Errorf("expected first byte 0xff, got %x", k[0])
	}

	if _, err := FromBytes(raw[:Size-1]); err == nil {
		t.Errorf("expected error for short input")
	}
}
