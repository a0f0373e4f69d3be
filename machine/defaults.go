package machine

import (
	"strings"

	"github.com/house-of-voi/hov-engine/grid"
	"github.com/house-of-voi/hov-engine/validation"
)

// Base strip segments, repeated to fill the 100-symbol reels the
// shipped contracts use.
const (
	paylineStripBase = "AABBCCDD__ABCD_ABCD_"
	waysStripBase    = "0123456789A1B2C3D4EF"
)

func repeatedStrip(base string) string {
	perReel := strings.Repeat(base, grid.DefaultReelLength/len(base))
	return strings.Repeat(perReel, grid.Reels)
}

func defaultFees() validation.FeeSchedule {
	return validation.FeeSchedule{
		SpinCost:   30_000,
		BoxCost:    14_500,
		NetworkFee: 5_000,
		Buffer:     1_000,
	}
}

// Default5Reel is the shipped 20-payline machine.
func Default5Reel() *Machine {
	return &Machine{
		ID:           "5reel-classic",
		Name:         "Classic 5-Reel",
		Variant:      VariantPaylines,
		ReelData:     repeatedStrip(paylineStripBase),
		ReelLength:   grid.DefaultReelLength,
		WindowLength: grid.DefaultWindowLength,
		Limits: validation.BetLimits{
			MinBet:      1_000_000,
			MaxBet:      20_000_000,
			MaxPaylines: 20,
			MaxTotalBet: 400_000_000,
		},
		Fees:               defaultFees(),
		MinContractBalance: 1_000_000_000,
	}
}

// DefaultW2W is the shipped ways-to-win machine with the progressive
// jackpot.
func DefaultW2W() *Machine {
	return &Machine{
		ID:           "w2w-buffalo",
		Name:         "Buffalo Ways",
		Variant:      VariantWays,
		ReelData:     repeatedStrip(waysStripBase),
		ReelLength:   grid.DefaultReelLength,
		WindowLength: grid.DefaultWindowLength,
		Limits: validation.BetLimits{
			MinBet:      1_000_000,
			MaxBet:      20_000_000,
			MaxPaylines: 1,
			MaxTotalBet: 20_000_000,
		},
		Fees:               defaultFees(),
		MinContractBalance: 1_000_000_000,
		JackpotResetValue:  100_000_000,
	}
}

// DefaultRegistry holds the shipped machines; used when no machine
// directory is configured.
func DefaultRegistry() *Registry {
	r, err := NewRegistry([]*Machine{Default5Reel(), DefaultW2W()})
	if err != nil {
		panic(err)
	}
	return r
}
