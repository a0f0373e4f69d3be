package machine

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/house-of-voi/hov-engine/errors"
	"github.com/house-of-voi/hov-engine/grid"
)

const testMachineYAML = `id: test-w2w
name: Test Ways Machine
variant: ways
app_id: 40879920
reel_data: "%s"
limits:
  min_bet: 1000000
  max_bet: 20000000
  max_total_bet: 20000000
fees:
  spin_cost: 30000
  box_cost: 14500
  network_fee: 5000
  buffer: 1000
min_contract_balance: 1000000000
paytable:
  "0":
    "3": 68
    "4": 340
    "5": 1700
`

func writeMachineFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "machine.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write machine file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	reelData := repeatedStrip(waysStripBase)
	path := writeMachineFile(t, fmt.Sprintf(testMachineYAML, reelData))

	m, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if m.ID != "test-w2w" {
		t.Errorf("expected id test-w2w, got %s", m.ID)
	}
	if m.Variant != VariantWays {
		t.Errorf("expected ways variant, got %s", m.Variant)
	}
	if m.ReelLength != grid.DefaultReelLength {
		t.Errorf("expected default reel length, got %d", m.ReelLength)
	}
	if m.Fees.Total() != 50_500 {
		t.Errorf("expected total fee 50500, got %d", m.Fees.Total())
	}
	if got := m.WaysPaytable().BasePayout('0', 3); got != 68 {
		t.Errorf("expected configured base payout 68, got %d", got)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "unknown variant",
			content: "id: bad\nvariant: roulette\nreel_data: \"" + repeatedStrip(waysStripBase) + "\"\nlimits:\n  min_bet: 1\n  max_bet: 2\n",
		},
		{
			name:    "short reel data",
			content: "id: bad\nvariant: ways\nreel_data: \"0123456789\"\nlimits:\n  min_bet: 1\n  max_bet: 2\n",
		},
		{
			name:    "missing id",
			content: "variant: ways\nreel_data: \"" + repeatedStrip(waysStripBase) + "\"\nlimits:\n  min_bet: 1\n  max_bet: 2\n",
		},
		{
			name:    "inverted bet limits",
			content: "id: bad\nvariant: ways\nreel_data: \"" + repeatedStrip(waysStripBase) + "\"\nlimits:\n  min_bet: 10\n  max_bet: 2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeMachineFile(t, tt.content)
			if _, err := Load(path); !errors.HasCode(err, errors.ErrConfig) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}

func TestDefaultMachinesAreValid(t *testing.T) {
	for _, m := range []*Machine{Default5Reel(), DefaultW2W()} {
		if err := m.Validate(); err != nil {
			t.Errorf("default machine %s invalid: %v", m.ID, err)
		}
	}
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()

	m, err := reg.Get("w2w-buffalo")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if m.Variant != VariantWays {
		t.Errorf("expected ways variant, got %s", m.Variant)
	}

	if _, err := reg.Get("missing"); !errors.HasCode(err, errors.ErrMachineNotFound) {
		t.Errorf("expected machine-not-found, got %v", err)
	}

	if ids := reg.IDs(); len(ids) != 2 {
		t.Errorf("expected 2 machines, got %v", ids)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	if _, err := NewRegistry([]*Machine{Default5Reel(), Default5Reel()}); !errors.HasCode(err, errors.ErrConfig) {
		t.Errorf("expected config error for duplicate ids, got %v", err)
	}
}

func TestVerifyParams(t *testing.T) {
	m := Default5Reel()
	p := m.VerifyParams(false, 0)
	if p.Variant != VariantPaylines {
		t.Errorf("expected paylines variant, got %s", p.Variant)
	}
	if len(p.Patterns) != 20 {
		t.Errorf("expected 20 patterns, got %d", len(p.Patterns))
	}

	w := DefaultW2W()
	p = w.VerifyParams(true, 500)
	if !p.BonusRound || p.JackpotValue != 500 {
		t.Errorf("bonus/jackpot inputs not carried: %+v", p)
	}
	if p.WaysPaytable == nil {
		t.Errorf("expected a ways paytable")
	}
}
