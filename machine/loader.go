package machine

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/house-of-voi/hov-engine/errors"
	"github.com/house-of-voi/hov-engine/grid"
	"github.com/house-of-voi/hov-engine/validation"
)

// Load reads one machine definition from a YAML file.
func Load(filename string) (*Machine, error) {
	v := viper.New()

	v.SetConfigFile(filename)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfig, "failed to read machine file %s", filename)
	}

	var m Machine
	if err := v.Unmarshal(&m); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfig, "failed to unmarshal machine file %s", filename)
	}

	m.setDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadDir loads every *.yaml machine definition in a directory.
func LoadDir(dir string) ([]*Machine, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfig, "failed to read machine directory %s", dir)
	}

	machines := make([]*Machine, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		m, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		machines = append(machines, m)
	}
	return machines, nil
}

func (m *Machine) setDefaults() {
	if m.ReelLength == 0 {
		m.ReelLength = grid.DefaultReelLength
	}
	if m.WindowLength == 0 {
		m.WindowLength = grid.DefaultWindowLength
	}
	if m.Limits.MaxPaylines == 0 && m.Variant == VariantPaylines {
		m.Limits.MaxPaylines = 20
	}
	if m.Limits.MaxPaylines == 0 && m.Variant == VariantWays {
		m.Limits.MaxPaylines = 1
	}
	if m.Fees == (validation.FeeSchedule{}) {
		m.Fees = validation.FeeSchedule{
			SpinCost:   30_000,
			BoxCost:    14_500,
			NetworkFee: 5_000,
			Buffer:     1_000,
		}
	}
}

// Registry is an immutable machine lookup built at startup.
type Registry struct {
	byID map[string]*Machine
	ids  []string
}

// NewRegistry indexes machines by id. Duplicate ids are a config
// error.
func NewRegistry(machines []*Machine) (*Registry, error) {
	byID := make(map[string]*Machine, len(machines))
	for _, m := range machines {
		if _, exists := byID[m.ID]; exists {
			return nil, errors.Newf(errors.ErrConfig, "duplicate machine id %s", m.ID)
		}
		byID[m.ID] = m
	}
	ids := lo.Map(machines, func(m *Machine, _ int) string { return m.ID })
	return &Registry{byID: byID, ids: ids}, nil
}

// Get returns the machine with the given id.
func (r *Registry) Get(id string) (*Machine, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, errors.Newf(errors.ErrMachineNotFound, "machine %s not found", id)
	}
	return m, nil
}

// IDs returns machine ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// All returns every registered machine in registration order.
func (r *Registry) All() []*Machine {
	return lo.Map(r.ids, func(id string, _ int) *Machine { return r.byID[id] })
}
