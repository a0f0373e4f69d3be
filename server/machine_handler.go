package server

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/house-of-voi/hov-engine/machine"
	"github.com/house-of-voi/hov-engine/validation"
)

// MachineHandler exposes the machine registry.
type MachineHandler struct {
	app    *App
	logger zerolog.Logger
}

// NewMachineHandler creates a machine handler.
func NewMachineHandler(app *App) *MachineHandler {
	return &MachineHandler{
		app:    app,
		logger: app.logger.With().Str("handler", "machine").Logger(),
	}
}

// MachineSummary is the public view of one machine. Reel data stays
// out of the listing; clients fetch it from the detail endpoint when
// they need to verify outcomes locally.
type MachineSummary struct {
	ID      string               `json:"id"`
	Name    string               `json:"name"`
	Variant string               `json:"variant"`
	AppID   uint64               `json:"appId"`
	Limits  validation.BetLimits `json:"limits"`
}

// MachineDetail adds the replay parameters a verifying client needs.
type MachineDetail struct {
	MachineSummary
	ReelData     string                 `json:"reelData"`
	ReelLength   int                    `json:"reelLength"`
	WindowLength int                    `json:"windowLength"`
	Fees         validation.FeeSchedule `json:"fees"`
}

func summarize(m *machine.Machine) MachineSummary {
	return MachineSummary{
		ID:      m.ID,
		Name:    m.Name,
		Variant: m.Variant,
		AppID:   m.AppID,
		Limits:  m.Limits,
	}
}

// List returns every registered machine.
// Route: GET /api/engine/machines
func (h *MachineHandler) List(c *gin.Context) {
	summaries := lo.Map(h.app.machines.All(), func(m *machine.Machine, _ int) MachineSummary {
		return summarize(m)
	})
	OK(c, gin.H{"machines": summaries})
}

// Get returns one machine with its replay parameters.
// Route: GET /api/engine/machines/:machine_id
func (h *MachineHandler) Get(c *gin.Context) {
	m, err := h.app.machines.Get(c.Param("machine_id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	OK(c, MachineDetail{
		MachineSummary: summarize(m),
		ReelData:       m.ReelData,
		ReelLength:     m.ReelLength,
		WindowLength:   m.WindowLength,
		Fees:           m.Fees,
	})
}
