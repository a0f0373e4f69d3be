package server

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/house-of-voi/hov-engine/errors"
	"github.com/house-of-voi/hov-engine/verify"
)

// VerifyHandler replays claimed spin outcomes from public chain inputs
// and returns the fairness certificate.
type VerifyHandler struct {
	app    *App
	logger zerolog.Logger
}

// NewVerifyHandler creates a verify handler.
func NewVerifyHandler(app *App) *VerifyHandler {
	return &VerifyHandler{
		app:    app,
		logger: app.logger.With().Str("handler", "verify").Logger(),
	}
}

// VerifyRequest carries one claimed outcome and the public inputs that
// fixed it.
type VerifyRequest struct {
	Grid         string `json:"grid" binding:"required"`
	TotalPayout  uint64 `json:"totalPayout"`
	BlockSeed    string `json:"blockSeed" binding:"required"`
	BetKey       string `json:"betKey" binding:"required"`
	BonusRound   bool   `json:"bonusRound"`
	JackpotValue uint64 `json:"jackpotValue"`
}

// Verify recomputes the grid and payout for a machine and compares
// them cell by cell against the claim. A disagreeing replay is a 200
// with Valid=false and mismatch detail; only malformed inputs fail.
// Route: POST /api/engine/machines/:machine_id/verify
func (h *VerifyHandler) Verify(c *gin.Context) {
	m, err := h.app.machines.Get(c.Param("machine_id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.Wrap(err, errors.ErrInvalidRequest, "malformed verification request"))
		return
	}

	cert, err := verify.VerifySpinOutcome(
		verify.Claim{GridString: req.Grid, TotalPayout: req.TotalPayout},
		req.BlockSeed,
		req.BetKey,
		m.VerifyParams(req.BonusRound, req.JackpotValue),
	)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	if h.app.auditProvider != nil {
		h.app.auditProvider.OutcomeVerified(m.ID, cert)
	}

	if !cert.Valid {
		h.logger.Warn().
			Str("machine_id", m.ID).
			Str("bet_key", cert.BetKeyHex).
			Int("mismatches", len(cert.Mismatches)).
			Msg("Verification mismatch")
	}

	OK(c, cert)
}
