package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/house-of-voi/hov-engine/auth"
	"github.com/house-of-voi/hov-engine/bridge"
	"github.com/house-of-voi/hov-engine/errors"
)

// BridgeHandler issues session tokens and runs WebSocket bridge
// sessions between game clients and the engine.
type BridgeHandler struct {
	app      *App
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// NewBridgeHandler creates a bridge handler.
func NewBridgeHandler(app *App) *BridgeHandler {
	return &BridgeHandler{
		app:    app,
		logger: app.logger.With().Str("handler", "bridge").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

type createSessionRequest struct {
	Address string `json:"address" binding:"required"`
}

type createSessionResponse struct {
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateSession issues a signed session token for one player address.
// Route: POST /api/sessions
func (h *BridgeHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.Wrap(err, errors.ErrInvalidRequest, "address is required"))
		return
	}

	sessionID := uuid.NewString()
	expiration := h.app.config.JWT.Expiration
	token, err := auth.GenerateToken(h.app.config.JWT.Secret, req.Address, sessionID, expiration)
	if err != nil {
		InternalError(c, errors.Wrap(err, errors.ErrInternalServerError, "failed to sign session token"))
		return
	}

	h.logger.Info().
		Str("session_id", sessionID).
		Str("address", req.Address).
		Msg("Session created")

	Created(c, createSessionResponse{
		SessionID: sessionID,
		Token:     token,
		ExpiresAt: time.Now().Add(expiration),
	})
}

// Connect upgrades the request to a WebSocket and runs a bridge
// session against the requested machine until the client disconnects.
// Route: GET /api/engine/machines/:machine_id/bridge
func (h *BridgeHandler) Connect(c *gin.Context) {
	claims, ok := auth.GetClaims(c)
	if !ok {
		ErrorWithMessage(c, http.StatusUnauthorized, "session claims missing")
		return
	}

	m, err := h.app.machines.Get(c.Param("machine_id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}

	session := bridge.NewSession(conn, bridge.SessionConfig{
		SpinExpiry:    h.app.config.Bridge.SpinExpiry,
		SweepInterval: h.app.config.Bridge.SweepInterval,
		Logger:        h.logger,
	})

	cfg := bridge.Config{
		Machine:      m,
		Submitter:    h.app.submitterFor(claims.Address),
		Seeds:        h.app.seeds,
		Confirmation: h.app.config.Chain.Confirmation,
		Jackpot:      h.app.jackpotService,
		SessionID:    claims.SessionID,
		Address:      claims.Address,
		Logger:       h.logger,
		Send:         session.Emit,
	}
	if h.app.walletProvider != nil {
		cfg.Wallet = h.app.walletProvider
		appID := m.AppID
		cfg.ContractBalance = func(ctx context.Context) (uint64, error) {
			return h.app.walletProvider.GetContractBalance(ctx, appID)
		}
	}
	if h.app.auditProvider != nil {
		cfg.Audit = h.app.auditProvider
	}

	b := bridge.New(cfg)
	session.Attach(b)

	if h.app.stateProvider != nil {
		if stored, err := h.app.stateProvider.LoadQueue(c.Request.Context(), claims.SessionID); err != nil {
			h.logger.Warn().Err(err).Str("session_id", claims.SessionID).Msg("Could not restore queue snapshot")
		} else if len(stored) > 0 {
			b.Queue().Restore(stored)
		}
	}

	h.logger.Info().
		Str("session_id", claims.SessionID).
		Str("machine_id", m.ID).
		Msg("Bridge session opened")

	session.Run(c.Request.Context())

	if h.app.stateProvider != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.app.stateProvider.SaveQueue(saveCtx, claims.SessionID, b.Queue().Snapshot()); err != nil {
			h.logger.Error().Err(err).Str("session_id", claims.SessionID).Msg("Could not persist queue snapshot")
		}
	}

	h.logger.Info().
		Str("session_id", claims.SessionID).
		Msg("Bridge session closed")
}

// GetStoredQueue returns the persisted queue snapshot for the calling
// session, letting a reconnecting client render state before the
// bridge reopens.
// Route: GET /api/engine/queue
func (h *BridgeHandler) GetStoredQueue(c *gin.Context) {
	sessionID, ok := auth.GetSessionID(c)
	if !ok {
		ErrorWithMessage(c, http.StatusUnauthorized, "session claims missing")
		return
	}
	if h.app.stateProvider == nil {
		ErrorWithMessage(c, http.StatusServiceUnavailable, "queue persistence is not configured")
		return
	}

	spins, err := h.app.stateProvider.LoadQueue(c.Request.Context(), sessionID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, gin.H{"spins": spins})
}
