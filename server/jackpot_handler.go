package server

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/house-of-voi/hov-engine/pkg/jackpot"
)

const (
	EventTypeConnected = "connected"
	EventTypeUpdated   = "updated"
	EventTypeHeartbeat = "heartbeat"
)

// JackpotHandler bridges jackpot.Service to HTTP routes (SSE + WebSocket).
type JackpotHandler struct {
	svc             *jackpot.Service
	app             *App
	logger          zerolog.Logger
	heartbeatPeriod time.Duration
	upgrader        websocket.Upgrader
}

// NewJackpotHandler creates a jackpot handler.
func NewJackpotHandler(app *App, svc *jackpot.Service) *JackpotHandler {
	return &JackpotHandler{
		svc:             svc,
		app:             app,
		logger:          app.logger.With().Str("handler", "jackpot").Logger(),
		heartbeatPeriod: 30 * time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// StreamResponse is one frame pushed to a jackpot stream client.
type StreamResponse struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	MachineID string `json:"machineId,omitempty"`
	Value     uint64 `json:"value,omitempty"`
	Hit       bool   `json:"hit,omitempty"`
}

// Current returns the machine's current pool value.
// Route: GET /api/engine/machines/:machine_id/jackpot
func (h *JackpotHandler) Current(c *gin.Context) {
	m, err := h.app.machines.Get(c.Param("machine_id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	value, err := h.svc.CurrentValue(c.Request.Context(), m.ID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, gin.H{"machineId": m.ID, "value": value})
}

// StreamUpdates opens an SSE connection and streams pool updates for
// one machine.
// Route: GET /api/engine/machines/:machine_id/jackpot/updates
func (h *JackpotHandler) StreamUpdates(c *gin.Context) {
	m, err := h.app.machines.Get(c.Param("machine_id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	sender := &sseSender{writer: c.Writer}
	h.streamUpdates(c.Request.Context(), m.ID, sender)
}

// StreamUpdatesWebSocket opens a WebSocket connection and streams pool
// updates for one machine.
// Route: GET /api/engine/machines/:machine_id/jackpot/updates/ws
func (h *JackpotHandler) StreamUpdatesWebSocket(c *gin.Context) {
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
	defer conn.Close() //nolint:errcheck

	writeDeadline := 10 * time.Second
	conn.SetWriteDeadline(time.Now().Add(writeDeadline)) //nolint:errcheck

	done := make(chan struct{})

	// Detect connection close
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(10 * time.Minute)) //nolint:errcheck
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket connection closed unexpectedly")
			} else {
				h.logger.Debug().Err(err).Msg("WebSocket closed normally")
			}
		}
	}()

	// Send ping to keep connection alive
	pingTicker := time.NewTicker(30 * time.Second)
	go func() {
		defer pingTicker.Stop()
		for {
			select {
			case <-done:
				return
			case <-pingTicker.C:
				deadline := time.Now().Add(5 * time.Second)
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, deadline); err != nil {
					h.logger.Debug().Err(err).Msg("Failed to send ping")
					return
				}
			}
		}
	}()

	sender := &wsSender{
		conn:          conn,
		done:          done,
		logger:        h.logger,
		writeDeadline: writeDeadline,
	}
	h.streamUpdates(c.Request.Context(), m.ID, sender)
}

// streamUpdates handles the common streaming logic for both SSE and
// WebSocket.
func (h *JackpotHandler) streamUpdates(ctx context.Context, machineID string, sender messageSender) {
	updates, cancel := h.svc.Listen(ctx)
	defer cancel()

	if err := sender.Send(&StreamResponse{
		Type:      EventTypeConnected,
		Timestamp: time.Now().Unix(),
	}); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send connected event, stopping stream")
		return
	}

	// Send the current value so clients render without waiting for the
	// first contribution.
	if value, err := h.svc.CurrentValue(ctx, machineID); err == nil {
		if err := sender.Send(&StreamResponse{
			Type:      EventTypeUpdated,
			Timestamp: time.Now().Unix(),
			MachineID: machineID,
			Value:     value,
		}); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send initial pool value")
			return
		}
	} else {
		h.logger.Error().Err(err).Msg("Failed to get current pool value")
	}

	heartbeat := time.NewTicker(h.heartbeatPeriod)
	defer heartbeat.Stop()

	var doneChan <-chan struct{}
	if ws, ok := sender.(*wsSender); ok {
		doneChan = ws.done
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-doneChan:
			h.logger.Debug().Msg("WebSocket connection closed, stopping stream")
			return
		case <-heartbeat.C:
			if err := sender.Send(&StreamResponse{
				Type:      EventTypeHeartbeat,
				Timestamp: time.Now().Unix(),
			}); err != nil {
				h.logger.Warn().Err(err).Msg("Failed to send heartbeat, stopping stream")
				return
			}
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.MachineID != machineID {
				continue
			}
			if err := sender.Send(&StreamResponse{
				Type:      EventTypeUpdated,
				Timestamp: update.Timestamp.Unix(),
				MachineID: update.MachineID,
				Value:     update.Value,
				Hit:       update.Hit,
			}); err != nil {
				h.logger.Warn().Err(err).Msg("Failed to send update, stopping stream")
				return
			}
		}
	}
}

// messageSender interface for sending messages (SSE or WebSocket).
type messageSender interface {
	Send(*StreamResponse) error
}

// sseSender sends messages via SSE.
type sseSender struct {
	writer http.ResponseWriter
}

func (s *sseSender) Send(resp *StreamResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = s.writer.Write([]byte("data: " + string(payload) + "\n\n"))
	if err != nil {
		return err
	}
	s.writer.(http.Flusher).Flush()
	return nil
}

// wsSender sends messages via WebSocket.
type wsSender struct {
	conn          *websocket.Conn
	done          <-chan struct{}
	logger        zerolog.Logger
	writeDeadline time.Duration
}

func (s *wsSender) Send(resp *StreamResponse) error {
	select {
	case <-s.done:
		s.logger.Debug().Str("event_type", resp.Type).Msg("Connection already closed, skipping send")
		return io.EOF
	default:
	}

	deadline := time.Now().Add(s.writeDeadline)
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to set write deadline")
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", resp.Type).Msg("Failed to marshal response")
		return err
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		if goerrors.Is(err, io.EOF) || goerrors.Is(err, io.ErrUnexpectedEOF) {
			s.logger.Warn().Err(err).Str("event_type", resp.Type).Msg("WebSocket write failed: connection closed")
		} else {
			s.logger.Warn().Err(err).Str("event_type", resp.Type).Msg("WebSocket write failed")
		}
		return err
	}
	return nil
}
