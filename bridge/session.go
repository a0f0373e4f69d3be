package bridge

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// SessionConfig tunes one WebSocket session.
type SessionConfig struct {
	SpinExpiry    time.Duration
	SweepInterval time.Duration
	Logger        zerolog.Logger
}

// Session pumps bridge messages over one WebSocket connection. Reads
// and writes each run on their own goroutine; the bridge emits events
// into the session's send queue.
type Session struct {
	conn   *websocket.Conn
	bridge *Bridge
	cfg    SessionConfig
	send   chan []byte
	logger zerolog.Logger
}

// NewSession wraps an upgraded connection. The caller builds the
// bridge with Config.Send pointing at the returned session's Emit.
func NewSession(conn *websocket.Conn, cfg SessionConfig) *Session {
	return &Session{
		conn:   conn,
		cfg:    cfg,
		send:   make(chan []byte, sendBuffer),
		logger: cfg.Logger.With().Str("component", "bridge-session").Logger(),
	}
}

// Attach binds the bridge whose events this session transports.
func (s *Session) Attach(b *Bridge) {
	s.bridge = b
}

// Emit queues an event for delivery. Slow clients get dropped frames
// rather than blocking the bridge.
func (s *Session) Emit(e Event) {
	data, err := Encode(e)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode event")
		return
	}
	select {
	case s.send <- data:
	default:
		s.logger.Warn().Str("type", string(e.Type)).Msg("Send buffer full, dropping event")
	}
}

// Run drives the session until the connection closes or ctx is
// cancelled.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.writePump(ctx, cancel)
	go s.sweepLoop(ctx)
	s.readPump(ctx, cancel)
}

func (s *Session) readPump(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("Unexpected connection close")
			}
			return
		}
		s.bridge.HandleMessage(ctx, data)
	}
}

func (s *Session) writePump(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug().Err(err).Msg("Write failed, closing session")
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) sweepLoop(ctx context.Context) {
	interval := s.cfg.SweepInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	expiry := s.cfg.SpinExpiry
	if expiry <= 0 {
		expiry = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.bridge.ExpireOverdue(expiry)
		}
	}
}
