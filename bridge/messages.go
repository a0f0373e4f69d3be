// Package bridge connects a game client to the engine over a typed
// message protocol. Inbound commands and outbound events are tagged
// variants inside a namespaced envelope; anything outside the
// namespace or an unknown variant is rejected at the boundary and
// never reaches the state machine.
package bridge

import (
	"encoding/json"

	"github.com/house-of-voi/hov-engine/errors"
	"github.com/house-of-voi/hov-engine/spin"
	"github.com/house-of-voi/hov-engine/verify"
)

// Namespace tags every engine bridge message.
const Namespace = "hov"

// MessageType discriminates envelope payloads.
type MessageType string

// Inbound command types.
const (
	TypeSpinRequest      MessageType = "SPIN_REQUEST"
	TypeGetBalance       MessageType = "GET_BALANCE"
	TypeGetCreditBalance MessageType = "GET_CREDIT_BALANCE"
	TypeAbandonSpin      MessageType = "ABANDON_SPIN"
	TypeClearQueue       MessageType = "CLEAR_QUEUE"
	TypeGetQueue         MessageType = "GET_QUEUE"
)

// Outbound event types.
const (
	TypeSpinAccepted  MessageType = "SPIN_ACCEPTED"
	TypeSpinOutcome   MessageType = "SPIN_OUTCOME"
	TypeBalance       MessageType = "BALANCE"
	TypeAccountLocked MessageType = "ACCOUNT_LOCKED"
	TypeError         MessageType = "ERROR"
	TypeQueue         MessageType = "QUEUE"
)

// Envelope is the wire frame for every bridge message.
type Envelope struct {
	Namespace string          `json:"namespace"`
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Command is an inbound request parsed into exactly one variant.
type Command struct {
	Type        MessageType
	SpinRequest *SpinRequest
	AbandonSpin *AbandonSpin
}

// SpinRequest asks the engine to start a spin.
type SpinRequest struct {
	BetPerLine uint64 `json:"betPerLine"`
	Paylines   uint64 `json:"paylines"`
}

// AbandonSpin cancels a pending, never-submitted spin.
type AbandonSpin struct {
	SpinID string `json:"spinId"`
}

// Event is an outbound message to the game client.
type Event struct {
	Type          MessageType         `json:"-"`
	SpinAccepted  *SpinAcceptedEvent  `json:"spinAccepted,omitempty"`
	SpinOutcome   *SpinOutcomeEvent   `json:"spinOutcome,omitempty"`
	Balance       *BalanceEvent       `json:"balance,omitempty"`
	AccountLocked *AccountLockedEvent `json:"accountLocked,omitempty"`
	Error         *ErrorEvent         `json:"error,omitempty"`
	Queue         *QueueEvent         `json:"queue,omitempty"`
}

// SpinAcceptedEvent acknowledges a validated, enqueued spin.
type SpinAcceptedEvent struct {
	SpinID   string   `json:"spinId"`
	Warnings []string `json:"warnings,omitempty"`
}

// SpinOutcomeEvent carries the verified outcome of a completed spin.
type SpinOutcomeEvent struct {
	SpinID      string             `json:"spinId"`
	Outcome     spin.Outcome       `json:"outcome"`
	Certificate verify.Certificate `json:"certificate"`
}

// BalanceEvent reports an account or credit balance.
type BalanceEvent struct {
	MicroVOI uint64 `json:"microVoi"`
	Credits  bool   `json:"credits"`
}

// AccountLockedEvent reports a wallet lock.
type AccountLockedEvent struct {
	Locked bool   `json:"locked"`
	Reason string `json:"reason,omitempty"`
}

// ErrorEvent reports a failure to the game client.
type ErrorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	SpinID  string `json:"spinId,omitempty"`
}

// QueueEvent is a snapshot of the session's spin queue.
type QueueEvent struct {
	Spins []spin.QueuedSpin `json:"spins"`
}

// ParseCommand decodes an envelope into a typed command. A message
// outside the bridge namespace returns ErrOutOfNamespace so the
// session can drop it silently; a malformed in-namespace message is a
// protocol error the caller reports.
func ParseCommand(data []byte) (Command, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Command{}, errors.Wrap(err, errors.ErrBridgeProtocol, "malformed envelope")
	}
	if env.Namespace != Namespace {
		return Command{}, ErrOutOfNamespace
	}

	cmd := Command{Type: env.Type}
	switch env.Type {
	case TypeSpinRequest:
		var req SpinRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return Command{}, errors.Wrap(err, errors.ErrBridgeProtocol, "malformed spin request")
		}
		cmd.SpinRequest = &req
	case TypeAbandonSpin:
		var ab AbandonSpin
		if err := json.Unmarshal(env.Payload, &ab); err != nil {
			return Command{}, errors.Wrap(err, errors.ErrBridgeProtocol, "malformed abandon request")
		}
		if ab.SpinID == "" {
			return Command{}, errors.New(errors.ErrBridgeProtocol, "abandon request missing spin id")
		}
		cmd.AbandonSpin = &ab
	case TypeGetBalance, TypeGetCreditBalance, TypeClearQueue, TypeGetQueue:
		// No payload.
	default:
		return Command{}, errors.Newf(errors.ErrBridgeProtocol, "unknown command type %q", env.Type)
	}
	return cmd, nil
}

// ErrOutOfNamespace marks messages that belong to another protocol
// sharing the transport. They are dropped, not answered.
var ErrOutOfNamespace = errors.New(errors.ErrBridgeProtocol, "message outside bridge namespace")

// Encode wraps an event in its envelope for the wire.
func Encode(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrBridgeProtocol, "failed to marshal event")
	}
	return json.Marshal(Envelope{
		Namespace: Namespace,
		Type:      e.Type,
		Payload:   payload,
	})
}
