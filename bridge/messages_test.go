package bridge

import (
	"encoding/json"
	"testing"

	"github.com/house-of-voi/hov-engine/errors"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		validate func(t *testing.T, cmd Command)
	}{
		{
			name:  "spin request",
			input: `{"namespace":"hov","type":"SPIN_REQUEST","payload":{"betPerLine":2000000,"paylines":20}}`,
			validate: func(t *testing.T, cmd Command) {
				if cmd.SpinRequest == nil {
					t.Fatalf("expected spin request variant")
				}
				if cmd.SpinRequest.BetPerLine != 2_000_000 || cmd.SpinRequest.Paylines != 20 {
					t.Errorf("unexpected payload: %+v", cmd.SpinRequest)
				}
			},
		},
		{
			name:  "abandon spin",
			input: `{"namespace":"hov","type":"ABANDON_SPIN","payload":{"spinId":"abc"}}`,
			validate: func(t *testing.T, cmd Command) {
				if cmd.AbandonSpin == nil || cmd.AbandonSpin.SpinID != "abc" {
					t.Errorf("unexpected payload: %+v", cmd.AbandonSpin)
				}
			},
		},
		{
			name:  "payload-free command",
			input: `{"namespace":"hov","type":"GET_QUEUE"}`,
			validate: func(t *testing.T, cmd Command) {
				if cmd.Type != TypeGetQueue {
					t.Errorf("unexpected type %s", cmd.Type)
				}
			},
		},
		{
			name:    "abandon without spin id",
			input:   `{"namespace":"hov","type":"ABANDON_SPIN","payload":{}}`,
			wantErr: true,
		},
		{
			name:    "unknown type",
			input:   `{"namespace":"hov","type":"DO_SOMETHING"}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			input:   `{{{`,
			wantErr: true,
		},
		{
			name:    "malformed spin payload",
			input:   `{"namespace":"hov","type":"SPIN_REQUEST","payload":"nope"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.input))

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error but got none")
				}
				if !errors.HasCode(err, errors.ErrBridgeProtocol) {
					t.Errorf("expected bridge protocol code, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, cmd)
			}
		})
	}
}

func TestParseCommandOutOfNamespace(t *testing.T) {
	_, err := ParseCommand([]byte(`{"namespace":"casino","type":"SPIN_REQUEST","payload":{}}`))
	if err != ErrOutOfNamespace {
		t.Fatalf("expected ErrOutOfNamespace, got %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Encode(Event{Type: TypeBalance, Balance: &BalanceEvent{MicroVOI: 42}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if env.Namespace != Namespace || env.Type != TypeBalance {
		t.Errorf("unexpected envelope: %+v", env)
	}

	var e Event
	if err := json.Unmarshal(env.Payload, &e); err != nil {
		t.Fatalf("payload unmarshal failed: %v", err)
	}
	if e.Balance == nil || e.Balance.MicroVOI != 42 {
		t.Errorf("unexpected event payload: %+v", e)
	}
}
