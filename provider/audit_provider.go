package provider

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/house-of-voi/hov-engine/events/kafka"
	"github.com/house-of-voi/hov-engine/pkg/jackpot"
	"github.com/house-of-voi/hov-engine/verify"
)

// JackpotEvent converts a local pool update into its bus record.
func JackpotEvent(u jackpot.Update) kafka.JackpotUpdateEvent {
	return kafka.JackpotUpdateEvent{
		MachineID: u.MachineID,
		NewValue:  u.Value,
		Hit:       u.Hit,
		UpdatedAt: u.Timestamp,
	}
}

// Audit topics on the platform event bus.
const (
	TopicSpinOutcomes  = "engine.spin.outcomes"
	TopicVerifications = "engine.verifications"
	TopicJackpots      = "engine.jackpot.updates"
)

// SpinOutcomeEvent is the audit record for every resolved spin.
type SpinOutcomeEvent struct {
	SpinID      string    `json:"spin_id"`
	MachineID   string    `json:"machine_id"`
	SessionID   string    `json:"session_id"`
	BetAmount   uint64    `json:"bet_amount"`
	TotalPayout uint64    `json:"total_payout"`
	Status      string    `json:"status"`
	BlockNumber uint64    `json:"block_number"`
	Timestamp   time.Time `json:"timestamp"`
}

// VerificationEvent records every fairness check verdict.
type VerificationEvent struct {
	BetKeyHex  string    `json:"bet_key"`
	MachineID  string    `json:"machine_id"`
	Valid      bool      `json:"valid"`
	Mismatches int       `json:"mismatches"`
	Timestamp  time.Time `json:"timestamp"`
}

// AuditProvider publishes engine audit events. A nil producer
// disables publishing; every method becomes a no-op.
type AuditProvider struct {
	producer *kafka.Producer
	logger   zerolog.Logger
}

// NewAuditProvider creates an audit provider.
func NewAuditProvider(producer *kafka.Producer, logger zerolog.Logger) *AuditProvider {
	return &AuditProvider{
		producer: producer,
		logger:   logger.With().Str("component", "audit_provider").Logger(),
	}
}

// SpinResolved publishes the terminal record of a spin.
func (p *AuditProvider) SpinResolved(event SpinOutcomeEvent) {
	if p.producer == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := p.producer.SendMessage(TopicSpinOutcomes, event.SpinID, event); err != nil {
		p.logger.Error().Err(err).Str("spin_id", event.SpinID).Msg("Failed to publish spin outcome")
	}
}

// OutcomeVerified publishes a fairness certificate verdict.
func (p *AuditProvider) OutcomeVerified(machineID string, cert verify.Certificate) {
	if p.producer == nil {
		return
	}
	event := VerificationEvent{
		BetKeyHex:  cert.BetKeyHex,
		MachineID:  machineID,
		Valid:      cert.Valid,
		Mismatches: len(cert.Mismatches),
		Timestamp:  time.Now().UTC(),
	}
	if err := p.producer.SendMessage(TopicVerifications, cert.BetKeyHex, event); err != nil {
		p.logger.Error().Err(err).Msg("Failed to publish verification event")
	}
}

// JackpotMoved publishes a jackpot pool movement.
func (p *AuditProvider) JackpotMoved(event kafka.JackpotUpdateEvent) {
	if p.producer == nil {
		return
	}
	event.UpdatedAt = time.Now().UTC()
	if err := p.producer.SendMessage(TopicJackpots, event.MachineID, event); err != nil {
		p.logger.Error().Err(err).Str("machine_id", event.MachineID).Msg("Failed to publish jackpot update")
	}
}
