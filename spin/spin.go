// Package spin holds the spin lifecycle types and the in-memory queue
// the game bridge drives. Transitions are forward-only; terminal
// states are never left.
package spin

import (
	"time"

	"github.com/house-of-voi/hov-engine/betkey"
	"github.com/house-of-voi/hov-engine/payline"
	"github.com/house-of-voi/hov-engine/ways"
)

// Status is the lifecycle state of a queued spin.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

// Terminal reports whether no further transition can leave the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// Outcome is the verified result of a completed spin.
type Outcome struct {
	GridString        string                `json:"grid"`
	WinningLines      []payline.WinningLine `json:"winningLines,omitempty"`
	WaysWins          []ways.WaysWin        `json:"waysWins,omitempty"`
	TotalPayout       uint64                `json:"totalPayout"`
	JackpotTriggered  bool                  `json:"jackpotTriggered"`
	JackpotValue      uint64                `json:"jackpotValue,omitempty"`
	BonusRound        bool                  `json:"bonusRound,omitempty"`
	BonusSpinsAwarded int                   `json:"bonusSpinsAwarded"`
	BlockNumber       uint64                `json:"blockNumber"`
	BlockSeedHex      string                `json:"blockSeed"`
	BetKeyHex         string                `json:"betKey"`
	Verified          bool                  `json:"verified"`
}

// QueuedSpin is one spin tracked by the queue. BetKey is set when the
// wallet layer constructs the transaction, at submission time.
type QueuedSpin struct {
	ID          string        `json:"id"`
	MachineID   string        `json:"machineId"`
	BetAmount   uint64        `json:"betAmount"`
	Paylines    uint64        `json:"paylines"`
	Status      Status        `json:"status"`
	BetKey      betkey.BetKey `json:"-"`
	ClaimBlock  uint64        `json:"claimBlock,omitempty"`
	Outcome     *Outcome      `json:"outcome,omitempty"`
	FailureCode int           `json:"failureCode,omitempty"`
	FailureMsg  string        `json:"failureMessage,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
