package model

import "github.com/google/uuid"

// EventKind identifies the state transition an observability event records.
type EventKind string

const (
	EventVaultCreated EventKind = "vault_created"
	EventSwapExecuted EventKind = "swap_executed"
	EventWithdraw     EventKind = "withdraw"
)

// VaultEvent is a structured, append-only notification emitted on vault
// state transitions. The core never reads these back; they exist for
// auditing and indexing. ID is a unique event id used for deduplication
// by downstream consumers.
type VaultEvent struct {
	ID               string
	Kind             EventKind
	Owner            string
	Amount           uint64 // total deposited / usdc swapped / amount withdrawn
	Proceeds         uint64 // destination asset received (swap only)
	Fee              uint64 // fee charged (withdraw only)
	Periods          uint16
	PeriodsCompleted uint16
	IntervalSeconds  uint64
	NextSwapTime     int64
	IsEarlyExit      bool
	Timestamp        int64
}

// NewVaultCreatedEvent records a successful Initialize.
func NewVaultCreatedEvent(v *VaultRecord) *VaultEvent {
	return &VaultEvent{
		ID:              uuid.New().String(),
		Kind:            EventVaultCreated,
		Owner:           v.Owner,
		Amount:          v.TotalAmount,
		Periods:         v.Periods,
		IntervalSeconds: v.IntervalSeconds,
		Timestamp:       v.StakedAt,
	}
}

// NewSwapExecutedEvent records one executed slice.
func NewSwapExecutedEvent(v *VaultRecord, usdcAmount, proceeds uint64, timestamp int64) *VaultEvent {
	return &VaultEvent{
		ID:               uuid.New().String(),
		Kind:             EventSwapExecuted,
		Owner:            v.Owner,
		Amount:           usdcAmount,
		Proceeds:         proceeds,
		Periods:          v.Periods,
		PeriodsCompleted: v.PeriodsCompleted,
		IntervalSeconds:  v.IntervalSeconds,
		NextSwapTime:     v.NextSwapTime,
		Timestamp:        timestamp,
	}
}

// NewWithdrawEvent records the terminal withdrawal.
func NewWithdrawEvent(v *VaultRecord, withdrawn, fee uint64, earlyExit bool, timestamp int64) *VaultEvent {
	return &VaultEvent{
		ID:               uuid.New().String(),
		Kind:             EventWithdraw,
		Owner:            v.Owner,
		Amount:           withdrawn,
		Fee:              fee,
		Periods:          v.Periods,
		PeriodsCompleted: v.PeriodsCompleted,
		IsEarlyExit:      earlyExit,
		Timestamp:        timestamp,
	}
}
