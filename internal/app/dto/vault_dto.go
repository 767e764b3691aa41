package dto

import (
	"github.com/namay10/DcaVault/internal/domain/model"
)

// VaultDTO represents a data transfer object for vault records
type VaultDTO struct {
	Owner            string `json:"owner"`
	TotalAmount      uint64 `json:"total_amount"`
	Periods          uint16 `json:"periods"`
	IntervalSeconds  uint64 `json:"interval_seconds"`
	StakedAt         int64  `json:"staked_at"`
	CurrBalance      uint64 `json:"curr_balance"`
	PeriodsCompleted uint16 `json:"periods_completed"`
	NextSwapTime     int64  `json:"next_swap_time"`
	TotalReceived    uint64 `json:"total_received"`
	CustodyAddress   string `json:"custody_address"`
}

// FromVault creates a VaultDTO from a domain record
func FromVault(v *model.VaultRecord) *VaultDTO {
	return &VaultDTO{
		Owner:            v.Owner,
		TotalAmount:      v.TotalAmount,
		Periods:          v.Periods,
		IntervalSeconds:  v.IntervalSeconds,
		StakedAt:         v.StakedAt,
		CurrBalance:      v.CurrBalance,
		PeriodsCompleted: v.PeriodsCompleted,
		NextSwapTime:     v.NextSwapTime,
		TotalReceived:    v.TotalReceived,
		CustodyAddress:   v.CustodyAddress,
	}
}

func FromVaults(vaults []*model.VaultRecord) []*VaultDTO {
	dtos := make([]*VaultDTO, len(vaults))
	for i, v := range vaults {
		dtos[i] = FromVault(v)
	}
	return dtos
}

// EventDTO represents a data transfer object for vault events
type EventDTO struct {
	ID               string `json:"id"`
	Kind             string `json:"kind"`
	Owner            string `json:"owner"`
	Amount           uint64 `json:"amount"`
	Proceeds         uint64 `json:"proceeds,omitempty"`
	Fee              uint64 `json:"fee,omitempty"`
	Periods          uint16 `json:"periods,omitempty"`
	PeriodsCompleted uint16 `json:"periods_completed,omitempty"`
	IntervalSeconds  uint64 `json:"interval_seconds,omitempty"`
	NextSwapTime     int64  `json:"next_swap_time,omitempty"`
	IsEarlyExit      bool   `json:"is_early_exit,omitempty"`
	Timestamp        int64  `json:"timestamp"`
}

// FromEvent creates an EventDTO from a domain event
func FromEvent(ev *model.VaultEvent) *EventDTO {
	return &EventDTO{
		ID:               ev.ID,
		Kind:             string(ev.Kind),
		Owner:            ev.Owner,
		Amount:           ev.Amount,
		Proceeds:         ev.Proceeds,
		Fee:              ev.Fee,
		Periods:          ev.Periods,
		PeriodsCompleted: ev.PeriodsCompleted,
		IntervalSeconds:  ev.IntervalSeconds,
		NextSwapTime:     ev.NextSwapTime,
		IsEarlyExit:      ev.IsEarlyExit,
		Timestamp:        ev.Timestamp,
	}
}

// AccountMetaDTO mirrors one resource descriptor of a swap instruction
type AccountMetaDTO struct {
	Address    string `json:"address"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

// InitializeRequest is the payload for creating a vault
type InitializeRequest struct {
	Owner           string `json:"owner"`
	Amount          uint64 `json:"amount"`
	Periods         uint16 `json:"periods"`
	IntervalSeconds uint64 `json:"interval_seconds"`
}

// SwapRequest is the payload for executing one scheduled slice
type SwapRequest struct {
	Owner      string           `json:"owner"`
	Caller     string           `json:"caller"`
	UsdcAmount uint64           `json:"usdc_amount"`
	ProgramID  string           `json:"program_id"`
	Data       []byte           `json:"data"` // opaque route payload, base64 over the wire
	Accounts   []AccountMetaDTO `json:"accounts"`
}

// Instruction converts the request's instruction fields to the domain type
func (r *SwapRequest) Instruction() model.SwapInstruction {
	accounts := make([]model.AccountMeta, len(r.Accounts))
	for i, a := range r.Accounts {
		accounts[i] = model.AccountMeta{
			Address:    a.Address,
			IsSigner:   a.IsSigner,
			IsWritable: a.IsWritable,
		}
	}
	return model.SwapInstruction{
		ProgramID: r.ProgramID,
		Data:      r.Data,
		Accounts:  accounts,
	}
}

// WithdrawRequest is the payload for closing a vault
type WithdrawRequest struct {
	Owner  string `json:"owner"`
	Caller string `json:"caller"`
}

// WithdrawResponse reports the outcome of a withdrawal
type WithdrawResponse struct {
	AmountWithdrawn uint64 `json:"amount_withdrawn"`
	FeeCharged      uint64 `json:"fee_charged"`
}
