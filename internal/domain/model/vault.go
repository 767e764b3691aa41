package model

// Asset symbols for the two balance slots the vault touches.
const (
	AssetUSDC = "USDC"
	AssetSOL  = "SOL"
)

// VaultRecord is the state of one DCA vault. Exactly one record exists per
// owner at a time; the record lives from Initialize until Withdraw.
type VaultRecord struct {
	Owner            string
	TotalAmount      uint64
	Periods          uint16
	IntervalSeconds  uint64
	StakedAt         int64
	CurrBalance      uint64
	PeriodsCompleted uint16
	NextSwapTime     int64
	TotalReceived    uint64
	CustodyAddress   string
	DerivationNonce  uint8
}

// SliceAmount is the fixed per-period quantity committed to a single swap.
// Integer floor division: if TotalAmount is not evenly divisible, the
// remainder stays in custody and is only recoverable through Withdraw.
func (v *VaultRecord) SliceAmount() uint64 {
	return v.TotalAmount / uint64(v.Periods)
}

// IsComplete reports whether every scheduled period has executed.
func (v *VaultRecord) IsComplete() bool {
	return v.PeriodsCompleted >= v.Periods
}

// Clone returns a copy to prevent external modification of stored state.
func (v *VaultRecord) Clone() *VaultRecord {
	c := *v
	return &c
}
