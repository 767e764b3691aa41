// Package repository defines all the repository interfaces used by domain services.
// Following the dependency inversion principle, domain logic depends on these interfaces,
// and infrastructure implementations provide concrete implementations.
package repository

import (
	"context"

	"github.com/namay10/DcaVault/internal/domain/model"
)

// Authority carries the proof a caller presents when moving funds on the
// ledger. Either Signer equals the debited account (the owner spending
// their own balance), or Capability holds the derived one-call grant for a
// registered custody account. Capabilities are recomputed per call from
// owner identity and the derivation nonce; no secret is ever stored.
type Authority struct {
	Signer     string
	Capability []byte
}

// VaultRepository is the per-owner singleton store of vault records.
// Records are keyed by owner identity; creation collides when a record
// already exists for that owner.
type VaultRepository interface {
	// Create stores a new record, failing with model.ErrVaultAlreadyExists
	// if one exists for the same owner.
	Create(ctx context.Context, v *model.VaultRecord) error

	// Get returns the record for an owner, or model.ErrVaultNotFound.
	Get(ctx context.Context, owner string) (*model.VaultRecord, error)

	// Update replaces the stored record for its owner.
	Update(ctx context.Context, v *model.VaultRecord) error

	// Delete terminates the record's lifecycle; further operations against
	// the owner must observe model.ErrVaultNotFound.
	Delete(ctx context.Context, owner string) error

	// GetAll returns every live record, for queries and cache warm-up.
	GetAll(ctx context.Context) ([]*model.VaultRecord, error)
}

// Ledger is the host environment's balance bookkeeping: per-address,
// per-asset slots plus the custody registry that binds a derived custody
// address to its owner and nonce.
type Ledger interface {
	// RegisterCustody binds a derived custody address to (owner, nonce) so
	// capability-authorized transfers can be verified later.
	RegisterCustody(ctx context.Context, custody, owner string, nonce uint8) error

	// AccountExists reports whether an address holds any slot or custody
	// registration. Used by the derivation search to skip collisions.
	AccountExists(ctx context.Context, addr string) (bool, error)

	// Deposit credits an address directly. External inflows only (funding
	// demo owners, crediting swap proceeds); not reachable from vault ops.
	Deposit(ctx context.Context, addr, asset string, amount uint64) error

	// Balance reads one slot; missing slots read as zero.
	Balance(ctx context.Context, addr, asset string) (uint64, error)

	// Transfer moves amount between addresses under the given authority,
	// failing with model.ErrUnauthorized on a bad proof and
	// model.ErrInsufficientBalance when the source slot is short.
	Transfer(ctx context.Context, from, to, asset string, amount uint64, auth Authority) error
}

// SwapExecutor is the external swap service. The vault invokes it opaquely
// and never trusts its return value for proceeds; gains are measured as an
// observed balance delta around the call.
type SwapExecutor interface {
	// ProgramID is the executor's fixed, known identity.
	ProgramID() string

	// Execute runs the opaque instruction. auth is the vault's
	// capability-scoped delegation for this single call.
	Execute(ctx context.Context, ix model.SwapInstruction, auth Authority) error
}

// VaultCache is the fast snapshot tier for API reads.
// Implementations should prioritize speed over durability.
type VaultCache interface {
	SaveVault(ctx context.Context, v *model.VaultRecord) error
	GetVault(ctx context.Context, owner string) (*model.VaultRecord, error)
	GetAllVaults(ctx context.Context) ([]*model.VaultRecord, error)
	DeleteVault(ctx context.Context, owner string) error
}

// VaultPersistence is the durable snapshot tier, for analytics and for
// rebuilding caches. Implementations should prioritize durability over speed.
type VaultPersistence interface {
	SaveVault(ctx context.Context, v *model.VaultRecord) error
	GetVault(ctx context.Context, owner string) (*model.VaultRecord, error)
	GetAllVaults(ctx context.Context) ([]*model.VaultRecord, error)
}

// EventPersistence stores the append-only observability event log for
// historical analysis and audit purposes.
type EventPersistence interface {
	// SaveEvent persists one emitted event with full details.
	SaveEvent(ctx context.Context, ev *model.VaultEvent) error

	// GetEventsSince retrieves events at or after the given unix timestamp.
	GetEventsSince(ctx context.Context, since int64) ([]*model.VaultEvent, error)
}
