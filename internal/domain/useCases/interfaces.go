package useCases

import (
	"context"
	"net/http"

	"github.com/namay10/DcaVault/internal/domain/model"
)

// VaultService defines the interface for the DCA vault lifecycle: one
// deposit-to-completion schedule per owner.
type VaultService interface {
	// Initialize validates deposit parameters, moves funds into vault
	// custody and creates the record with its first swap deadline.
	Initialize(ctx context.Context, owner string, amount uint64, periods uint16, intervalSeconds uint64) (*model.VaultRecord, error)

	// ExecuteSwap validates timing/state/amount, delegates one slice to the
	// external swap service and advances the record.
	ExecuteSwap(ctx context.Context, owner, caller string, usdcAmount uint64, ix model.SwapInstruction) (*model.VaultRecord, error)

	// Withdraw closes the vault, returning the remaining custody balance to
	// the owner minus the early-exit fee when the schedule is incomplete.
	// It reports the amount transferred and the fee charged.
	Withdraw(ctx context.Context, owner, caller string) (withdrawn, fee uint64, err error)

	GetVault(ctx context.Context, owner string) (*model.VaultRecord, error)
	GetAllVaults(ctx context.Context) ([]*model.VaultRecord, error)
}

// Broadcaster defines an interface for pushing vault events to WebSocket/API layers.
type Broadcaster interface {
	BroadcastEvent(ev *model.VaultEvent)
	Handler() func(http.ResponseWriter, *http.Request)
}
