package memory

import (
	"context"
	"sync"

	"github.com/namay10/DcaVault/internal/domain/model"
	"github.com/namay10/DcaVault/internal/domain/repository"
)

// VaultRepository stores vault records in a map keyed by owner identity,
// which is what enforces the one-vault-per-owner rule.
type VaultRepository struct {
	mu     sync.RWMutex
	vaults map[string]*model.VaultRecord
}

func NewVaultRepository() *VaultRepository {
	return &VaultRepository{vaults: make(map[string]*model.VaultRecord)}
}

// Ensure VaultRepository implements the repository interface.
var _ repository.VaultRepository = (*VaultRepository)(nil)

func (r *VaultRepository) Create(ctx context.Context, v *model.VaultRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.vaults[v.Owner]; exists {
		return model.ErrVaultAlreadyExists
	}
	r.vaults[v.Owner] = v.Clone()
	return nil
}

func (r *VaultRepository) Get(ctx context.Context, owner string) (*model.VaultRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vaults[owner]
	if !ok {
		return nil, model.ErrVaultNotFound
	}
	return v.Clone(), nil
}

func (r *VaultRepository) Update(ctx context.Context, v *model.VaultRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vaults[v.Owner]; !ok {
		return model.ErrVaultNotFound
	}
	r.vaults[v.Owner] = v.Clone()
	return nil
}

func (r *VaultRepository) Delete(ctx context.Context, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vaults[owner]; !ok {
		return model.ErrVaultNotFound
	}
	delete(r.vaults, owner)
	return nil
}

func (r *VaultRepository) GetAll(ctx context.Context) ([]*model.VaultRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*model.VaultRecord, 0, len(r.vaults))
	for _, v := range r.vaults {
		result = append(result, v.Clone())
	}
	return result, nil
}
