// Package memory provides the in-process implementations of the vault
// store and the host ledger. They back the core directly; Redis and
// ClickHouse are wired behind them as cache and audit tiers.
package memory

import (
	"context"
	"crypto/hmac"
	"sync"

	"github.com/namay10/DcaVault/internal/domain/model"
	"github.com/namay10/DcaVault/internal/domain/repository"
	"github.com/namay10/DcaVault/internal/domain/service"
)

type custodyMeta struct {
	owner string
	nonce uint8
}

// Ledger keeps per-address, per-asset balance slots plus the custody
// registry. Transfers out of a registered custody address require the
// derived capability for its (owner, nonce) pair; all other debits require
// the debited address itself as signer.
type Ledger struct {
	mu       sync.RWMutex
	balances map[string]map[string]uint64
	custody  map[string]custodyMeta
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[string]map[string]uint64),
		custody:  make(map[string]custodyMeta),
	}
}

// Ensure Ledger implements the repository interface.
var _ repository.Ledger = (*Ledger)(nil)

func (l *Ledger) RegisterCustody(ctx context.Context, custody, owner string, nonce uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.custody[custody] = custodyMeta{owner: owner, nonce: nonce}
	return nil
}

func (l *Ledger) AccountExists(ctx context.Context, addr string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.custody[addr]; ok {
		return true, nil
	}
	_, ok := l.balances[addr]
	return ok, nil
}

func (l *Ledger) Deposit(ctx context.Context, addr, asset string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.credit(addr, asset, amount)
}

func (l *Ledger) Balance(ctx context.Context, addr, asset string) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[addr][asset], nil
}

func (l *Ledger) Transfer(ctx context.Context, from, to, asset string, amount uint64, auth repository.Authority) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.authorize(from, auth); err != nil {
		return err
	}

	held := l.balances[from][asset]
	if held < amount {
		return model.ErrInsufficientBalance
	}
	remaining, err := model.CheckedSubU64(held, amount)
	if err != nil {
		return err
	}
	l.balances[from][asset] = remaining
	return l.credit(to, asset, amount)
}

// authorize verifies the transfer proof for the debited address. Custody
// accounts accept only their derived one-call capability; everything else
// accepts only the address itself as signer.
func (l *Ledger) authorize(from string, auth repository.Authority) error {
	if meta, ok := l.custody[from]; ok {
		expected := service.DeriveSigningCapability(meta.owner, meta.nonce)
		if len(auth.Capability) == 0 || !hmac.Equal(auth.Capability, expected) {
			return model.ErrUnauthorized
		}
		return nil
	}
	if auth.Signer != from {
		return model.ErrUnauthorized
	}
	return nil
}

// credit assumes the mutex is already held.
func (l *Ledger) credit(addr, asset string, amount uint64) error {
	slots, ok := l.balances[addr]
	if !ok {
		slots = make(map[string]uint64)
		l.balances[addr] = slots
	}
	sum, err := model.CheckedAddU64(slots[asset], amount)
	if err != nil {
		return err
	}
	slots[asset] = sum
	return nil
}
