package service

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/namay10/DcaVault/internal/domain/repository"
)

// Custody addresses and their signing capabilities are derived
// deterministically from owner identity plus a one-byte nonce. The two
// seeds are domain-separated so an address can never double as a grant.
const (
	custodySeed = "dcavault"
	grantSeed   = "dcavault-grant"
)

// DeriveCustodyAddress computes the vault's custody address for an owner
// and nonce: base58 of sha256(seed || owner || nonce).
func DeriveCustodyAddress(owner string, nonce uint8) string {
	h := sha256.New()
	h.Write([]byte(custodySeed))
	h.Write([]byte(owner))
	h.Write([]byte{nonce})
	return base58.Encode(h.Sum(nil))
}

// DeriveSigningCapability computes the scoped grant that authorizes a
// transfer out of the custody address. Valid only while the ledger holds
// the matching (owner, nonce) registration; nothing secret is persisted.
func DeriveSigningCapability(owner string, nonce uint8) []byte {
	h := sha256.New()
	h.Write([]byte(grantSeed))
	h.Write([]byte(owner))
	h.Write([]byte{nonce})
	return h.Sum(nil)
}

// FindCustodyAddress searches nonces from 255 downward for a custody
// address not already present on the ledger.
func FindCustodyAddress(ctx context.Context, ledger repository.Ledger, owner string) (string, uint8, error) {
	for n := 255; n >= 0; n-- {
		nonce := uint8(n)
		addr := DeriveCustodyAddress(owner, nonce)
		exists, err := ledger.AccountExists(ctx, addr)
		if err != nil {
			return "", 0, err
		}
		if !exists {
			return addr, nonce, nil
		}
	}
	return "", 0, fmt.Errorf("no free custody address for owner %s", owner)
}
