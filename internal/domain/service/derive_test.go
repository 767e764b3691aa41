package service_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/namay10/DcaVault/internal/domain/service"
	"github.com/namay10/DcaVault/internal/infrastructure/memory"
)

func TestDeriveCustodyAddressDeterministic(t *testing.T) {
	a := service.DeriveCustodyAddress("alice", 255)
	b := service.DeriveCustodyAddress("alice", 255)
	if a != b {
		t.Errorf("derivation not deterministic: %s vs %s", a, b)
	}
	if a == "" {
		t.Error("expected non-empty address")
	}

	// Owner and nonce both separate the address space
	if a == service.DeriveCustodyAddress("bob", 255) {
		t.Error("different owners derived the same address")
	}
	if a == service.DeriveCustodyAddress("alice", 254) {
		t.Error("different nonces derived the same address")
	}
}

func TestDeriveSigningCapabilityDomainSeparated(t *testing.T) {
	cap1 := service.DeriveSigningCapability("alice", 255)
	cap2 := service.DeriveSigningCapability("alice", 255)
	if !bytes.Equal(cap1, cap2) {
		t.Error("capability derivation not deterministic")
	}
	if bytes.Equal(cap1, service.DeriveSigningCapability("alice", 254)) {
		t.Error("different nonces derived the same capability")
	}

	// An address must never be usable as a grant: the two derivations
	// use distinct seeds over the same inputs
	addr := service.DeriveCustodyAddress("alice", 255)
	if addr == string(cap1) {
		t.Error("custody address collides with its capability")
	}
}

func TestFindCustodyAddressSearchesDownward(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewLedger()

	addr, nonce, err := service.FindCustodyAddress(ctx, ledger, "alice")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if nonce != 255 {
		t.Errorf("expected first free nonce 255, got %d", nonce)
	}
	if addr != service.DeriveCustodyAddress("alice", 255) {
		t.Errorf("address does not match derivation for nonce 255")
	}

	// Occupy 255 and 254; the search must skip to 253
	ledger.RegisterCustody(ctx, service.DeriveCustodyAddress("alice", 255), "alice", 255)
	ledger.RegisterCustody(ctx, service.DeriveCustodyAddress("alice", 254), "alice", 254)

	addr, nonce, err = service.FindCustodyAddress(ctx, ledger, "alice")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if nonce != 253 {
		t.Errorf("expected nonce 253, got %d", nonce)
	}
	if addr != service.DeriveCustodyAddress("alice", 253) {
		t.Errorf("address does not match derivation for nonce 253")
	}
}
