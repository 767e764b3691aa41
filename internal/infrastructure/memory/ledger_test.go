package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/namay10/DcaVault/internal/domain/model"
	"github.com/namay10/DcaVault/internal/domain/repository"
	"github.com/namay10/DcaVault/internal/domain/service"
	"github.com/namay10/DcaVault/internal/infrastructure/memory"
)

func TestLedgerDepositAndBalance(t *testing.T) {
	l := memory.NewLedger()
	ctx := context.Background()

	if err := l.Deposit(ctx, "alice", model.AssetUSDC, 500); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if err := l.Deposit(ctx, "alice", model.AssetUSDC, 250); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	bal, err := l.Balance(ctx, "alice", model.AssetUSDC)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if bal != 750 {
		t.Errorf("expected balance 750, got %d", bal)
	}

	// Unknown address and unknown asset read as zero
	if bal, _ := l.Balance(ctx, "nobody", model.AssetUSDC); bal != 0 {
		t.Errorf("expected zero balance for unknown address, got %d", bal)
	}
	if bal, _ := l.Balance(ctx, "alice", model.AssetSOL); bal != 0 {
		t.Errorf("expected zero balance for unheld asset, got %d", bal)
	}
}

func TestLedgerTransferRequiresSigner(t *testing.T) {
	l := memory.NewLedger()
	ctx := context.Background()
	l.Deposit(ctx, "alice", model.AssetUSDC, 100)

	// Someone else signing for alice's balance is rejected
	err := l.Transfer(ctx, "alice", "bob", model.AssetUSDC, 50, repository.Authority{Signer: "bob"})
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}

	if err := l.Transfer(ctx, "alice", "bob", model.AssetUSDC, 50, repository.Authority{Signer: "alice"}); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	aliceBal, _ := l.Balance(ctx, "alice", model.AssetUSDC)
	bobBal, _ := l.Balance(ctx, "bob", model.AssetUSDC)
	if aliceBal != 50 || bobBal != 50 {
		t.Errorf("expected 50/50 after transfer, got %d/%d", aliceBal, bobBal)
	}
}

func TestLedgerTransferInsufficientBalance(t *testing.T) {
	l := memory.NewLedger()
	ctx := context.Background()
	l.Deposit(ctx, "alice", model.AssetUSDC, 100)

	err := l.Transfer(ctx, "alice", "bob", model.AssetUSDC, 101, repository.Authority{Signer: "alice"})
	if !errors.Is(err, model.ErrInsufficientBalance) {
		t.Errorf("expected insufficient balance, got %v", err)
	}

	// Failed transfer debits nothing
	bal, _ := l.Balance(ctx, "alice", model.AssetUSDC)
	if bal != 100 {
		t.Errorf("expected untouched balance 100, got %d", bal)
	}
}

func TestLedgerCustodyRequiresCapability(t *testing.T) {
	l := memory.NewLedger()
	ctx := context.Background()

	custody := service.DeriveCustodyAddress("alice", 255)
	if err := l.RegisterCustody(ctx, custody, "alice", 255); err != nil {
		t.Fatalf("register custody failed: %v", err)
	}
	l.Deposit(ctx, custody, model.AssetUSDC, 100)

	// Neither the custody address itself nor the owner can sign a debit
	for _, signer := range []string{custody, "alice"} {
		err := l.Transfer(ctx, custody, "alice", model.AssetUSDC, 100, repository.Authority{Signer: signer})
		if !errors.Is(err, model.ErrUnauthorized) {
			t.Errorf("signer %s: expected unauthorized, got %v", signer, err)
		}
	}

	// A capability for the wrong owner/nonce pair is rejected
	wrongCap := service.DeriveSigningCapability("alice", 254)
	err := l.Transfer(ctx, custody, "alice", model.AssetUSDC, 100, repository.Authority{Capability: wrongCap})
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected unauthorized for wrong capability, got %v", err)
	}

	auth := repository.Authority{Capability: service.DeriveSigningCapability("alice", 255)}
	if err := l.Transfer(ctx, custody, "alice", model.AssetUSDC, 100, auth); err != nil {
		t.Fatalf("capability transfer failed: %v", err)
	}
	bal, _ := l.Balance(ctx, "alice", model.AssetUSDC)
	if bal != 100 {
		t.Errorf("expected owner credited 100, got %d", bal)
	}
}

func TestLedgerAccountExists(t *testing.T) {
	l := memory.NewLedger()
	ctx := context.Background()

	if ok, _ := l.AccountExists(ctx, "alice"); ok {
		t.Error("expected unknown address to not exist")
	}

	l.Deposit(ctx, "alice", model.AssetUSDC, 1)
	if ok, _ := l.AccountExists(ctx, "alice"); !ok {
		t.Error("expected funded address to exist")
	}

	l.RegisterCustody(ctx, "custody-addr", "alice", 255)
	if ok, _ := l.AccountExists(ctx, "custody-addr"); !ok {
		t.Error("expected registered custody address to exist")
	}
}
