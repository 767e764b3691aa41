package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/namay10/DcaVault/internal/domain/model"
	"github.com/namay10/DcaVault/internal/domain/repository"
	"github.com/namay10/DcaVault/internal/domain/useCases"
	"github.com/namay10/DcaVault/internal/infrastructure/swapsim"
)

// VaultDriver generates demo traffic against the vault service: it funds a
// handful of owners, opens a vault for each, pumps due slices through the
// simulated swap engine and withdraws when a plan completes.
type VaultDriver struct {
	svc    useCases.VaultService
	ledger repository.Ledger

	ownerFunding uint64
	periods      uint16
	interval     uint64
	rate         uint64
}

// NewVaultDriver creates a driver with short intervals so swaps come due
// quickly enough to watch.
func NewVaultDriver(svc useCases.VaultService, ledger repository.Ledger) *VaultDriver {
	return &VaultDriver{
		svc:          svc,
		ledger:       ledger,
		ownerFunding: 1_000_000, // 1 USDC in base units per owner
		periods:      5,
		interval:     3,
		rate:         7_500, // SOL base units per USDC unit, times 1e-6
	}
}

// Run seeds the demo owners and keeps driving their schedules until the
// context is cancelled.
func (d *VaultDriver) Run(ctx context.Context, owners int) {
	ownerIDs := make([]string, 0, owners)
	for i := 0; i < owners; i++ {
		owner := fmt.Sprintf("demo-%s", uuid.New().String()[:8])
		if err := d.ledger.Deposit(ctx, owner, model.AssetUSDC, d.ownerFunding); err != nil {
			log.Printf("demo: failed to fund %s: %v", owner, err)
			continue
		}
		if _, err := d.svc.Initialize(ctx, owner, d.ownerFunding, d.periods, d.interval); err != nil {
			log.Printf("demo: failed to initialize vault for %s: %v", owner, err)
			continue
		}
		ownerIDs = append(ownerIDs, owner)
	}
	log.Printf("demo: driving %d vaults", len(ownerIDs))

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("demo: vault driver stopped")
			return
		case <-ticker.C:
			for _, owner := range ownerIDs {
				d.step(ctx, owner)
			}
		}
	}
}

// step attempts one slice for an owner, withdrawing once the plan is done.
// Not-due and already-complete rejections are normal scheduling noise.
func (d *VaultDriver) step(ctx context.Context, owner string) {
	vault, err := d.svc.GetVault(ctx, owner)
	if err != nil {
		return // already withdrawn
	}

	if vault.IsComplete() {
		withdrawn, fee, err := d.svc.Withdraw(ctx, owner, owner)
		if err != nil {
			if !errors.Is(err, model.ErrInsufficientBalance) {
				log.Printf("demo: withdraw failed for %s: %v", owner, err)
			}
			return
		}
		log.Printf("demo: %s withdrew %d USDC (fee %d)", owner, withdrawn, fee)
		return
	}

	ix := swapsim.BuildSwapInstruction(vault.CustodyAddress, owner, vault.SliceAmount(), d.rate)
	updated, err := d.svc.ExecuteSwap(ctx, owner, owner, vault.SliceAmount(), ix)
	if err != nil {
		if !errors.Is(err, model.ErrSwapNotDue) && !errors.Is(err, model.ErrDcaPlanComplete) {
			log.Printf("demo: swap failed for %s: %v", owner, err)
		}
		return
	}
	log.Printf("demo: %s completed period %d/%d, received %d SOL total",
		owner, updated.PeriodsCompleted, updated.Periods, updated.TotalReceived)
}
