// Package service provides implementations of domain services that implement core business logic.
// This package depends only on domain models and repository interfaces (not implementations).
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/namay10/DcaVault/internal/domain/model"
	"github.com/namay10/DcaVault/internal/domain/repository"
)

// DefaultEarlyExitFeeBPS is the fee, in basis points, retained from the
// custody balance when the owner withdraws before completing the schedule.
const DefaultEarlyExitFeeBPS = 50

// DcaVaultService is the vault state machine. Every operation runs as an
// atomic unit under one mutex: a full validation phase first, then a single
// commit phase against a copied record, so a failure anywhere leaves zero
// state mutation. Records for different owners are independent; within one
// record, operations are strictly serialized.
type DcaVaultService struct {
	mu        sync.Mutex
	vaults    repository.VaultRepository
	ledger    repository.Ledger
	swapper   repository.SwapExecutor
	events    chan<- *model.VaultEvent
	programID string
	feeBps    uint64
	now       func() int64
}

// NewDcaVaultService creates the vault service. programID is the fixed
// identity the external swap service must present; events may be nil when
// no observability pipeline is attached.
func NewDcaVaultService(
	vaults repository.VaultRepository,
	ledger repository.Ledger,
	swapper repository.SwapExecutor,
	events chan<- *model.VaultEvent,
	programID string,
	feeBps uint64,
) *DcaVaultService {
	if feeBps == 0 {
		feeBps = DefaultEarlyExitFeeBPS
	}
	return &DcaVaultService{
		vaults:    vaults,
		ledger:    ledger,
		swapper:   swapper,
		events:    events,
		programID: programID,
		feeBps:    feeBps,
		now:       func() int64 { return time.Now().Unix() },
	}
}

// SetClock overrides the time source. Timing gates compare against this
// clock, so tests can advance time without sleeping.
func (s *DcaVaultService) SetClock(now func() int64) {
	s.now = now
}

// Initialize validates deposit parameters, moves amount from the owner's
// available balance into a fresh custody balance and creates the vault
// record with its first swap deadline one interval out.
func (s *DcaVaultService) Initialize(ctx context.Context, owner string, amount uint64, periods uint16, intervalSeconds uint64) (*model.VaultRecord, error) {
	if amount == 0 {
		return nil, model.ErrInvalidAmount
	}
	if periods == 0 {
		return nil, model.ErrInvalidPeriods
	}
	if intervalSeconds == 0 {
		return nil, model.ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// One vault per owner at a time.
	if _, err := s.vaults.Get(ctx, owner); err == nil {
		return nil, model.ErrVaultAlreadyExists
	} else if !errors.Is(err, model.ErrVaultNotFound) {
		return nil, err
	}

	custody, nonce, err := FindCustodyAddress(ctx, s.ledger, owner)
	if err != nil {
		return nil, err
	}

	// Fund custody before registering it. The ledger rejects the transfer
	// when the owner's funds are short, and a failed Initialize must leave
	// no trace: an early registration would survive the failure and shift
	// the derivation nonce on the retry.
	auth := repository.Authority{Signer: owner}
	if err := s.ledger.Transfer(ctx, owner, custody, model.AssetUSDC, amount, auth); err != nil {
		return nil, err
	}
	if err := s.ledger.RegisterCustody(ctx, custody, owner, nonce); err != nil {
		return nil, err
	}

	currTime := s.now()
	rec := &model.VaultRecord{
		Owner:           owner,
		TotalAmount:     amount,
		Periods:         periods,
		IntervalSeconds: intervalSeconds,
		StakedAt:        currTime,
		CurrBalance:     amount,
		NextSwapTime:    currTime + int64(intervalSeconds),
		CustodyAddress:  custody,
		DerivationNonce: nonce,
	}
	if err := s.vaults.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.emit(model.NewVaultCreatedEvent(rec))
	return rec.Clone(), nil
}

// ExecuteSwap validates one scheduled slice and delegates it to the
// external swap service, crediting proceeds directly to the owner.
// Validation order matters; each gate short-circuits on first failure.
func (s *DcaVaultService) ExecuteSwap(ctx context.Context, owner, caller string, usdcAmount uint64, ix model.SwapInstruction) (*model.VaultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.vaults.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if rec.Owner != caller {
		return nil, model.ErrUnauthorized
	}

	currTime := s.now()
	if currTime < rec.NextSwapTime {
		return nil, model.ErrSwapNotDue
	}
	if rec.PeriodsCompleted >= rec.Periods {
		return nil, model.ErrDcaPlanComplete
	}
	if usdcAmount == 0 {
		return nil, model.ErrInvalidAmount
	}
	custodyBalance, err := s.ledger.Balance(ctx, rec.CustodyAddress, model.AssetUSDC)
	if err != nil {
		return nil, err
	}
	if custodyBalance < usdcAmount {
		return nil, model.ErrInsufficientBalance
	}
	if usdcAmount != rec.SliceAmount() {
		return nil, model.ErrInvalidSliceAmount
	}
	if ix.ProgramID != s.programID || s.swapper.ProgramID() != s.programID {
		return nil, model.ErrInvalidJupiterAccounts
	}

	// Proceeds are never trusted from the service itself; they are measured
	// as the owner's destination-balance delta around the call.
	preBalance, err := s.ledger.Balance(ctx, rec.Owner, model.AssetSOL)
	if err != nil {
		return nil, err
	}

	// The custody address is marked as a delegated signer for this single
	// call, authorized by its derived capability.
	accounts := make([]model.AccountMeta, len(ix.Accounts))
	for i, acc := range ix.Accounts {
		acc.IsSigner = acc.Address == rec.CustodyAddress
		accounts[i] = acc
	}
	call := model.SwapInstruction{ProgramID: ix.ProgramID, Data: ix.Data, Accounts: accounts}
	auth := repository.Authority{
		Signer:     rec.CustodyAddress,
		Capability: DeriveSigningCapability(rec.Owner, rec.DerivationNonce),
	}
	if err := s.swapper.Execute(ctx, call, auth); err != nil {
		// No partial state mutation: the record has not been touched.
		return nil, fmt.Errorf("swap execution failed: %w", err)
	}

	postBalance, err := s.ledger.Balance(ctx, rec.Owner, model.AssetSOL)
	if err != nil {
		return nil, err
	}
	var proceeds uint64
	if postBalance > preBalance {
		proceeds = postBalance - preBalance
	}

	// Commit phase: advance a copy, then store it in one write.
	next := rec.Clone()
	if next.CurrBalance, err = model.CheckedSubU64(rec.CurrBalance, usdcAmount); err != nil {
		return nil, err
	}
	if next.PeriodsCompleted, err = model.CheckedAddU16(rec.PeriodsCompleted, 1); err != nil {
		return nil, err
	}
	if next.NextSwapTime, err = model.CheckedAddI64(rec.NextSwapTime, int64(rec.IntervalSeconds)); err != nil {
		return nil, err
	}
	if next.TotalReceived, err = model.CheckedAddU64(rec.TotalReceived, proceeds); err != nil {
		return nil, err
	}
	if err := s.vaults.Update(ctx, next); err != nil {
		return nil, err
	}

	s.emit(model.NewSwapExecutedEvent(next, usdcAmount, proceeds, currTime))
	return next.Clone(), nil
}

// Withdraw returns the remaining custody balance to the owner and
// terminates the record. Early exit (schedule incomplete) retains a
// basis-point fee on the custody account; the fee has no collector sink
// and is forfeited there.
func (s *DcaVaultService) Withdraw(ctx context.Context, owner, caller string) (uint64, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.vaults.Get(ctx, owner)
	if err != nil {
		return 0, 0, err
	}
	if rec.Owner != caller {
		return 0, 0, model.ErrUnauthorized
	}

	remaining, err := s.ledger.Balance(ctx, rec.CustodyAddress, model.AssetUSDC)
	if err != nil {
		return 0, 0, err
	}
	if remaining == 0 {
		return 0, 0, model.ErrInsufficientBalance
	}

	isEarlyExit := rec.PeriodsCompleted < rec.Periods
	var feeAmount uint64
	if isEarlyExit {
		feeAmount = remaining * s.feeBps / 10000
	}
	transferAmount, err := model.CheckedSubU64(remaining, feeAmount)
	if err != nil {
		return 0, 0, err
	}

	auth := repository.Authority{
		Signer:     rec.CustodyAddress,
		Capability: DeriveSigningCapability(rec.Owner, rec.DerivationNonce),
	}
	if err := s.ledger.Transfer(ctx, rec.CustodyAddress, rec.Owner, model.AssetUSDC, transferAmount, auth); err != nil {
		return 0, 0, err
	}
	if err := s.vaults.Delete(ctx, owner); err != nil {
		return 0, 0, err
	}

	s.emit(model.NewWithdrawEvent(rec, transferAmount, feeAmount, isEarlyExit, s.now()))
	return transferAmount, feeAmount, nil
}

// GetVault returns the live record for an owner.
func (s *DcaVaultService) GetVault(ctx context.Context, owner string) (*model.VaultRecord, error) {
	return s.vaults.Get(ctx, owner)
}

// GetAllVaults returns every live record.
func (s *DcaVaultService) GetAllVaults(ctx context.Context) ([]*model.VaultRecord, error) {
	return s.vaults.GetAll(ctx)
}

// emit hands an event to the observability pipeline without ever blocking
// a vault operation on it; a full pipeline drops the event with a log line.
func (s *DcaVaultService) emit(ev *model.VaultEvent) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- ev:
	default:
		log.Printf("event buffer full, dropping %s event for %s", ev.Kind, ev.Owner)
	}
}
