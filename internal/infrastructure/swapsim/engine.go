// Package swapsim is a simulated Jupiter-style swap engine. The vault
// treats the real aggregator as a black box; this engine stands in for it
// in demos and tests, honoring the same contract: a fixed program
// identity, an opaque byte payload, and a delegated custody signer.
package swapsim

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/namay10/DcaVault/internal/domain/model"
	"github.com/namay10/DcaVault/internal/domain/repository"
)

// JupiterProgramID is the fixed identity of the external swap service
// (Jupiter aggregator, same id on mainnet and devnet).
const JupiterProgramID = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"

// poolAddress is where swapped-in USDC accumulates inside the simulation.
const poolAddress = "jupiter-sim-pool"

// rateDenominator scales the payload-encoded price: proceeds =
// amount * rate / rateDenominator.
const rateDenominator = 1_000_000

// Engine implements repository.SwapExecutor against the ledger. It debits
// the custody account under the delegated capability and credits the
// recipient's SOL slot at the payload-encoded rate.
type Engine struct {
	ledger    repository.Ledger
	programID string
}

func NewEngine(ledger repository.Ledger) *Engine {
	return &Engine{ledger: ledger, programID: JupiterProgramID}
}

var _ repository.SwapExecutor = (*Engine)(nil)

func (e *Engine) ProgramID() string {
	return e.programID
}

// Execute decodes the opaque payload and settles the swap on the ledger.
// Account convention mirrors the route accounts the real aggregator takes:
// accounts[0] is the custody source (delegated signer), accounts[1] is the
// recipient of the destination asset.
func (e *Engine) Execute(ctx context.Context, ix model.SwapInstruction, auth repository.Authority) error {
	if ix.ProgramID != e.programID {
		return fmt.Errorf("unknown program id %q", ix.ProgramID)
	}
	amount, rate, err := DecodeSwapData(ix.Data)
	if err != nil {
		return err
	}
	if len(ix.Accounts) < 2 {
		return fmt.Errorf("swap instruction needs source and recipient accounts, got %d", len(ix.Accounts))
	}
	source := ix.Accounts[0]
	recipient := ix.Accounts[1]
	if !source.IsSigner {
		return fmt.Errorf("source account %s is not a signer", source.Address)
	}

	// 128-bit intermediate so amount*rate cannot wrap; reject quotes whose
	// quotient would not fit a balance slot before touching any funds.
	hi, lo := bits.Mul64(amount, rate)
	if hi >= rateDenominator {
		return fmt.Errorf("swap proceeds overflow for amount %d at rate %d", amount, rate)
	}
	proceeds, _ := bits.Div64(hi, lo, rateDenominator)

	if err := e.ledger.Transfer(ctx, source.Address, poolAddress, model.AssetUSDC, amount, auth); err != nil {
		return err
	}
	if proceeds == 0 {
		return nil
	}
	return e.ledger.Deposit(ctx, recipient.Address, model.AssetSOL, proceeds)
}

// EncodeSwapData packs the route payload: amount and rate as little-endian
// u64s. Only the engine interprets it; the vault passes it through opaquely.
func EncodeSwapData(amount, rate uint64) []byte {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint64(data[:8], amount)
	binary.LittleEndian.PutUint64(data[8:], rate)
	return data
}

// DecodeSwapData unpacks a payload produced by EncodeSwapData.
func DecodeSwapData(data []byte) (amount, rate uint64, err error) {
	if len(data) != 16 {
		return 0, 0, fmt.Errorf("malformed swap payload: %d bytes", len(data))
	}
	return binary.LittleEndian.Uint64(data[:8]), binary.LittleEndian.Uint64(data[8:]), nil
}

// BuildSwapInstruction assembles the instruction a caller submits for one
// slice: custody source first, recipient second, pool last.
func BuildSwapInstruction(custody, recipient string, amount, rate uint64) model.SwapInstruction {
	return model.SwapInstruction{
		ProgramID: JupiterProgramID,
		Data:      EncodeSwapData(amount, rate),
		Accounts: []model.AccountMeta{
			{Address: custody, IsWritable: true},
			{Address: recipient, IsWritable: true},
			{Address: poolAddress, IsWritable: true},
		},
	}
}
