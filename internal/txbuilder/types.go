package txbuilder

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github/noctiluca/go-tools/internal/wallet"
)

// ErrInsufficientGasFunds is returned before submission when the native
// balance cannot cover gas_limit x max_fee_per_gas.
var ErrInsufficientGasFunds = errors.New("insufficient native balance for gas")

// Fees are the EIP-1559 fee parameters produced by the gas policy.
type Fees struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// Request describes one transaction to build and sign. It is constructed
// fresh per call and never mutated after signing.
type Request struct {
	ChainID  int64
	To       common.Address
	Value    *big.Int
	Data     []byte
	GasLimit uint64
	Nonce    uint64
}

// Service builds and signs EIP-1559 transactions and owns the gas policy.
// Signing is pure and deterministic given the key and the request fields.
type Service interface {
	// SuggestFees reads the current gas price and applies the configured
	// policy (base x multiplier, capped fee, floor priority fee).
	SuggestFees(ctx context.Context) (*Fees, error)

	// EstimateGasLimit queries the chain's estimator and applies the safety
	// margin, falling back to the given ceiling when estimation fails.
	// Estimation failure is not fatal.
	EstimateGasLimit(ctx context.Context, msg ethereum.CallMsg, fallback uint64) uint64

	// CheckGasFunds fails with ErrInsufficientGasFunds when the native
	// balance cannot cover the worst-case gas cost.
	CheckGasFunds(nativeBalance *big.Int, gasLimit uint64, fees *Fees) error

	// BuildAndSign produces a signed transaction for the request.
	BuildAndSign(w *wallet.Wallet, req *Request, fees *Fees) (*types.Transaction, error)
}
