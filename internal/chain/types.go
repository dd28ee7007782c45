package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

var (
	// ErrAllEndpointsFailed means no configured RPC endpoint produced a
	// well-formed response for one call. The wrapped message carries the last
	// error seen; the caller may re-run the workflow later.
	ErrAllEndpointsFailed = errors.New("all rpc endpoints failed")

	// ErrConfirmationTimeout means a submitted transaction was not confirmed
	// within the polling window. It is distinct from an on-chain revert: the
	// transaction may still land, so the caller is told to check later.
	ErrConfirmationTimeout = errors.New("transaction not confirmed within timeout")
)

// RevertError reports a transaction that was mined but reverted. Workflows
// halt when they see one: whatever state the failed step left behind must be
// inspected before anything further is signed.
type RevertError struct {
	Step        string
	TxHash      common.Hash
	BlockNumber uint64
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("%s transaction %s reverted in block %d", e.Step, e.TxHash.Hex(), e.BlockNumber)
}

// Service is the RPC boundary for one chain: reads, raw submission, and
// receipt polling over an ordered list of candidate endpoints with per-call
// failover.
type Service interface {
	// ChainID returns the configured chain identifier.
	ChainID() int64

	// NativeBalance returns the native currency balance of the account.
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)

	// TokenBalance returns the ERC-20 balance of the account.
	TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error)

	// Allowance returns the ERC-20 allowance granted by owner to spender.
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)

	// GasPrice returns the current suggested gas price.
	GasPrice(ctx context.Context) (*big.Int, error)

	// Nonce returns the transaction count of the account at the latest block.
	Nonce(ctx context.Context, account common.Address) (uint64, error)

	// EstimateGas asks the chain's estimator for a gas limit.
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)

	// Submit broadcasts a signed transaction and returns its hash. Submission
	// is endpoint-sticky: once any endpoint has answered, the transaction is
	// not re-broadcast to others.
	Submit(ctx context.Context, tx *types.Transaction) (common.Hash, error)

	// WaitForReceipt polls for the receipt on a fixed interval up to the
	// configured timeout, returning ErrConfirmationTimeout when it elapses.
	WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// ExplorerTxURL renders a block explorer link for a transaction hash.
	ExplorerTxURL(txHash common.Hash) string

	// Close releases all endpoint connections.
	Close()
}
