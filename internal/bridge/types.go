package bridge

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	// ErrInsufficientBalance rejects a run whose bridge amount cannot be
	// covered by the token balance net of the dust reserve. Checked before
	// any transaction is built.
	ErrInsufficientBalance = errors.New("token balance too low to bridge")

	// ErrInsufficientGasBalance rejects a run when the native balance is
	// below the configured gas floor. Checked before any transaction is
	// built.
	ErrInsufficientGasBalance = errors.New("native balance too low for gas")
)

// QuoteRejectedError carries the bridge API's response verbatim.
type QuoteRejectedError struct {
	StatusCode int
	Reason     string
}

func (e *QuoteRejectedError) Error() string {
	return "bridge quote rejected: " + e.Reason
}

// TxDescriptor is one pre-built transaction returned by the bridge API. The
// calldata is opaque; it is signed and submitted as-is.
type TxDescriptor struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

// BridgeQuote is the API's transaction plan for one deposit: zero or more
// approvals to execute in order, then the deposit itself.
type BridgeQuote struct {
	Approvals      []TxDescriptor
	Deposit        *TxDescriptor
	InputAmount    *big.Int
	ExpectedOutput *big.Int
}

// TxResult records the outcome of one submitted transaction in a run.
type TxResult struct {
	Step        string
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
	ExplorerURL string
	Reverted    bool
}

// QuoteReport is the dry-run preview of a bridge transfer.
type QuoteReport struct {
	RunID          string
	Wallet         common.Address
	NativeBalance  *big.Int
	TokenBalance   *big.Int
	BridgeAmount   *big.Int
	ExpectedOutput *big.Int
	ApprovalCount  int
}

// ExecuteReport describes a bridge run. On a halt (revert or confirmation
// timeout) Transactions still lists everything submitted so far, so the
// caller can see which steps landed.
type ExecuteReport struct {
	RunID          string
	BridgeAmount   *big.Int
	ExpectedOutput *big.Int
	Transactions   []TxResult
	Completed      bool
}

// QuoteProvider requests a transaction plan from the bridge API.
type QuoteProvider interface {
	GetBridgeQuote(ctx context.Context, amount *big.Int, depositor common.Address) (*BridgeQuote, error)
}

// Service drives the bridge workflow on the origin chain. A nil amount
// bridges the full token balance minus the dust reserve.
type Service interface {
	// Quote previews the transfer without submitting anything.
	Quote(ctx context.Context, amount *big.Int) (*QuoteReport, error)

	// Execute runs the full plan: approvals in order, then the deposit.
	// The sequence halts on the first reverted receipt; the returned report
	// is populated even when err is non-nil.
	Execute(ctx context.Context, amount *big.Int) (*ExecuteReport, error)
}
