package swap

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github/noctiluca/go-tools/internal/wallet"
)

// Order field constants mandated by the exchange protocol.
const (
	OrderKindSell       = "sell"
	BalanceERC20        = "erc20"
	SigningSchemeEIP712 = "eip712"
)

var (
	// ErrNeedsApproval halts the execute step when the settlement allowance
	// is below the sell amount. Approval is a separate on-chain transaction
	// the caller triggers explicitly, so gas spending stays under their
	// control.
	ErrNeedsApproval = errors.New("allowance below sell amount, run the approve step first")

	// ErrQuoteExpired rejects an order built from a quote whose validity
	// window has elapsed. Expired quotes are never silently reused.
	ErrQuoteExpired = errors.New("quote validity window elapsed")

	// ErrSigning indicates key or domain misconfiguration. Fatal, no retry.
	ErrSigning = errors.New("order signing failed")

	// ErrInsufficientBalance rejects a requested sell amount above the
	// current token balance before any quote is requested.
	ErrInsufficientBalance = errors.New("sell amount exceeds token balance")
)

// QuoteRejectedError carries the pricing API's reason verbatim. Quotes are
// not retried automatically since amounts and expiry may have changed.
type QuoteRejectedError struct {
	Reason string
}

func (e *QuoteRejectedError) Error() string {
	return "quote rejected: " + e.Reason
}

// OrderRejectedError carries the order relay's reason verbatim.
type OrderRejectedError struct {
	StatusCode int
	Reason     string
}

func (e *OrderRejectedError) Error() string {
	return "order rejected by relay: " + e.Reason
}

// Quote is a single-use, time-bounded price quote. It must not back an order
// once ValidTo has passed or the sell amount has changed.
type Quote struct {
	SellToken  common.Address
	BuyToken   common.Address
	SellAmount *big.Int
	BuyAmount  *big.Int
	FeeAmount  *big.Int
	ValidTo    uint32
}

// Order is the fully specified off-chain order submitted to the relay. The
// field set, order and type tags are part of the signed wire contract.
type Order struct {
	SellToken         common.Address
	BuyToken          common.Address
	Receiver          common.Address
	SellAmount        *big.Int
	BuyAmount         *big.Int
	ValidTo           uint32
	AppData           string
	FeeAmount         *big.Int
	Kind              string
	PartiallyFillable bool
	SellTokenBalance  string
	BuyTokenBalance   string
}

// OrderFromQuote builds an Order from a fresh quote for the given receiver.
// The fee amount is fixed to zero: on this deployment the fee is already
// deducted from sellAmount versus sellAmountBeforeFee, and the relay rejects
// non-zero fee orders.
func OrderFromQuote(quote *Quote, receiver common.Address, appData string, now time.Time) (*Order, error) {
	if int64(quote.ValidTo) <= now.Unix() {
		return nil, errors.Wrapf(ErrQuoteExpired, "validTo %d", quote.ValidTo)
	}

	return &Order{
		SellToken:         quote.SellToken,
		BuyToken:          quote.BuyToken,
		Receiver:          receiver,
		SellAmount:        quote.SellAmount,
		BuyAmount:         quote.BuyAmount,
		ValidTo:           quote.ValidTo,
		AppData:           appData,
		FeeAmount:         big.NewInt(0),
		Kind:              OrderKindSell,
		PartiallyFillable: false,
		SellTokenBalance:  BalanceERC20,
		BuyTokenBalance:   BalanceERC20,
	}, nil
}

// QuoteProvider requests a price quote from the exchange's pricing API.
// Quotes are never cached; every invocation re-fetches.
type QuoteProvider interface {
	GetQuote(ctx context.Context, sellAmount *big.Int, trader common.Address) (*Quote, error)
}

// OrderRelay submits signed orders to the exchange's order relay, which
// handles matching and settlement.
type OrderRelay interface {
	SubmitOrder(ctx context.Context, order *Order, signature string, from common.Address) (string, error)
}

// OrderSigner produces the typed-data signature for an order.
type OrderSigner interface {
	SignOrder(w *wallet.Wallet, order *Order) (string, error)
}

// QuoteReport is the preview produced by the quote step.
type QuoteReport struct {
	RunID         string
	Wallet        common.Address
	NativeBalance *big.Int
	SellBalance   *big.Int
	Allowance     *big.Int
	NothingToSwap bool
	Quote         *Quote
	NeedsApproval bool
}

// ApproveReport describes the outcome of the approval step.
type ApproveReport struct {
	RunID           string
	AlreadyApproved bool
	TxHash          common.Hash
	BlockNumber     uint64
	GasUsed         uint64
	NewAllowance    *big.Int
	ExplorerURL     string
}

// ExecuteReport describes the outcome of the swap execution step.
type ExecuteReport struct {
	RunID         string
	NothingToSwap bool
	Quote         *Quote
	OrderUID      string
	ExplorerURL   string
}

// Service drives the gasless swap workflow: balances and allowance reads, a
// fresh quote, the approval gate, typed-data signing and relay submission.
type Service interface {
	// Quote reports balances, allowance and a current quote without touching
	// the chain state.
	Quote(ctx context.Context) (*QuoteReport, error)

	// Approve grants the settlement spender a max allowance for the sell
	// token. No-op when an allowance is already set.
	Approve(ctx context.Context) (*ApproveReport, error)

	// Execute signs and submits a sell order for sellAmount, or the full
	// token balance when sellAmount is nil.
	Execute(ctx context.Context, sellAmount *big.Int) (*ExecuteReport, error)
}
