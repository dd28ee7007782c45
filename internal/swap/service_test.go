package swap_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/noctiluca/go-tools/internal/chain"
	"github/noctiluca/go-tools/internal/config"
	"github/noctiluca/go-tools/internal/swap"
	"github/noctiluca/go-tools/internal/txbuilder"
	"github/noctiluca/go-tools/internal/wallet"
)

// fakeChain is an in-memory chain state for workflow tests.
type fakeChain struct {
	nativeBalance *big.Int
	tokenBalance  *big.Int
	allowance     *big.Int
	nonce         uint64
	receiptStatus uint64
	submitted     []*types.Transaction
}

func (f *fakeChain) ChainID() int64 { return 8453 }
func (f *fakeChain) NativeBalance(context.Context, common.Address) (*big.Int, error) {
	return f.nativeBalance, nil
}
func (f *fakeChain) TokenBalance(context.Context, common.Address, common.Address) (*big.Int, error) {
	return f.tokenBalance, nil
}
func (f *fakeChain) Allowance(context.Context, common.Address, common.Address, common.Address) (*big.Int, error) {
	return f.allowance, nil
}
func (f *fakeChain) GasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}
func (f *fakeChain) Nonce(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}
func (f *fakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 80_000, nil
}
func (f *fakeChain) Submit(_ context.Context, tx *types.Transaction) (common.Hash, error) {
	f.submitted = append(f.submitted, tx)
	return tx.Hash(), nil
}
func (f *fakeChain) WaitForReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	return &types.Receipt{
		TxHash:      txHash,
		Status:      f.receiptStatus,
		BlockNumber: big.NewInt(100),
		GasUsed:     42_000,
	}, nil
}
func (f *fakeChain) ExplorerTxURL(txHash common.Hash) string {
	return "https://basescan.org/tx/" + txHash.Hex()
}
func (f *fakeChain) Close() {}

type fakeQuotes struct {
	quote *swap.Quote
	err   error
	calls int
}

func (f *fakeQuotes) GetQuote(_ context.Context, sellAmount *big.Int, _ common.Address) (*swap.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	q := *f.quote
	q.SellAmount = sellAmount
	return &q, nil
}

type fakeRelay struct {
	uid    string
	err    error
	orders []*swap.Order
}

func (f *fakeRelay) SubmitOrder(_ context.Context, order *swap.Order, _ string, _ common.Address) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.orders = append(f.orders, order)
	return f.uid, nil
}

type fakeSigner struct {
	calls int
}

func (f *fakeSigner) SignOrder(*wallet.Wallet, *swap.Order) (string, error) {
	f.calls++
	return "0xsigned", nil
}

func swapConfig() config.Swap {
	return config.Swap{
		VaultRelayer:     "0xC92E8bdf79f0507f65a392b0ab4667716BFE0110",
		AppData:          zeroAppData,
		ExplorerOrderURL: "https://explorer.example/orders/%s",
		SellToken:        config.Token{Symbol: "WETH", Address: "0x4200000000000000000000000000000000000006", Decimals: 18},
		BuyToken:         config.Token{Symbol: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
	}
}

func gasConfig() config.Gas {
	return config.Gas{
		PriceMultiplierPercent: 120,
		FeeCapMultiplier:       2,
		PriorityFeeFloorWei:    1_000_000,
		EstimateMarginPercent:  120,
		ApproveGasLimit:        50_000,
	}
}

func freshQuote() *swap.Quote {
	return &swap.Quote{
		SellToken:  common.HexToAddress("0x4200000000000000000000000000000000000006"),
		BuyToken:   common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		BuyAmount:  big.NewInt(1_250_000),
		FeeAmount:  big.NewInt(0),
		ValidTo:    uint32(time.Now().Add(30 * time.Minute).Unix()),
	}
}

type swapFixture struct {
	chain  *fakeChain
	quotes *fakeQuotes
	relay  *fakeRelay
	signer *fakeSigner
	svc    swap.Service
}

func newSwapFixture(t *testing.T, chainState *fakeChain) *swapFixture {
	t.Helper()

	w, err := wallet.FromKeyHex(testKeyHex)
	require.NoError(t, err)

	quotes := &fakeQuotes{quote: freshQuote()}
	relay := &fakeRelay{uid: "0xuid1234"}
	signer := &fakeSigner{}
	builder := txbuilder.NewService(chainState, gasConfig())

	return &swapFixture{
		chain:  chainState,
		quotes: quotes,
		relay:  relay,
		signer: signer,
		svc:    swap.NewService(swapConfig(), gasConfig(), chainState, builder, quotes, relay, signer, w),
	}
}

func TestQuoteReportsNothingToSwap(t *testing.T) {
	fix := newSwapFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1_000_000_000_000_000),
		tokenBalance:  big.NewInt(0),
		allowance:     big.NewInt(0),
	})

	report, err := fix.svc.Quote(t.Context())
	require.NoError(t, err)

	assert.True(t, report.NothingToSwap)
	assert.Nil(t, report.Quote)
	assert.Zero(t, fix.quotes.calls)
}

func TestQuoteFlagsMissingApproval(t *testing.T) {
	fix := newSwapFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1_000_000_000_000_000),
		tokenBalance:  big.NewInt(500_000),
		allowance:     big.NewInt(0),
	})

	report, err := fix.svc.Quote(t.Context())
	require.NoError(t, err)

	assert.False(t, report.NothingToSwap)
	assert.True(t, report.NeedsApproval)
	require.NotNil(t, report.Quote)
	assert.Equal(t, int64(500_000), report.Quote.SellAmount.Int64())
}

func TestExecuteNothingToSwap(t *testing.T) {
	fix := newSwapFixture(t, &fakeChain{
		tokenBalance: big.NewInt(0),
		allowance:    big.NewInt(0),
	})

	report, err := fix.svc.Execute(t.Context(), nil)
	require.NoError(t, err)

	assert.True(t, report.NothingToSwap)
	assert.Empty(t, fix.relay.orders)
	assert.Zero(t, fix.signer.calls)
}

func TestExecuteHaltsWithoutAllowance(t *testing.T) {
	fix := newSwapFixture(t, &fakeChain{
		tokenBalance: big.NewInt(500_000),
		allowance:    big.NewInt(0),
	})

	_, err := fix.svc.Execute(t.Context(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, swap.ErrNeedsApproval)

	// Nothing was signed or submitted.
	assert.Zero(t, fix.signer.calls)
	assert.Empty(t, fix.relay.orders)
	assert.Empty(t, fix.chain.submitted)
}

func TestExecuteExactAllowanceSuffices(t *testing.T) {
	fix := newSwapFixture(t, &fakeChain{
		tokenBalance: big.NewInt(500_000),
		allowance:    big.NewInt(500_000),
	})

	report, err := fix.svc.Execute(t.Context(), nil)
	require.NoError(t, err)

	assert.Equal(t, "0xuid1234", report.OrderUID)
	assert.Equal(t, "https://explorer.example/orders/0xuid1234", report.ExplorerURL)
	require.Len(t, fix.relay.orders, 1)

	order := fix.relay.orders[0]
	assert.Equal(t, int64(500_000), order.SellAmount.Int64())
	assert.Equal(t, swap.OrderKindSell, order.Kind)
	assert.Equal(t, int64(0), order.FeeAmount.Int64())
}

func TestExecuteRejectsAmountAboveBalance(t *testing.T) {
	fix := newSwapFixture(t, &fakeChain{
		tokenBalance: big.NewInt(500_000),
		allowance:    big.NewInt(1_000_000),
	})

	_, err := fix.svc.Execute(t.Context(), big.NewInt(600_000))
	require.Error(t, err)
	assert.ErrorIs(t, err, swap.ErrInsufficientBalance)
}

func TestExecuteNeverSignsExpiredQuote(t *testing.T) {
	fix := newSwapFixture(t, &fakeChain{
		tokenBalance: big.NewInt(500_000),
		allowance:    big.NewInt(500_000),
	})
	fix.quotes.quote.ValidTo = uint32(time.Now().Add(-time.Minute).Unix())

	_, err := fix.svc.Execute(t.Context(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, swap.ErrQuoteExpired)
	assert.Zero(t, fix.signer.calls)
	assert.Empty(t, fix.relay.orders)
}

func TestExecuteSurfacesRelayRejection(t *testing.T) {
	fix := newSwapFixture(t, &fakeChain{
		tokenBalance: big.NewInt(500_000),
		allowance:    big.NewInt(500_000),
	})
	fix.relay.err = &swap.OrderRejectedError{StatusCode: 400, Reason: "InsufficientValidTo"}

	_, err := fix.svc.Execute(t.Context(), nil)
	require.Error(t, err)

	var rejected *swap.OrderRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "InsufficientValidTo", rejected.Reason)
}

func TestApproveSkipsWhenAllowanceSet(t *testing.T) {
	fix := newSwapFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1_000_000_000_000_000),
		allowance:     big.NewInt(1),
	})

	report, err := fix.svc.Approve(t.Context())
	require.NoError(t, err)

	assert.True(t, report.AlreadyApproved)
	assert.Empty(t, fix.chain.submitted)
}

func TestApproveSubmitsMaxApproval(t *testing.T) {
	fix := newSwapFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1_000_000_000_000_000),
		allowance:     big.NewInt(0),
		nonce:         3,
		receiptStatus: types.ReceiptStatusSuccessful,
	})

	report, err := fix.svc.Approve(t.Context())
	require.NoError(t, err)

	assert.False(t, report.AlreadyApproved)
	assert.Equal(t, uint64(100), report.BlockNumber)
	require.Len(t, fix.chain.submitted, 1)

	tx := fix.chain.submitted[0]
	assert.Equal(t, uint64(3), tx.Nonce())
	assert.Equal(t, uint64(50_000), tx.Gas())
	assert.Equal(t, common.HexToAddress("0x4200000000000000000000000000000000000006"), *tx.To())

	data := tx.Data()
	require.Len(t, data, 4+2*32)
	assert.Equal(t, []byte{0x09, 0x5e, 0xa7, 0xb3}, data[:4])
	// spender, left padded
	assert.Equal(t,
		common.HexToAddress("0xC92E8bdf79f0507f65a392b0ab4667716BFE0110"),
		common.BytesToAddress(data[4:36]))
	// max uint256 amount
	assert.Equal(t, common.MaxHash.Big(), new(big.Int).SetBytes(data[36:]))
}

func TestApproveChecksGasFunds(t *testing.T) {
	fix := newSwapFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1), // cannot cover 50k gas
		allowance:     big.NewInt(0),
	})

	_, err := fix.svc.Approve(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, txbuilder.ErrInsufficientGasFunds)
	assert.Empty(t, fix.chain.submitted)
}

func TestApproveReportsRevert(t *testing.T) {
	fix := newSwapFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1_000_000_000_000_000),
		allowance:     big.NewInt(0),
		receiptStatus: types.ReceiptStatusFailed,
	})

	_, err := fix.svc.Approve(t.Context())
	require.Error(t, err)

	var reverted *chain.RevertError
	require.ErrorAs(t, err, &reverted)
	assert.Equal(t, "approve", reverted.Step)
	assert.Equal(t, uint64(100), reverted.BlockNumber)
}

// quote fetch failures must not reach the relay
func TestExecuteStopsOnQuoteError(t *testing.T) {
	fix := newSwapFixture(t, &fakeChain{
		tokenBalance: big.NewInt(500_000),
		allowance:    big.NewInt(500_000),
	})
	fix.quotes.err = errors.New("upstream down")

	_, err := fix.svc.Execute(t.Context(), nil)
	require.Error(t, err)
	assert.Empty(t, fix.relay.orders)
}
