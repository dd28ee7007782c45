package bridge_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/noctiluca/go-tools/internal/bridge"
	"github/noctiluca/go-tools/internal/chain"
	"github/noctiluca/go-tools/internal/config"
	"github/noctiluca/go-tools/internal/txbuilder"
	"github/noctiluca/go-tools/internal/wallet"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

// fakeChain replays configured receipt statuses in submission order.
type fakeChain struct {
	nativeBalance *big.Int
	tokenBalance  *big.Int
	nonce         uint64
	nonceReads    int
	estimate      uint64
	estimateErr   error
	statuses      []uint64
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
	return big.NewInt(0), nil
}
func (f *fakeChain) GasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}
func (f *fakeChain) Nonce(context.Context, common.Address) (uint64, error) {
	f.nonceReads++
	return f.nonce, nil
}
func (f *fakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return f.estimate, f.estimateErr
}
func (f *fakeChain) Submit(_ context.Context, tx *types.Transaction) (common.Hash, error) {
	f.submitted = append(f.submitted, tx)
	return tx.Hash(), nil
}
func (f *fakeChain) WaitForReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	status := types.ReceiptStatusSuccessful
	idx := len(f.submitted) - 1
	if idx < len(f.statuses) {
		status = f.statuses[idx]
	}
	return &types.Receipt{
		TxHash:      txHash,
		Status:      status,
		BlockNumber: big.NewInt(int64(200 + idx)),
		GasUsed:     30_000,
	}, nil
}
func (f *fakeChain) ExplorerTxURL(txHash common.Hash) string {
	return "https://basescan.org/tx/" + txHash.Hex()
}
func (f *fakeChain) Close() {}

type fakeQuotes struct {
	quote *bridge.BridgeQuote
	err   error
	calls int
}

func (f *fakeQuotes) GetBridgeQuote(_ context.Context, amount *big.Int, _ common.Address) (*bridge.BridgeQuote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	q := *f.quote
	q.InputAmount = amount
	return &q, nil
}

func gasConfig() config.Gas {
	return config.Gas{
		PriceMultiplierPercent: 120,
		FeeCapMultiplier:       2,
		PriorityFeeFloorWei:    1_000_000,
		EstimateMarginPercent:  120,
		BridgeApprovalGasLimit: 100_000,
		BridgeDepositGasLimit:  300_000,
		MinNativeForGasWei:     100_000_000_000_000,
	}
}

func planWithApprovals(n int) *bridge.BridgeQuote {
	quote := &bridge.BridgeQuote{
		Deposit: &bridge.TxDescriptor{
			To:    common.HexToAddress("0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64"),
			Data:  []byte{0xde, 0xad},
			Value: big.NewInt(0),
		},
		ExpectedOutput: big.NewInt(4_985_000),
	}
	for i := 0; i < n; i++ {
		quote.Approvals = append(quote.Approvals, bridge.TxDescriptor{
			To:    common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
			Data:  []byte{0x09, 0x5e, 0xa7, 0xb3, byte(i)},
			Value: big.NewInt(0),
		})
	}
	return quote
}

type bridgeFixture struct {
	chain  *fakeChain
	quotes *fakeQuotes
	svc    bridge.Service
}

func newBridgeFixture(t *testing.T, chainState *fakeChain, plan *bridge.BridgeQuote) *bridgeFixture {
	t.Helper()

	w, err := wallet.FromKeyHex(testKeyHex)
	require.NoError(t, err)

	quotes := &fakeQuotes{quote: plan}
	builder := txbuilder.NewService(chainState, gasConfig())

	cfg := bridgeConfig("http://unused")

	return &bridgeFixture{
		chain:  chainState,
		quotes: quotes,
		svc:    bridge.NewService(cfg, gasConfig(), chainState, builder, quotes, w),
	}
}

func TestQuoteReport(t *testing.T) {
	fix := newBridgeFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1_000_000_000_000_000),
		tokenBalance:  big.NewInt(5_001_000),
	}, planWithApprovals(1))

	report, err := fix.svc.Quote(t.Context(), nil)
	require.NoError(t, err)

	// full balance minus the dust reserve
	assert.Equal(t, int64(5_000_000), report.BridgeAmount.Int64())
	assert.Equal(t, int64(4_985_000), report.ExpectedOutput.Int64())
	assert.Equal(t, 1, report.ApprovalCount)
}

func TestQuoteFailsFastOnTokenBalance(t *testing.T) {
	fix := newBridgeFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1_000_000_000_000_000),
		tokenBalance:  big.NewInt(1000), // dust only
	}, planWithApprovals(0))

	_, err := fix.svc.Quote(t.Context(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, bridge.ErrInsufficientBalance)
	assert.Zero(t, fix.quotes.calls)
}

func TestQuoteFailsFastOnGasBalance(t *testing.T) {
	fix := newBridgeFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1), // below the gas floor
		tokenBalance:  big.NewInt(5_001_000),
	}, planWithApprovals(0))

	_, err := fix.svc.Quote(t.Context(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, bridge.ErrInsufficientGasBalance)
	assert.Zero(t, fix.quotes.calls)
}

func TestExecuteRejectsAmountAboveTransferable(t *testing.T) {
	fix := newBridgeFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1_000_000_000_000_000),
		tokenBalance:  big.NewInt(5_001_000),
	}, planWithApprovals(0))

	// 5_000_001 exceeds balance minus dust
	_, err := fix.svc.Execute(t.Context(), big.NewInt(5_000_001))
	require.Error(t, err)
	assert.ErrorIs(t, err, bridge.ErrInsufficientBalance)
	assert.Empty(t, fix.chain.submitted)
}

func TestExecuteRunsPlanWithGaplessNonces(t *testing.T) {
	fix := newBridgeFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1_000_000_000_000_000),
		tokenBalance:  big.NewInt(5_001_000),
		nonce:         9,
		estimate:      150_000,
	}, planWithApprovals(2))

	report, err := fix.svc.Execute(t.Context(), nil)
	require.NoError(t, err)

	assert.True(t, report.Completed)
	require.Len(t, report.Transactions, 3)
	require.Len(t, fix.chain.submitted, 3)

	// one nonce read, then strictly sequential
	assert.Equal(t, 1, fix.chain.nonceReads)
	for i, tx := range fix.chain.submitted {
		assert.Equal(t, uint64(9+i), tx.Nonce())
	}

	// approvals use the fixed ceiling, the deposit the padded estimate
	assert.Equal(t, uint64(100_000), fix.chain.submitted[0].Gas())
	assert.Equal(t, uint64(100_000), fix.chain.submitted[1].Gas())
	assert.Equal(t, uint64(180_000), fix.chain.submitted[2].Gas())
}

func TestExecuteHaltsOnRevertedApproval(t *testing.T) {
	fix := newBridgeFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1_000_000_000_000_000),
		tokenBalance:  big.NewInt(5_001_000),
		statuses: []uint64{
			types.ReceiptStatusSuccessful,
			types.ReceiptStatusFailed,
		},
	}, planWithApprovals(2))

	report, err := fix.svc.Execute(t.Context(), nil)
	require.Error(t, err)

	var reverted *chain.RevertError
	require.ErrorAs(t, err, &reverted)

	// first approval confirmed, second reverted, deposit never attempted
	require.NotNil(t, report)
	require.Len(t, report.Transactions, 2)
	assert.False(t, report.Transactions[0].Reverted)
	assert.True(t, report.Transactions[1].Reverted)
	assert.Len(t, fix.chain.submitted, 2)
	assert.False(t, report.Completed)
}

func TestExecuteDepositEstimationFallsBack(t *testing.T) {
	fix := newBridgeFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1_000_000_000_000_000),
		tokenBalance:  big.NewInt(5_001_000),
		estimateErr:   errors.New("execution reverted"),
	}, planWithApprovals(0))

	report, err := fix.svc.Execute(t.Context(), nil)
	require.NoError(t, err)

	assert.True(t, report.Completed)
	require.Len(t, fix.chain.submitted, 1)
	assert.Equal(t, uint64(300_000), fix.chain.submitted[0].Gas())
}

func TestExecuteQuoteFailureSubmitsNothing(t *testing.T) {
	fix := newBridgeFixture(t, &fakeChain{
		nativeBalance: big.NewInt(1_000_000_000_000_000),
		tokenBalance:  big.NewInt(5_001_000),
	}, planWithApprovals(0))
	fix.quotes.err = errors.New("upstream down")

	_, err := fix.svc.Execute(t.Context(), nil)
	require.Error(t, err)
	assert.Empty(t, fix.chain.submitted)
}
