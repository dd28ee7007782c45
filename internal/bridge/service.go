package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/noctiluca/go-tools/internal/chain"
	"github/noctiluca/go-tools/internal/config"
	"github/noctiluca/go-tools/internal/txbuilder"
	"github/noctiluca/go-tools/internal/wallet"
)

type service struct {
	cfg          config.Bridge
	gas          config.Gas
	chainService chain.Service
	builder      txbuilder.Service
	quotes       QuoteProvider
	wallet       *wallet.Wallet
}

//nolint:ireturn
func NewService(
	cfg config.Bridge,
	gas config.Gas,
	chainService chain.Service,
	builder txbuilder.Service,
	quotes QuoteProvider,
	w *wallet.Wallet,
) Service {
	return &service{
		cfg:          cfg,
		gas:          gas,
		chainService: chainService,
		builder:      builder,
		quotes:       quotes,
		wallet:       w,
	}
}

func (s *service) Quote(ctx context.Context, amount *big.Int) (*QuoteReport, error) {
	runID := uuid.New().String()
	addr := s.wallet.Address()

	nativeBalance, tokenBalance, bridgeAmount, err := s.checkFunds(ctx, amount)
	if err != nil {
		return nil, err
	}

	quote, err := s.quotes.GetBridgeQuote(ctx, bridgeAmount, addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch bridge quote")
	}

	log.Info().
		Str("run_id", runID).
		Str("bridge_amount", bridgeAmount.String()).
		Str("expected_output", quote.ExpectedOutput.String()).
		Int("approvals", len(quote.Approvals)).
		Msg("Fetched bridge quote")

	return &QuoteReport{
		RunID:          runID,
		Wallet:         addr,
		NativeBalance:  nativeBalance,
		TokenBalance:   tokenBalance,
		BridgeAmount:   bridgeAmount,
		ExpectedOutput: quote.ExpectedOutput,
		ApprovalCount:  len(quote.Approvals),
	}, nil
}

func (s *service) Execute(ctx context.Context, amount *big.Int) (*ExecuteReport, error) {
	runID := uuid.New().String()
	addr := s.wallet.Address()

	_, _, bridgeAmount, err := s.checkFunds(ctx, amount)
	if err != nil {
		return nil, err
	}

	quote, err := s.quotes.GetBridgeQuote(ctx, bridgeAmount, addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch bridge quote")
	}

	report := &ExecuteReport{
		RunID:          runID,
		BridgeAmount:   bridgeAmount,
		ExpectedOutput: quote.ExpectedOutput,
	}

	fees, err := s.builder.SuggestFees(ctx)
	if err != nil {
		return report, errors.Wrap(err, "failed to suggest fees")
	}

	// Single nonce read for the whole run. Incremented in memory after each
	// accepted submission so the sequence stays gapless even when the
	// endpoint's pending view lags.
	nonce, err := s.chainService.Nonce(ctx, addr)
	if err != nil {
		return report, errors.Wrap(err, "failed to read nonce")
	}

	for i, approval := range quote.Approvals {
		step := fmt.Sprintf("approval %d/%d", i+1, len(quote.Approvals))

		result, err := s.runStep(ctx, step, &approval, s.gas.BridgeApprovalGasLimit, nonce, fees)
		if result != nil {
			report.Transactions = append(report.Transactions, *result)
		}
		if err != nil {
			return report, err
		}
		nonce++
	}

	depositGas := s.builder.EstimateGasLimit(ctx, ethereum.CallMsg{
		From:  addr,
		To:    &quote.Deposit.To,
		Value: quote.Deposit.Value,
		Data:  quote.Deposit.Data,
	}, s.gas.BridgeDepositGasLimit)

	result, err := s.runStep(ctx, "deposit", quote.Deposit, depositGas, nonce, fees)
	if result != nil {
		report.Transactions = append(report.Transactions, *result)
	}
	if err != nil {
		return report, err
	}

	report.Completed = true

	log.Info().
		Str("run_id", runID).
		Str("bridge_amount", bridgeAmount.String()).
		Str("expected_output", quote.ExpectedOutput.String()).
		Msg("Bridge deposit confirmed")

	return report, nil
}

// checkFunds resolves the bridge amount and fails fast on balances the run
// cannot afford, before anything is signed.
func (s *service) checkFunds(ctx context.Context, amount *big.Int) (native, token, bridgeAmount *big.Int, err error) {
	addr := s.wallet.Address()

	native, err = s.chainService.NativeBalance(ctx, addr)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to read native balance")
	}

	token, err = s.chainService.TokenBalance(ctx, s.cfg.InputToken.Addr(), addr)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to read token balance")
	}

	transferable := new(big.Int).Sub(token, big.NewInt(s.cfg.DustReserve))
	if amount == nil {
		bridgeAmount = transferable
	} else {
		bridgeAmount = amount
	}

	if bridgeAmount.Sign() <= 0 || bridgeAmount.Cmp(transferable) > 0 {
		return nil, nil, nil, errors.Wrapf(ErrInsufficientBalance,
			"balance %s, dust reserve %d, requested %s", token, s.cfg.DustReserve, bridgeAmount)
	}

	if native.Cmp(big.NewInt(s.gas.MinNativeForGasWei)) < 0 {
		return nil, nil, nil, errors.Wrapf(ErrInsufficientGasBalance,
			"balance %s wei, required %d wei", native, s.gas.MinNativeForGasWei)
	}

	return native, token, bridgeAmount, nil
}

// runStep signs, submits and confirms one transaction of the plan. A
// reverted receipt yields both a result (for the report) and an error that
// halts the sequence.
func (s *service) runStep(ctx context.Context, step string, desc *TxDescriptor, gasLimit, nonce uint64, fees *txbuilder.Fees) (*TxResult, error) {
	tx, err := s.builder.BuildAndSign(s.wallet, &txbuilder.Request{
		ChainID:  s.chainService.ChainID(),
		To:       desc.To,
		Value:    desc.Value,
		Data:     desc.Data,
		GasLimit: gasLimit,
		Nonce:    nonce,
	}, fees)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build %s transaction", step)
	}

	txHash, err := s.chainService.Submit(ctx, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to submit %s transaction", step)
	}

	log.Info().Str("step", step).Str("tx_hash", txHash.Hex()).Msg("Submitted transaction")

	receipt, err := s.chainService.WaitForReceipt(ctx, txHash)
	if err != nil {
		return &TxResult{
			Step:        step,
			TxHash:      txHash,
			ExplorerURL: s.chainService.ExplorerTxURL(txHash),
		}, errors.Wrapf(err, "failed to confirm %s transaction", step)
	}

	result := &TxResult{
		Step:        step,
		TxHash:      txHash,
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		ExplorerURL: s.chainService.ExplorerTxURL(txHash),
		Reverted:    receipt.Status != 1,
	}

	if result.Reverted {
		return result, &chain.RevertError{
			Step:        step,
			TxHash:      txHash,
			BlockNumber: receipt.BlockNumber.Uint64(),
		}
	}

	return result, nil
}
