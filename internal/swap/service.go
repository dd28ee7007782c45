package swap

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/noctiluca/go-tools/internal/chain"
	"github/noctiluca/go-tools/internal/config"
	"github/noctiluca/go-tools/internal/txbuilder"
	"github/noctiluca/go-tools/internal/wallet"
)

// approveMethodID is the 4-byte selector of approve(address,uint256).
var approveMethodID = []byte{0x09, 0x5e, 0xa7, 0xb3}

// maxUint256 grants an unlimited allowance so approval is a one-time cost.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

type service struct {
	cfg          config.Swap
	gas          config.Gas
	chainService chain.Service
	builder      txbuilder.Service
	quotes       QuoteProvider
	relay        OrderRelay
	signer       OrderSigner
	wallet       *wallet.Wallet
}

//nolint:ireturn
func NewService(
	cfg config.Swap,
	gas config.Gas,
	chainService chain.Service,
	builder txbuilder.Service,
	quotes QuoteProvider,
	relay OrderRelay,
	signer OrderSigner,
	w *wallet.Wallet,
) Service {
	return &service{
		cfg:          cfg,
		gas:          gas,
		chainService: chainService,
		builder:      builder,
		quotes:       quotes,
		relay:        relay,
		signer:       signer,
		wallet:       w,
	}
}

func (s *service) Quote(ctx context.Context) (*QuoteReport, error) {
	runID := uuid.New().String()
	addr := s.wallet.Address()

	nativeBalance, err := s.chainService.NativeBalance(ctx, addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read native balance")
	}

	sellBalance, err := s.chainService.TokenBalance(ctx, s.cfg.SellToken.Addr(), addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read sell token balance")
	}

	allowance, err := s.chainService.Allowance(ctx, s.cfg.SellToken.Addr(), addr, common.HexToAddress(s.cfg.VaultRelayer))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read allowance")
	}

	report := &QuoteReport{
		RunID:         runID,
		Wallet:        addr,
		NativeBalance: nativeBalance,
		SellBalance:   sellBalance,
		Allowance:     allowance,
	}

	if sellBalance.Sign() == 0 {
		log.Info().Str("run_id", runID).Msg("Sell token balance is zero, nothing to swap")
		report.NothingToSwap = true

		return report, nil
	}

	quote, err := s.quotes.GetQuote(ctx, sellBalance, addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch quote")
	}

	report.Quote = quote
	report.NeedsApproval = allowance.Cmp(sellBalance) < 0

	log.Info().
		Str("run_id", runID).
		Str("sell_amount", quote.SellAmount.String()).
		Str("buy_amount", quote.BuyAmount.String()).
		Uint32("valid_to", quote.ValidTo).
		Bool("needs_approval", report.NeedsApproval).
		Msg("Fetched quote")

	return report, nil
}

func (s *service) Approve(ctx context.Context) (*ApproveReport, error) {
	runID := uuid.New().String()
	addr := s.wallet.Address()
	spender := common.HexToAddress(s.cfg.VaultRelayer)
	token := s.cfg.SellToken.Addr()

	allowance, err := s.chainService.Allowance(ctx, token, addr, spender)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read allowance")
	}

	if allowance.Sign() > 0 {
		log.Info().Str("run_id", runID).Str("allowance", allowance.String()).Msg("Allowance already set, skipping approval")

		return &ApproveReport{
			RunID:           runID,
			AlreadyApproved: true,
			NewAllowance:    allowance,
		}, nil
	}

	fees, err := s.builder.SuggestFees(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to suggest fees")
	}

	nativeBalance, err := s.chainService.NativeBalance(ctx, addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read native balance")
	}

	gasLimit := s.gas.ApproveGasLimit
	if err := s.builder.CheckGasFunds(nativeBalance, gasLimit, fees); err != nil {
		return nil, err
	}

	nonce, err := s.chainService.Nonce(ctx, addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read nonce")
	}

	tx, err := s.builder.BuildAndSign(s.wallet, &txbuilder.Request{
		ChainID:  s.chainService.ChainID(),
		To:       token,
		Value:    big.NewInt(0),
		Data:     approveCalldata(spender),
		GasLimit: gasLimit,
		Nonce:    nonce,
	}, fees)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build approval transaction")
	}

	txHash, err := s.chainService.Submit(ctx, tx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to submit approval transaction")
	}

	log.Info().Str("run_id", runID).Str("tx_hash", txHash.Hex()).Msg("Submitted approval transaction")

	receipt, err := s.chainService.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to confirm approval transaction")
	}

	if receipt.Status != 1 {
		return nil, &chain.RevertError{
			Step:        "approve",
			TxHash:      txHash,
			BlockNumber: receipt.BlockNumber.Uint64(),
		}
	}

	newAllowance, err := s.chainService.Allowance(ctx, token, addr, spender)
	if err != nil {
		return nil, errors.Wrap(err, "failed to re-read allowance")
	}

	return &ApproveReport{
		RunID:        runID,
		TxHash:       txHash,
		BlockNumber:  receipt.BlockNumber.Uint64(),
		GasUsed:      receipt.GasUsed,
		NewAllowance: newAllowance,
		ExplorerURL:  s.chainService.ExplorerTxURL(txHash),
	}, nil
}

func (s *service) Execute(ctx context.Context, sellAmount *big.Int) (*ExecuteReport, error) {
	runID := uuid.New().String()
	addr := s.wallet.Address()

	balance, err := s.chainService.TokenBalance(ctx, s.cfg.SellToken.Addr(), addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read sell token balance")
	}

	if balance.Sign() == 0 {
		log.Info().Str("run_id", runID).Msg("Sell token balance is zero, nothing to swap")

		return &ExecuteReport{RunID: runID, NothingToSwap: true}, nil
	}

	if sellAmount == nil {
		sellAmount = balance
	} else if sellAmount.Cmp(balance) > 0 {
		return nil, errors.Wrapf(ErrInsufficientBalance, "requested %s, balance %s", sellAmount, balance)
	}

	allowance, err := s.chainService.Allowance(ctx, s.cfg.SellToken.Addr(), addr, common.HexToAddress(s.cfg.VaultRelayer))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read allowance")
	}

	if allowance.Cmp(sellAmount) < 0 {
		return nil, errors.Wrapf(ErrNeedsApproval, "allowance %s, sell amount %s", allowance, sellAmount)
	}

	quote, err := s.quotes.GetQuote(ctx, sellAmount, addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch quote")
	}

	order, err := OrderFromQuote(quote, addr, s.cfg.AppData, time.Now())
	if err != nil {
		return nil, err
	}

	signature, err := s.signer.SignOrder(s.wallet, order)
	if err != nil {
		return nil, err
	}

	orderUID, err := s.relay.SubmitOrder(ctx, order, signature, addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to submit order")
	}

	log.Info().
		Str("run_id", runID).
		Str("order_uid", orderUID).
		Str("sell_amount", order.SellAmount.String()).
		Str("buy_amount", order.BuyAmount.String()).
		Msg("Order submitted")

	return &ExecuteReport{
		RunID:       runID,
		Quote:       quote,
		OrderUID:    orderUID,
		ExplorerURL: fmt.Sprintf(s.cfg.ExplorerOrderURL, orderUID),
	}, nil
}

// approveCalldata encodes approve(spender, maxUint256).
func approveCalldata(spender common.Address) []byte {
	data := make([]byte, 0, 4+2*32)
	data = append(data, approveMethodID...)
	data = append(data, common.LeftPadBytes(spender.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(maxUint256.Bytes(), 32)...)

	return data
}
