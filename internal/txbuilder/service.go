package txbuilder

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/noctiluca/go-tools/internal/chain"
	"github/noctiluca/go-tools/internal/config"
	"github/noctiluca/go-tools/internal/wallet"
)

const percentBase = 100

// service implements Service. Network access is limited to gas price and gas
// estimation reads; signing itself touches no network state.
type service struct {
	chainService chain.Service
	gas          config.Gas
}

// NewService creates a transaction builder bound to one chain and gas policy.
//
//nolint:ireturn
func NewService(chainService chain.Service, gas config.Gas) Service {
	return &service{
		chainService: chainService,
		gas:          gas,
	}
}

// SuggestFees applies the fee policy: adjusted = gasPrice x multiplier,
// maxFeePerGas = adjusted x cap multiplier, priority fee = fixed floor
// (never above the fee cap).
func (s *service) SuggestFees(ctx context.Context) (*Fees, error) {
	gasPrice, err := s.chainService.GasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gas price")
	}

	adjusted := new(big.Int).Mul(gasPrice, big.NewInt(s.gas.PriceMultiplierPercent))
	adjusted.Div(adjusted, big.NewInt(percentBase))

	maxFee := new(big.Int).Mul(adjusted, big.NewInt(s.gas.FeeCapMultiplier))

	tip := big.NewInt(s.gas.PriorityFeeFloorWei)
	if tip.Cmp(maxFee) > 0 {
		tip = new(big.Int).Set(maxFee)
	}

	return &Fees{
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: tip,
	}, nil
}

func (s *service) EstimateGasLimit(ctx context.Context, msg ethereum.CallMsg, fallback uint64) uint64 {
	estimated, err := s.chainService.EstimateGas(ctx, msg)
	if err != nil {
		log.Warn().
			Err(err).
			Uint64("fallback", fallback).
			Msg("Gas estimation failed, using fixed ceiling")
		return fallback
	}

	//nolint:gosec // margin percent is a small positive config value
	return estimated * uint64(s.gas.EstimateMarginPercent) / percentBase
}

func (s *service) CheckGasFunds(nativeBalance *big.Int, gasLimit uint64, fees *Fees) error {
	cost := new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), fees.MaxFeePerGas)
	if nativeBalance.Cmp(cost) < 0 {
		return errors.Wrapf(ErrInsufficientGasFunds, "need %s wei, have %s wei", cost.String(), nativeBalance.String())
	}

	return nil
}

// BuildAndSign creates and signs an EIP-1559 transaction. The private key is
// used in place and never logged or transmitted.
func (s *service) BuildAndSign(w *wallet.Wallet, req *Request, fees *Fees) (*types.Transaction, error) {
	value := req.Value
	if value == nil {
		value = big.NewInt(0)
	}

	to := req.To
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(req.ChainID),
		Nonce:     req.Nonce,
		GasTipCap: fees.MaxPriorityFeePerGas,
		GasFeeCap: fees.MaxFeePerGas,
		Gas:       req.GasLimit,
		To:        &to,
		Value:     value,
		Data:      req.Data,
	})

	signer := types.NewLondonSigner(big.NewInt(req.ChainID))
	signedTx, err := types.SignTx(tx, signer, w.Key())
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	return signedTx, nil
}
