package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/noctiluca/go-tools/internal/config"
)

// ERC-20 method selectors used for read calls.
var (
	balanceOfMethodID = common.Hex2Bytes("70a08231")
	allowanceMethodID = common.Hex2Bytes("dd62ed3e")
)

const abiPaddedLength = 32

// service implements Service over an ordered endpoint list. Endpoints are
// dialed lazily and re-dialed on use after a failed dial; within one call an
// endpoint is tried at most once.
type service struct {
	chainName      string
	chainID        int64
	urls           []string
	explorerTxURL  string
	pollInterval   time.Duration
	receiptTimeout time.Duration

	mu      sync.Mutex
	clients []*ethclient.Client
}

// NewService creates an RPC client for one chain.
//
//nolint:ireturn
func NewService(cfg config.Chain, gas config.Gas) (Service, error) {
	if len(cfg.RPCURLs) == 0 {
		return nil, errors.New("at least one RPC URL is required")
	}

	return &service{
		chainName:      cfg.Name,
		chainID:        cfg.ChainID,
		urls:           cfg.RPCURLs,
		explorerTxURL:  cfg.ExplorerTxURL,
		pollInterval:   gas.ReceiptPollInterval,
		receiptTimeout: gas.ReceiptTimeout,
		clients:        make([]*ethclient.Client, len(cfg.RPCURLs)),
	}, nil
}

func (s *service) ChainID() int64 {
	return s.chainID
}

func (s *service) ExplorerTxURL(txHash common.Hash) string {
	return fmt.Sprintf(s.explorerTxURL, txHash.Hex())
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, client := range s.clients {
		if client != nil {
			client.Close()
		}
	}
}

// clientAt returns the client for one endpoint, dialing it if needed.
func (s *service) clientAt(idx int) *ethclient.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clients[idx] == nil {
		client, err := ethclient.Dial(s.urls[idx])
		if err != nil {
			log.Warn().
				Str("chain", s.chainName).
				Str("url", s.urls[idx]).
				Err(err).
				Msg("Failed to connect to RPC endpoint, will retry on next use")
			return nil
		}
		s.clients[idx] = client
	}

	return s.clients[idx]
}

// forEachEndpoint runs fn against each endpoint in configured order until one
// succeeds. An endpoint that has answered (well-formed or not) is not retried
// within the same call.
func (s *service) forEachEndpoint(op string, fn func(*ethclient.Client) error) error {
	var lastErr error

	for idx := range s.urls {
		client := s.clientAt(idx)
		if client == nil {
			lastErr = errors.Errorf("endpoint %s unreachable", s.urls[idx])
			continue
		}

		if err := fn(client); err != nil {
			lastErr = err
			log.Warn().
				Str("chain", s.chainName).
				Str("url", s.urls[idx]).
				Str("op", op).
				Err(err).
				Msg("RPC endpoint failed, trying next")
			continue
		}

		return nil
	}

	return errors.WithMessagef(ErrAllEndpointsFailed, "%s on %s (last error: %v)", op, s.chainName, lastErr)
}

func (s *service) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance *big.Int
	err := s.forEachEndpoint("eth_getBalance", func(client *ethclient.Client) error {
		result, err := client.BalanceAt(ctx, account, nil)
		if err != nil {
			return err
		}
		balance = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	return balance, nil
}

func (s *service) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data := make([]byte, 0, len(balanceOfMethodID)+abiPaddedLength)
	data = append(data, balanceOfMethodID...)
	data = append(data, common.LeftPadBytes(account.Bytes(), abiPaddedLength)...)

	result, err := s.callContract(ctx, token, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call balanceOf")
	}

	return new(big.Int).SetBytes(result), nil
}

func (s *service) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data := make([]byte, 0, len(allowanceMethodID)+2*abiPaddedLength)
	data = append(data, allowanceMethodID...)
	data = append(data, common.LeftPadBytes(owner.Bytes(), abiPaddedLength)...)
	data = append(data, common.LeftPadBytes(spender.Bytes(), abiPaddedLength)...)

	result, err := s.callContract(ctx, token, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call allowance")
	}

	return new(big.Int).SetBytes(result), nil
}

func (s *service) callContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var result []byte
	err := s.forEachEndpoint("eth_call", func(client *ethclient.Client) error {
		resp, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *service) GasPrice(ctx context.Context) (*big.Int, error) {
	var price *big.Int
	err := s.forEachEndpoint("eth_gasPrice", func(client *ethclient.Client) error {
		result, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return err
		}
		price = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	return price, nil
}

func (s *service) Nonce(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := s.forEachEndpoint("eth_getTransactionCount", func(client *ethclient.Client) error {
		result, err := client.NonceAt(ctx, account, nil)
		if err != nil {
			return err
		}
		nonce = result
		return nil
	})
	if err != nil {
		return 0, err
	}

	return nonce, nil
}

func (s *service) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas uint64
	err := s.forEachEndpoint("eth_estimateGas", func(client *ethclient.Client) error {
		result, err := client.EstimateGas(ctx, msg)
		if err != nil {
			return err
		}
		gas = result
		return nil
	})
	if err != nil {
		return 0, err
	}

	return gas, nil
}

// Submit broadcasts a signed transaction. Connection-level failures advance
// to the next endpoint; any JSON-RPC answer ends the attempt so the same
// transaction is never re-broadcast after a response.
func (s *service) Submit(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	var lastErr error

	for idx := range s.urls {
		client := s.clientAt(idx)
		if client == nil {
			lastErr = errors.Errorf("endpoint %s unreachable", s.urls[idx])
			continue
		}

		err := client.SendTransaction(ctx, tx)
		if err == nil {
			log.Info().
				Str("chain", s.chainName).
				Str("url", s.urls[idx]).
				Str("tx_hash", tx.Hash().Hex()).
				Msg("Transaction submitted")
			return tx.Hash(), nil
		}

		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			// The endpoint saw the transaction and rejected it.
			return common.Hash{}, errors.Wrap(err, "transaction rejected by endpoint")
		}

		lastErr = err
		log.Warn().
			Str("chain", s.chainName).
			Str("url", s.urls[idx]).
			Err(err).
			Msg("RPC endpoint unreachable during submit, trying next")
	}

	return common.Hash{}, errors.WithMessagef(ErrAllEndpointsFailed, "eth_sendRawTransaction on %s (last error: %v)", s.chainName, lastErr)
}

func (s *service) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	deadline := time.NewTimer(s.receiptTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.receiptOnce(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		// Pending or transient RPC trouble: keep polling until the timeout.

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "receipt wait canceled")
		case <-deadline.C:
			return nil, errors.Wrapf(ErrConfirmationTimeout, "tx %s after %s", txHash.Hex(), s.receiptTimeout)
		case <-ticker.C:
		}
	}
}

// receiptOnce returns (nil, nil) while the transaction is still pending.
func (s *service) receiptOnce(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := s.forEachEndpoint("eth_getTransactionReceipt", func(client *ethclient.Client) error {
		result, err := client.TransactionReceipt(ctx, txHash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return nil
			}
			return err
		}
		receipt = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	return receipt, nil
}
