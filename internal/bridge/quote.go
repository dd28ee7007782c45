package bridge

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github/noctiluca/go-tools/internal/config"
)

const apiTimeout = 30 * time.Second

// APIClient requests transaction plans from the bridge's HTTP API.
type APIClient struct {
	baseURL       string
	originChainID int64
	destChainID   int64
	inputToken    common.Address
	outputToken   common.Address
	httpClient    *http.Client
}

func NewAPIClient(cfg config.Bridge, originChainID int64) *APIClient {
	return &APIClient{
		baseURL:       strings.TrimRight(cfg.APIURL, "/"),
		originChainID: originChainID,
		destChainID:   cfg.DestinationChainID,
		inputToken:    cfg.InputToken.Addr(),
		outputToken:   cfg.OutputToken.Addr(),
		httpClient:    &http.Client{Timeout: apiTimeout},
	}
}

// txDescriptor mirrors the API's transaction objects. The value field comes
// back as a decimal string on some routes and a JSON number on others.
type txDescriptor struct {
	To    string      `json:"to"`
	Data  string      `json:"data"`
	Value json.Number `json:"value"`
}

type quoteResponse struct {
	ApprovalTxns   []txDescriptor `json:"approvalTxns"`
	SwapTx         *txDescriptor  `json:"swapTx"`
	ExpectedOutput string         `json:"expectedOutput"`
}

// GetBridgeQuote fetches the ordered transaction plan for bridging amount to
// the destination chain, depositing and receiving at the same address.
func (c *APIClient) GetBridgeQuote(ctx context.Context, amount *big.Int, depositor common.Address) (*BridgeQuote, error) {
	params := url.Values{}
	params.Set("tradeType", "exactInput")
	params.Set("amount", amount.String())
	params.Set("inputToken", c.inputToken.Hex())
	params.Set("outputToken", c.outputToken.Hex())
	params.Set("originChainId", strconv.FormatInt(c.originChainID, 10))
	params.Set("destinationChainId", strconv.FormatInt(c.destChainID, 10))
	params.Set("depositor", depositor.Hex())
	params.Set("recipient", depositor.Hex())
	params.Set("slippage", "auto")

	endpoint := c.baseURL + "/swap/approval?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "bridge quote request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &QuoteRejectedError{StatusCode: resp.StatusCode, Reason: string(body)}
	}

	var decoded quoteResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.Wrap(err, "failed to decode bridge quote")
	}

	if decoded.SwapTx == nil {
		return nil, &QuoteRejectedError{StatusCode: resp.StatusCode, Reason: "quote contains no deposit transaction"}
	}

	quote := &BridgeQuote{InputAmount: amount}

	for i, txn := range decoded.ApprovalTxns {
		desc, err := parseTxDescriptor(txn)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed approval transaction %d", i)
		}
		quote.Approvals = append(quote.Approvals, *desc)
	}

	deposit, err := parseTxDescriptor(*decoded.SwapTx)
	if err != nil {
		return nil, errors.Wrap(err, "malformed deposit transaction")
	}
	quote.Deposit = deposit

	var ok bool
	if quote.ExpectedOutput, ok = new(big.Int).SetString(decoded.ExpectedOutput, 10); !ok {
		quote.ExpectedOutput = big.NewInt(0)
	}

	return quote, nil
}

func parseTxDescriptor(txn txDescriptor) (*TxDescriptor, error) {
	data, err := hexutil.Decode(txn.Data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode calldata")
	}

	value := big.NewInt(0)
	if txn.Value != "" {
		var ok bool
		if value, ok = new(big.Int).SetString(txn.Value.String(), 10); !ok {
			return nil, errors.Errorf("malformed value %q", txn.Value)
		}
	}

	return &TxDescriptor{
		To:    common.HexToAddress(txn.To),
		Data:  data,
		Value: value,
	}, nil
}
