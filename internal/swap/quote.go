package swap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github/noctiluca/go-tools/internal/config"
)

const apiTimeout = 30 * time.Second

// APIClient talks to the exchange's quote and order-relay HTTP API. It
// implements both QuoteProvider and OrderRelay.
type APIClient struct {
	baseURL    string
	sellToken  common.Address
	buyToken   common.Address
	httpClient *http.Client
}

// NewAPIClient creates the exchange API client for the configured pair.
func NewAPIClient(cfg config.Swap) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		sellToken:  common.HexToAddress(cfg.SellToken.Address),
		buyToken:   common.HexToAddress(cfg.BuyToken.Address),
		httpClient: &http.Client{Timeout: apiTimeout},
	}
}

type quoteRequest struct {
	SellToken           string `json:"sellToken"`
	BuyToken            string `json:"buyToken"`
	SellAmountBeforeFee string `json:"sellAmountBeforeFee"`
	From                string `json:"from"`
	Receiver            string `json:"receiver"`
	Kind                string `json:"kind"`
	SigningScheme       string `json:"signingScheme"`
}

type quoteResponse struct {
	Quote struct {
		SellToken  string `json:"sellToken"`
		BuyToken   string `json:"buyToken"`
		SellAmount string `json:"sellAmount"`
		BuyAmount  string `json:"buyAmount"`
		FeeAmount  string `json:"feeAmount"`
		ValidTo    uint32 `json:"validTo"`
	} `json:"quote"`
}

type apiError struct {
	ErrorType   string `json:"errorType"`
	Description string `json:"description"`
}

// GetQuote requests a sell quote. A response without a strictly positive buy
// amount is rejected, not retried.
func (c *APIClient) GetQuote(ctx context.Context, sellAmount *big.Int, trader common.Address) (*Quote, error) {
	payload := quoteRequest{
		SellToken:           c.sellToken.Hex(),
		BuyToken:            c.buyToken.Hex(),
		SellAmountBeforeFee: sellAmount.String(),
		From:                trader.Hex(),
		Receiver:            trader.Hex(),
		Kind:                OrderKindSell,
		SigningScheme:       SigningSchemeEIP712,
	}

	body, err := c.post(ctx, "/quote", payload)
	if err != nil {
		return nil, err
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode quote response")
	}

	quote := &Quote{
		SellToken: common.HexToAddress(resp.Quote.SellToken),
		BuyToken:  common.HexToAddress(resp.Quote.BuyToken),
		ValidTo:   resp.Quote.ValidTo,
	}

	var ok bool
	if quote.SellAmount, ok = new(big.Int).SetString(resp.Quote.SellAmount, 10); !ok {
		return nil, &QuoteRejectedError{Reason: "missing or malformed sellAmount"}
	}
	if quote.BuyAmount, ok = new(big.Int).SetString(resp.Quote.BuyAmount, 10); !ok {
		return nil, &QuoteRejectedError{Reason: "missing or malformed buyAmount"}
	}
	if quote.FeeAmount, ok = new(big.Int).SetString(resp.Quote.FeeAmount, 10); !ok {
		quote.FeeAmount = big.NewInt(0)
	}
	if quote.BuyAmount.Sign() <= 0 {
		return nil, &QuoteRejectedError{Reason: "buy amount is zero"}
	}

	return quote, nil
}

type orderPayload struct {
	SellToken         string `json:"sellToken"`
	BuyToken          string `json:"buyToken"`
	Receiver          string `json:"receiver"`
	SellAmount        string `json:"sellAmount"`
	BuyAmount         string `json:"buyAmount"`
	ValidTo           uint32 `json:"validTo"`
	AppData           string `json:"appData"`
	FeeAmount         string `json:"feeAmount"`
	Kind              string `json:"kind"`
	PartiallyFillable bool   `json:"partiallyFillable"`
	SellTokenBalance  string `json:"sellTokenBalance"`
	BuyTokenBalance   string `json:"buyTokenBalance"`
	SigningScheme     string `json:"signingScheme"`
	Signature         string `json:"signature"`
	From              string `json:"from"`
}

// SubmitOrder posts a signed order to the relay. Success yields the assigned
// order uid; rejection surfaces the relay's reason verbatim.
func (c *APIClient) SubmitOrder(ctx context.Context, order *Order, signature string, from common.Address) (string, error) {
	payload := orderPayload{
		SellToken:         order.SellToken.Hex(),
		BuyToken:          order.BuyToken.Hex(),
		Receiver:          order.Receiver.Hex(),
		SellAmount:        order.SellAmount.String(),
		BuyAmount:         order.BuyAmount.String(),
		ValidTo:           order.ValidTo,
		AppData:           order.AppData,
		FeeAmount:         order.FeeAmount.String(),
		Kind:              order.Kind,
		PartiallyFillable: order.PartiallyFillable,
		SellTokenBalance:  order.SellTokenBalance,
		BuyTokenBalance:   order.BuyTokenBalance,
		SigningScheme:     SigningSchemeEIP712,
		Signature:         signature,
		From:              from.Hex(),
	}

	body, err := c.post(ctx, "/orders", payload)
	if err != nil {
		return "", err
	}

	// The relay answers with a JSON encoded order uid string.
	var orderUID string
	if err := json.Unmarshal(body, &orderUID); err != nil {
		return "", errors.Wrap(err, "failed to decode order uid")
	}

	return orderUID, nil
}

func (c *APIClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request to %s failed", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		reason := string(body)
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Description != "" {
			reason = apiErr.Description
		}

		if path == "/orders" {
			return nil, &OrderRejectedError{StatusCode: resp.StatusCode, Reason: reason}
		}
		return nil, &QuoteRejectedError{Reason: reason}
	}

	return body, nil
}
