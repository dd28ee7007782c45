package bridge_test

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/noctiluca/go-tools/internal/bridge"
	"github/noctiluca/go-tools/internal/config"
)

func bridgeConfig(apiURL string) config.Bridge {
	return config.Bridge{
		APIURL:             apiURL,
		DestinationChainID: 137,
		DustReserve:        1000,
		InputToken:         config.Token{Symbol: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
		OutputToken:        config.Token{Symbol: "USDC", Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6},
	}
}

func TestGetBridgeQuote(t *testing.T) {
	depositor := common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/swap/approval", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "exactInput", q.Get("tradeType"))
		assert.Equal(t, "5000000", q.Get("amount"))
		assert.Equal(t, "8453", q.Get("originChainId"))
		assert.Equal(t, "137", q.Get("destinationChainId"))
		assert.Equal(t, depositor.Hex(), q.Get("depositor"))
		assert.Equal(t, depositor.Hex(), q.Get("recipient"))
		assert.Equal(t, "auto", q.Get("slippage"))

		resp := map[string]any{
			"approvalTxns": []map[string]any{
				{"to": "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", "data": "0x095ea7b3", "value": "0"},
			},
			"swapTx": map[string]any{
				"to":    "0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64",
				"data":  "0xdeadbeef",
				"value": 0,
			},
			"expectedOutput": "4985000",
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := bridge.NewAPIClient(bridgeConfig(server.URL), 8453)

	quote, err := client.GetBridgeQuote(t.Context(), big.NewInt(5_000_000), depositor)
	require.NoError(t, err)

	require.Len(t, quote.Approvals, 1)
	assert.Equal(t, []byte{0x09, 0x5e, 0xa7, 0xb3}, quote.Approvals[0].Data)
	assert.Equal(t, int64(0), quote.Approvals[0].Value.Int64())

	require.NotNil(t, quote.Deposit)
	assert.Equal(t, common.HexToAddress("0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64"), quote.Deposit.To)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, quote.Deposit.Data)

	assert.Equal(t, int64(4_985_000), quote.ExpectedOutput.Int64())
}

func TestGetBridgeQuoteSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"amount too low relative to fees"}`))
	}))
	defer server.Close()

	client := bridge.NewAPIClient(bridgeConfig(server.URL), 8453)

	_, err := client.GetBridgeQuote(t.Context(), big.NewInt(1), common.HexToAddress("0x1"))
	require.Error(t, err)

	var rejected *bridge.QuoteRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusUnprocessableEntity, rejected.StatusCode)
	assert.Contains(t, rejected.Reason, "amount too low")
}

func TestGetBridgeQuoteRequiresDeposit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"approvalTxns": []any{}})
	}))
	defer server.Close()

	client := bridge.NewAPIClient(bridgeConfig(server.URL), 8453)

	_, err := client.GetBridgeQuote(t.Context(), big.NewInt(5_000_000), common.HexToAddress("0x1"))
	require.Error(t, err)

	var rejected *bridge.QuoteRejectedError
	require.ErrorAs(t, err, &rejected)
}
