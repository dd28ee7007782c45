package config_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/noctiluca/go-tools/internal/config"
)

func TestPrintEnv(t *testing.T) {
	cfg := config.DefaultConfigFromEnv()
	_, err := json.MarshalIndent(cfg, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := config.DefaultConfigFromEnv()

	assert.Equal(t, int64(8453), cfg.Base.ChainID)
	assert.Equal(t, int64(137), cfg.Polygon.ChainID)
	assert.NotEmpty(t, cfg.Base.RPCURLs)

	assert.Equal(t, "WETH", cfg.Swap.SellToken.Symbol)
	assert.Equal(t, 18, cfg.Swap.SellToken.Decimals)
	assert.Equal(t, "USDC", cfg.Swap.BuyToken.Symbol)
	assert.Equal(t, 6, cfg.Swap.BuyToken.Decimals)

	assert.Equal(t, int64(120), cfg.Gas.PriceMultiplierPercent)
	assert.Equal(t, uint64(50_000), cfg.Gas.ApproveGasLimit)
	assert.Equal(t, int64(1000), cfg.Bridge.DustReserve)
	assert.Equal(t, int64(4_500_000), cfg.Status.MinOrderBalance)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NOCTILUCA_BASE_RPC_URLS", "http://one.invalid, http://two.invalid")
	t.Setenv("NOCTILUCA_GAS_APPROVE_GAS_LIMIT", "60000")

	cfg := config.DefaultConfigFromEnv()

	assert.Equal(t, []string{"http://one.invalid", "http://two.invalid"}, cfg.Base.RPCURLs)
	assert.Equal(t, uint64(60_000), cfg.Gas.ApproveGasLimit)
}

func TestParseRPCURLs(t *testing.T) {
	urls := config.ParseRPCURLs("http://a, http://b,,http://c ")
	require.Equal(t, []string{"http://a", "http://b", "http://c"}, urls)
}
