package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Token identifies an asset on one chain. A zero Address means the chain's
// native currency.
type Token struct {
	Symbol   string
	Address  string
	Decimals int
}

// Addr parses the configured hex address.
func (t Token) Addr() common.Address {
	return common.HexToAddress(t.Address)
}

// Chain holds everything needed to talk to one chain: an ordered list of RPC
// endpoints (tried first to last) and display helpers.
type Chain struct {
	Name          string
	ChainID       int64
	RPCURLs       []string
	ExplorerTxURL string // fmt pattern with one %s for the tx hash
	NativeSymbol  string
}

// Wallet selects the credential provider and its parameters.
type Wallet struct {
	Provider string // env | file | vault | prompt
	KeyEnv   string
	KeyFile  string
	Vault    Vault
}

// Vault configures the HashiCorp Vault KV credential provider.
type Vault struct {
	Address    string
	Token      string
	MountPath  string
	SecretPath string
}

// Gas is the fee and confirmation policy applied to every transaction we
// build. Only the shape is fixed (base price x multiplier, capped fee, floor
// priority fee); the numbers are operator configuration.
type Gas struct {
	PriceMultiplierPercent int64
	FeeCapMultiplier       int64
	PriorityFeeFloorWei    int64
	EstimateMarginPercent  int64
	ApproveGasLimit        uint64
	BridgeApprovalGasLimit uint64
	BridgeDepositGasLimit  uint64
	ReceiptPollInterval    time.Duration
	ReceiptTimeout         time.Duration
	MinNativeForGasWei     int64
}

// Swap configures the gasless exchange workflow (CoW Protocol on Base).
type Swap struct {
	APIURL           string
	Settlement       string // EIP-712 verifying contract
	VaultRelayer     string // allowance spender
	AppData          string
	ExplorerOrderURL string // fmt pattern with one %s for the order uid
	SellToken        Token
	BuyToken         Token
}

// Bridge configures the deposit bridge workflow (Across, Base -> Polygon).
type Bridge struct {
	APIURL             string
	DestinationChainID int64
	DustReserve        int64 // base units kept back from the transferable balance
	InputToken         Token
	OutputToken        Token
}

// Hosting configures the VPS provider order API client.
type Hosting struct {
	APIURL            string
	CredentialsFile   string
	DefaultLocationID int
	BillingCycle      string
	PaymentMethod     string
	Hostname          string
}

// Status configures the readiness dashboard.
type Status struct {
	// Minimum destination-chain stablecoin balance (base units) considered
	// sufficient to pay for a hosting order.
	MinOrderBalance int64
}

// Logger configures the global zerolog output.
type Logger struct {
	Level              string
	PrettyPrintConsole bool
}

type Config struct {
	Logger        Logger
	Wallet        Wallet
	Base          Chain
	Polygon       Chain
	NativeBase    Token
	WETH          Token
	USDCBase      Token
	NativePolygon Token
	USDCPolygon   Token
	Gas           Gas
	Swap          Swap
	Bridge        Bridge
	Hosting       Hosting
	Status        Status
}

// DefaultConfigFromEnv returns the full configuration, defaults overridable
// through NOCTILUCA_* environment variables (a .env file is honored when
// present).
func DefaultConfigFromEnv() Config {
	// optional, errors intentionally ignored
	_ = gotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("noctiluca")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	home, _ := os.UserHomeDir()

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.pretty_print_console", true)

	v.SetDefault("wallet.provider", "file")
	v.SetDefault("wallet.key_env", "EVM_PRIVATE_KEY")
	v.SetDefault("wallet.key_file", filepath.Join(home, ".noctiluca", "private", "evm_wallet.txt"))
	v.SetDefault("wallet.vault.address", "http://127.0.0.1:8200")
	v.SetDefault("wallet.vault.token", "")
	v.SetDefault("wallet.vault.mount_path", "secret")
	v.SetDefault("wallet.vault.secret_path", "noctiluca/evm-wallet")

	// Ordered by reliability; some public endpoints return wrong data or
	// reject eth_call, so the order matters.
	v.SetDefault("base.rpc_urls", "https://base-pokt.nodies.app,https://base.drpc.org,https://base-rpc.publicnode.com")
	v.SetDefault("base.chain_id", int64(8453))
	v.SetDefault("base.explorer_tx_url", "https://basescan.org/tx/%s")
	v.SetDefault("polygon.rpc_urls", "https://polygon-bor-rpc.publicnode.com")
	v.SetDefault("polygon.chain_id", int64(137))
	v.SetDefault("polygon.explorer_tx_url", "https://polygonscan.com/tx/%s")

	v.SetDefault("tokens.weth", "0x4200000000000000000000000000000000000006")
	v.SetDefault("tokens.usdc_base", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	v.SetDefault("tokens.usdc_polygon", "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359")

	v.SetDefault("gas.price_multiplier_percent", int64(120))
	v.SetDefault("gas.fee_cap_multiplier", int64(2))
	v.SetDefault("gas.priority_fee_floor_wei", int64(1_000_000)) // 0.001 gwei
	v.SetDefault("gas.estimate_margin_percent", int64(120))
	v.SetDefault("gas.approve_gas_limit", uint64(50_000))
	v.SetDefault("gas.bridge_approval_gas_limit", uint64(100_000))
	v.SetDefault("gas.bridge_deposit_gas_limit", uint64(300_000))
	v.SetDefault("gas.receipt_poll_interval", "2s")
	v.SetDefault("gas.receipt_timeout", "120s")
	v.SetDefault("gas.min_native_for_gas_wei", int64(100_000_000_000_000)) // 0.0001 ETH

	v.SetDefault("swap.api_url", "https://api.cow.fi/base/api/v1")
	v.SetDefault("swap.settlement", "0x9008D19f58AAbD9eD0D60971565AA8510560ab41")
	v.SetDefault("swap.vault_relayer", "0xC92E8bdf79f0507f65a392b0ab4667716BFE0110")
	v.SetDefault("swap.app_data", "0x0000000000000000000000000000000000000000000000000000000000000000")
	v.SetDefault("swap.explorer_order_url", "https://explorer.cow.fi/base/orders/%s")

	v.SetDefault("bridge.api_url", "https://app.across.to/api")
	v.SetDefault("bridge.dust_reserve", int64(1000)) // 0.001 USDC
	v.SetDefault("bridge.destination_chain_id", int64(137))

	v.SetDefault("hosting.api_url", "https://order.edisglobal.com/kvm/v2")
	v.SetDefault("hosting.credentials_file", filepath.Join(home, ".noctiluca", "private", "edis.txt"))
	v.SetDefault("hosting.default_location_id", 122)
	v.SetDefault("hosting.billing_cycle", "monthly")
	v.SetDefault("hosting.payment_method", "cryptomus")
	v.SetDefault("hosting.hostname", "noctiluca-vps")

	v.SetDefault("status.min_order_balance", int64(4_500_000)) // 4.50 USDC

	nativeBase := Token{Symbol: "ETH", Decimals: 18}
	weth := Token{Symbol: "WETH", Address: v.GetString("tokens.weth"), Decimals: 18}
	usdcBase := Token{Symbol: "USDC", Address: v.GetString("tokens.usdc_base"), Decimals: 6}
	nativePolygon := Token{Symbol: "POL", Decimals: 18}
	usdcPolygon := Token{Symbol: "USDC", Address: v.GetString("tokens.usdc_polygon"), Decimals: 6}

	return Config{
		Logger: Logger{
			Level:              v.GetString("logger.level"),
			PrettyPrintConsole: v.GetBool("logger.pretty_print_console"),
		},
		Wallet: Wallet{
			Provider: v.GetString("wallet.provider"),
			KeyEnv:   v.GetString("wallet.key_env"),
			KeyFile:  v.GetString("wallet.key_file"),
			Vault: Vault{
				Address:    v.GetString("wallet.vault.address"),
				Token:      v.GetString("wallet.vault.token"),
				MountPath:  v.GetString("wallet.vault.mount_path"),
				SecretPath: v.GetString("wallet.vault.secret_path"),
			},
		},
		Base: Chain{
			Name:          "Base",
			ChainID:       v.GetInt64("base.chain_id"),
			RPCURLs:       ParseRPCURLs(v.GetString("base.rpc_urls")),
			ExplorerTxURL: v.GetString("base.explorer_tx_url"),
			NativeSymbol:  nativeBase.Symbol,
		},
		Polygon: Chain{
			Name:          "Polygon",
			ChainID:       v.GetInt64("polygon.chain_id"),
			RPCURLs:       ParseRPCURLs(v.GetString("polygon.rpc_urls")),
			ExplorerTxURL: v.GetString("polygon.explorer_tx_url"),
			NativeSymbol:  nativePolygon.Symbol,
		},
		NativeBase:    nativeBase,
		WETH:          weth,
		USDCBase:      usdcBase,
		NativePolygon: nativePolygon,
		USDCPolygon:   usdcPolygon,
		Gas: Gas{
			PriceMultiplierPercent: v.GetInt64("gas.price_multiplier_percent"),
			FeeCapMultiplier:       v.GetInt64("gas.fee_cap_multiplier"),
			PriorityFeeFloorWei:    v.GetInt64("gas.priority_fee_floor_wei"),
			EstimateMarginPercent:  v.GetInt64("gas.estimate_margin_percent"),
			ApproveGasLimit:        v.GetUint64("gas.approve_gas_limit"),
			BridgeApprovalGasLimit: v.GetUint64("gas.bridge_approval_gas_limit"),
			BridgeDepositGasLimit:  v.GetUint64("gas.bridge_deposit_gas_limit"),
			ReceiptPollInterval:    v.GetDuration("gas.receipt_poll_interval"),
			ReceiptTimeout:         v.GetDuration("gas.receipt_timeout"),
			MinNativeForGasWei:     v.GetInt64("gas.min_native_for_gas_wei"),
		},
		Swap: Swap{
			APIURL:           v.GetString("swap.api_url"),
			Settlement:       v.GetString("swap.settlement"),
			VaultRelayer:     v.GetString("swap.vault_relayer"),
			AppData:          v.GetString("swap.app_data"),
			ExplorerOrderURL: v.GetString("swap.explorer_order_url"),
			SellToken:        weth,
			BuyToken:         usdcBase,
		},
		Bridge: Bridge{
			APIURL:             v.GetString("bridge.api_url"),
			DestinationChainID: v.GetInt64("bridge.destination_chain_id"),
			DustReserve:        v.GetInt64("bridge.dust_reserve"),
			InputToken:         usdcBase,
			OutputToken:        usdcPolygon,
		},
		Hosting: Hosting{
			APIURL:            v.GetString("hosting.api_url"),
			CredentialsFile:   v.GetString("hosting.credentials_file"),
			DefaultLocationID: v.GetInt("hosting.default_location_id"),
			BillingCycle:      v.GetString("hosting.billing_cycle"),
			PaymentMethod:     v.GetString("hosting.payment_method"),
			Hostname:          v.GetString("hosting.hostname"),
		},
		Status: Status{
			MinOrderBalance: v.GetInt64("status.min_order_balance"),
		},
	}
}

// ParseRPCURLs splits a comma separated RPC URL list, preserving order.
func ParseRPCURLs(rpcURL string) []string {
	if rpcURL == "" {
		return nil
	}

	urls := strings.Split(rpcURL, ",")
	result := make([]string, 0, len(urls))

	for _, url := range urls {
		url = strings.TrimSpace(url)
		if url != "" {
			result = append(result, url)
		}
	}

	return result
}
