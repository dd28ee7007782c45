package status

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github/noctiluca/go-tools/internal/chain"
	"github/noctiluca/go-tools/internal/config"
	"github/noctiluca/go-tools/internal/hosting"
)

// TokenBalance is one asset's balance on one chain. A per-token read error
// is recorded instead of failing the whole report.
type TokenBalance struct {
	Symbol   string
	Decimals int
	Balance  *big.Int
	Err      error
}

// ChainBalances groups one chain's native and token balances.
type ChainBalances struct {
	Chain  string
	Native TokenBalance
	Tokens []TokenBalance
}

// BalanceReport covers every configured chain and asset for one wallet.
type BalanceReport struct {
	Wallet common.Address
	Chains []ChainBalances
}

// Check is one readiness prerequisite.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Readiness summarizes whether a hosting order can be placed right now, and
// what to do next when it cannot.
type Readiness struct {
	Checks    []Check
	Ready     bool
	NextSteps []string
}

// Service reads balances and prerequisites across the configured chains.
type Service struct {
	cfg     config.Config
	base    chain.Service
	polygon chain.Service
}

func NewService(cfg config.Config, base, polygon chain.Service) *Service {
	return &Service{
		cfg:     cfg,
		base:    base,
		polygon: polygon,
	}
}

// Balances reads every configured asset on both chains. RPC failures are
// per-entry, so one dead chain still yields a partial report.
func (s *Service) Balances(ctx context.Context, wallet common.Address) *BalanceReport {
	return &BalanceReport{
		Wallet: wallet,
		Chains: []ChainBalances{
			s.chainBalances(ctx, s.base, s.cfg.Base.Name, s.cfg.NativeBase, wallet,
				s.cfg.WETH, s.cfg.USDCBase),
			s.chainBalances(ctx, s.polygon, s.cfg.Polygon.Name, s.cfg.NativePolygon, wallet,
				s.cfg.USDCPolygon),
		},
	}
}

func (s *Service) chainBalances(
	ctx context.Context,
	svc chain.Service,
	name string,
	native config.Token,
	wallet common.Address,
	tokens ...config.Token,
) ChainBalances {
	balances := ChainBalances{Chain: name}

	balance, err := svc.NativeBalance(ctx, wallet)
	balances.Native = TokenBalance{
		Symbol:   native.Symbol,
		Decimals: native.Decimals,
		Balance:  balance,
		Err:      err,
	}

	for _, token := range tokens {
		balance, err := svc.TokenBalance(ctx, token.Addr(), wallet)
		if err != nil {
			log.Warn().Err(err).Str("chain", name).Str("token", token.Symbol).Msg("Balance read failed")
		}
		balances.Tokens = append(balances.Tokens, TokenBalance{
			Symbol:   token.Symbol,
			Decimals: token.Decimals,
			Balance:  balance,
			Err:      err,
		})
	}

	return balances
}

// Check verifies the hosting-order prerequisites: a configured wallet,
// enough destination-chain funds for the order, and saved provider
// credentials. A nil wallet means none could be loaded.
func (s *Service) Check(ctx context.Context, wallet *common.Address) *Readiness {
	r := &Readiness{}

	if wallet != nil {
		r.addCheck("Wallet", true, wallet.Hex(), "")
	} else {
		r.addCheck("Wallet", false, "not configured",
			"Configure a wallet key (env, key file or vault)")
	}

	fundsOK := false
	if wallet != nil {
		balance, err := s.polygon.TokenBalance(ctx, s.cfg.USDCPolygon.Addr(), *wallet)
		switch {
		case err != nil:
			r.addCheck("Funds", false, "balance read failed: "+err.Error(), "")
		case balance.Cmp(big.NewInt(s.cfg.Status.MinOrderBalance)) >= 0:
			fundsOK = true
			r.addCheck("Funds", true, s.cfg.USDCPolygon.Symbol+" balance sufficient for the order", "")
		default:
			r.addCheck("Funds", false, s.cfg.USDCPolygon.Symbol+" balance below the order minimum",
				"Bridge more "+s.cfg.USDCPolygon.Symbol+" to "+s.cfg.Polygon.Name)
		}
	} else {
		r.addCheck("Funds", false, "no wallet", "")
	}

	credsOK := false
	if _, err := hosting.LoadCredentials(s.cfg.Hosting.CredentialsFile); err == nil {
		credsOK = true
		r.addCheck("Hosting account", true, "credentials saved", "")
	} else {
		r.addCheck("Hosting account", false, "credentials missing",
			"Save provider credentials to "+s.cfg.Hosting.CredentialsFile+" as email:password")
	}

	r.Ready = wallet != nil && fundsOK && credsOK

	return r
}

func (r *Readiness) addCheck(name string, ok bool, detail, nextStep string) {
	r.Checks = append(r.Checks, Check{Name: name, OK: ok, Detail: detail})
	if nextStep != "" {
		r.NextSteps = append(r.NextSteps, nextStep)
	}
}
