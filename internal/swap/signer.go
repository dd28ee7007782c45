package swap

import (
	"encoding/hex"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"

	"github/noctiluca/go-tools/internal/wallet"
)

// Typed-data domain published by the settlement contract. Both values are
// protocol constants; the relay recovers the signer against them.
const (
	domainName    = "Gnosis Protocol"
	domainVersion = "v2"
)

// orderType lists the Order struct fields in the exact sequence the
// settlement contract hashes them. Reordering breaks signature recovery.
var orderType = []apitypes.Type{
	{Name: "sellToken", Type: "address"},
	{Name: "buyToken", Type: "address"},
	{Name: "receiver", Type: "address"},
	{Name: "sellAmount", Type: "uint256"},
	{Name: "buyAmount", Type: "uint256"},
	{Name: "validTo", Type: "uint32"},
	{Name: "appData", Type: "bytes32"},
	{Name: "feeAmount", Type: "uint256"},
	{Name: "kind", Type: "string"},
	{Name: "partiallyFillable", Type: "bool"},
	{Name: "sellTokenBalance", Type: "string"},
	{Name: "buyTokenBalance", Type: "string"},
}

// TypedOrderSigner signs orders with the EIP-712 typed-data scheme bound to
// one chain and settlement contract.
type TypedOrderSigner struct {
	chainID    int64
	settlement common.Address
}

func NewTypedOrderSigner(chainID int64, settlement common.Address) *TypedOrderSigner {
	return &TypedOrderSigner{
		chainID:    chainID,
		settlement: settlement,
	}
}

// SignOrder hashes the order with the settlement domain and signs the digest
// with the wallet key. The returned signature is 65 bytes hex with the
// recovery byte shifted into the {27,28} range the relay expects.
func (s *TypedOrderSigner) SignOrder(w *wallet.Wallet, order *Order) (string, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Order": orderType,
		},
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:              domainName,
			Version:           domainVersion,
			ChainId:           math.NewHexOrDecimal256(s.chainID),
			VerifyingContract: s.settlement.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"sellToken":         order.SellToken.Hex(),
			"buyToken":          order.BuyToken.Hex(),
			"receiver":          order.Receiver.Hex(),
			"sellAmount":        order.SellAmount.String(),
			"buyAmount":         order.BuyAmount.String(),
			"validTo":           strconv.FormatUint(uint64(order.ValidTo), 10),
			"appData":           order.AppData,
			"feeAmount":         order.FeeAmount.String(),
			"kind":              order.Kind,
			"partiallyFillable": order.PartiallyFillable,
			"sellTokenBalance":  order.SellTokenBalance,
			"buyTokenBalance":   order.BuyTokenBalance,
		},
	}

	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", errors.WithMessagef(ErrSigning, "failed to hash typed data: %v", err)
	}

	signature, err := crypto.Sign(digest, w.Key())
	if err != nil {
		return "", errors.WithMessagef(ErrSigning, "failed to sign order digest: %v", err)
	}

	// crypto.Sign yields v in {0,1}; the relay wants the legacy {27,28}.
	signature[64] += 27

	return "0x" + hex.EncodeToString(signature), nil
}
