package events

import (
	"math/big"
	"strings"

	"blueberry/core/types"
)

const (
	// TypeRfqMinted is emitted when an RFQ order mints receipt tokens.
	TypeRfqMinted = "rfq.minted"
	// TypeRfqRedeemed is emitted when an RFQ order burns receipt tokens for
	// collateral.
	TypeRfqRedeemed = "rfq.redeemed"
	// TypeRfqCollateralUpdated is emitted when the approved collateral set
	// changes.
	TypeRfqCollateralUpdated = "rfq.collateral_updated"
	// TypeRfqFeeUpdated is emitted when the redemption fee numerator changes.
	TypeRfqFeeUpdated = "rfq.fee_updated"
	// TypeRfqCustodianUpdated is emitted when the custodian address changes.
	TypeRfqCustodianUpdated = "rfq.custodian_updated"
)

type RfqMinted struct {
	OrderID          string
	User             [20]byte
	Collateral       string
	CollateralAmount *big.Int
	TokenAmount      *big.Int
}

func (RfqMinted) EventType() string { return TypeRfqMinted }

func (e RfqMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeRfqMinted,
		Attributes: map[string]string{
			"orderId":    strings.TrimSpace(e.OrderID),
			"user":       formatAddress(e.User),
			"collateral": normalizeSymbol(e.Collateral),
			"collAmount": formatAmount(e.CollateralAmount),
			"tokens":     formatAmount(e.TokenAmount),
		},
	}
}

type RfqRedeemed struct {
	OrderID          string
	User             [20]byte
	Collateral       string
	CollateralAmount *big.Int
	TokenAmount      *big.Int
	Fee              *big.Int
}

func (RfqRedeemed) EventType() string { return TypeRfqRedeemed }

func (e RfqRedeemed) Event() *types.Event {
	return &types.Event{
		Type: TypeRfqRedeemed,
		Attributes: map[string]string{
			"orderId":    strings.TrimSpace(e.OrderID),
			"user":       formatAddress(e.User),
			"collateral": normalizeSymbol(e.Collateral),
			"collAmount": formatAmount(e.CollateralAmount),
			"tokens":     formatAmount(e.TokenAmount),
			"fee":        formatAmount(e.Fee),
		},
	}
}

type RfqCollateralUpdated struct {
	Collateral string
	Approved   bool
}

func (RfqCollateralUpdated) EventType() string { return TypeRfqCollateralUpdated }

func (e RfqCollateralUpdated) Event() *types.Event {
	approved := "false"
	if e.Approved {
		approved = "true"
	}
	return &types.Event{
		Type: TypeRfqCollateralUpdated,
		Attributes: map[string]string{
			"collateral": normalizeSymbol(e.Collateral),
			"approved":   approved,
		},
	}
}

type RfqFeeUpdated struct {
	Numerator uint64
}

func (RfqFeeUpdated) EventType() string { return TypeRfqFeeUpdated }

func (e RfqFeeUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeRfqFeeUpdated,
		Attributes: map[string]string{
			"numerator": new(big.Int).SetUint64(e.Numerator).String(),
		},
	}
}

type RfqCustodianUpdated struct {
	Custodian [20]byte
}

func (RfqCustodianUpdated) EventType() string { return TypeRfqCustodianUpdated }

func (e RfqCustodianUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeRfqCustodianUpdated,
		Attributes: map[string]string{
			"custodian": formatAddress(e.Custodian),
		},
	}
}
