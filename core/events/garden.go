package events

import (
	"math/big"
	"strings"

	"blueberry/core/types"
)

const (
	// TypeMarketCreated is emitted when a new money-market is registered.
	TypeMarketCreated = "garden.market_created"
	// TypeRoleChanged is emitted when an account's role tag is reassigned.
	TypeRoleChanged = "garden.role_changed"
	// TypeLend is emitted when underlying liquidity is deposited for shares.
	TypeLend = "garden.lend"
	// TypeRedeem is emitted when shares are burned for underlying liquidity.
	TypeRedeem = "garden.redeem"
)

type MarketCreated struct {
	Asset  string
	BToken string
	Name   string
	Symbol string
}

func (MarketCreated) EventType() string { return TypeMarketCreated }

func (e MarketCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeMarketCreated,
		Attributes: map[string]string{
			"asset":  normalizeSymbol(e.Asset),
			"bToken": normalizeSymbol(e.BToken),
			"name":   strings.TrimSpace(e.Name),
			"symbol": normalizeSymbol(e.Symbol),
		},
	}
}

type RoleChanged struct {
	Account [20]byte
	Role    string
}

func (RoleChanged) EventType() string { return TypeRoleChanged }

func (e RoleChanged) Event() *types.Event {
	return &types.Event{
		Type: TypeRoleChanged,
		Attributes: map[string]string{
			"account": formatAddress(e.Account),
			"role":    strings.TrimSpace(e.Role),
		},
	}
}

type Lend struct {
	Asset      string
	OnBehalfOf [20]byte
	Receiver   [20]byte
	Amount     *big.Int
	Shares     *big.Int
}

func (Lend) EventType() string { return TypeLend }

func (e Lend) Event() *types.Event {
	return &types.Event{
		Type: TypeLend,
		Attributes: map[string]string{
			"asset":      normalizeSymbol(e.Asset),
			"onBehalfOf": formatAddress(e.OnBehalfOf),
			"receiver":   formatAddress(e.Receiver),
			"amount":     formatAmount(e.Amount),
			"shares":     formatAmount(e.Shares),
		},
	}
}

type Redeem struct {
	BToken     string
	OnBehalfOf [20]byte
	Receiver   [20]byte
	Shares     *big.Int
	Amount     *big.Int
}

func (Redeem) EventType() string { return TypeRedeem }

func (e Redeem) Event() *types.Event {
	return &types.Event{
		Type: TypeRedeem,
		Attributes: map[string]string{
			"bToken":     normalizeSymbol(e.BToken),
			"onBehalfOf": formatAddress(e.OnBehalfOf),
			"receiver":   formatAddress(e.Receiver),
			"shares":     formatAmount(e.Shares),
			"amount":     formatAmount(e.Amount),
		},
	}
}
