package garden

import (
	"math/big"

	"blueberry/core/state"
	"blueberry/crypto"
)

// RoleFullAccess is the distinguished role tag permitting every
// governance-gated operation.
const RoleFullAccess = "FULL_ACCESS"

// State is the persistence surface the garden engines operate against. It is
// satisfied by *state.Manager and by in-memory fakes in tests.
type State interface {
	RegisterToken(meta *state.TokenMetadata) error
	Token(symbol string) (*state.TokenMetadata, error)
	TokenExists(symbol string) bool

	Balance(addr []byte, symbol string) (*big.Int, error)
	SetBalance(addr []byte, symbol string, amount *big.Int) error
	TotalSupply(symbol string) (*big.Int, error)
	SetTotalSupply(symbol string, amount *big.Int) error
	Allowance(owner, spender []byte, symbol string) (*big.Int, error)
	SetAllowance(owner, spender []byte, symbol string, amount *big.Int) error

	Role(addr []byte) (string, error)
	SetRole(addr []byte, role string) error
	HasRole(addr []byte, role string) bool

	SetMarket(asset, bToken string) error
	MarketFor(asset string) (string, error)
	AssetFor(bToken string) (string, error)
	MarketAssets() ([]string, error)
}

// Market pairs an underlying asset with its share token for query responses.
type Market struct {
	Asset  string `json:"asset"`
	BToken string `json:"bToken"`
}

func addressKey(addr crypto.Address) []byte {
	return addr.Bytes()
}
