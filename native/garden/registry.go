package garden

import (
	"strings"

	"blueberry/core/events"
	"blueberry/crypto"
)

// AssetRegistry maintains the bidirectional binding between underlying assets
// and their share tokens. A market is created exactly once per asset and the
// binding is immutable afterwards.
type AssetRegistry struct {
	state  State
	ledger *Ledger
	module crypto.Address
	events events.Emitter
}

// NewAssetRegistry constructs an asset registry whose share tokens are
// controlled by the provided module address.
func NewAssetRegistry(st State, ledger *Ledger, module crypto.Address, emitter events.Emitter) *AssetRegistry {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &AssetRegistry{state: st, ledger: ledger, module: module, events: emitter}
}

// AddMarket registers a money market for the asset and instantiates its share
// token under the module's control. The caller must hold full access. All
// preconditions are checked before the first state write; the forward and
// reverse mappings are recorded together.
func (r *AssetRegistry) AddMarket(caller crypto.Address, asset, name, symbol string) (string, error) {
	if !r.state.HasRole(addressKey(caller), RoleFullAccess) {
		return "", ErrUnauthorized
	}
	assetNorm := strings.ToUpper(strings.TrimSpace(asset))
	bTokenNorm := strings.ToUpper(strings.TrimSpace(symbol))
	if assetNorm == "" || bTokenNorm == "" {
		return "", ErrInvalidSymbol
	}
	if !r.state.TokenExists(assetNorm) {
		return "", ErrAssetNotRegistered
	}
	existing, err := r.state.MarketFor(assetNorm)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return "", ErrMarketAlreadyExists
	}
	if err := r.ledger.CreateShareToken(bTokenNorm, name, assetNorm, r.module); err != nil {
		return "", err
	}
	if err := r.state.SetMarket(assetNorm, bTokenNorm); err != nil {
		return "", err
	}
	r.events.Emit(events.MarketCreated{Asset: assetNorm, BToken: bTokenNorm, Name: name, Symbol: bTokenNorm})
	return bTokenNorm, nil
}

// MarketFor resolves the share token for the asset, or "" when no market
// exists.
func (r *AssetRegistry) MarketFor(asset string) (string, error) {
	return r.state.MarketFor(asset)
}

// AssetFor resolves the underlying asset for the share token, or "" when the
// token is not a market share token.
func (r *AssetRegistry) AssetFor(bToken string) (string, error) {
	return r.state.AssetFor(bToken)
}

// Markets enumerates every registered market pairing.
func (r *AssetRegistry) Markets() ([]Market, error) {
	assets, err := r.state.MarketAssets()
	if err != nil {
		return nil, err
	}
	markets := make([]Market, 0, len(assets))
	for _, asset := range assets {
		bToken, err := r.state.MarketFor(asset)
		if err != nil {
			return nil, err
		}
		markets = append(markets, Market{Asset: asset, BToken: bToken})
	}
	return markets, nil
}
