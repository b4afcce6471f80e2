package garden

import (
	"math/big"
	"sync"

	"blueberry/core/events"
	"blueberry/core/state"
	"blueberry/crypto"
)

// Garden is the unified public entrypoint composing governance (roles, market
// creation) and money-market operations behind one module identity. It adds
// no logic of its own; every operation forwards to the owning component with
// identical arguments and results.
//
// stateMu serializes state transitions: the components validate and then
// write without internal locking, so every mutating entrypoint holds the
// mutex for the full sequence. Collaborating modules sharing the same state
// (the RFQ executor) take the lock through Lock/Unlock.
type Garden struct {
	stateMu  sync.Mutex
	access   *AccessRegistry
	registry *AssetRegistry
	engine   *Engine
	ledger   *Ledger
	module   crypto.Address
}

// NewGarden wires the garden components over the provided state and grants
// the deploying admin the full-access tag.
func NewGarden(st State, emitter events.Emitter, module, admin crypto.Address) (*Garden, error) {
	if module.IsZero() {
		return nil, ErrInvalidAddress
	}
	ledger := NewLedger(st)
	access := NewAccessRegistry(st, emitter)
	if err := access.bootstrap(admin); err != nil {
		return nil, err
	}
	return &Garden{
		access:   access,
		registry: NewAssetRegistry(st, ledger, module, emitter),
		engine:   NewEngine(st, ledger, module, emitter),
		ledger:   ledger,
		module:   module,
	}, nil
}

// Module returns the module address custodying pooled liquidity.
func (g *Garden) Module() crypto.Address { return g.module }

// Ledger exposes the token ledger for collaborating subsystems.
func (g *Garden) Ledger() *Ledger { return g.ledger }

// Lock acquires the state-transition mutex. Collaborating modules hold it for
// the full validate-then-write sequence of their own operations.
func (g *Garden) Lock() { g.stateMu.Lock() }

// Unlock releases the state-transition mutex.
func (g *Garden) Unlock() { g.stateMu.Unlock() }

// --- Governance surface ---

func (g *Garden) SetRole(caller, account crypto.Address, role string) error {
	g.stateMu.Lock()
	defer g.stateMu.Unlock()
	return g.access.SetRole(caller, account, role)
}

func (g *Garden) Role(account crypto.Address) (string, error) {
	return g.access.Role(account)
}

func (g *Garden) FullAccess() string {
	return g.access.FullAccess()
}

func (g *Garden) AddMarket(caller crypto.Address, asset, name, symbol string) (string, error) {
	g.stateMu.Lock()
	defer g.stateMu.Unlock()
	return g.registry.AddMarket(caller, asset, name, symbol)
}

// --- Market operations ---

func (g *Garden) Lend(caller crypto.Address, asset string, onBehalfOf, receiver crypto.Address, amount *big.Int) (*big.Int, error) {
	g.stateMu.Lock()
	defer g.stateMu.Unlock()
	return g.engine.Lend(caller, asset, onBehalfOf, receiver, amount)
}

func (g *Garden) Redeem(caller crypto.Address, bToken string, onBehalfOf, receiver crypto.Address, shares *big.Int) (*big.Int, error) {
	g.stateMu.Lock()
	defer g.stateMu.Unlock()
	return g.engine.Redeem(caller, bToken, onBehalfOf, receiver, shares)
}

// --- Queries ---

func (g *Garden) MarketFor(asset string) (string, error) {
	return g.registry.MarketFor(asset)
}

func (g *Garden) AssetFor(bToken string) (string, error) {
	return g.registry.AssetFor(bToken)
}

func (g *Garden) Markets() ([]Market, error) {
	return g.registry.Markets()
}

func (g *Garden) BalanceOf(account crypto.Address, symbol string) (*big.Int, error) {
	return g.ledger.BalanceOf(account, symbol)
}

func (g *Garden) TotalSupply(symbol string) (*big.Int, error) {
	return g.ledger.TotalSupply(symbol)
}

func (g *Garden) Approve(owner, spender crypto.Address, symbol string, amount *big.Int) error {
	g.stateMu.Lock()
	defer g.stateMu.Unlock()
	return g.ledger.Approve(owner, spender, symbol, amount)
}

func (g *Garden) Token(symbol string) (*state.TokenMetadata, error) {
	return g.ledger.state.Token(symbol)
}
