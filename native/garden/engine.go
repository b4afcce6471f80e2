package garden

import (
	"math/big"

	"blueberry/core/events"
	"blueberry/crypto"
)

// Engine orchestrates the money-market state transitions: lend deposits
// underlying liquidity into the module's custody and mints share tokens;
// redeem burns share tokens and releases underlying liquidity. Every
// operation validates all preconditions before the first state write so a
// rejected call leaves balances and mappings untouched.
type Engine struct {
	state  State
	ledger *Ledger
	module crypto.Address
	events events.Emitter
}

// NewEngine constructs an engine custodying pooled liquidity under the module
// address.
func NewEngine(st State, ledger *Ledger, module crypto.Address, emitter events.Emitter) *Engine {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &Engine{state: st, ledger: ledger, module: module, events: emitter}
}

// Lend pulls amount of the underlying asset from onBehalfOf into the pool and
// mints share tokens to receiver. When the caller is not onBehalfOf the
// owner's allowance for the caller is consumed. The minted share amount is
// returned.
func (e *Engine) Lend(caller crypto.Address, asset string, onBehalfOf, receiver crypto.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrAmountZero
	}
	if caller.IsZero() || onBehalfOf.IsZero() || receiver.IsZero() {
		return nil, ErrInvalidAddress
	}
	bToken, err := e.state.MarketFor(asset)
	if err != nil {
		return nil, err
	}
	if bToken == "" {
		return nil, ErrMarketNotFound
	}

	delegated := !caller.Equal(onBehalfOf)
	if delegated {
		allowance, err := e.ledger.Allowance(onBehalfOf, caller, asset)
		if err != nil {
			return nil, err
		}
		if allowance.Cmp(amount) < 0 {
			return nil, ErrInsufficientAllowance
		}
	}
	balance, err := e.ledger.BalanceOf(onBehalfOf, asset)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}

	shares, err := e.sharesForDeposit(asset, bToken, amount)
	if err != nil {
		return nil, err
	}

	// Preconditions hold; apply the state writes.
	if delegated {
		if err := e.ledger.consumeAllowance(onBehalfOf, caller, asset, amount); err != nil {
			return nil, err
		}
	}
	if err := e.ledger.Move(asset, onBehalfOf, e.module, amount); err != nil {
		return nil, err
	}
	if err := e.ledger.Mint(bToken, e.module, receiver, shares); err != nil {
		return nil, err
	}

	e.events.Emit(events.Lend{
		Asset:      asset,
		OnBehalfOf: rawAddress(onBehalfOf),
		Receiver:   rawAddress(receiver),
		Amount:     new(big.Int).Set(amount),
		Shares:     new(big.Int).Set(shares),
	})
	return shares, nil
}

// Redeem burns shares of the bToken held by onBehalfOf and pays the
// corresponding underlying amount to receiver. Pool liquidity is verified
// before the burn so a failed payout can never leave shares destroyed. The
// underlying amount returned to the receiver is the result.
func (e *Engine) Redeem(caller crypto.Address, bToken string, onBehalfOf, receiver crypto.Address, shares *big.Int) (*big.Int, error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, ErrAmountZero
	}
	if caller.IsZero() || onBehalfOf.IsZero() || receiver.IsZero() {
		return nil, ErrInvalidAddress
	}
	asset, err := e.state.AssetFor(bToken)
	if err != nil {
		return nil, err
	}
	if asset == "" {
		return nil, ErrMarketNotFound
	}

	delegated := !caller.Equal(onBehalfOf)
	if delegated {
		allowance, err := e.ledger.Allowance(onBehalfOf, caller, bToken)
		if err != nil {
			return nil, err
		}
		if allowance.Cmp(shares) < 0 {
			return nil, ErrInsufficientAllowance
		}
	}
	shareBalance, err := e.ledger.BalanceOf(onBehalfOf, bToken)
	if err != nil {
		return nil, err
	}
	if shareBalance.Cmp(shares) < 0 {
		return nil, ErrInsufficientBalance
	}

	amount, err := e.amountForShares(asset, bToken, shares)
	if err != nil {
		return nil, err
	}
	pool, err := e.ledger.BalanceOf(e.module, asset)
	if err != nil {
		return nil, err
	}
	if pool.Cmp(amount) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	// Preconditions hold; apply the state writes.
	if delegated {
		if err := e.ledger.consumeAllowance(onBehalfOf, caller, bToken, shares); err != nil {
			return nil, err
		}
	}
	if err := e.ledger.BurnFrom(bToken, e.module, onBehalfOf, shares); err != nil {
		return nil, err
	}
	if err := e.ledger.Move(asset, e.module, receiver, amount); err != nil {
		return nil, err
	}

	e.events.Emit(events.Redeem{
		BToken:     bToken,
		OnBehalfOf: rawAddress(onBehalfOf),
		Receiver:   rawAddress(receiver),
		Shares:     new(big.Int).Set(shares),
		Amount:     new(big.Int).Set(amount),
	})
	return amount, nil
}

// sharesForDeposit converts an underlying deposit into share tokens at the
// current exchange rate: amount * totalShares / totalUnderlying, seeded 1:1
// on the first deposit. With no yield mechanics the rate stays exactly 1:1.
func (e *Engine) sharesForDeposit(asset, bToken string, amount *big.Int) (*big.Int, error) {
	totalShares, err := e.ledger.TotalSupply(bToken)
	if err != nil {
		return nil, err
	}
	totalUnderlying, err := e.ledger.BalanceOf(e.module, asset)
	if err != nil {
		return nil, err
	}
	if totalShares.Sign() == 0 || totalUnderlying.Sign() == 0 {
		return new(big.Int).Set(amount), nil
	}
	shares := new(big.Int).Mul(amount, totalShares)
	shares.Quo(shares, totalUnderlying)
	if shares.Sign() == 0 {
		// A deposit below one share's worth would otherwise round to a free
		// share and dilute existing holders.
		return nil, ErrDepositTooSmall
	}
	return shares, nil
}

// amountForShares converts share tokens back into the underlying amount at
// the current exchange rate: shares * totalUnderlying / totalShares.
func (e *Engine) amountForShares(asset, bToken string, shares *big.Int) (*big.Int, error) {
	totalShares, err := e.ledger.TotalSupply(bToken)
	if err != nil {
		return nil, err
	}
	totalUnderlying, err := e.ledger.BalanceOf(e.module, asset)
	if err != nil {
		return nil, err
	}
	if totalShares.Sign() == 0 {
		return nil, ErrInsufficientLiquidity
	}
	amount := new(big.Int).Mul(shares, totalUnderlying)
	amount.Quo(amount, totalShares)
	return amount, nil
}

func rawAddress(addr crypto.Address) [20]byte {
	var raw [20]byte
	copy(raw[:], addr.Bytes())
	return raw
}
