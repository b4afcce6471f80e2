package garden

import (
	"bytes"
	"math/big"

	"blueberry/core/state"
	"blueberry/crypto"
)

// Ledger exposes fungible-token accounting over protocol state. It covers
// both underlying assets and the share tokens ("bTokens") minted against
// them; mint and burn are restricted to the token's registered controller.
type Ledger struct {
	state State
}

// NewLedger constructs a ledger bound to the provided state.
func NewLedger(st State) *Ledger {
	return &Ledger{state: st}
}

// CreateShareToken registers a share token controlled by the provided module
// address. The underlying binding and its decimals are captured at creation
// time and never change afterwards.
func (l *Ledger) CreateShareToken(symbol, name, underlying string, controller crypto.Address) error {
	underlyingMeta, err := l.state.Token(underlying)
	if err != nil {
		return err
	}
	if underlyingMeta == nil {
		return ErrAssetNotRegistered
	}
	return l.state.RegisterToken(&state.TokenMetadata{
		Symbol:     symbol,
		Name:       name,
		Decimals:   underlyingMeta.Decimals,
		Controller: append([]byte(nil), controller.Bytes()...),
		Underlying: underlyingMeta.Symbol,
	})
}

// BalanceOf returns the token balance held by the account.
func (l *Ledger) BalanceOf(addr crypto.Address, symbol string) (*big.Int, error) {
	return l.state.Balance(addressKey(addr), symbol)
}

// TotalSupply returns the total minted supply for the token.
func (l *Ledger) TotalSupply(symbol string) (*big.Int, error) {
	return l.state.TotalSupply(symbol)
}

// Allowance returns the amount spender may move out of owner's balance.
func (l *Ledger) Allowance(owner, spender crypto.Address, symbol string) (*big.Int, error) {
	return l.state.Allowance(addressKey(owner), addressKey(spender), symbol)
}

// Approve sets the amount spender may move out of owner's balance.
func (l *Ledger) Approve(owner, spender crypto.Address, symbol string, amount *big.Int) error {
	if owner.IsZero() || spender.IsZero() {
		return ErrInvalidAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrAmountZero
	}
	if !l.state.TokenExists(symbol) {
		return ErrAssetNotRegistered
	}
	return l.state.SetAllowance(addressKey(owner), addressKey(spender), symbol, amount)
}

// Move transfers tokens between two accounts after checking the sender's
// balance. It performs no allowance accounting; callers consume allowances
// before moving funds.
func (l *Ledger) Move(symbol string, from, to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountZero
	}
	fromBalance, err := l.state.Balance(addressKey(from), symbol)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := l.state.Balance(addressKey(to), symbol)
	if err != nil {
		return err
	}
	if err := l.state.SetBalance(addressKey(from), symbol, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.state.SetBalance(addressKey(to), symbol, new(big.Int).Add(toBalance, amount))
}

// Transfer moves tokens out of the caller's own balance.
func (l *Ledger) Transfer(symbol string, from, to crypto.Address, amount *big.Int) error {
	if from.IsZero() || to.IsZero() {
		return ErrInvalidAddress
	}
	return l.Move(symbol, from, to, amount)
}

// TransferFrom moves tokens on behalf of the owner, consuming the spender's
// allowance. The allowance check is skipped when the spender is the owner.
func (l *Ledger) TransferFrom(symbol string, spender, from, to crypto.Address, amount *big.Int) error {
	if spender.IsZero() || from.IsZero() || to.IsZero() {
		return ErrInvalidAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountZero
	}
	if !spender.Equal(from) {
		if err := l.consumeAllowance(from, spender, symbol, amount); err != nil {
			return err
		}
	}
	return l.Move(symbol, from, to, amount)
}

// Mint credits freshly created tokens to the recipient. Only the token's
// registered controller may mint.
func (l *Ledger) Mint(symbol string, caller, to crypto.Address, amount *big.Int) error {
	if to.IsZero() {
		return ErrInvalidAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountZero
	}
	if err := l.requireController(symbol, caller); err != nil {
		return err
	}
	balance, err := l.state.Balance(addressKey(to), symbol)
	if err != nil {
		return err
	}
	supply, err := l.state.TotalSupply(symbol)
	if err != nil {
		return err
	}
	if err := l.state.SetBalance(addressKey(to), symbol, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	return l.state.SetTotalSupply(symbol, new(big.Int).Add(supply, amount))
}

// BurnFrom destroys tokens held by the owner. Only the token's registered
// controller may burn; delegated burns (initiator differs from the owner)
// must have consumed the owner's allowance beforehand.
func (l *Ledger) BurnFrom(symbol string, caller, from crypto.Address, amount *big.Int) error {
	if from.IsZero() {
		return ErrInvalidAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountZero
	}
	if err := l.requireController(symbol, caller); err != nil {
		return err
	}
	balance, err := l.state.Balance(addressKey(from), symbol)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	supply, err := l.state.TotalSupply(symbol)
	if err != nil {
		return err
	}
	if supply.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := l.state.SetBalance(addressKey(from), symbol, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	return l.state.SetTotalSupply(symbol, new(big.Int).Sub(supply, amount))
}

func (l *Ledger) consumeAllowance(owner, spender crypto.Address, symbol string, amount *big.Int) error {
	allowance, err := l.state.Allowance(addressKey(owner), addressKey(spender), symbol)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	return l.state.SetAllowance(addressKey(owner), addressKey(spender), symbol, new(big.Int).Sub(allowance, amount))
}

func (l *Ledger) requireController(symbol string, caller crypto.Address) error {
	meta, err := l.state.Token(symbol)
	if err != nil {
		return err
	}
	if meta == nil {
		return ErrAssetNotRegistered
	}
	if len(meta.Controller) == 0 || !bytes.Equal(caller.Bytes(), meta.Controller) {
		return ErrNotController
	}
	return nil
}
