package rfq

import (
	"math/big"
	"sync"

	"blueberry/core/events"
	"blueberry/core/state"
	"blueberry/crypto"
	"blueberry/native/garden"
)

// Executor settles request-for-quote collateral swaps against a custodial
// receipt token. Mint pulls collateral from the order user into the
// custodian's account and credits receipt tokens; redeem burns receipt tokens
// and pays collateral out of the executor's own holdings, net of a flat fee.
// Every validation runs before the first state write, so a rejected order has
// no side effect. Mutating operations hold the garden's state-transition
// mutex for the full validate-then-write sequence, keeping RFQ settlements
// serialized against lend and redeem traffic over the same ledger.
type Executor struct {
	state         State
	ledger        *garden.Ledger
	stateMu       sync.Locker
	module        crypto.Address
	feeCollector  crypto.Address
	receiptSymbol string
	events        events.Emitter
}

// NewExecutor wires the executor over the garden's ledger and state lock,
// registering the receipt token under the module's control when it does not
// exist yet.
func NewExecutor(st State, g *garden.Garden, emitter events.Emitter, module, feeCollector crypto.Address, receiptSymbol, receiptName string) (*Executor, error) {
	if module.IsZero() || feeCollector.IsZero() {
		return nil, ErrInvalidAddress
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	g.Lock()
	defer g.Unlock()
	if !st.TokenExists(receiptSymbol) {
		err := st.RegisterToken(&state.TokenMetadata{
			Symbol:     receiptSymbol,
			Name:       receiptName,
			Decimals:   18,
			Controller: append([]byte(nil), module.Bytes()...),
		})
		if err != nil {
			return nil, err
		}
	}
	return &Executor{
		state:         st,
		ledger:        g.Ledger(),
		stateMu:       g,
		module:        module,
		feeCollector:  feeCollector,
		receiptSymbol: receiptSymbol,
		events:        emitter,
	}, nil
}

// Module returns the executor's module address holding redeemable collateral.
func (x *Executor) Module() crypto.Address { return x.module }

// FeeCollector returns the address receiving redemption fees.
func (x *Executor) FeeCollector() crypto.Address { return x.feeCollector }

// ReceiptSymbol returns the receipt token minted against custodial
// collateral.
func (x *Executor) ReceiptSymbol() string { return x.receiptSymbol }

// Mint validates the order and settles it: collateral moves from the user to
// the custodian and receipt tokens are credited to the user. The collateral
// and token amounts are trusted as quoted by the minter role.
func (x *Executor) Mint(caller crypto.Address, order Order) error {
	x.stateMu.Lock()
	defer x.stateMu.Unlock()
	if !x.state.HasRole(caller.Bytes(), RoleMinter) {
		return ErrUnauthorized
	}
	custodian, err := x.validateOrder(order)
	if err != nil {
		return err
	}
	if custodian == nil {
		return ErrCustodianNotSet
	}
	balance, err := x.ledger.BalanceOf(order.User, order.Collateral)
	if err != nil {
		return err
	}
	if balance.Cmp(order.CollateralAmount) < 0 {
		return ErrInsufficientBalance
	}

	custodianAddr := crypto.MustNewAddress(crypto.BluePrefix, custodian)
	if err := x.ledger.Move(order.Collateral, order.User, custodianAddr, order.CollateralAmount); err != nil {
		return err
	}
	if err := x.ledger.Mint(x.receiptSymbol, x.module, order.User, order.TokenAmount); err != nil {
		return err
	}

	x.events.Emit(events.RfqMinted{
		OrderID:          order.ID,
		User:             rawAddress(order.User),
		Collateral:       order.Collateral,
		CollateralAmount: new(big.Int).Set(order.CollateralAmount),
		TokenAmount:      new(big.Int).Set(order.TokenAmount),
	})
	return nil
}

// Redeem validates the order and settles it: receipt tokens are burned from
// the user and collateral is paid out of the executor's holdings, with
// collAmount * feeNumerator / 10000 routed to the fee collector and the
// remainder to the user.
func (x *Executor) Redeem(caller crypto.Address, order Order) error {
	x.stateMu.Lock()
	defer x.stateMu.Unlock()
	if !x.state.HasRole(caller.Bytes(), RoleRedeemer) {
		return ErrUnauthorized
	}
	if _, err := x.validateOrder(order); err != nil {
		return err
	}
	receiptBalance, err := x.ledger.BalanceOf(order.User, x.receiptSymbol)
	if err != nil {
		return err
	}
	if receiptBalance.Cmp(order.TokenAmount) < 0 {
		return ErrInsufficientBalance
	}
	redeemable, err := x.MaxRedeem(order.Collateral)
	if err != nil {
		return err
	}
	if redeemable.Cmp(order.CollateralAmount) < 0 {
		return ErrInsufficientLiquidity
	}
	numerator, err := x.state.RfqFeeNumerator()
	if err != nil {
		return err
	}
	fee := new(big.Int).Mul(order.CollateralAmount, new(big.Int).SetUint64(numerator))
	fee.Quo(fee, big.NewInt(RedeemFeeDenominator))
	payout := new(big.Int).Sub(order.CollateralAmount, fee)

	if err := x.ledger.BurnFrom(x.receiptSymbol, x.module, order.User, order.TokenAmount); err != nil {
		return err
	}
	if fee.Sign() > 0 {
		if err := x.ledger.Move(order.Collateral, x.module, x.feeCollector, fee); err != nil {
			return err
		}
	}
	if payout.Sign() > 0 {
		if err := x.ledger.Move(order.Collateral, x.module, order.User, payout); err != nil {
			return err
		}
	}

	x.events.Emit(events.RfqRedeemed{
		OrderID:          order.ID,
		User:             rawAddress(order.User),
		Collateral:       order.Collateral,
		CollateralAmount: new(big.Int).Set(order.CollateralAmount),
		TokenAmount:      new(big.Int).Set(order.TokenAmount),
		Fee:              fee,
	})
	return nil
}

// MaxRedeem returns the executor's own balance of the asset, the ceiling any
// single redemption can draw on.
func (x *Executor) MaxRedeem(asset string) (*big.Int, error) {
	return x.ledger.BalanceOf(x.module, asset)
}

// --- Admin configuration ---

// SetRedeemFeeNumerator updates the redemption fee fraction. The numerator
// must stay strictly below the fixed denominator.
func (x *Executor) SetRedeemFeeNumerator(caller crypto.Address, numerator uint64) error {
	x.stateMu.Lock()
	defer x.stateMu.Unlock()
	if err := x.requireAdmin(caller); err != nil {
		return err
	}
	if numerator >= RedeemFeeDenominator {
		return ErrFeeTooHigh
	}
	if err := x.state.SetRfqFeeNumerator(numerator); err != nil {
		return err
	}
	x.events.Emit(events.RfqFeeUpdated{Numerator: numerator})
	return nil
}

// RedeemFeeNumerator returns the configured fee numerator.
func (x *Executor) RedeemFeeNumerator() (uint64, error) {
	return x.state.RfqFeeNumerator()
}

// SetCustodian updates the address receiving collateral pulled in by mint
// orders.
func (x *Executor) SetCustodian(caller, custodian crypto.Address) error {
	x.stateMu.Lock()
	defer x.stateMu.Unlock()
	if err := x.requireAdmin(caller); err != nil {
		return err
	}
	if custodian.IsZero() {
		return ErrInvalidAddress
	}
	if err := x.state.SetRfqCustodian(custodian.Bytes()); err != nil {
		return err
	}
	x.events.Emit(events.RfqCustodianUpdated{Custodian: rawAddress(custodian)})
	return nil
}

// Custodian returns the configured custodian address, or the zero address
// when unset.
func (x *Executor) Custodian() (crypto.Address, error) {
	raw, err := x.state.RfqCustodian()
	if err != nil {
		return crypto.Address{}, err
	}
	if len(raw) == 0 {
		return crypto.Address{}, nil
	}
	return crypto.MustNewAddress(crypto.BluePrefix, raw), nil
}

// AddCollateral approves the asset for use as RFQ collateral. The asset must
// be a registered token.
func (x *Executor) AddCollateral(caller crypto.Address, asset string) error {
	x.stateMu.Lock()
	defer x.stateMu.Unlock()
	if err := x.requireAdmin(caller); err != nil {
		return err
	}
	if !x.state.TokenExists(asset) {
		return ErrCollateralNotSupported
	}
	if err := x.state.SetCollateralApproved(asset, true); err != nil {
		return err
	}
	x.events.Emit(events.RfqCollateralUpdated{Collateral: asset, Approved: true})
	return nil
}

// RemoveCollateral revokes the asset's collateral approval.
func (x *Executor) RemoveCollateral(caller crypto.Address, asset string) error {
	x.stateMu.Lock()
	defer x.stateMu.Unlock()
	if err := x.requireAdmin(caller); err != nil {
		return err
	}
	if err := x.state.SetCollateralApproved(asset, false); err != nil {
		return err
	}
	x.events.Emit(events.RfqCollateralUpdated{Collateral: asset, Approved: false})
	return nil
}

// CollateralApproved reports whether the asset is in the approved set.
func (x *Executor) CollateralApproved(asset string) (bool, error) {
	return x.state.CollateralApproved(asset)
}

func (x *Executor) requireAdmin(caller crypto.Address) error {
	if x.state.HasRole(caller.Bytes(), RoleAdmin) {
		return nil
	}
	if x.state.HasRole(caller.Bytes(), garden.RoleFullAccess) {
		return nil
	}
	return ErrUnauthorized
}

// validateOrder checks the shared order preconditions and returns the
// configured custodian bytes for mint settlement.
func (x *Executor) validateOrder(order Order) ([]byte, error) {
	if order.User.IsZero() {
		return nil, ErrInvalidAddress
	}
	if order.CollateralAmount == nil || order.CollateralAmount.Sign() <= 0 {
		return nil, ErrAmountZero
	}
	if order.TokenAmount == nil || order.TokenAmount.Sign() <= 0 {
		return nil, ErrAmountZero
	}
	approved, err := x.state.CollateralApproved(order.Collateral)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, ErrCollateralNotSupported
	}
	return x.state.RfqCustodian()
}

func rawAddress(addr crypto.Address) [20]byte {
	var raw [20]byte
	copy(raw[:], addr.Bytes())
	return raw
}
