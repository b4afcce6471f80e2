package rfq

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"blueberry/core/state"
	"blueberry/crypto"
	"blueberry/native/garden"
	"blueberry/storage"
)

func testAddress(tag byte) crypto.Address {
	raw := make([]byte, crypto.AddressLength)
	raw[crypto.AddressLength-1] = tag
	return crypto.MustNewAddress(crypto.BluePrefix, raw)
}

type testEnv struct {
	manager      *state.Manager
	garden       *garden.Garden
	executor     *Executor
	admin        crypto.Address
	minter       crypto.Address
	redeemer     crypto.Address
	custodian    crypto.Address
	feeCollector crypto.Address
	user         crypto.Address
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	env := &testEnv{
		manager:      manager,
		admin:        testAddress(0x01),
		minter:       testAddress(0x02),
		redeemer:     testAddress(0x03),
		custodian:    testAddress(0x04),
		feeCollector: testAddress(0x05),
		user:         testAddress(0x06),
	}
	g, err := garden.NewGarden(manager, nil, testAddress(0xAA), env.admin)
	if err != nil {
		t.Fatalf("new garden: %v", err)
	}
	env.garden = g
	executor, err := NewExecutor(manager, g, nil, testAddress(0xBB), env.feeCollector, "BLB", "Blueberry Receipt")
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	env.executor = executor

	if err := g.SetRole(env.admin, env.minter, RoleMinter); err != nil {
		t.Fatalf("grant minter: %v", err)
	}
	if err := g.SetRole(env.admin, env.redeemer, RoleRedeemer); err != nil {
		t.Fatalf("grant redeemer: %v", err)
	}
	err = manager.RegisterToken(&state.TokenMetadata{Symbol: "USDC", Name: "USD Coin", Decimals: 6})
	if err != nil {
		t.Fatalf("register collateral: %v", err)
	}
	if err := executor.AddCollateral(env.admin, "USDC"); err != nil {
		t.Fatalf("approve collateral: %v", err)
	}
	if err := executor.SetCustodian(env.admin, env.custodian); err != nil {
		t.Fatalf("set custodian: %v", err)
	}
	return env
}

func (env *testEnv) fund(t *testing.T, addr crypto.Address, symbol string, amount int64) {
	t.Helper()
	if err := env.manager.SetBalance(addr.Bytes(), symbol, big.NewInt(amount)); err != nil {
		t.Fatalf("fund %s: %v", symbol, err)
	}
}

func (env *testEnv) balance(t *testing.T, addr crypto.Address, symbol string) *big.Int {
	t.Helper()
	balance, err := env.garden.BalanceOf(addr, symbol)
	if err != nil {
		t.Fatalf("balance of %s: %v", symbol, err)
	}
	return balance
}

func order(env *testEnv, collAmount, tokenAmount int64) Order {
	return Order{
		ID:               "order-1",
		User:             env.user,
		Collateral:       "USDC",
		CollateralAmount: big.NewInt(collAmount),
		TokenAmount:      big.NewInt(tokenAmount),
	}
}

func TestMintSettlesCollateralAndReceipts(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, env.user, "USDC", 1_000)

	if err := env.executor.Mint(env.minter, order(env, 1_000, 1_000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got := env.balance(t, env.user, "USDC"); got.Sign() != 0 {
		t.Fatalf("expected collateral pulled from user, got %s", got)
	}
	if got := env.balance(t, env.custodian, "USDC"); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected collateral at custodian, got %s", got)
	}
	if got := env.balance(t, env.user, "BLB"); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected receipt tokens minted to user, got %s", got)
	}
}

func TestMintRequiresMinterRole(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, env.user, "USDC", 1_000)

	err := env.executor.Mint(env.redeemer, order(env, 1_000, 1_000))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if got := env.balance(t, env.user, "USDC"); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("rejected mint must not move collateral, got %s", got)
	}
}

func TestMintValidation(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, env.user, "USDC", 100)

	ord := order(env, 0, 100)
	if err := env.executor.Mint(env.minter, ord); !errors.Is(err, ErrAmountZero) {
		t.Fatalf("expected ErrAmountZero, got %v", err)
	}
	ord = order(env, 100, 100)
	ord.Collateral = "DAI"
	if err := env.executor.Mint(env.minter, ord); !errors.Is(err, ErrCollateralNotSupported) {
		t.Fatalf("expected ErrCollateralNotSupported, got %v", err)
	}
	ord = order(env, 101, 100)
	if err := env.executor.Mint(env.minter, ord); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	ord = order(env, 100, 100)
	ord.User = crypto.Address{}
	if err := env.executor.Mint(env.minter, ord); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestMintRequiresCustodian(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())
	admin := testAddress(0x01)
	g, err := garden.NewGarden(manager, nil, testAddress(0xAA), admin)
	if err != nil {
		t.Fatalf("new garden: %v", err)
	}
	executor, err := NewExecutor(manager, g, nil, testAddress(0xBB), testAddress(0x05), "BLB", "Blueberry Receipt")
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	minter := testAddress(0x02)
	if err := g.SetRole(admin, minter, RoleMinter); err != nil {
		t.Fatalf("grant minter: %v", err)
	}
	err = manager.RegisterToken(&state.TokenMetadata{Symbol: "USDC", Name: "USD Coin", Decimals: 6})
	if err != nil {
		t.Fatalf("register collateral: %v", err)
	}
	if err := executor.AddCollateral(admin, "USDC"); err != nil {
		t.Fatalf("approve collateral: %v", err)
	}
	user := testAddress(0x06)
	if err := manager.SetBalance(user.Bytes(), "USDC", big.NewInt(100)); err != nil {
		t.Fatalf("fund: %v", err)
	}

	ord := Order{ID: "o", User: user, Collateral: "USDC", CollateralAmount: big.NewInt(100), TokenAmount: big.NewInt(100)}
	if err := executor.Mint(minter, ord); !errors.Is(err, ErrCustodianNotSet) {
		t.Fatalf("expected ErrCustodianNotSet, got %v", err)
	}
}

func TestRedeemAppliesFlatFee(t *testing.T) {
	env := newTestEnv(t)
	if err := env.executor.SetRedeemFeeNumerator(env.admin, 500); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	env.fund(t, env.user, "USDC", 1_000)
	if err := env.executor.Mint(env.minter, order(env, 1_000, 1_000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	// Collateral sits with the custodian after mint; stock the executor's own
	// holdings so the redemption can pay out.
	env.fund(t, env.executor.Module(), "USDC", 1_000)

	if err := env.executor.Redeem(env.redeemer, order(env, 1_000, 1_000)); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	// 1000 * 500 / 10000 = 50 fee, 950 payout.
	if got := env.balance(t, env.feeCollector, "USDC"); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("expected fee 50, got %s", got)
	}
	if got := env.balance(t, env.user, "USDC"); got.Cmp(big.NewInt(950)) != 0 {
		t.Fatalf("expected payout 950, got %s", got)
	}
	if got := env.balance(t, env.user, "BLB"); got.Sign() != 0 {
		t.Fatalf("expected receipt tokens burned, got %s", got)
	}
	supply, err := env.garden.TotalSupply("BLB")
	if err != nil {
		t.Fatalf("total supply: %v", err)
	}
	if supply.Sign() != 0 {
		t.Fatalf("expected receipt supply zero, got %s", supply)
	}
}

func TestRedeemZeroFeePaysFullAmount(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, env.user, "USDC", 400)
	if err := env.executor.Mint(env.minter, order(env, 400, 400)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	env.fund(t, env.executor.Module(), "USDC", 400)

	if err := env.executor.Redeem(env.redeemer, order(env, 400, 400)); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if got := env.balance(t, env.user, "USDC"); got.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("expected full payout with zero fee, got %s", got)
	}
	if got := env.balance(t, env.feeCollector, "USDC"); got.Sign() != 0 {
		t.Fatalf("expected no fee routed, got %s", got)
	}
}

func TestRedeemChecksLiquidityBeforeBurn(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, env.user, "USDC", 1_000)
	if err := env.executor.Mint(env.minter, order(env, 1_000, 1_000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	env.fund(t, env.executor.Module(), "USDC", 999)

	err := env.executor.Redeem(env.redeemer, order(env, 1_000, 1_000))
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
	if got := env.balance(t, env.user, "BLB"); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("failed redeem must not burn receipts, got %s", got)
	}
}

func TestRedeemRequiresRedeemerRole(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, env.user, "USDC", 100)
	if err := env.executor.Mint(env.minter, order(env, 100, 100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	env.fund(t, env.executor.Module(), "USDC", 100)

	if err := env.executor.Redeem(env.minter, order(env, 100, 100)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRedeemRequiresReceiptBalance(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, env.executor.Module(), "USDC", 1_000)

	err := env.executor.Redeem(env.redeemer, order(env, 100, 100))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestSetRedeemFeeBounds(t *testing.T) {
	env := newTestEnv(t)

	if err := env.executor.SetRedeemFeeNumerator(env.admin, 9_999); err != nil {
		t.Fatalf("numerator 9999 must be accepted: %v", err)
	}
	if err := env.executor.SetRedeemFeeNumerator(env.admin, 10_000); !errors.Is(err, ErrFeeTooHigh) {
		t.Fatalf("expected ErrFeeTooHigh at the denominator, got %v", err)
	}
	numerator, err := env.executor.RedeemFeeNumerator()
	if err != nil {
		t.Fatalf("fee numerator: %v", err)
	}
	if numerator != 9_999 {
		t.Fatalf("rejected update must not change the numerator, got %d", numerator)
	}
}

func TestAdminSurfaceRequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)
	outsider := testAddress(0x09)

	if err := env.executor.SetRedeemFeeNumerator(outsider, 100); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := env.executor.SetCustodian(outsider, testAddress(0x08)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := env.executor.AddCollateral(outsider, "USDC"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	// The dedicated RFQ admin tag works alongside full access.
	rfqAdmin := testAddress(0x0A)
	if err := env.garden.SetRole(env.admin, rfqAdmin, RoleAdmin); err != nil {
		t.Fatalf("grant rfq admin: %v", err)
	}
	if err := env.executor.SetRedeemFeeNumerator(rfqAdmin, 250); err != nil {
		t.Fatalf("rfq admin must pass the guard: %v", err)
	}
}

func TestCollateralSetManagement(t *testing.T) {
	env := newTestEnv(t)

	if err := env.executor.AddCollateral(env.admin, "DAI"); !errors.Is(err, ErrCollateralNotSupported) {
		t.Fatalf("unregistered token must be rejected, got %v", err)
	}
	approved, err := env.executor.CollateralApproved("USDC")
	if err != nil {
		t.Fatalf("collateral approved: %v", err)
	}
	if !approved {
		t.Fatal("expected USDC approved")
	}
	if err := env.executor.RemoveCollateral(env.admin, "USDC"); err != nil {
		t.Fatalf("remove collateral: %v", err)
	}
	approved, err = env.executor.CollateralApproved("USDC")
	if err != nil {
		t.Fatalf("collateral approved: %v", err)
	}
	if approved {
		t.Fatal("expected USDC revoked")
	}
	env.fund(t, env.user, "USDC", 100)
	if err := env.executor.Mint(env.minter, order(env, 100, 100)); !errors.Is(err, ErrCollateralNotSupported) {
		t.Fatalf("revoked collateral must reject mints, got %v", err)
	}
}

func TestSetCustodianValidation(t *testing.T) {
	env := newTestEnv(t)
	if err := env.executor.SetCustodian(env.admin, crypto.Address{}); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
	custodian, err := env.executor.Custodian()
	if err != nil {
		t.Fatalf("custodian: %v", err)
	}
	if !custodian.Equal(env.custodian) {
		t.Fatalf("rejected update must not change the custodian")
	}
}

func TestConcurrentMintsStaySerialized(t *testing.T) {
	env := newTestEnv(t)
	const workers = 16
	env.fund(t, env.user, "USDC", workers)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := env.executor.Mint(env.minter, order(env, 1, 1)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("mint: %v", err)
	}

	if got := env.balance(t, env.custodian, "USDC"); got.Cmp(big.NewInt(workers)) != 0 {
		t.Fatalf("expected custodian holding %d, got %s", workers, got)
	}
	if got := env.balance(t, env.user, "USDC"); got.Sign() != 0 {
		t.Fatalf("expected user drained, got %s", got)
	}
	supply, err := env.garden.TotalSupply("BLB")
	if err != nil {
		t.Fatalf("total supply: %v", err)
	}
	if supply.Cmp(big.NewInt(workers)) != 0 {
		t.Fatalf("expected receipt supply %d, got %s", workers, supply)
	}
}

func TestMaxRedeemTracksModuleHoldings(t *testing.T) {
	env := newTestEnv(t)
	redeemable, err := env.executor.MaxRedeem("USDC")
	if err != nil {
		t.Fatalf("max redeem: %v", err)
	}
	if redeemable.Sign() != 0 {
		t.Fatalf("expected zero before funding, got %s", redeemable)
	}
	env.fund(t, env.executor.Module(), "USDC", 777)
	redeemable, err = env.executor.MaxRedeem("USDC")
	if err != nil {
		t.Fatalf("max redeem: %v", err)
	}
	if redeemable.Cmp(big.NewInt(777)) != 0 {
		t.Fatalf("expected 777, got %s", redeemable)
	}
}
