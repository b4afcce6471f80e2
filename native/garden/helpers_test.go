package garden

import (
	"math/big"
	"testing"

	"blueberry/core/state"
	"blueberry/crypto"
	"blueberry/storage"
)

func testAddress(tag byte) crypto.Address {
	raw := make([]byte, crypto.AddressLength)
	raw[crypto.AddressLength-1] = tag
	return crypto.MustNewAddress(crypto.BluePrefix, raw)
}

type testEnv struct {
	manager *state.Manager
	garden  *Garden
	module  crypto.Address
	admin   crypto.Address
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	module := testAddress(0xAA)
	admin := testAddress(0x01)
	g, err := NewGarden(manager, nil, module, admin)
	if err != nil {
		t.Fatalf("new garden: %v", err)
	}
	return &testEnv{manager: manager, garden: g, module: module, admin: admin}
}

func (env *testEnv) registerToken(t *testing.T, symbol string, decimals uint8) {
	t.Helper()
	err := env.manager.RegisterToken(&state.TokenMetadata{
		Symbol:   symbol,
		Name:     symbol + " Token",
		Decimals: decimals,
	})
	if err != nil {
		t.Fatalf("register token %s: %v", symbol, err)
	}
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

func (env *testEnv) addMarket(t *testing.T, asset, symbol string) string {
	t.Helper()
	bToken, err := env.garden.AddMarket(env.admin, asset, asset+" Market", symbol)
	if err != nil {
		t.Fatalf("add market %s: %v", asset, err)
	}
	return bToken
}
