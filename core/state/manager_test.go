package state

import (
	"math/big"
	"testing"

	"blueberry/core/types"
	"blueberry/storage"
)

func newTestManager() *Manager {
	return NewManager(storage.NewMemDB())
}

func TestRegisterTokenExactlyOnce(t *testing.T) {
	m := newTestManager()
	err := m.RegisterToken(&TokenMetadata{Symbol: "usdc", Name: "USD Coin", Decimals: 6})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.RegisterToken(&TokenMetadata{Symbol: "USDC", Name: "Again", Decimals: 6}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	meta, err := m.Token("  usdc ")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if meta == nil {
		t.Fatal("token not found under normalized symbol")
	}
	if meta.Symbol != "USDC" {
		t.Fatalf("expected stored symbol USDC, got %q", meta.Symbol)
	}
	if !m.TokenExists("usdc") {
		t.Fatal("TokenExists must normalize")
	}
	tokens, err := m.Tokens()
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "USDC" {
		t.Fatalf("unexpected token index: %v", tokens)
	}
}

func TestBalanceRequiresRegisteredToken(t *testing.T) {
	m := newTestManager()
	addr := []byte("aaaaaaaaaaaaaaaaaaaa")

	if err := m.SetBalance(addr, "USDC", big.NewInt(10)); err == nil {
		t.Fatal("expected balance write against unknown token to fail")
	}
	if err := m.RegisterToken(&TokenMetadata{Symbol: "USDC", Decimals: 6}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.SetBalance(addr, "USDC", big.NewInt(-1)); err == nil {
		t.Fatal("expected negative balance to fail")
	}
	if err := m.SetBalance(addr, "USDC", big.NewInt(42)); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	balance, err := m.Balance(addr, "usdc")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("expected 42, got %s", balance)
	}
	other, err := m.Balance([]byte("bbbbbbbbbbbbbbbbbbbb"), "USDC")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if other.Sign() != 0 {
		t.Fatalf("unset balance must default to zero, got %s", other)
	}
}

func TestAllowanceDefaultsToZero(t *testing.T) {
	m := newTestManager()
	owner := []byte("oooooooooooooooooooo")
	spender := []byte("ssssssssssssssssssss")

	allowance, err := m.Allowance(owner, spender, "USDC")
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if allowance.Sign() != 0 {
		t.Fatalf("expected zero, got %s", allowance)
	}
	if err := m.SetAllowance(owner, spender, "USDC", big.NewInt(7)); err != nil {
		t.Fatalf("set allowance: %v", err)
	}
	allowance, err = m.Allowance(owner, spender, "USDC")
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if allowance.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("expected 7, got %s", allowance)
	}
	// Allowances are directional.
	reverse, err := m.Allowance(spender, owner, "USDC")
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if reverse.Sign() != 0 {
		t.Fatalf("reverse direction must stay zero, got %s", reverse)
	}
}

func TestRoleSingleTag(t *testing.T) {
	m := newTestManager()
	addr := []byte("aaaaaaaaaaaaaaaaaaaa")

	if err := m.SetRole(addr, "ROLE_A"); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if !m.HasRole(addr, "ROLE_A") {
		t.Fatal("expected ROLE_A")
	}
	if err := m.SetRole(addr, "ROLE_B"); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if m.HasRole(addr, "ROLE_A") {
		t.Fatal("previous tag must be overwritten")
	}
	if !m.HasRole(addr, "ROLE_B") {
		t.Fatal("expected ROLE_B")
	}
	if err := m.SetRole(addr, ""); err != nil {
		t.Fatalf("clear role: %v", err)
	}
	if m.HasRole(addr, "ROLE_B") {
		t.Fatal("cleared tag must not match")
	}
	if m.HasRole(addr, "") {
		t.Fatal("empty tag must never match")
	}
}

func TestMarketBindingBothDirections(t *testing.T) {
	m := newTestManager()
	if err := m.SetMarket("usdc", "bUSDC"); err != nil {
		t.Fatalf("set market: %v", err)
	}
	bToken, err := m.MarketFor("USDC")
	if err != nil {
		t.Fatalf("market for: %v", err)
	}
	if bToken != "BUSDC" {
		t.Fatalf("expected BUSDC, got %q", bToken)
	}
	asset, err := m.AssetFor("busdc")
	if err != nil {
		t.Fatalf("asset for: %v", err)
	}
	if asset != "USDC" {
		t.Fatalf("expected USDC, got %q", asset)
	}
	assets, err := m.MarketAssets()
	if err != nil {
		t.Fatalf("market assets: %v", err)
	}
	if len(assets) != 1 || assets[0] != "USDC" {
		t.Fatalf("unexpected market index: %v", assets)
	}
}

func TestEventJournalRoundTrip(t *testing.T) {
	m := newTestManager()

	head, err := m.LatestEventSequence()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head != 0 {
		t.Fatalf("empty journal must report head 0, got %d", head)
	}

	first := &types.Event{Type: "garden.lend", Attributes: map[string]string{
		"asset":  "USDC",
		"amount": "400",
	}}
	if err := m.AppendEvent(1, first); err != nil {
		t.Fatalf("append: %v", err)
	}
	second := &types.Event{Type: "garden.redeem", Attributes: map[string]string{
		"bToken": "BUSDC",
		"shares": "400",
	}}
	if err := m.AppendEvent(2, second); err != nil {
		t.Fatalf("append: %v", err)
	}

	head, err = m.LatestEventSequence()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head != 2 {
		t.Fatalf("expected head 2, got %d", head)
	}

	records, err := m.EventsSince(0)
	if err != nil {
		t.Fatalf("events since: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Sequence != 1 || records[0].Event.Type != "garden.lend" {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[0].Event.Attributes["amount"] != "400" {
		t.Fatalf("attributes lost in round trip: %v", records[0].Event.Attributes)
	}

	records, err = m.EventsSince(1)
	if err != nil {
		t.Fatalf("events since: %v", err)
	}
	if len(records) != 1 || records[0].Sequence != 2 {
		t.Fatalf("cursor replay mismatch: %+v", records)
	}

	if err := m.AppendEvent(0, first); err == nil {
		t.Fatal("sequence 0 must be rejected")
	}
	if err := m.AppendEvent(3, nil); err == nil {
		t.Fatal("nil event must be rejected")
	}
}

func TestRfqConfigurationRoundTrip(t *testing.T) {
	m := newTestManager()

	approved, err := m.CollateralApproved("USDC")
	if err != nil {
		t.Fatalf("collateral approved: %v", err)
	}
	if approved {
		t.Fatal("collateral must default to unapproved")
	}
	if err := m.SetCollateralApproved("USDC", true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	approved, err = m.CollateralApproved("usdc")
	if err != nil {
		t.Fatalf("collateral approved: %v", err)
	}
	if !approved {
		t.Fatal("expected approval under normalized symbol")
	}

	numerator, err := m.RfqFeeNumerator()
	if err != nil {
		t.Fatalf("fee numerator: %v", err)
	}
	if numerator != 0 {
		t.Fatalf("fee must default to zero, got %d", numerator)
	}
	if err := m.SetRfqFeeNumerator(500); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	numerator, err = m.RfqFeeNumerator()
	if err != nil {
		t.Fatalf("fee numerator: %v", err)
	}
	if numerator != 500 {
		t.Fatalf("expected 500, got %d", numerator)
	}

	custodian, err := m.RfqCustodian()
	if err != nil {
		t.Fatalf("custodian: %v", err)
	}
	if custodian != nil {
		t.Fatalf("custodian must default to unset, got %x", custodian)
	}
	raw := []byte("cccccccccccccccccccc")
	if err := m.SetRfqCustodian(raw); err != nil {
		t.Fatalf("set custodian: %v", err)
	}
	custodian, err = m.RfqCustodian()
	if err != nil {
		t.Fatalf("custodian: %v", err)
	}
	if string(custodian) != string(raw) {
		t.Fatalf("custodian mismatch: %x", custodian)
	}
}
