package state

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"blueberry/storage"
)

// Manager provides the canonical read/write surface over protocol state. All
// values are RLP encoded and keyed by keccak-hashed, prefix-tagged keys so the
// layout stays stable across backends.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// TokenMetadata describes a fungible token tracked by the state ledger. Share
// tokens additionally carry their underlying asset binding and the cached
// underlying decimals captured at market creation.
type TokenMetadata struct {
	Symbol     string
	Name       string
	Decimals   uint8
	Controller []byte
	Underlying string
}

var (
	tokenPrefix      = []byte("token:")
	tokenListKey     = ethcrypto.Keccak256([]byte("token-list"))
	balancePrefix    = []byte("balance:")
	supplyPrefix     = []byte("supply:")
	allowancePrefix  = []byte("allowance:")
	rolePrefix       = []byte("role:")
	marketPrefix     = []byte("market:")
	marketBackPrefix = []byte("market-asset:")
	marketListKey    = ethcrypto.Keccak256([]byte("market-list"))
	collateralPrefix = []byte("rfq-collateral:")
	rfqFeeKey        = ethcrypto.Keccak256([]byte("rfq-fee-numerator"))
	rfqCustodianKey  = ethcrypto.Keccak256([]byte("rfq-custodian"))
)

func prefixedKey(prefix []byte, parts ...string) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part) + 1
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
		buf = append(buf, ':')
	}
	return ethcrypto.Keccak256(buf)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// --- Token registry ---

// RegisterToken stores the metadata for a token and records it in the token
// index. Registration is exactly-once per symbol.
func (m *Manager) RegisterToken(meta *TokenMetadata) error {
	if meta == nil {
		return fmt.Errorf("token metadata must not be nil")
	}
	normalized := normalizeSymbol(meta.Symbol)
	if normalized == "" {
		return fmt.Errorf("token symbol must not be empty")
	}
	existing, err := m.Token(normalized)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("token %s already registered", normalized)
	}
	stored := *meta
	stored.Symbol = normalized
	stored.Underlying = normalizeSymbol(meta.Underlying)
	if err := m.put(prefixedKey(tokenPrefix, normalized), &stored); err != nil {
		return err
	}
	list, err := m.tokenList()
	if err != nil {
		return err
	}
	list = append(list, normalized)
	sort.Strings(list)
	return m.put(tokenListKey, list)
}

// Token retrieves the metadata for a registered token, or nil when unknown.
func (m *Manager) Token(symbol string) (*TokenMetadata, error) {
	normalized := normalizeSymbol(symbol)
	if normalized == "" {
		return nil, nil
	}
	meta := new(TokenMetadata)
	ok, err := m.get(prefixedKey(tokenPrefix, normalized), meta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return meta, nil
}

// TokenExists reports whether the provided token symbol is registered.
func (m *Manager) TokenExists(symbol string) bool {
	meta, err := m.Token(symbol)
	return err == nil && meta != nil
}

// Tokens returns the sorted list of registered token symbols.
func (m *Manager) Tokens() ([]string, error) {
	return m.tokenList()
}

func (m *Manager) tokenList() ([]string, error) {
	var list []string
	ok, err := m.get(tokenListKey, &list)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	return list, nil
}

// --- Balances and supply ---

// Balance retrieves a token balance for the provided account.
func (m *Manager) Balance(addr []byte, symbol string) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := m.get(balanceKey(addr, symbol), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// SetBalance writes a token balance for the provided account. The token must
// be registered and the balance non-negative.
func (m *Manager) SetBalance(addr []byte, symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("negative balance not allowed")
	}
	normalized := normalizeSymbol(symbol)
	if !m.TokenExists(normalized) {
		return fmt.Errorf("token %s not registered", normalized)
	}
	return m.put(balanceKey(addr, normalized), amount)
}

// TotalSupply retrieves the recorded total supply for a token.
func (m *Manager) TotalSupply(symbol string) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := m.get(prefixedKey(supplyPrefix, normalizeSymbol(symbol)), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// SetTotalSupply writes the total supply for a token.
func (m *Manager) SetTotalSupply(symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("negative supply not allowed")
	}
	return m.put(prefixedKey(supplyPrefix, normalizeSymbol(symbol)), amount)
}

// Allowance retrieves the spending allowance granted by owner to spender.
func (m *Manager) Allowance(owner, spender []byte, symbol string) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := m.get(allowanceKey(owner, spender, symbol), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// SetAllowance writes the spending allowance granted by owner to spender.
func (m *Manager) SetAllowance(owner, spender []byte, symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("negative allowance not allowed")
	}
	return m.put(allowanceKey(owner, spender, symbol), amount)
}

func balanceKey(addr []byte, symbol string) []byte {
	return prefixedKey(balancePrefix, normalizeSymbol(symbol), string(addr))
}

func allowanceKey(owner, spender []byte, symbol string) []byte {
	return prefixedKey(allowancePrefix, normalizeSymbol(symbol), string(owner), string(spender))
}

// --- Roles ---

// Role returns the role tag currently assigned to the address, or the empty
// tag when unset. An account holds at most one tag at a time.
func (m *Manager) Role(addr []byte) (string, error) {
	if len(addr) == 0 {
		return "", nil
	}
	var role string
	ok, err := m.get(prefixedKey(rolePrefix, string(addr)), &role)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return role, nil
}

// SetRole assigns the role tag to the address, replacing any previous tag
// (last-write-wins). An empty tag clears the assignment.
func (m *Manager) SetRole(addr []byte, role string) error {
	if len(addr) == 0 {
		return fmt.Errorf("address must not be empty")
	}
	return m.put(prefixedKey(rolePrefix, string(addr)), strings.TrimSpace(role))
}

// HasRole reports whether the address currently holds the provided tag. Read
// failures report false, matching the best-effort semantics required by the
// permission guards.
func (m *Manager) HasRole(addr []byte, role string) bool {
	current, err := m.Role(addr)
	if err != nil {
		return false
	}
	trimmed := strings.TrimSpace(role)
	return trimmed != "" && current == trimmed
}

// --- Market registry ---

// SetMarket records the asset to share-token binding in both directions and
// appends the asset to the market index. Callers are responsible for the
// exactly-once check; the two mappings are always written together.
func (m *Manager) SetMarket(asset, bToken string) error {
	assetNorm := normalizeSymbol(asset)
	bTokenNorm := normalizeSymbol(bToken)
	if assetNorm == "" || bTokenNorm == "" {
		return fmt.Errorf("market symbols must not be empty")
	}
	if err := m.put(prefixedKey(marketPrefix, assetNorm), bTokenNorm); err != nil {
		return err
	}
	if err := m.put(prefixedKey(marketBackPrefix, bTokenNorm), assetNorm); err != nil {
		return err
	}
	list, err := m.MarketAssets()
	if err != nil {
		return err
	}
	list = append(list, assetNorm)
	sort.Strings(list)
	return m.put(marketListKey, list)
}

// MarketFor resolves the share token registered for the asset, or "" when no
// market exists.
func (m *Manager) MarketFor(asset string) (string, error) {
	var bToken string
	ok, err := m.get(prefixedKey(marketPrefix, normalizeSymbol(asset)), &bToken)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return bToken, nil
}

// AssetFor resolves the underlying asset registered for the share token, or
// "" when the token is not a market share token.
func (m *Manager) AssetFor(bToken string) (string, error) {
	var asset string
	ok, err := m.get(prefixedKey(marketBackPrefix, normalizeSymbol(bToken)), &asset)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return asset, nil
}

// MarketAssets returns the sorted list of assets with a registered market.
func (m *Manager) MarketAssets() ([]string, error) {
	var list []string
	ok, err := m.get(marketListKey, &list)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	return list, nil
}

// --- RFQ configuration ---

// CollateralApproved reports whether the asset is in the approved RFQ
// collateral set.
func (m *Manager) CollateralApproved(symbol string) (bool, error) {
	var approved bool
	ok, err := m.get(prefixedKey(collateralPrefix, normalizeSymbol(symbol)), &approved)
	if err != nil {
		return false, err
	}
	return ok && approved, nil
}

// SetCollateralApproved toggles the asset's membership in the approved RFQ
// collateral set.
func (m *Manager) SetCollateralApproved(symbol string, approved bool) error {
	normalized := normalizeSymbol(symbol)
	if normalized == "" {
		return fmt.Errorf("collateral symbol must not be empty")
	}
	return m.put(prefixedKey(collateralPrefix, normalized), approved)
}

// RfqFeeNumerator returns the configured redemption fee numerator.
func (m *Manager) RfqFeeNumerator() (uint64, error) {
	var numerator uint64
	ok, err := m.get(rfqFeeKey, &numerator)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return numerator, nil
}

// SetRfqFeeNumerator stores the redemption fee numerator. Bounds are enforced
// by the RFQ executor before the write.
func (m *Manager) SetRfqFeeNumerator(numerator uint64) error {
	return m.put(rfqFeeKey, numerator)
}

// RfqCustodian returns the configured custodian address bytes, or nil when
// unset.
func (m *Manager) RfqCustodian() ([]byte, error) {
	var custodian []byte
	ok, err := m.get(rfqCustodianKey, &custodian)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return custodian, nil
}

// SetRfqCustodian stores the custodian address bytes.
func (m *Manager) SetRfqCustodian(addr []byte) error {
	if len(addr) == 0 {
		return fmt.Errorf("custodian address must not be empty")
	}
	return m.put(rfqCustodianKey, append([]byte(nil), addr...))
}
