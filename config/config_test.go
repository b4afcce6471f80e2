package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"blueberry/crypto"
)

func testAddress(tag byte) string {
	raw := make([]byte, crypto.AddressLength)
	raw[crypto.AddressLength-1] = tag
	return crypto.MustNewAddress(crypto.BluePrefix, raw).String()
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8645", cfg.RPCAddress)
	require.Equal(t, "./blueberry-data", cfg.DataDir)
	require.Equal(t, "blueberry-local", cfg.NetworkName)
	require.Equal(t, "BLB", cfg.RFQ.ReceiptSymbol)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config file must be written")

	// Reloading the generated file round-trips.
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.RPCAddress, reloaded.RPCAddress)
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("RPCAddress = \":9999\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.RPCAddress)
	require.Equal(t, "./blueberry-data", cfg.DataDir)
	require.Equal(t, "BLB", cfg.RFQ.ReceiptSymbol)
}

func TestValidateRejectsBadAddresses(t *testing.T) {
	cfg := &Config{AdminAddress: "not-bech32"}
	applyDefaults(cfg)
	require.Error(t, Validate(cfg))

	cfg = &Config{AdminAddress: testAddress(0x01)}
	applyDefaults(cfg)
	require.NoError(t, Validate(cfg))

	cfg = &Config{RFQ: RFQConfig{Custodian: "oops"}}
	applyDefaults(cfg)
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsFeeAtDenominator(t *testing.T) {
	cfg := &Config{RFQ: RFQConfig{RedeemFeeNumerator: 10_000}}
	applyDefaults(cfg)
	require.Error(t, Validate(cfg))

	cfg = &Config{RFQ: RFQConfig{RedeemFeeNumerator: 9_999}}
	applyDefaults(cfg)
	require.NoError(t, Validate(cfg))
}

func TestValidateRejectsDuplicateTokens(t *testing.T) {
	cfg := &Config{Tokens: []TokenConfig{
		{Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		{Symbol: " usdc ", Name: "Duplicate", Decimals: 6},
	}}
	applyDefaults(cfg)
	require.Error(t, Validate(cfg))

	cfg = &Config{Tokens: []TokenConfig{
		{Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		{Symbol: "DAI", Name: "Dai", Decimals: 18},
	}}
	applyDefaults(cfg)
	require.NoError(t, Validate(cfg))
}
