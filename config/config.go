package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"blueberry/crypto"
)

// TokenConfig declares an underlying token registered at first start so
// markets can be created against it.
type TokenConfig struct {
	Symbol   string `toml:"Symbol"`
	Name     string `toml:"Name"`
	Decimals uint8  `toml:"Decimals"`
}

// RFQConfig carries the executor defaults applied at bootstrap.
type RFQConfig struct {
	ReceiptSymbol      string `toml:"ReceiptSymbol"`
	ReceiptName        string `toml:"ReceiptName"`
	FeeCollector       string `toml:"FeeCollector"`
	Custodian          string `toml:"Custodian"`
	RedeemFeeNumerator uint64 `toml:"RedeemFeeNumerator"`
}

type Config struct {
	RPCAddress     string        `toml:"RPCAddress"`
	MetricsAddress string        `toml:"MetricsAddress"`
	DataDir        string        `toml:"DataDir"`
	NetworkName    string        `toml:"NetworkName"`
	AdminAddress   string        `toml:"AdminAddress"`
	Tokens         []TokenConfig `toml:"Tokens"`
	RFQ            RFQConfig     `toml:"RFQ"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./blueberry-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "blueberry-local"
	}
	if strings.TrimSpace(cfg.RFQ.ReceiptSymbol) == "" {
		cfg.RFQ.ReceiptSymbol = "BLB"
	}
	if strings.TrimSpace(cfg.RFQ.ReceiptName) == "" {
		cfg.RFQ.ReceiptName = "Blueberry Receipt"
	}
}

// Validate checks the address fields and fee bounds before the node starts.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config must not be nil")
	}
	for _, field := range []struct {
		label string
		value string
	}{
		{"AdminAddress", cfg.AdminAddress},
		{"RFQ.FeeCollector", cfg.RFQ.FeeCollector},
		{"RFQ.Custodian", cfg.RFQ.Custodian},
	} {
		trimmed := strings.TrimSpace(field.value)
		if trimmed == "" {
			continue
		}
		if _, err := crypto.DecodeAddress(trimmed); err != nil {
			return fmt.Errorf("config %s: %w", field.label, err)
		}
	}
	if cfg.RFQ.RedeemFeeNumerator >= 10_000 {
		return fmt.Errorf("config RFQ.RedeemFeeNumerator must stay below 10000")
	}
	seen := make(map[string]struct{}, len(cfg.Tokens))
	for _, token := range cfg.Tokens {
		symbol := strings.ToUpper(strings.TrimSpace(token.Symbol))
		if symbol == "" {
			return fmt.Errorf("config Tokens: symbol must not be empty")
		}
		if _, ok := seen[symbol]; ok {
			return fmt.Errorf("config Tokens: duplicate symbol %s", symbol)
		}
		seen[symbol] = struct{}{}
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}
