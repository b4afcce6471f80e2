package events

import (
	"math/big"
	"strings"

	"blueberry/crypto"
)

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

func formatAddress(raw [20]byte) string {
	if zeroBytes(raw[:]) {
		return ""
	}
	return crypto.MustNewAddress(crypto.BluePrefix, raw[:]).String()
}

func zeroBytes(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
