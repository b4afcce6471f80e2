package rpc

import (
	"errors"
	"math/big"
	"net/http"
	"strings"

	"blueberry/crypto"
	"blueberry/native/garden"
	"blueberry/native/rfq"
)

var errExpectedObjectParam = errors.New("expected a single parameter object")

// parseAddress decodes a required bech32 address field.
func parseAddress(value, label string) (crypto.Address, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return crypto.Address{}, errors.New(label + " required")
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return crypto.Address{}, errors.New("invalid " + label)
	}
	return addr, nil
}

// parseAmount decodes a required positive decimal amount field.
func parseAmount(value, label string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, errors.New(label + " required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, errors.New("invalid " + label)
	}
	return amount, nil
}

// engineErrorCode maps the protocol sentinel errors onto JSON-RPC codes and
// HTTP statuses. Unknown errors surface as internal server failures.
func engineErrorCode(err error) (int, int) {
	switch {
	case errors.Is(err, garden.ErrUnauthorized), errors.Is(err, rfq.ErrUnauthorized):
		return http.StatusForbidden, codeUnauthorized
	case errors.Is(err, garden.ErrInvalidAddress),
		errors.Is(err, garden.ErrInvalidSymbol),
		errors.Is(err, garden.ErrAmountZero),
		errors.Is(err, rfq.ErrInvalidAddress),
		errors.Is(err, rfq.ErrAmountZero):
		return http.StatusBadRequest, codeInvalidParams
	case errors.Is(err, garden.ErrMarketAlreadyExists),
		errors.Is(err, garden.ErrMarketNotFound),
		errors.Is(err, garden.ErrAssetNotRegistered),
		errors.Is(err, garden.ErrDepositTooSmall),
		errors.Is(err, garden.ErrInsufficientBalance),
		errors.Is(err, garden.ErrInsufficientAllowance),
		errors.Is(err, garden.ErrInsufficientLiquidity),
		errors.Is(err, rfq.ErrCollateralNotSupported),
		errors.Is(err, rfq.ErrInsufficientBalance),
		errors.Is(err, rfq.ErrInsufficientLiquidity),
		errors.Is(err, rfq.ErrFeeTooHigh),
		errors.Is(err, rfq.ErrCustodianNotSet):
		return http.StatusUnprocessableEntity, codeRejected
	default:
		return http.StatusInternalServerError, codeServerError
	}
}

// writeEngineError renders a rejected operation and records the rejection
// metric under the method label.
func (s *Server) writeEngineError(w http.ResponseWriter, id interface{}, method string, err error) {
	status, code := engineErrorCode(err)
	s.metrics.ObserveRejection(method, err.Error())
	writeError(w, status, id, code, err.Error(), nil)
}
