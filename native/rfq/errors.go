package rfq

import "errors"

var (
	// ErrUnauthorized indicates the caller lacks the capability required by
	// the operation.
	ErrUnauthorized = errors.New("rfq: caller lacks required role")
	// ErrInvalidAddress indicates a required account argument was the zero
	// address.
	ErrInvalidAddress = errors.New("rfq: address must not be zero")
	// ErrAmountZero indicates an order amount was zero or negative.
	ErrAmountZero = errors.New("rfq: order amounts must be positive")
	// ErrCollateralNotSupported indicates the order references an asset
	// outside the approved collateral set.
	ErrCollateralNotSupported = errors.New("rfq: collateral not supported")
	// ErrInsufficientBalance indicates the order user holds less than the
	// order requires.
	ErrInsufficientBalance = errors.New("rfq: insufficient balance")
	// ErrInsufficientLiquidity indicates the executor holds less collateral
	// than the redemption requires.
	ErrInsufficientLiquidity = errors.New("rfq: insufficient redeemable collateral")
	// ErrFeeTooHigh indicates a proposed fee numerator at or above the
	// denominator.
	ErrFeeTooHigh = errors.New("rfq: fee numerator must stay below denominator")
	// ErrCustodianNotSet indicates minting was attempted before a custodian
	// address was configured.
	ErrCustodianNotSet = errors.New("rfq: custodian not configured")
)
