package garden

import "errors"

var (
	// ErrUnauthorized indicates the caller lacks the role required by a
	// governance-gated operation.
	ErrUnauthorized = errors.New("garden: caller lacks required role")
	// ErrInvalidAddress indicates a required account argument was the zero
	// address.
	ErrInvalidAddress = errors.New("garden: address must not be zero")
	// ErrInvalidSymbol indicates a required token symbol argument was empty.
	ErrInvalidSymbol = errors.New("garden: token symbol must not be empty")
	// ErrAssetNotRegistered indicates the underlying asset is unknown to the
	// token ledger.
	ErrAssetNotRegistered = errors.New("garden: asset token not registered")
	// ErrMarketAlreadyExists indicates a duplicate market creation attempt.
	ErrMarketAlreadyExists = errors.New("garden: market already exists for asset")
	// ErrMarketNotFound indicates the referenced asset or share token has no
	// bound market.
	ErrMarketNotFound = errors.New("garden: no market bound to asset")
	// ErrAmountZero indicates a quantity argument was zero or negative where
	// a positive value is required.
	ErrAmountZero = errors.New("garden: amount must be positive")
	// ErrDepositTooSmall indicates a deposit that converts to zero shares at
	// the current exchange rate.
	ErrDepositTooSmall = errors.New("garden: deposit smaller than one share")
	// ErrInsufficientBalance indicates the debited account holds less than
	// the requested amount.
	ErrInsufficientBalance = errors.New("garden: insufficient balance")
	// ErrInsufficientAllowance indicates the caller was not authorised to
	// move the requested amount on behalf of the owner.
	ErrInsufficientAllowance = errors.New("garden: insufficient allowance")
	// ErrInsufficientLiquidity indicates the pooled underlying cannot cover
	// the redemption.
	ErrInsufficientLiquidity = errors.New("garden: insufficient pooled liquidity")
	// ErrNotController indicates a mint or burn was attempted by an account
	// other than the token's controller.
	ErrNotController = errors.New("garden: caller is not the token controller")
)
