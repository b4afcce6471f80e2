package rfq

import (
	"math/big"

	"blueberry/crypto"
	"blueberry/native/garden"
)

// Role tags gating the executor's privileged operations. Tags live in the
// same single-tag-per-account registry as the garden roles.
const (
	// RoleMinter authorises submitting mint orders.
	RoleMinter = "RFQ_MINTER"
	// RoleRedeemer authorises submitting redeem orders.
	RoleRedeemer = "RFQ_REDEEMER"
	// RoleAdmin authorises configuration changes. Holders of the garden's
	// full-access tag are accepted as administrators as well.
	RoleAdmin = "RFQ_ADMIN"
)

// RedeemFeeDenominator is the fixed basis of the redemption fee fraction.
const RedeemFeeDenominator = 10_000

// Order is an ephemeral request-for-quote fill: the collateral and token
// amounts are independently supplied by the privileged caller after off-chain
// price discovery. Orders are validated and executed atomically, never
// stored.
type Order struct {
	// ID correlates the fill with off-chain quote records and event
	// streams. It is informational only and never persisted.
	ID               string
	User             crypto.Address
	Collateral       string
	CollateralAmount *big.Int
	TokenAmount      *big.Int
}

// State is the persistence surface the executor operates against, extending
// the garden ledger state with the RFQ configuration records.
type State interface {
	garden.State

	CollateralApproved(symbol string) (bool, error)
	SetCollateralApproved(symbol string, approved bool) error
	RfqFeeNumerator() (uint64, error)
	SetRfqFeeNumerator(numerator uint64) error
	RfqCustodian() ([]byte, error)
	SetRfqCustodian(addr []byte) error
}
