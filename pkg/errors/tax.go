package errors

import (
	"errors"
	"fmt"
)

// Semantic errors: a transaction or pairing violates the data model.
var (
	ErrZeroSpotPrice      = errors.New("spot price cannot be zero")
	ErrConflictingFees    = errors.New("both crypto fee and fiat fee are set: only one allowed")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrSentLessThanRecv   = errors.New("crypto sent is less than crypto received")
	ErrNotTaxable         = errors.New("transaction is not a taxable event")
	ErrAssetMismatch      = errors.New("asset mismatch")
	ErrTimestampOrder     = errors.New("taxable event precedes its acquired lot")
	ErrEarnWithLot        = errors.New("earn-typed taxable event cannot carry an acquired lot")
	ErrDuplicateEntry     = errors.New("entry already added")
	ErrWrongSetKind       = errors.New("entry kind does not match set kind")
)

// Conservation errors: totals that must balance do not.
var (
	// ErrAcquiredLotsExhausted is raised when the acquired crypto cannot cover
	// the taxable dispositions. It is fatal and user-visible.
	ErrAcquiredLotsExhausted = errors.New("total acquired crypto value is less than total taxable crypto value")
	// ErrTaxableEventsExhausted is the normal termination signal of the
	// pairing loop, never shown to the user.
	ErrTaxableEventsExhausted = errors.New("taxable events exhausted")
	ErrNegativeBalance        = errors.New("account balance went negative")
)

// ErrInternal marks invariant violations that indicate a bug rather than bad
// user input.
var ErrInternal = errors.New("internal error")

func ZeroSpotPriceError(asset, context string) error {
	return fmt.Errorf("%w: %s %s", ErrZeroSpotPrice, asset, context)
}

func ConflictingFeesError(asset, context string) error {
	return fmt.Errorf("%w: %s %s", ErrConflictingFees, asset, context)
}

func InvalidAmountError(field, value, reason string) error {
	return fmt.Errorf("%w: %s=%s: %s", ErrInvalidAmount, field, value, reason)
}

func InvalidTypeError(kind, transactionType string) error {
	return fmt.Errorf("%w: %s for %s transaction", ErrInvalidType, transactionType, kind)
}

func AssetMismatchError(expected, found string) error {
	return fmt.Errorf("%w: expected %s, found %s", ErrAssetMismatch, expected, found)
}

func NegativeBalanceError(asset, exchange, holder, balance, transaction string) error {
	return fmt.Errorf("%w: %s balance of account %q (holder %q) went negative (%s) on transaction: %s",
		ErrNegativeBalance, asset, exchange, holder, balance, transaction)
}

func InternalError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInternal, reason)
}
