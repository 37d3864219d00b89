package models

import (
	"sync/atomic"
	"time"

	"github.com/ledgerloom/taxfolio/pkg/decimal"
)

// Transaction is the common surface of the three transaction kinds. All
// implementations are immutable after construction; equality is by InternalID.
type Transaction interface {
	// InternalID uniquely identifies the transaction. Stable across runs when
	// supplied by the caller (e.g. the spreadsheet row), otherwise assigned
	// at construction.
	InternalID() int64
	// UniqueID is the exchange-provided identifier (hash or id), may be empty.
	UniqueID() string
	Notes() string
	Timestamp() time.Time
	Asset() string
	Type() TransactionType
	SpotPrice() decimal.Decimal

	// CryptoTaxableAmount is the crypto quantity realized by this event
	// (zero when not taxable).
	CryptoTaxableAmount() decimal.Decimal
	// FiatTaxableAmount is the fiat value realized by this event.
	FiatTaxableAmount() decimal.Decimal
	// CryptoBalanceChange is the crypto quantity this event moves; the
	// pairing loop consumes acquired lots against it.
	CryptoBalanceChange() decimal.Decimal
	FiatBalanceChange() decimal.Decimal
	IsTaxable() bool
	String() string
}

// nextInternalID assigns identities to transactions constructed without one.
// Assigned ids start high so they never collide with row-derived ids.
var nextInternalID atomic.Int64

func init() {
	nextInternalID.Store(1 << 40)
}

func resolveInternalID(id int64) int64 {
	if id != 0 {
		return id
	}
	return nextInternalID.Add(1)
}

// header carries the attributes shared by every transaction kind.
type header struct {
	internalID      int64
	uniqueID        string
	notes           string
	timestamp       time.Time
	asset           string
	transactionType TransactionType
	spotPrice       decimal.Decimal
}

func (h *header) InternalID() int64          { return h.internalID }
func (h *header) UniqueID() string           { return h.uniqueID }
func (h *header) Notes() string              { return h.notes }
func (h *header) Timestamp() time.Time       { return h.timestamp }
func (h *header) Asset() string              { return h.asset }
func (h *header) Type() TransactionType      { return h.transactionType }
func (h *header) SpotPrice() decimal.Decimal { return h.spotPrice }
