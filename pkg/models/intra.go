package models

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/errors"
)

// IntraTransaction is a transfer between two accounts of the same owner. The
// difference between sent and received is the network fee, which is itself a
// disposal: the transfer is a taxable event iff its fiat fee is non-zero.
type IntraTransaction struct {
	header
	fromExchange   string
	fromHolder     string
	toExchange     string
	toHolder       string
	cryptoSent     decimal.Decimal
	cryptoReceived decimal.Decimal
	cryptoFee      decimal.Decimal
	fiatFee        decimal.Decimal
}

// IntraParams carries the constructor arguments of an IntraTransaction.
// SpotPrice may be zero only when the fee is zero (exchanges often omit the
// price on free transfers).
type IntraParams struct {
	Timestamp      time.Time
	Asset          string
	FromExchange   string
	FromHolder     string
	ToExchange     string
	ToHolder       string
	SpotPrice      decimal.Decimal
	CryptoSent     decimal.Decimal
	CryptoReceived decimal.Decimal
	InternalID     int64
	UniqueID       string
	Notes          string
}

// NewIntraTransaction validates p and derives the crypto and fiat fee.
func NewIntraTransaction(p IntraParams) (*IntraTransaction, error) {
	if !p.CryptoSent.IsPositive() {
		return nil, errors.InvalidAmountError("crypto_sent", p.CryptoSent.String(), "must be greater than zero")
	}
	if p.CryptoReceived.IsNegative() {
		return nil, errors.InvalidAmountError("crypto_received", p.CryptoReceived.String(), "must not be negative")
	}
	if p.CryptoSent.Lt(p.CryptoReceived) {
		return nil, fmt.Errorf("%w: %s (%s, id %d): sent %s < received %s",
			errors.ErrSentLessThanRecv, p.Asset, p.Timestamp.Format(time.RFC3339), p.InternalID,
			p.CryptoSent.String(), p.CryptoReceived.String())
	}
	if p.SpotPrice.IsNegative() {
		return nil, errors.InvalidAmountError("spot_price", p.SpotPrice.String(), "must not be negative")
	}

	cryptoFee := p.CryptoSent.Sub(p.CryptoReceived)
	if p.SpotPrice.IsZero() && !cryptoFee.IsZero() {
		return nil, errors.ZeroSpotPriceError(p.Asset,
			fmt.Sprintf("(%s, id %d): crypto_fee is non-zero (%s) but spot_price is zero",
				p.Timestamp.Format(time.RFC3339), p.InternalID, cryptoFee.String()))
	}

	t := &IntraTransaction{
		header: header{
			internalID:      resolveInternalID(p.InternalID),
			uniqueID:        p.UniqueID,
			notes:           p.Notes,
			timestamp:       p.Timestamp,
			asset:           p.Asset,
			transactionType: TypeMove,
			spotPrice:       p.SpotPrice,
		},
		fromExchange:   p.FromExchange,
		fromHolder:     p.FromHolder,
		toExchange:     p.ToExchange,
		toHolder:       p.ToHolder,
		cryptoSent:     p.CryptoSent,
		cryptoReceived: p.CryptoReceived,
		cryptoFee:      cryptoFee,
		fiatFee:        cryptoFee.Mul(p.SpotPrice),
	}

	if t.fromExchange == t.toExchange && t.fromHolder == t.toHolder {
		slog.Warn("from/to exchanges and holders are the same: sending to self",
			"asset", t.asset, "timestamp", t.timestamp, "id", t.internalID)
	}

	return t, nil
}

func (t *IntraTransaction) FromExchange() string { return t.fromExchange }
func (t *IntraTransaction) FromHolder() string   { return t.fromHolder }
func (t *IntraTransaction) ToExchange() string   { return t.toExchange }
func (t *IntraTransaction) ToHolder() string     { return t.toHolder }

// FromAccount returns the debited account.
func (t *IntraTransaction) FromAccount() Account {
	return Account{Exchange: t.fromExchange, Holder: t.fromHolder}
}

// ToAccount returns the credited account.
func (t *IntraTransaction) ToAccount() Account {
	return Account{Exchange: t.toExchange, Holder: t.toHolder}
}

func (t *IntraTransaction) CryptoSent() decimal.Decimal     { return t.cryptoSent }
func (t *IntraTransaction) CryptoReceived() decimal.Decimal { return t.cryptoReceived }
func (t *IntraTransaction) CryptoFee() decimal.Decimal      { return t.cryptoFee }
func (t *IntraTransaction) FiatFee() decimal.Decimal        { return t.fiatFee }

// IsTaxable reports whether the transfer fee realizes a disposal.
func (t *IntraTransaction) IsTaxable() bool { return t.fiatFee.IsPositive() }

func (t *IntraTransaction) CryptoTaxableAmount() decimal.Decimal {
	if t.IsTaxable() {
		return t.cryptoFee
	}
	return decimal.Zero
}

func (t *IntraTransaction) FiatTaxableAmount() decimal.Decimal {
	if t.IsTaxable() {
		return t.fiatFee
	}
	return decimal.Zero
}

// CryptoBalanceChange is the fee: the transferred principal stays owned by
// the same person, only the fee leaves the portfolio.
func (t *IntraTransaction) CryptoBalanceChange() decimal.Decimal { return t.cryptoFee }
func (t *IntraTransaction) FiatBalanceChange() decimal.Decimal   { return t.fiatFee }

func (t *IntraTransaction) String() string {
	return fmt.Sprintf("INTRA %s %s %s from=%s to=%s sent=%s received=%s spot=%s id=%d",
		t.asset, t.timestamp.Format(time.RFC3339), t.uniqueID, t.FromAccount(), t.ToAccount(),
		t.cryptoSent.StringFixed(decimal.CryptoDisplayPlaces),
		t.cryptoReceived.StringFixed(decimal.CryptoDisplayPlaces),
		t.spotPrice.StringFixed(decimal.FiatPlaces), t.internalID)
}
