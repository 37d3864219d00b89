package models

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/errors"
)

// InTransaction is an acquisition: crypto flowing into an account, either
// bought, received or earned. Earn-typed acquisitions are themselves taxable
// events; every IN transaction is a candidate acquired lot for later
// disposals.
type InTransaction struct {
	header
	exchange      string
	holder        string
	cryptoIn      decimal.Decimal
	cryptoFee     decimal.Decimal
	fiatFee       decimal.Decimal
	fiatInNoFee   decimal.Decimal
	fiatInWithFee decimal.Decimal
}

// InParams carries the constructor arguments of an InTransaction. Optional
// decimal fields are pointers so an unset field is distinguishable from an
// explicit zero.
type InParams struct {
	Timestamp time.Time
	Asset     string
	Exchange  string
	Holder    string
	Type      TransactionType
	SpotPrice decimal.Decimal
	CryptoIn  decimal.Decimal
	// CryptoFee and FiatFee are mutually exclusive.
	CryptoFee     *decimal.Decimal
	FiatFee       *decimal.Decimal
	FiatInNoFee   *decimal.Decimal
	FiatInWithFee *decimal.Decimal
	InternalID    int64
	UniqueID      string
	Notes         string
}

// NewInTransaction validates p and derives the fiat quantities the tax
// computation needs: fiat-in without fee defaults to crypto-in x spot price,
// fiat-in with fee defaults to fiat-in plus the fiat fee, and a crypto fee is
// converted to fiat at the spot price.
func NewInTransaction(p InParams) (*InTransaction, error) {
	context := fmt.Sprintf("(%s, id %d)", p.Timestamp.Format(time.RFC3339), p.InternalID)

	switch p.Type {
	case TypeBuy, TypeGift, TypeDonate:
	default:
		if !p.Type.IsEarn() {
			return nil, errors.InvalidTypeError("IN", string(p.Type))
		}
	}
	if p.SpotPrice.IsZero() {
		return nil, errors.ZeroSpotPriceError(p.Asset, context)
	}
	if p.SpotPrice.IsNegative() {
		return nil, errors.InvalidAmountError("spot_price", p.SpotPrice.String(), "must be positive")
	}
	if !p.CryptoIn.IsPositive() {
		return nil, errors.InvalidAmountError("crypto_in", p.CryptoIn.String(), "must be greater than zero")
	}
	if p.CryptoFee != nil && p.FiatFee != nil {
		return nil, errors.ConflictingFeesError(p.Asset, context)
	}

	t := &InTransaction{
		header: header{
			internalID:      resolveInternalID(p.InternalID),
			uniqueID:        p.UniqueID,
			notes:           p.Notes,
			timestamp:       p.Timestamp,
			asset:           p.Asset,
			transactionType: p.Type,
			spotPrice:       p.SpotPrice,
		},
		exchange: p.Exchange,
		holder:   p.Holder,
		cryptoIn: p.CryptoIn,
	}

	if p.CryptoFee != nil {
		if p.CryptoFee.IsNegative() {
			return nil, errors.InvalidAmountError("crypto_fee", p.CryptoFee.String(), "must not be negative")
		}
		t.cryptoFee = *p.CryptoFee
		t.fiatFee = t.cryptoFee.Mul(p.SpotPrice)
	} else if p.FiatFee != nil {
		if p.FiatFee.IsNegative() {
			return nil, errors.InvalidAmountError("fiat_fee", p.FiatFee.String(), "must not be negative")
		}
		t.fiatFee = *p.FiatFee
	}

	// Exchanges sometimes report the fiat quantities directly: trust them
	// when present, derive them otherwise.
	if p.FiatInNoFee != nil {
		if !p.FiatInNoFee.IsPositive() {
			return nil, errors.InvalidAmountError("fiat_in_no_fee", p.FiatInNoFee.String(), "must be greater than zero")
		}
		t.fiatInNoFee = *p.FiatInNoFee
	} else {
		t.fiatInNoFee = t.cryptoIn.Mul(p.SpotPrice)
	}
	if p.FiatInWithFee != nil {
		if !p.FiatInWithFee.IsPositive() {
			return nil, errors.InvalidAmountError("fiat_in_with_fee", p.FiatInWithFee.String(), "must be greater than zero")
		}
		t.fiatInWithFee = *p.FiatInWithFee
	} else {
		t.fiatInWithFee = t.fiatInNoFee.Add(t.fiatFee)
	}

	if !decimal.EqualWithinPrecision(t.cryptoIn.Mul(t.spotPrice), t.fiatInNoFee, decimal.FiatPlaces) {
		slog.Warn("crypto_in * spot_price != fiat_in_no_fee",
			"asset", t.asset, "timestamp", t.timestamp, "id", t.internalID,
			"computed", t.cryptoIn.Mul(t.spotPrice).StringFixed(decimal.FiatPlaces),
			"provided", t.fiatInNoFee.StringFixed(decimal.FiatPlaces))
	}
	if !decimal.EqualWithinPrecision(t.fiatInWithFee, t.fiatInNoFee.Add(t.fiatFee), decimal.FiatPlaces) {
		slog.Warn("fiat_in_with_fee != fiat_in_no_fee + fiat_fee",
			"asset", t.asset, "timestamp", t.timestamp, "id", t.internalID,
			"fiat_in_with_fee", t.fiatInWithFee.StringFixed(decimal.FiatPlaces),
			"computed", t.fiatInNoFee.Add(t.fiatFee).StringFixed(decimal.FiatPlaces))
	}

	return t, nil
}

func (t *InTransaction) Exchange() string { return t.exchange }
func (t *InTransaction) Holder() string   { return t.holder }

// Account returns the account credited by this acquisition.
func (t *InTransaction) Account() Account {
	return Account{Exchange: t.exchange, Holder: t.holder}
}

func (t *InTransaction) CryptoIn() decimal.Decimal      { return t.cryptoIn }
func (t *InTransaction) CryptoFee() decimal.Decimal     { return t.cryptoFee }
func (t *InTransaction) FiatFee() decimal.Decimal       { return t.fiatFee }
func (t *InTransaction) FiatInNoFee() decimal.Decimal   { return t.fiatInNoFee }
func (t *InTransaction) FiatInWithFee() decimal.Decimal { return t.fiatInWithFee }

// IsTaxable reports whether this acquisition realizes income: true only for
// earn-typed transactions.
func (t *InTransaction) IsTaxable() bool { return t.transactionType.IsEarn() }

func (t *InTransaction) CryptoTaxableAmount() decimal.Decimal {
	if t.IsTaxable() {
		return t.cryptoIn
	}
	return decimal.Zero
}

func (t *InTransaction) FiatTaxableAmount() decimal.Decimal {
	if t.IsTaxable() {
		return t.fiatInWithFee
	}
	return decimal.Zero
}

func (t *InTransaction) CryptoBalanceChange() decimal.Decimal { return t.cryptoIn }
func (t *InTransaction) FiatBalanceChange() decimal.Decimal   { return t.fiatInWithFee }

func (t *InTransaction) String() string {
	return fmt.Sprintf("IN %s %s %s type=%s crypto_in=%s spot=%s account=%s id=%d",
		t.asset, t.timestamp.Format(time.RFC3339), t.uniqueID, t.transactionType,
		t.cryptoIn.StringFixed(decimal.CryptoDisplayPlaces),
		t.spotPrice.StringFixed(decimal.FiatPlaces), t.Account(), t.internalID)
}
