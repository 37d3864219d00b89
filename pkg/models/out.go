package models

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/errors"
)

// OutTransaction is a disposal: crypto leaving an account by sale, gift,
// donation, or as a standalone fee. Every disposal is a taxable event; the
// fee portion is a deduction and is not itself a gain.
type OutTransaction struct {
	header
	exchange         string
	holder           string
	cryptoOutNoFee   decimal.Decimal
	cryptoFee        decimal.Decimal
	cryptoOutWithFee decimal.Decimal
	fiatOutNoFee     decimal.Decimal
	fiatOutWithFee   decimal.Decimal
	fiatFee          decimal.Decimal
}

// OutParams carries the constructor arguments of an OutTransaction.
type OutParams struct {
	Timestamp        time.Time
	Asset            string
	Exchange         string
	Holder           string
	Type             TransactionType
	SpotPrice        decimal.Decimal
	CryptoOutNoFee   decimal.Decimal
	CryptoFee        decimal.Decimal
	CryptoOutWithFee *decimal.Decimal
	FiatOutNoFee     *decimal.Decimal
	FiatFee          *decimal.Decimal
	InternalID       int64
	UniqueID         string
	Notes            string
}

// NewOutTransaction validates p and derives the quantities not supplied by
// the exchange. Fee-typed disposals carry the whole amount in CryptoFee and
// must have a zero CryptoOutNoFee.
func NewOutTransaction(p OutParams) (*OutTransaction, error) {
	context := fmt.Sprintf("(%s, id %d)", p.Timestamp.Format(time.RFC3339), p.InternalID)

	switch p.Type {
	case TypeSell, TypeGift, TypeDonate, TypeFee:
	default:
		return nil, errors.InvalidTypeError("OUT", string(p.Type))
	}

	if p.Type == TypeFee {
		if !p.CryptoOutNoFee.IsZero() {
			return nil, errors.InvalidAmountError("crypto_out_no_fee", p.CryptoOutNoFee.String(),
				"must be zero for fee-typed transactions")
		}
		if !p.CryptoFee.IsPositive() {
			return nil, errors.InvalidAmountError("crypto_fee", p.CryptoFee.String(),
				"must be greater than zero for fee-typed transactions")
		}
	} else {
		if p.SpotPrice.IsZero() {
			return nil, errors.ZeroSpotPriceError(p.Asset, context)
		}
		if !p.CryptoOutNoFee.IsPositive() {
			return nil, errors.InvalidAmountError("crypto_out_no_fee", p.CryptoOutNoFee.String(),
				"must be greater than zero")
		}
		if p.CryptoFee.IsNegative() {
			return nil, errors.InvalidAmountError("crypto_fee", p.CryptoFee.String(), "must not be negative")
		}
	}
	if p.SpotPrice.IsNegative() {
		return nil, errors.InvalidAmountError("spot_price", p.SpotPrice.String(), "must not be negative")
	}

	t := &OutTransaction{
		header: header{
			internalID:      resolveInternalID(p.InternalID),
			uniqueID:        p.UniqueID,
			notes:           p.Notes,
			timestamp:       p.Timestamp,
			asset:           p.Asset,
			transactionType: p.Type,
			spotPrice:       p.SpotPrice,
		},
		exchange:       p.Exchange,
		holder:         p.Holder,
		cryptoOutNoFee: p.CryptoOutNoFee,
		cryptoFee:      p.CryptoFee,
	}

	if p.CryptoOutWithFee != nil {
		if !p.CryptoOutWithFee.IsPositive() {
			return nil, errors.InvalidAmountError("crypto_out_with_fee", p.CryptoOutWithFee.String(),
				"must be greater than zero")
		}
		t.cryptoOutWithFee = *p.CryptoOutWithFee
	} else {
		t.cryptoOutWithFee = t.cryptoOutNoFee.Add(t.cryptoFee)
	}
	if p.FiatOutNoFee != nil {
		if !p.FiatOutNoFee.IsPositive() {
			return nil, errors.InvalidAmountError("fiat_out_no_fee", p.FiatOutNoFee.String(),
				"must be greater than zero")
		}
		t.fiatOutNoFee = *p.FiatOutNoFee
	} else {
		t.fiatOutNoFee = t.cryptoOutNoFee.Mul(t.spotPrice)
	}
	if p.FiatFee != nil {
		if p.FiatFee.IsNegative() {
			return nil, errors.InvalidAmountError("fiat_fee", p.FiatFee.String(), "must not be negative")
		}
		t.fiatFee = *p.FiatFee
	} else {
		t.fiatFee = t.cryptoFee.Mul(t.spotPrice)
	}
	t.fiatOutWithFee = t.fiatOutNoFee.Add(t.fiatFee)

	if !decimal.EqualWithinPrecision(t.cryptoOutWithFee, t.cryptoOutNoFee.Add(t.cryptoFee), decimal.FiatPlaces) {
		slog.Warn("crypto_out_with_fee != crypto_out_no_fee + crypto_fee",
			"asset", t.asset, "timestamp", t.timestamp, "id", t.internalID,
			"crypto_out_with_fee", t.cryptoOutWithFee.String(),
			"computed", t.cryptoOutNoFee.Add(t.cryptoFee).String())
	}
	if !decimal.EqualWithinPrecision(t.cryptoFee.Mul(t.spotPrice), t.fiatFee, decimal.FiatPlaces) {
		slog.Warn("crypto_fee * spot_price != fiat_fee",
			"asset", t.asset, "timestamp", t.timestamp, "id", t.internalID,
			"computed", t.cryptoFee.Mul(t.spotPrice).StringFixed(decimal.FiatPlaces),
			"provided", t.fiatFee.StringFixed(decimal.FiatPlaces))
	}
	if !decimal.EqualWithinPrecision(t.cryptoOutNoFee.Mul(t.spotPrice), t.fiatOutNoFee, decimal.FiatPlaces) {
		slog.Warn("crypto_out_no_fee * spot_price != fiat_out_no_fee",
			"asset", t.asset, "timestamp", t.timestamp, "id", t.internalID,
			"computed", t.cryptoOutNoFee.Mul(t.spotPrice).StringFixed(decimal.FiatPlaces),
			"provided", t.fiatOutNoFee.StringFixed(decimal.FiatPlaces))
	}

	return t, nil
}

func (t *OutTransaction) Exchange() string { return t.exchange }
func (t *OutTransaction) Holder() string   { return t.holder }

// Account returns the account debited by this disposal.
func (t *OutTransaction) Account() Account {
	return Account{Exchange: t.exchange, Holder: t.holder}
}

func (t *OutTransaction) CryptoOutNoFee() decimal.Decimal   { return t.cryptoOutNoFee }
func (t *OutTransaction) CryptoOutWithFee() decimal.Decimal { return t.cryptoOutWithFee }
func (t *OutTransaction) CryptoFee() decimal.Decimal        { return t.cryptoFee }
func (t *OutTransaction) FiatOutNoFee() decimal.Decimal     { return t.fiatOutNoFee }
func (t *OutTransaction) FiatOutWithFee() decimal.Decimal   { return t.fiatOutWithFee }
func (t *OutTransaction) FiatFee() decimal.Decimal          { return t.fiatFee }

func (t *OutTransaction) IsTaxable() bool { return true }

// CryptoTaxableAmount is the disposed quantity excluding the fee: the fee is
// a deduction, not a gain.
func (t *OutTransaction) CryptoTaxableAmount() decimal.Decimal {
	if t.transactionType == TypeFee {
		return t.cryptoFee
	}
	return t.cryptoOutNoFee
}

func (t *OutTransaction) FiatTaxableAmount() decimal.Decimal {
	if t.transactionType == TypeFee {
		return t.fiatFee
	}
	return t.fiatOutNoFee
}

func (t *OutTransaction) CryptoBalanceChange() decimal.Decimal { return t.cryptoOutWithFee }
func (t *OutTransaction) FiatBalanceChange() decimal.Decimal   { return t.fiatOutWithFee }

func (t *OutTransaction) String() string {
	return fmt.Sprintf("OUT %s %s %s type=%s crypto_out_no_fee=%s crypto_fee=%s spot=%s account=%s id=%d",
		t.asset, t.timestamp.Format(time.RFC3339), t.uniqueID, t.transactionType,
		t.cryptoOutNoFee.StringFixed(decimal.CryptoDisplayPlaces),
		t.cryptoFee.StringFixed(decimal.CryptoDisplayPlaces),
		t.spotPrice.StringFixed(decimal.FiatPlaces), t.Account(), t.internalID)
}
