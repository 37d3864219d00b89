package tax

import (
	"fmt"
	"time"

	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/errors"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

// GainLoss pairs a fraction of a taxable event with a fraction of an acquired
// lot and derives the fiat cost basis, the realized gain and the long-term
// classification. Earn-typed events carry no lot and a zero cost basis.
type GainLoss struct {
	cryptoAmount       decimal.Decimal
	taxableEvent       models.Transaction
	acquiredLot        *models.InTransaction
	longTermPeriodDays int
}

// NewGainLoss validates the pairing invariants and builds the record.
func NewGainLoss(
	cryptoAmount decimal.Decimal,
	taxableEvent models.Transaction,
	acquiredLot *models.InTransaction,
	longTermPeriodDays int,
) (*GainLoss, error) {
	if taxableEvent == nil {
		return nil, errors.InternalError("gain/loss record without taxable event")
	}
	if !taxableEvent.IsTaxable() {
		return nil, fmt.Errorf("%w: %s", errors.ErrNotTaxable, taxableEvent)
	}
	if !cryptoAmount.IsPositive() {
		return nil, errors.InvalidAmountError("crypto_amount", cryptoAmount.String(), "must be greater than zero")
	}

	if taxableEvent.Type().IsEarn() {
		if acquiredLot != nil {
			return nil, fmt.Errorf("%w: %s", errors.ErrEarnWithLot, taxableEvent)
		}
		if !cryptoAmount.Eq(taxableEvent.CryptoBalanceChange()) {
			return nil, errors.InvalidAmountError("crypto_amount", cryptoAmount.String(),
				fmt.Sprintf("must equal the full balance change (%s) of an earn-typed taxable event",
					taxableEvent.CryptoBalanceChange().String()))
		}
	} else {
		if acquiredLot == nil {
			return nil, errors.InternalError("acquired lot missing for non-earn taxable event")
		}
		if taxableEvent.Asset() != acquiredLot.Asset() {
			return nil, errors.AssetMismatchError(taxableEvent.Asset(), acquiredLot.Asset())
		}
		if taxableEvent.Timestamp().Before(acquiredLot.Timestamp()) {
			return nil, fmt.Errorf("%w: event %s < lot %s",
				errors.ErrTimestampOrder,
				taxableEvent.Timestamp().Format(time.RFC3339),
				acquiredLot.Timestamp().Format(time.RFC3339))
		}
		if cryptoAmount.Gt(taxableEvent.CryptoBalanceChange()) || cryptoAmount.Gt(acquiredLot.CryptoIn()) {
			return nil, errors.InvalidAmountError("crypto_amount", cryptoAmount.String(),
				"exceeds the taxable event amount or the acquired lot amount")
		}
	}

	return &GainLoss{
		cryptoAmount:       cryptoAmount,
		taxableEvent:       taxableEvent,
		acquiredLot:        acquiredLot,
		longTermPeriodDays: longTermPeriodDays,
	}, nil
}

func (g *GainLoss) CryptoAmount() decimal.Decimal        { return g.cryptoAmount }
func (g *GainLoss) TaxableEvent() models.Transaction     { return g.taxableEvent }
func (g *GainLoss) AcquiredLot() *models.InTransaction   { return g.acquiredLot }

// Timestamp is the taxable event's timestamp; the gain/loss set sorts by it.
func (g *GainLoss) Timestamp() time.Time { return g.taxableEvent.Timestamp() }

func (g *GainLoss) Asset() string { return g.taxableEvent.Asset() }

// InternalID identifies a record by its (event, lot) pairing.
func (g *GainLoss) InternalID() string {
	if g.acquiredLot == nil {
		return fmt.Sprintf("%d->none", g.taxableEvent.InternalID())
	}
	return fmt.Sprintf("%d->%d", g.taxableEvent.InternalID(), g.acquiredLot.InternalID())
}

// TaxableEventFiatAmountWithFeeFraction is this record's share of the event's
// fiat taxable amount. Computed as (whole x amount) / wholeAmount, never as
// whole x (amount / wholeAmount), to minimize precision loss.
func (g *GainLoss) TaxableEventFiatAmountWithFeeFraction() decimal.Decimal {
	return g.taxableEvent.FiatTaxableAmount().Mul(g.cryptoAmount).Div(g.taxableEvent.CryptoBalanceChange())
}

// AcquiredLotFiatAmountWithFeeFraction is this record's share of the lot's
// full cost (fiat-in plus fee); zero for earn-typed events.
func (g *GainLoss) AcquiredLotFiatAmountWithFeeFraction() decimal.Decimal {
	if g.acquiredLot == nil {
		return decimal.Zero
	}
	return g.acquiredLot.FiatInWithFee().Mul(g.cryptoAmount).Div(g.acquiredLot.CryptoBalanceChange())
}

// FiatCostBasis is the lot-side fraction: fiat-in plus fee, apportioned.
func (g *GainLoss) FiatCostBasis() decimal.Decimal {
	return g.AcquiredLotFiatAmountWithFeeFraction()
}

// FiatGain is the event-side fiat fraction minus the cost basis.
func (g *GainLoss) FiatGain() decimal.Decimal {
	return g.TaxableEventFiatAmountWithFeeFraction().Sub(g.FiatCostBasis())
}

// IsLongTerm reports whether the holding period reaches the country's
// long-term threshold. Earn-typed records are always short-term.
func (g *GainLoss) IsLongTerm() bool {
	if g.acquiredLot == nil {
		return false
	}
	days := int(g.taxableEvent.Timestamp().Sub(g.acquiredLot.Timestamp()) / (24 * time.Hour))
	return days >= g.longTermPeriodDays
}

func (g *GainLoss) String() string {
	lot := "none"
	if g.acquiredLot != nil {
		lot = fmt.Sprintf("%d", g.acquiredLot.InternalID())
	}
	return fmt.Sprintf("GainLoss %s amount=%s event=%d lot=%s cost_basis=%s gain=%s long_term=%t",
		g.Asset(), g.cryptoAmount.StringFixed(decimal.CryptoDisplayPlaces),
		g.taxableEvent.InternalID(), lot,
		g.FiatCostBasis().StringFixed(decimal.FiatPlaces),
		g.FiatGain().StringFixed(decimal.FiatPlaces), g.IsLongTerm())
}
