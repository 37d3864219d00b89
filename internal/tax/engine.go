package tax

import (
	"fmt"
	"log/slog"

	"github.com/ledgerloom/taxfolio/internal/config"
	"github.com/ledgerloom/taxfolio/internal/input"
	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/errors"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

// ComputeTax runs one asset's pipeline: it builds the taxable-event set,
// drives the pairing loop against a fresh accounting engine, and assembles
// the computed-data bundle.
func ComputeTax(cfg *config.Config, engine *AccountingEngine, data *input.InputData) (*ComputedData, error) {
	asset := data.Asset()
	logger := slog.With("asset", asset)

	taxableEventSet, err := createTaxableEventSet(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("created taxable event set", "events", taxableEventSet.Count())

	gainLossSet, err := createGainLossSet(cfg, engine, data, taxableEventSet)
	if err != nil {
		return nil, err
	}
	logger.Debug("created gain-loss set", "records", gainLossSet.Count())

	return NewComputedData(
		asset, taxableEventSet, gainLossSet, data,
		cfg.FromYear, cfg.ToYear, cfg.AllowNegativeBalances,
	)
}

// createTaxableEventSet collects every taxable transaction of all three kinds
// into one mixed set, which yields them chronologically on iteration.
func createTaxableEventSet(data *input.InputData) (*models.TransactionSet, error) {
	set := models.NewTransactionSet(models.KindMixed, data.Asset())
	for _, source := range []*models.TransactionSet{
		data.UnfilteredInSet(),
		data.UnfilteredOutSet(),
		data.UnfilteredIntraSet(),
	} {
		for tx := range source.All() {
			if !tx.IsTaxable() {
				continue
			}
			if err := set.AddEntry(tx); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// fetchNext advances the taxable event; if the engine kept the same lot, it
// immediately asks for a (possibly different) lot for the new event.
func fetchNext(
	engine *AccountingEngine,
	taxableEvent models.Transaction,
	acquiredLot *models.InTransaction,
	taxableEventAmount decimal.Decimal,
	acquiredLotAmount decimal.Decimal,
) (TaxableEventAndAcquiredLot, error) {
	step, err := engine.GetNextTaxableEventAndAmount(taxableEvent, acquiredLot, taxableEventAmount, acquiredLotAmount)
	if err != nil {
		return TaxableEventAndAcquiredLot{}, err
	}
	if sameLot(acquiredLot, step.AcquiredLot) {
		lotStep, err := engine.GetAcquiredLotForTaxableEvent(
			step.TaxableEvent, step.AcquiredLot, step.TaxableEventAmount, step.AcquiredLotAmount)
		if err != nil {
			return TaxableEventAndAcquiredLot{}, err
		}
		step.AcquiredLot = lotStep.AcquiredLot
		step.AcquiredLotAmount = lotStep.AcquiredLotAmount
	}
	return step, nil
}

func sameLot(a, b *models.InTransaction) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.InternalID() == b.InternalID()
}

// createGainLossSet drives the pairing loop. Each iteration emits one record
// for the overlap of the current taxable event and the current acquired lot,
// then advances whichever side was fully consumed (or both). Earn-typed
// events are emitted whole with no lot, leaving the lot state untouched.
func createGainLossSet(
	cfg *config.Config,
	engine *AccountingEngine,
	data *input.InputData,
	taxableEventSet *models.TransactionSet,
) (*GainLossSet, error) {
	asset := data.Asset()
	longTermDays := cfg.Country.LongTermCapitalGainPeriodDays()
	gainLossSet := NewGainLossSet(asset, engine.ValidatesLotAncestry())

	if err := engine.Initialize(taxableEventSet.All(), data.UnfilteredInSet().InTransactions()); err != nil {
		return nil, err
	}

	emit := func(amount decimal.Decimal, event models.Transaction, lot *models.InTransaction) error {
		record, err := NewGainLoss(amount, event, lot, longTermDays)
		if err != nil {
			return err
		}
		return gainLossSet.AddEntry(record)
	}

	step, err := fetchNext(engine, nil, nil, decimal.Zero, decimal.Zero)
	for err == nil {
		event := step.TaxableEvent
		lot := step.AcquiredLot
		eventAmount := step.TaxableEventAmount
		lotAmount := step.AcquiredLotAmount

		if event.Type().IsEarn() {
			if emitErr := emit(eventAmount, event, nil); emitErr != nil {
				return nil, emitErr
			}
			step, err = engine.GetNextTaxableEventAndAmount(event, lot, decimal.Zero, lotAmount)
			continue
		}

		if lot == nil {
			return nil, errors.InternalError("no acquired lot for non-earn taxable event")
		}
		if !eventAmount.IsPositive() || !lotAmount.IsPositive() {
			return nil, errors.InternalError(fmt.Sprintf(
				"non-positive pairing amounts: event %s, lot %s", eventAmount.String(), lotAmount.String()))
		}

		switch {
		case eventAmount.Eq(lotAmount):
			if emitErr := emit(eventAmount, event, lot); emitErr != nil {
				return nil, emitErr
			}
			step, err = fetchNext(engine, event, lot, eventAmount, lotAmount)

		case eventAmount.Lt(lotAmount):
			if emitErr := emit(eventAmount, event, lot); emitErr != nil {
				return nil, emitErr
			}
			// The lot keeps lotAmount - eventAmount as its running remainder.
			step, err = engine.GetNextTaxableEventAndAmount(event, lot, eventAmount, lotAmount)

		default: // eventAmount > lotAmount
			if emitErr := emit(lotAmount, event, lot); emitErr != nil {
				return nil, emitErr
			}
			// The event keeps eventAmount - lotAmount; advance only the lot.
			step, err = engine.GetAcquiredLotForTaxableEvent(event, lot, eventAmount, lotAmount)
		}
	}

	switch {
	case errors.Is(err, errors.ErrTaxableEventsExhausted):
		return gainLossSet, nil
	case errors.Is(err, errors.ErrAcquiredLotsExhausted):
		return nil, fmt.Errorf("%s: %w", asset, errors.ErrAcquiredLotsExhausted)
	default:
		return nil, err
	}
}
