package tax

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/errors"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

// GainLossSet collects the records the pairing loop emits. On first read it
// sorts chronologically and runs a bookkeeping pass that assigns each record
// its fraction index among the records sharing its taxable event and its
// acquired lot, verifying conservation along the way: the summed amounts per
// event and per lot must never exceed the event/lot totals. Events and lots
// left short of their totals are accepted and keep the count of fractions
// emitted so far.
type GainLossSet struct {
	asset            string
	validateAncestry bool

	records []*GainLoss
	byID    map[string]struct{}

	typeCounts map[models.TransactionType]int

	eventFraction  map[string]int // record id -> 0-based fraction index
	lotFraction    map[string]int
	eventFractions map[int64]int // event id -> total fraction count
	lotFractions   map[int64]int

	sorted  bool
	sortErr error
}

// NewGainLossSet creates an empty set. validateAncestry asserts weakly
// increasing lot-chain timestamps during bookkeeping; pass the engine's
// ValidatesLotAncestry, since only chronological methods can promise it.
func NewGainLossSet(asset string, validateAncestry bool) *GainLossSet {
	return &GainLossSet{
		asset:            asset,
		validateAncestry: validateAncestry,
		byID:             map[string]struct{}{},
		typeCounts:       map[models.TransactionType]int{},
		eventFraction:    map[string]int{},
		lotFraction:      map[string]int{},
		eventFractions:   map[int64]int{},
		lotFractions:     map[int64]int{},
	}
}

func (s *GainLossSet) Asset() string { return s.asset }
func (s *GainLossSet) Count() int    { return len(s.records) }

// AddEntry appends a record in emission order.
func (s *GainLossSet) AddEntry(g *GainLoss) error {
	if g.Asset() != s.asset {
		return errors.AssetMismatchError(s.asset, g.Asset())
	}
	if _, dup := s.byID[g.InternalID()]; dup {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateEntry, g)
	}
	s.records = append(s.records, g)
	s.byID[g.InternalID()] = struct{}{}
	s.typeCounts[g.TaxableEvent().Type()]++
	s.sorted = false
	return nil
}

// TransactionTypeCount returns how many records realize the given type.
func (s *GainLossSet) TransactionTypeCount(t models.TransactionType) int {
	return s.typeCounts[t]
}

// Records returns the chronologically sorted records.
func (s *GainLossSet) Records() ([]*GainLoss, error) {
	if err := s.ensureSorted(); err != nil {
		return nil, err
	}
	return s.records, nil
}

// TaxableEventFraction returns the record's 0-based index among the records
// sharing its taxable event, in emission order.
func (s *GainLossSet) TaxableEventFraction(g *GainLoss) (int, error) {
	if err := s.ensureSorted(); err != nil {
		return 0, err
	}
	fraction, ok := s.eventFraction[g.InternalID()]
	if !ok {
		return 0, fmt.Errorf("unknown gain/loss record: %s", g)
	}
	return fraction, nil
}

// AcquiredLotFraction returns the record's 0-based index among the records
// consuming its acquired lot.
func (s *GainLossSet) AcquiredLotFraction(g *GainLoss) (int, error) {
	if err := s.ensureSorted(); err != nil {
		return 0, err
	}
	fraction, ok := s.lotFraction[g.InternalID()]
	if !ok {
		return 0, fmt.Errorf("record has no acquired lot fraction: %s", g)
	}
	return fraction, nil
}

// TaxableEventNumberOfFractions returns how many records split the event.
func (s *GainLossSet) TaxableEventNumberOfFractions(event models.Transaction) (int, error) {
	if err := s.ensureSorted(); err != nil {
		return 0, err
	}
	count, ok := s.eventFractions[event.InternalID()]
	if !ok {
		return 0, fmt.Errorf("unknown taxable event: %s", event)
	}
	return count, nil
}

// AcquiredLotNumberOfFractions returns how many records consume the lot.
func (s *GainLossSet) AcquiredLotNumberOfFractions(lot *models.InTransaction) (int, error) {
	if err := s.ensureSorted(); err != nil {
		return 0, err
	}
	count, ok := s.lotFractions[lot.InternalID()]
	if !ok {
		return 0, fmt.Errorf("unknown acquired lot: %s", lot)
	}
	return count, nil
}

func (s *GainLossSet) ensureSorted() error {
	if s.sorted {
		return s.sortErr
	}
	s.sorted = true
	s.sortErr = s.sortAndBook()
	return s.sortErr
}

func (s *GainLossSet) sortAndBook() error {
	slog.Debug("sorting gain-loss set", "asset", s.asset, "records", len(s.records))

	// Stable keeps emission order for records sharing a timestamp.
	slices.SortStableFunc(s.records, func(a, b *GainLoss) int {
		return a.Timestamp().Compare(b.Timestamp())
	})

	clear(s.eventFraction)
	clear(s.lotFraction)
	clear(s.eventFractions)
	clear(s.lotFractions)

	// Running amounts and fraction counters are kept per event and per lot:
	// methods like LIFO interleave consumption of several lots, so a single
	// accumulator would misattribute amounts across lots.
	eventAmounts := map[int64]decimal.Decimal{}
	eventCounters := map[int64]int{}
	lotAmounts := map[int64]decimal.Decimal{}
	lotCounters := map[int64]int{}
	var lastWithLot *GainLoss

	for _, g := range s.records {
		if lot := g.AcquiredLot(); lot != nil {
			if s.validateAncestry && lastWithLot != nil &&
				lot.Timestamp().Before(lastWithLot.AcquiredLot().Timestamp()) {
				return errors.InternalError(fmt.Sprintf(
					"acquired lot (id %d) precedes its ancestor (id %d): %s",
					lot.InternalID(), lastWithLot.AcquiredLot().InternalID(), g))
			}
			lastWithLot = g
		}

		event := g.TaxableEvent()
		eventID := event.InternalID()
		if _, done := s.eventFractions[eventID]; done {
			return errors.InternalError(fmt.Sprintf("taxable event crypto amount already exhausted for %s", event))
		}
		running := eventAmounts[eventID].Add(g.CryptoAmount())
		s.eventFraction[g.InternalID()] = eventCounters[eventID]
		switch {
		case running.Eq(event.CryptoBalanceChange()):
			s.eventFractions[eventID] = eventCounters[eventID] + 1
			delete(eventAmounts, eventID)
			delete(eventCounters, eventID)
		case running.Lt(event.CryptoBalanceChange()):
			eventAmounts[eventID] = running
			eventCounters[eventID]++
		default:
			return errors.InternalError(fmt.Sprintf(
				"running taxable event amount (%s) exceeded the event balance change (%s): %s",
				running.String(), event.CryptoBalanceChange().String(), g))
		}

		lot := g.AcquiredLot()
		if lot == nil {
			continue
		}
		lotID := lot.InternalID()
		if _, done := s.lotFractions[lotID]; done {
			return errors.InternalError(fmt.Sprintf("acquired lot crypto amount already exhausted for %s", lot))
		}
		running = lotAmounts[lotID].Add(g.CryptoAmount())
		s.lotFraction[g.InternalID()] = lotCounters[lotID]
		switch {
		case running.Eq(lot.CryptoBalanceChange()):
			s.lotFractions[lotID] = lotCounters[lotID] + 1
			delete(lotAmounts, lotID)
			delete(lotCounters, lotID)
		case running.Lt(lot.CryptoBalanceChange()):
			lotAmounts[lotID] = running
			lotCounters[lotID]++
		default:
			return errors.InternalError(fmt.Sprintf(
				"running acquired lot amount (%s) exceeded the lot crypto-in (%s): %s",
				running.String(), lot.CryptoBalanceChange().String(), g))
		}
	}

	// Events and lots left partially consumed still need their fraction
	// counts recorded: the counter value is the number of emitted fractions.
	for eventID, counter := range eventCounters {
		s.eventFractions[eventID] = counter
	}
	for lotID, counter := range lotCounters {
		s.lotFractions[lotID] = counter
	}

	return nil
}
