// Package tax implements the per-asset tax computation pipeline: the
// accounting engine that pairs taxable events with acquired lots, the
// gain/loss records and their set, balance reconstruction, and the computed
// data bundle handed to report generators.
package tax

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/ledgerloom/taxfolio/internal/tax/method"
	"github.com/ledgerloom/taxfolio/pkg/avltree"
	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/errors"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

// TaxableEventAndAcquiredLot is one step of the pairing loop: the current
// taxable event, the lot charged against it, and the crypto amounts still
// open on each side.
type TaxableEventAndAcquiredLot struct {
	TaxableEvent       models.Transaction
	AcquiredLot        *models.InTransaction
	TaxableEventAmount decimal.Decimal
	AcquiredLotAmount  decimal.Decimal
}

type lotAndIndex struct {
	lot   *models.InTransaction
	index int
}

// Twelve digits of disambiguator express a trillion same-timestamp
// transactions, enough for any real workbook.
const keyDisambiguatorLength = 12

var maxKeyDisambiguator = strings.Repeat("9", keyDisambiguatorLength)

// AccountingEngine advances the taxable-event iterator and the acquired-lot
// index in lockstep. It owns the lot vector, the AVL timestamp index, the
// partial-remainder map, and the year-to-method assignment; accounting
// methods see them only through a bounded candidates view.
type AccountingEngine struct {
	yearsToMethods *avltree.Tree[int, method.Method]

	nextEvent func() (models.Transaction, bool)
	lots      []*models.InTransaction
	lotIndex  *avltree.Tree[string, lotAndIndex]
	partial   map[int64]decimal.Decimal

	// fromIndex is the FIFO exhausted-prefix cursor, persisted across seeks.
	fromIndex int

	validatesLotAncestry bool
}

// NewAccountingEngine builds an engine from the year-to-method assignment.
// Year boundaries may switch methods; the assignment for a year is the entry
// with the greatest starting year not exceeding it.
func NewAccountingEngine(yearsToMethods map[int]method.Method) (*AccountingEngine, error) {
	if len(yearsToMethods) == 0 {
		return nil, errors.InternalError("no accounting method defined")
	}
	tree := avltree.New[int, method.Method]()
	validates := true
	for year, m := range yearsToMethods {
		tree.Insert(year, m)
		if !m.ValidatesLotAncestry() {
			validates = false
		}
	}
	return &AccountingEngine{
		yearsToMethods:       tree,
		validatesLotAncestry: validates,
	}, nil
}

// ValidatesLotAncestry reports whether every configured method selects lots
// chronologically, in which case the gain/loss set asserts weakly increasing
// lot-chain timestamps.
func (e *AccountingEngine) ValidatesLotAncestry() bool { return e.validatesLotAncestry }

// Initialize binds the engine to the chronological taxable-event and
// acquired-lot iterators. The lot iterator is drained into the vector and the
// AVL index; an empty lot sequence is an error because every pipeline with
// taxable disposals needs at least one acquisition.
func (e *AccountingEngine) Initialize(events iter.Seq[models.Transaction], lots iter.Seq[*models.InTransaction]) error {
	next, _ := iter.Pull(events)
	e.nextEvent = next
	e.lots = nil
	e.lotIndex = avltree.New[string, lotAndIndex]()
	e.partial = map[int64]decimal.Decimal{}
	e.fromIndex = 0

	index := 0
	for lot := range lots {
		e.lots = append(e.lots, lot)
		e.lotIndex.Insert(avlKey(lot.Timestamp(), lot.InternalID()), lotAndIndex{lot: lot, index: index})
		index++
	}
	if e.lotIndex.IsEmpty() {
		return errors.InternalError("accounting engine initialized with no acquired lots")
	}
	return nil
}

// avlKey builds the composite index key: UTC timestamp at microsecond
// precision plus the zero-padded internal id, so same-timestamp lots stay
// distinct and ordered.
func avlKey(timestamp time.Time, internalID int64) string {
	return fmt.Sprintf("%s_%012d", timestamp.UTC().Format("20060102150405.000000"), internalID)
}

// avlKeyUpperBound is the query key for "latest lot at or before timestamp":
// the all-nines disambiguator sorts after every real id at that timestamp.
func avlKeyUpperBound(timestamp time.Time) string {
	return timestamp.UTC().Format("20060102150405.000000") + "_" + maxKeyDisambiguator
}

func (e *AccountingEngine) methodFor(year int) (method.Method, error) {
	m, ok := e.yearsToMethods.Floor(year)
	if !ok {
		return nil, errors.InternalError(fmt.Sprintf("no accounting method assigned for year %d", year))
	}
	return m, nil
}

// GetNextTaxableEventAndAmount advances the taxable-event iterator. When the
// new event is strictly later than the previous one, the previous lot's
// remainder is persisted and a fresh lot is sought for the new event;
// same-timestamp events keep the current lot and its running remainder.
// Returns ErrTaxableEventsExhausted at the end of the event stream.
func (e *AccountingEngine) GetNextTaxableEventAndAmount(
	taxableEvent models.Transaction,
	acquiredLot *models.InTransaction,
	taxableEventAmount decimal.Decimal,
	acquiredLotAmount decimal.Decimal,
) (TaxableEventAndAcquiredLot, error) {
	newLot := acquiredLot
	newLotAmount := decimal.Zero
	if acquiredLot != nil {
		newLotAmount = acquiredLotAmount.Sub(taxableEventAmount)
	}

	newEvent, ok := e.nextEvent()
	if !ok {
		return TaxableEventAndAcquiredLot{}, errors.ErrTaxableEventsExhausted
	}
	newEventAmount := newEvent.CryptoBalanceChange()

	if taxableEvent != nil && taxableEvent.Timestamp().Before(newEvent.Timestamp()) {
		if acquiredLot != nil {
			e.partial[acquiredLot.InternalID()] = newLotAmount
		}
		result, err := e.GetAcquiredLotForTaxableEvent(newEvent, acquiredLot, newEventAmount, newLotAmount)
		if err != nil {
			return TaxableEventAndAcquiredLot{}, err
		}
		newLot = result.AcquiredLot
		newLotAmount = result.AcquiredLotAmount
	}

	return TaxableEventAndAcquiredLot{
		TaxableEvent:       newEvent,
		AcquiredLot:        newLot,
		TaxableEventAmount: newEventAmount,
		AcquiredLotAmount:  newLotAmount,
	}, nil
}

// GetAcquiredLotForTaxableEvent finds the lot the active method pairs with
// the event, among lots whose timestamp does not exceed the event's. Returns
// ErrAcquiredLotsExhausted when nothing eligible has crypto left.
func (e *AccountingEngine) GetAcquiredLotForTaxableEvent(
	taxableEvent models.Transaction,
	_ *models.InTransaction,
	taxableEventAmount decimal.Decimal,
	acquiredLotAmount decimal.Decimal,
) (TaxableEventAndAcquiredLot, error) {
	newEventAmount := taxableEventAmount.Sub(acquiredLotAmount)

	entry, ok := e.lotIndex.Floor(avlKeyUpperBound(taxableEvent.Timestamp()))
	if ok {
		if entry.lot.InternalID() != e.lots[entry.index].InternalID() {
			return TaxableEventAndAcquiredLot{}, errors.InternalError("acquired lot incongruence between index and vector")
		}
		m, err := e.methodFor(taxableEvent.Timestamp().Year())
		if err != nil {
			return TaxableEventAndAcquiredLot{}, err
		}
		candidates := method.NewLotCandidates(e.lots, e.partial, e.fromIndex, entry.index, m.CandidatesOrder())
		selected := m.SeekNonExhaustedLot(candidates, newEventAmount)
		e.fromIndex = candidates.FromIndex()
		if selected != nil {
			return TaxableEventAndAcquiredLot{
				TaxableEvent:       taxableEvent,
				AcquiredLot:        selected.Lot,
				TaxableEventAmount: newEventAmount,
				AcquiredLotAmount:  selected.Amount,
			}, nil
		}
	}

	return TaxableEventAndAcquiredLot{}, errors.ErrAcquiredLotsExhausted
}
