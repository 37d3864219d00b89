// Package method implements the pluggable acquired-lot selection strategies.
// A strategy picks which acquisition lot a taxable disposal consumes next;
// the accounting engine owns the lot vector and the partial-amount map and
// hands the strategy a bounded candidates view per seek.
package method

import (
	"iter"
	"slices"
	"strings"

	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/errors"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

// Order declares the direction a strategy walks the candidate lots.
type Order int

const (
	OlderToNewer Order = iota
	NewerToOlder
)

// LotAndAmount is a seek result: the chosen lot and the crypto quantity still
// available on it (the full crypto-in for an untouched lot, the stored
// remainder otherwise).
type LotAndAmount struct {
	Lot    *models.InTransaction
	Amount decimal.Decimal
}

// Method is the strategy contract. Implementations are stateless; per-run
// cursor state lives in the candidates view and the engine.
type Method interface {
	Name() string
	// CandidatesOrder declares the iteration direction of the candidates view.
	CandidatesOrder() Order
	// SeekNonExhaustedLot returns the method-specific best non-exhausted lot
	// among the candidates, or nil when every lot in range is exhausted. The
	// selected lot is marked exhausted in the partial map; the engine records
	// the true remainder once it knows how much the event consumed.
	SeekNonExhaustedLot(c *LotCandidates, requestedAmount decimal.Decimal) *LotAndAmount
	// ValidatesLotAncestry reports whether the gain/loss set should assert
	// that the lot chain has weakly increasing timestamps. Only methods that
	// select lots chronologically can promise that.
	ValidatesLotAncestry() bool
}

// LotCandidates is a non-owning view over the engine's lot vector and partial
// map, bounded to indices [0, toIndex]. Partial-amount protocol: a lot absent
// from the map is untouched (full crypto-in available); a zero entry is
// exhausted; a positive entry is the remainder.
type LotCandidates struct {
	lots      []*models.InTransaction
	partial   map[int64]decimal.Decimal
	fromIndex int
	toIndex   int
	order     Order
}

// NewLotCandidates wraps the lots and partial map for one seek. fromIndex is
// the cursor below which every lot is known exhausted (FIFO advances it and
// the engine persists it across seeks).
func NewLotCandidates(lots []*models.InTransaction, partial map[int64]decimal.Decimal, fromIndex, toIndex int, order Order) *LotCandidates {
	return &LotCandidates{
		lots:      lots,
		partial:   partial,
		fromIndex: fromIndex,
		toIndex:   toIndex,
		order:     order,
	}
}

func (c *LotCandidates) FromIndex() int         { return c.fromIndex }
func (c *LotCandidates) SetFromIndex(index int) { c.fromIndex = index }
func (c *LotCandidates) ToIndex() int           { return c.toIndex }

// HasPartialAmount reports whether the lot has been touched at all.
func (c *LotCandidates) HasPartialAmount(lot *models.InTransaction) bool {
	_, ok := c.partial[lot.InternalID()]
	return ok
}

// PartialAmount returns the stored remainder (zero when exhausted).
func (c *LotCandidates) PartialAmount(lot *models.InTransaction) decimal.Decimal {
	return c.partial[lot.InternalID()]
}

// SetPartialAmount records the remainder left on a partially consumed lot.
func (c *LotCandidates) SetPartialAmount(lot *models.InTransaction, amount decimal.Decimal) {
	c.partial[lot.InternalID()] = amount
}

// ClearPartialAmount marks the lot exhausted.
func (c *LotCandidates) ClearPartialAmount(lot *models.InTransaction) {
	c.partial[lot.InternalID()] = decimal.Zero
}

// Lots walks the candidate range in the view's declared order, yielding
// (index, lot) pairs: ascending from the cursor for OlderToNewer, descending
// from toIndex for NewerToOlder.
func (c *LotCandidates) Lots() iter.Seq2[int, *models.InTransaction] {
	return func(yield func(int, *models.InTransaction) bool) {
		if c.order == OlderToNewer {
			for i := c.fromIndex; i <= c.toIndex && i < len(c.lots); i++ {
				if !yield(i, c.lots[i]) {
					return
				}
			}
			return
		}
		for i := min(c.toIndex, len(c.lots)-1); i >= 0; i-- {
			if !yield(i, c.lots[i]) {
				return
			}
		}
	}
}

// availableAmount resolves the quantity a lot can still supply, or false when
// the lot is exhausted.
func (c *LotCandidates) availableAmount(lot *models.InTransaction) (decimal.Decimal, bool) {
	if !c.HasPartialAmount(lot) {
		return lot.CryptoIn(), true
	}
	if partial := c.PartialAmount(lot); partial.IsPositive() {
		return partial, true
	}
	return decimal.Zero, false
}

var registry = map[string]Method{}

func register(m Method) {
	registry[m.Name()] = m
}

// Lookup resolves a strategy by name (case-insensitive).
func Lookup(name string) (Method, error) {
	m, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, errors.UnknownMethodError(name)
	}
	return m, nil
}

// Names returns the registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ForYears resolves the configured year-to-method assignments into Method
// values, validating each name.
func ForYears(assignments map[int]string) (map[int]Method, error) {
	out := make(map[int]Method, len(assignments))
	for year, name := range assignments {
		m, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		out[year] = m
	}
	return out, nil
}
