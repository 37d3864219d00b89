package method

import (
	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

// HIFO charges disposals against the highest-priced eligible acquisition,
// minimizing the realized gain.
type HIFO struct{}

func init() { register(HIFO{}) }

func (HIFO) Name() string           { return "hifo" }
func (HIFO) CandidatesOrder() Order { return OlderToNewer }

// ValidatesLotAncestry: price-ordered selection does not preserve
// chronological lot chains.
func (HIFO) ValidatesLotAncestry() bool { return false }

func (HIFO) SeekNonExhaustedLot(c *LotCandidates, _ decimal.Decimal) *LotAndAmount {
	return seekByPrice(c, func(candidate, selected *models.InTransaction) bool {
		return candidate.SpotPrice().Gt(selected.SpotPrice())
	})
}

// seekByPrice scans every non-exhausted candidate and keeps the one the
// better predicate prefers. Equal spot prices break ties towards the earlier
// timestamp, then the lower internal id, so the selection is deterministic.
func seekByPrice(c *LotCandidates, better func(candidate, selected *models.InTransaction) bool) *LotAndAmount {
	var selected *models.InTransaction
	var selectedAmount decimal.Decimal

	for _, lot := range c.Lots() {
		amount, ok := c.availableAmount(lot)
		if !ok {
			continue
		}
		if selected == nil || better(lot, selected) || (lot.SpotPrice().Eq(selected.SpotPrice()) && wins(lot, selected)) {
			selected = lot
			selectedAmount = amount
		}
	}

	if selected == nil {
		return nil
	}
	c.ClearPartialAmount(selected)
	return &LotAndAmount{Lot: selected, Amount: selectedAmount}
}

func wins(candidate, selected *models.InTransaction) bool {
	if !candidate.Timestamp().Equal(selected.Timestamp()) {
		return candidate.Timestamp().Before(selected.Timestamp())
	}
	return candidate.InternalID() < selected.InternalID()
}
