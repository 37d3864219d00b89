package method

import "github.com/ledgerloom/taxfolio/pkg/decimal"

// LIFO charges disposals against the newest eligible acquisition first.
type LIFO struct{}

func init() { register(LIFO{}) }

func (LIFO) Name() string           { return "lifo" }
func (LIFO) CandidatesOrder() Order { return NewerToOlder }

// ValidatesLotAncestry: the LIFO lot chain can move backwards in time, so no
// ancestry validation is possible.
func (LIFO) ValidatesLotAncestry() bool { return false }

// SeekNonExhaustedLot scans backwards from the newest candidate and returns
// the first lot with crypto left.
func (LIFO) SeekNonExhaustedLot(c *LotCandidates, _ decimal.Decimal) *LotAndAmount {
	for _, lot := range c.Lots() {
		amount, ok := c.availableAmount(lot)
		if !ok {
			continue
		}
		c.ClearPartialAmount(lot)
		return &LotAndAmount{Lot: lot, Amount: amount}
	}
	return nil
}
