package method

import "github.com/ledgerloom/taxfolio/pkg/decimal"

// FIFO charges disposals against the oldest acquisition first.
type FIFO struct{}

func init() { register(FIFO{}) }

func (FIFO) Name() string           { return "fifo" }
func (FIFO) CandidatesOrder() Order { return OlderToNewer }

// ValidatesLotAncestry: FIFO selects chronologically, so the lot chain is
// weakly increasing by construction and the gain/loss set may assert it.
func (FIFO) ValidatesLotAncestry() bool { return true }

// SeekNonExhaustedLot scans from the cursor and returns the first lot with
// crypto left. Exhausted lots in FIFO form a contiguous prefix, so advancing
// the cursor past them makes the scan amortized O(1) per seek.
func (FIFO) SeekNonExhaustedLot(c *LotCandidates, _ decimal.Decimal) *LotAndAmount {
	for _, lot := range c.Lots() {
		amount, ok := c.availableAmount(lot)
		if !ok {
			c.SetFromIndex(c.FromIndex() + 1)
			continue
		}
		c.ClearPartialAmount(lot)
		return &LotAndAmount{Lot: lot, Amount: amount}
	}
	return nil
}
