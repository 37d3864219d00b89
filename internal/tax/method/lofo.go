package method

import (
	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

// LOFO charges disposals against the lowest-priced eligible acquisition,
// maximizing the realized gain (useful to harvest low-basis lots early).
type LOFO struct{}

func init() { register(LOFO{}) }

func (LOFO) Name() string               { return "lofo" }
func (LOFO) CandidatesOrder() Order     { return OlderToNewer }
func (LOFO) ValidatesLotAncestry() bool { return false }

func (LOFO) SeekNonExhaustedLot(c *LotCandidates, _ decimal.Decimal) *LotAndAmount {
	return seekByPrice(c, func(candidate, selected *models.InTransaction) bool {
		return candidate.SpotPrice().Lt(selected.SpotPrice())
	})
}
