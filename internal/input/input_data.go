// Package input loads per-asset transaction data: the InputData bundle the
// tax engine consumes, and the workbook parser that builds it from the user's
// spreadsheet.
package input

import (
	"github.com/ledgerloom/taxfolio/pkg/errors"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

// InputData bundles one asset's three transaction sets, both unfiltered and
// restricted to the configured year range. The filtered views share the
// underlying transactions; nothing is mutated after construction.
type InputData struct {
	asset string

	unfilteredIn    *models.TransactionSet
	unfilteredOut   *models.TransactionSet
	unfilteredIntra *models.TransactionSet

	filteredIn    *models.TransactionSet
	filteredOut   *models.TransactionSet
	filteredIntra *models.TransactionSet
}

// NewInputData validates the sets (matching kinds and asset, non-empty IN)
// and derives the year-filtered views.
func NewInputData(asset string, in, out, intra *models.TransactionSet, fromYear, toYear int) (*InputData, error) {
	if in.Kind() != models.KindIn || out.Kind() != models.KindOut || intra.Kind() != models.KindIntra {
		return nil, errors.InternalError("input data sets have mismatched kinds")
	}
	for _, set := range []*models.TransactionSet{in, out, intra} {
		if set.Asset() != asset {
			return nil, errors.AssetMismatchError(asset, set.Asset())
		}
	}
	if in.IsEmpty() {
		return nil, errors.MissingInTableError(asset)
	}
	if fromYear > toYear {
		return nil, errors.InvalidYearRangeError(fromYear, toYear)
	}

	return &InputData{
		asset:           asset,
		unfilteredIn:    in,
		unfilteredOut:   out,
		unfilteredIntra: intra,
		filteredIn:      in.Duplicate(fromYear, toYear),
		filteredOut:     out.Duplicate(fromYear, toYear),
		filteredIntra:   intra.Duplicate(fromYear, toYear),
	}, nil
}

func (d *InputData) Asset() string { return d.asset }

func (d *InputData) UnfilteredInSet() *models.TransactionSet    { return d.unfilteredIn }
func (d *InputData) UnfilteredOutSet() *models.TransactionSet   { return d.unfilteredOut }
func (d *InputData) UnfilteredIntraSet() *models.TransactionSet { return d.unfilteredIntra }

func (d *InputData) FilteredInSet() *models.TransactionSet    { return d.filteredIn }
func (d *InputData) FilteredOutSet() *models.TransactionSet   { return d.filteredOut }
func (d *InputData) FilteredIntraSet() *models.TransactionSet { return d.filteredIntra }
