package tax

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/ledgerloom/taxfolio/internal/input"
	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/errors"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

// YearlyGainLoss aggregates the gain/loss records of one
// (year, asset, transaction type, long-term) group.
type YearlyGainLoss struct {
	Year            int
	Asset           string
	TransactionType models.TransactionType
	IsLongTerm      bool

	CryptoAmount  decimal.Decimal
	FiatAmount    decimal.Decimal
	FiatCostBasis decimal.Decimal
	FiatGainLoss  decimal.Decimal
}

type yearlyKey struct {
	year            int
	asset           string
	transactionType models.TransactionType
	isLongTerm      bool
}

// ComputedData is the frozen per-asset output bundle: the taxable-event set,
// the gain/loss set, the yearly aggregation, the balance set and the weighted
// average acquisition price.
type ComputedData struct {
	asset           string
	taxableEventSet *models.TransactionSet
	gainLossSet     *GainLossSet
	yearly          []YearlyGainLoss
	balanceSet      *BalanceSet
	pricePerUnit    decimal.Decimal
	inputData       *input.InputData
}

// NewComputedData assembles the bundle, building the balance set, the yearly
// aggregation (filtered to [fromYear, toYear]) and the average price per unit.
func NewComputedData(
	asset string,
	taxableEventSet *models.TransactionSet,
	gainLossSet *GainLossSet,
	data *input.InputData,
	fromYear, toYear int,
	allowNegativeBalances bool,
) (*ComputedData, error) {
	if taxableEventSet.Asset() != asset {
		return nil, errors.AssetMismatchError(asset, taxableEventSet.Asset())
	}
	if gainLossSet.Asset() != asset {
		return nil, errors.AssetMismatchError(asset, gainLossSet.Asset())
	}
	if data.Asset() != asset {
		return nil, errors.AssetMismatchError(asset, data.Asset())
	}

	yearly, err := aggregateYearly(gainLossSet, data)
	if err != nil {
		return nil, err
	}
	yearly = lo.Filter(yearly, func(y YearlyGainLoss, _ int) bool {
		return y.Year >= fromYear && y.Year <= toYear
	})

	balanceSet, err := NewBalanceSet(data, toYear, allowNegativeBalances)
	if err != nil {
		return nil, err
	}

	return &ComputedData{
		asset:           asset,
		taxableEventSet: taxableEventSet,
		gainLossSet:     gainLossSet,
		yearly:          yearly,
		balanceSet:      balanceSet,
		pricePerUnit:    averagePricePerUnit(data.UnfilteredInSet(), toYear),
		inputData:       data,
	}, nil
}

func (c *ComputedData) Asset() string                           { return c.asset }
func (c *ComputedData) TaxableEventSet() *models.TransactionSet { return c.taxableEventSet }
func (c *ComputedData) GainLossSet() *GainLossSet               { return c.gainLossSet }
func (c *ComputedData) YearlyGainLossList() []YearlyGainLoss    { return c.yearly }
func (c *ComputedData) BalanceSet() *BalanceSet                 { return c.balanceSet }
func (c *ComputedData) PricePerUnit() decimal.Decimal           { return c.pricePerUnit }
func (c *ComputedData) InputData() *input.InputData             { return c.inputData }

// averagePricePerUnit is the weighted average acquisition cost over the
// unfiltered IN transactions with year <= toYear (only the upper bound is
// relevant: cost always accumulates from the beginning), or zero if none.
func averagePricePerUnit(inSet *models.TransactionSet, toYear int) decimal.Decimal {
	cryptoIn := decimal.Zero
	fiatInWithFee := decimal.Zero
	for tx := range inSet.InTransactions() {
		if tx.Timestamp().Year() > toYear {
			break
		}
		cryptoIn = cryptoIn.Add(tx.CryptoIn())
		fiatInWithFee = fiatInWithFee.Add(tx.FiatInWithFee())
	}
	if cryptoIn.IsZero() {
		return decimal.Zero
	}
	return fiatInWithFee.Div(cryptoIn)
}

// aggregateYearly groups the records and cross-verifies the totals against
// the acquisition costs: a violation here is a bug, not bad input.
func aggregateYearly(gainLossSet *GainLossSet, data *input.InputData) ([]YearlyGainLoss, error) {
	records, err := gainLossSet.Records()
	if err != nil {
		return nil, err
	}

	groups := map[yearlyKey]YearlyGainLoss{}
	costBasisTotal := decimal.Zero
	for _, g := range records {
		key := yearlyKey{
			year:            g.Timestamp().Year(),
			asset:           g.Asset(),
			transactionType: g.TaxableEvent().Type(),
			isLongTerm:      g.IsLongTerm(),
		}
		group, ok := groups[key]
		if !ok {
			group = YearlyGainLoss{
				Year:            key.year,
				Asset:           key.asset,
				TransactionType: key.transactionType,
				IsLongTerm:      key.isLongTerm,
			}
		}
		group.CryptoAmount = group.CryptoAmount.Add(g.CryptoAmount())
		group.FiatAmount = group.FiatAmount.Add(g.TaxableEventFiatAmountWithFeeFraction())
		group.FiatCostBasis = group.FiatCostBasis.Add(g.FiatCostBasis())
		group.FiatGainLoss = group.FiatGainLoss.Add(g.FiatGain())
		groups[key] = group
		costBasisTotal = costBasisTotal.Add(g.FiatCostBasis())
	}

	// Total cost basis can never exceed the total acquisition cost.
	fiatInTotal := decimal.Zero
	for tx := range data.UnfilteredInSet().InTransactions() {
		fiatInTotal = fiatInTotal.Add(tx.FiatInWithFee())
	}
	if costBasisTotal.Gt(fiatInTotal) && !decimal.EqualWithinPrecision(costBasisTotal, fiatInTotal, decimal.FiatPlaces) {
		return nil, errors.InternalError(fmt.Sprintf(
			"total cost basis (%s) exceeds total acquisition cost (%s)",
			costBasisTotal.String(), fiatInTotal.String()))
	}

	yearly := lo.Values(groups)
	slices.SortFunc(yearly, func(a, b YearlyGainLoss) int {
		if a.Year != b.Year {
			// Descending by year.
			return b.Year - a.Year
		}
		if a.IsLongTerm != b.IsLongTerm {
			if a.IsLongTerm {
				return -1
			}
			return 1
		}
		return strings.Compare(string(a.TransactionType), string(b.TransactionType))
	})
	return yearly, nil
}
