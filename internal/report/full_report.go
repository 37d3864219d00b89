package report

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ledgerloom/taxfolio/internal/tax"
	"github.com/ledgerloom/taxfolio/pkg/decimal"
)

func init() { register(FullReport{}) }

// FullReport writes one workbook with every computed result: balances,
// gain/loss detail with fraction annotations, the yearly summary and the
// average acquisition price per asset.
type FullReport struct{}

func (FullReport) Name() string { return "full_report" }

func (FullReport) Generate(assetToComputedData map[string]*tax.ComputedData, outputDir, prefix string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return "", fmt.Errorf("cannot create output directory %s: %w", outputDir, err)
	}

	assets := make([]string, 0, len(assetToComputedData))
	for asset := range assetToComputedData {
		assets = append(assets, asset)
	}
	slices.Sort(assets)

	f := excelize.NewFile()
	if err := writeBalances(f, assets, assetToComputedData); err != nil {
		return "", err
	}
	if err := writeGainLossDetail(f, assets, assetToComputedData); err != nil {
		return "", err
	}
	if err := writeYearlySummary(f, assets, assetToComputedData); err != nil {
		return "", err
	}
	if err := writeAveragePrice(f, assets, assetToComputedData); err != nil {
		return "", err
	}
	f.DeleteSheet("Sheet1")

	path := filepath.Join(outputDir, prefix+"full_report.xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("cannot write report %s: %w", path, err)
	}
	return path, nil
}

func writeBalances(f *excelize.File, assets []string, data map[string]*tax.ComputedData) error {
	sheet := "Balances"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	row := 1
	if err := setRow(f, sheet, row, "Asset", "Exchange", "Holder", "Final", "Acquired", "Sent", "Received"); err != nil {
		return err
	}
	for _, asset := range assets {
		for _, b := range data[asset].BalanceSet().Balances() {
			row++
			if err := setRow(f, sheet, row,
				asset, b.Account.Exchange, b.Account.Holder,
				b.Final.StringFixed(decimal.CryptoDisplayPlaces),
				b.Acquired.StringFixed(decimal.CryptoDisplayPlaces),
				b.Sent.StringFixed(decimal.CryptoDisplayPlaces),
				b.Received.StringFixed(decimal.CryptoDisplayPlaces),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeGainLossDetail(f *excelize.File, assets []string, data map[string]*tax.ComputedData) error {
	sheet := "Gain Loss Detail"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	row := 1
	if err := setRow(f, sheet, row,
		"Asset", "Timestamp", "Type", "Crypto Amount", "Fiat Amount", "Cost Basis",
		"Gain", "Term", "Event Fraction", "Lot Fraction"); err != nil {
		return err
	}
	for _, asset := range assets {
		set := data[asset].GainLossSet()
		records, err := set.Records()
		if err != nil {
			return err
		}
		for _, g := range records {
			term := "SHORT"
			if g.IsLongTerm() {
				term = "LONG"
			}
			eventFraction, err := fractionLabel(set, g)
			if err != nil {
				return err
			}
			lotFraction := ""
			if g.AcquiredLot() != nil {
				lotFraction, err = lotFractionLabel(set, g)
				if err != nil {
					return err
				}
			}
			row++
			if err := setRow(f, sheet, row,
				asset,
				g.Timestamp().UTC().Format(time.RFC3339),
				string(g.TaxableEvent().Type()),
				g.CryptoAmount().StringFixed(decimal.CryptoDisplayPlaces),
				g.TaxableEventFiatAmountWithFeeFraction().StringFixed(decimal.FiatPlaces),
				g.FiatCostBasis().StringFixed(decimal.FiatPlaces),
				g.FiatGain().StringFixed(decimal.FiatPlaces),
				term, eventFraction, lotFraction,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func fractionLabel(set *tax.GainLossSet, g *tax.GainLoss) (string, error) {
	fraction, err := set.TaxableEventFraction(g)
	if err != nil {
		return "", err
	}
	total, err := set.TaxableEventNumberOfFractions(g.TaxableEvent())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d of %d", fraction+1, total), nil
}

func lotFractionLabel(set *tax.GainLossSet, g *tax.GainLoss) (string, error) {
	fraction, err := set.AcquiredLotFraction(g)
	if err != nil {
		return "", err
	}
	total, err := set.AcquiredLotNumberOfFractions(g.AcquiredLot())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d of %d", fraction+1, total), nil
}

func writeYearlySummary(f *excelize.File, assets []string, data map[string]*tax.ComputedData) error {
	sheet := "Yearly Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	row := 1
	if err := setRow(f, sheet, row,
		"Year", "Asset", "Type", "Term", "Crypto Amount", "Fiat Amount", "Cost Basis", "Gain"); err != nil {
		return err
	}
	for _, asset := range assets {
		for _, y := range data[asset].YearlyGainLossList() {
			term := "SHORT"
			if y.IsLongTerm {
				term = "LONG"
			}
			row++
			if err := setRow(f, sheet, row,
				y.Year, asset, string(y.TransactionType), term,
				y.CryptoAmount.StringFixed(decimal.CryptoDisplayPlaces),
				y.FiatAmount.StringFixed(decimal.FiatPlaces),
				y.FiatCostBasis.StringFixed(decimal.FiatPlaces),
				y.FiatGainLoss.StringFixed(decimal.FiatPlaces),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeAveragePrice(f *excelize.File, assets []string, data map[string]*tax.ComputedData) error {
	sheet := "Average Price"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, "Asset", "Average Price Per Unit"); err != nil {
		return err
	}
	for i, asset := range assets {
		if err := setRow(f, sheet, i+2, asset, data[asset].PricePerUnit().StringFixed(decimal.FiatPlaces)); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	return f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values)
}
