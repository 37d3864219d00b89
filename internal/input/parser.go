package input

import (
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ledgerloom/taxfolio/internal/config"
	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/errors"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

const tableEndMarker = "TABLE END"

var tableBeginMarkers = map[string]models.SetKind{
	"IN":    models.KindIn,
	"OUT":   models.KindOut,
	"INTRA": models.KindIntra,
}

// timestampLayouts are tried in order when parsing workbook timestamps.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// OpenWorkbook opens the input spreadsheet.
func OpenWorkbook(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.InputNotFoundError(path)
	}
	return f, nil
}

// ParseAsset reads the sheet named after the asset and builds its InputData.
// A sheet holds up to three tables, each opened by a first-column IN, OUT or
// INTRA marker and closed by TABLE END; the row after the marker is a human
// header and must not parse as a transaction. Exactly one table per kind is
// permitted and the IN table must be non-empty.
func ParseAsset(cfg *config.Config, workbook *excelize.File, asset string) (*InputData, error) {
	if err := cfg.CheckAsset(asset); err != nil {
		return nil, err
	}
	rows, err := workbook.GetRows(asset)
	if err != nil {
		return nil, errors.MissingSheetError(asset, workbook.Path)
	}

	sets := map[models.SetKind]*models.TransactionSet{
		models.KindIn:    models.NewTransactionSet(models.KindIn, asset),
		models.KindOut:   models.NewTransactionSet(models.KindOut, asset),
		models.KindIntra: models.NewTransactionSet(models.KindIntra, asset),
	}

	insideTable := false
	var tableKind models.SetKind
	tableRowCount := 0
	seenKinds := map[models.SetKind]bool{}

	for i, row := range rows {
		rowNumber := i + 1
		cell0 := strings.TrimSpace(cell(row, 0))
		kind, isBegin := tableBeginMarkers[cell0]
		isEnd := cell0 == tableEndMarker

		if insideTable {
			if isBegin {
				return nil, errors.MalformedTableError(asset, rowNumber,
					"found table-begin keyword "+cell0+" while parsing table "+string(tableKind))
			}
			if cell0 == "" {
				return nil, errors.EmptyCellError(asset, rowNumber, string(tableKind))
			}
		} else {
			if isEnd {
				return nil, errors.MalformedTableError(asset, rowNumber,
					"found end-table keyword without a table-begin keyword")
			}
			if cell0 != "" && !isBegin {
				return nil, errors.MalformedTableError(asset, rowNumber,
					"found invalid cell "+cell0+" while looking for a table-begin keyword")
			}
		}

		switch {
		case isBegin:
			if seenKinds[kind] {
				return nil, errors.MalformedTableError(asset, rowNumber, "found more than one "+cell0+" table")
			}
			seenKinds[kind] = true
			insideTable = true
			tableKind = kind
			tableRowCount = 0

		case isEnd:
			insideTable = false

		case insideTable && tableRowCount == 1:
			// Header line: it must not parse as a transaction.
			if _, err := buildTransaction(cfg, tableKind, asset, rowNumber, row); err == nil {
				return nil, errors.DataWithNoHeaderError(asset, rowNumber)
			}

		case insideTable && tableRowCount > 1:
			tx, err := buildTransaction(cfg, tableKind, asset, rowNumber, row)
			if err != nil {
				return nil, err
			}
			if err := sets[tableKind].AddEntry(tx); err != nil {
				return nil, err
			}
		}

		if insideTable {
			tableRowCount++
		}
		slog.Debug("parsed workbook row", "asset", asset, "row", rowNumber)
	}

	if insideTable {
		return nil, errors.MalformedTableError(asset, len(rows), "table "+string(tableKind)+" has no end-table keyword")
	}

	return NewInputData(asset, sets[models.KindIn], sets[models.KindOut], sets[models.KindIntra], cfg.FromYear, cfg.ToYear)
}

func buildTransaction(cfg *config.Config, kind models.SetKind, asset string, rowNumber int, row []string) (models.Transaction, error) {
	switch kind {
	case models.KindIn:
		return buildInTransaction(cfg, asset, rowNumber, row)
	case models.KindOut:
		return buildOutTransaction(cfg, asset, rowNumber, row)
	case models.KindIntra:
		return buildIntraTransaction(cfg, asset, rowNumber, row)
	}
	return nil, errors.InternalError("unknown table kind " + string(kind))
}

func buildInTransaction(cfg *config.Config, asset string, rowNumber int, row []string) (models.Transaction, error) {
	r := rowReader{header: cfg.InHeader, asset: asset, rowNumber: rowNumber, row: row}

	timestamp := r.timestamp("timestamp")
	rowAsset := r.required("asset")
	exchange := r.required("exchange")
	holder := r.required("holder")
	transactionType := r.transactionType("transaction_type")
	spotPrice := r.decimal("spot_price")
	cryptoIn := r.decimal("crypto_in")
	cryptoFee := r.optionalDecimal("crypto_fee")
	fiatFee := r.optionalDecimal("fiat_fee")
	fiatInNoFee := r.optionalDecimal("fiat_in_no_fee")
	fiatInWithFee := r.optionalDecimal("fiat_in_with_fee")
	uniqueID := r.optional("unique_id")
	notes := r.optional("notes")
	if r.err != nil {
		return nil, r.err
	}

	if err := checkRowIdentity(cfg, asset, rowAsset, exchange, holder); err != nil {
		return nil, err
	}
	return models.NewInTransaction(models.InParams{
		Timestamp:     timestamp,
		Asset:         rowAsset,
		Exchange:      exchange,
		Holder:        holder,
		Type:          transactionType,
		SpotPrice:     spotPrice,
		CryptoIn:      cryptoIn,
		CryptoFee:     cryptoFee,
		FiatFee:       fiatFee,
		FiatInNoFee:   fiatInNoFee,
		FiatInWithFee: fiatInWithFee,
		InternalID:    int64(rowNumber),
		UniqueID:      uniqueID,
		Notes:         notes,
	})
}

func buildOutTransaction(cfg *config.Config, asset string, rowNumber int, row []string) (models.Transaction, error) {
	r := rowReader{header: cfg.OutHeader, asset: asset, rowNumber: rowNumber, row: row}

	timestamp := r.timestamp("timestamp")
	rowAsset := r.required("asset")
	exchange := r.required("exchange")
	holder := r.required("holder")
	transactionType := r.transactionType("transaction_type")
	spotPrice := r.decimal("spot_price")
	cryptoOutNoFee := r.decimal("crypto_out_no_fee")
	cryptoFee := r.decimal("crypto_fee")
	cryptoOutWithFee := r.optionalDecimal("crypto_out_with_fee")
	fiatOutNoFee := r.optionalDecimal("fiat_out_no_fee")
	fiatFee := r.optionalDecimal("fiat_fee")
	uniqueID := r.optional("unique_id")
	notes := r.optional("notes")
	if r.err != nil {
		return nil, r.err
	}

	if err := checkRowIdentity(cfg, asset, rowAsset, exchange, holder); err != nil {
		return nil, err
	}
	return models.NewOutTransaction(models.OutParams{
		Timestamp:        timestamp,
		Asset:            rowAsset,
		Exchange:         exchange,
		Holder:           holder,
		Type:             transactionType,
		SpotPrice:        spotPrice,
		CryptoOutNoFee:   cryptoOutNoFee,
		CryptoFee:        cryptoFee,
		CryptoOutWithFee: cryptoOutWithFee,
		FiatOutNoFee:     fiatOutNoFee,
		FiatFee:          fiatFee,
		InternalID:       int64(rowNumber),
		UniqueID:         uniqueID,
		Notes:            notes,
	})
}

func buildIntraTransaction(cfg *config.Config, asset string, rowNumber int, row []string) (models.Transaction, error) {
	r := rowReader{header: cfg.IntraHeader, asset: asset, rowNumber: rowNumber, row: row}

	timestamp := r.timestamp("timestamp")
	rowAsset := r.required("asset")
	fromExchange := r.required("from_exchange")
	fromHolder := r.required("from_holder")
	toExchange := r.required("to_exchange")
	toHolder := r.required("to_holder")
	spotPrice := r.optionalDecimalOrZero("spot_price")
	cryptoSent := r.decimal("crypto_sent")
	cryptoReceived := r.decimal("crypto_received")
	uniqueID := r.optional("unique_id")
	notes := r.optional("notes")
	if r.err != nil {
		return nil, r.err
	}

	if rowAsset != asset {
		return nil, errors.AssetMismatchError(asset, rowAsset)
	}
	for _, exchange := range []string{fromExchange, toExchange} {
		if err := cfg.CheckExchange(exchange); err != nil {
			return nil, err
		}
	}
	for _, holder := range []string{fromHolder, toHolder} {
		if err := cfg.CheckHolder(holder); err != nil {
			return nil, err
		}
	}
	return models.NewIntraTransaction(models.IntraParams{
		Timestamp:      timestamp,
		Asset:          rowAsset,
		FromExchange:   fromExchange,
		FromHolder:     fromHolder,
		ToExchange:     toExchange,
		ToHolder:       toHolder,
		SpotPrice:      spotPrice,
		CryptoSent:     cryptoSent,
		CryptoReceived: cryptoReceived,
		InternalID:     int64(rowNumber),
		UniqueID:       uniqueID,
		Notes:          notes,
	})
}

func checkRowIdentity(cfg *config.Config, asset, rowAsset, exchange, holder string) error {
	if rowAsset != asset {
		return errors.AssetMismatchError(asset, rowAsset)
	}
	if err := cfg.CheckExchange(exchange); err != nil {
		return err
	}
	return cfg.CheckHolder(holder)
}

// rowReader extracts typed fields from a workbook row through a column map,
// collecting the first error instead of forcing a check per field.
type rowReader struct {
	header    map[string]int
	asset     string
	rowNumber int
	row       []string
	err       error
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}

func (r *rowReader) raw(field string) (string, bool) {
	index, ok := r.header[field]
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(cell(r.row, index))
	return value, value != ""
}

func (r *rowReader) fail(field, value string) {
	if r.err == nil {
		r.err = errors.BadFieldError(r.asset, r.rowNumber, field, value)
	}
}

func (r *rowReader) required(field string) string {
	value, ok := r.raw(field)
	if !ok {
		r.fail(field, "")
	}
	return value
}

func (r *rowReader) optional(field string) string {
	value, _ := r.raw(field)
	return value
}

func (r *rowReader) timestamp(field string) time.Time {
	value, ok := r.raw(field)
	if !ok {
		r.fail(field, "")
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	r.fail(field, value)
	return time.Time{}
}

func (r *rowReader) transactionType(field string) models.TransactionType {
	value, ok := r.raw(field)
	if !ok {
		r.fail(field, "")
		return ""
	}
	parsed, err := models.ParseTransactionType(value)
	if err != nil {
		r.fail(field, value)
	}
	return parsed
}

func (r *rowReader) decimal(field string) decimal.Decimal {
	value, ok := r.raw(field)
	if !ok {
		r.fail(field, "")
		return decimal.Zero
	}
	parsed, err := decimal.New(value)
	if err != nil {
		r.fail(field, value)
	}
	return parsed
}

func (r *rowReader) optionalDecimal(field string) *decimal.Decimal {
	value, ok := r.raw(field)
	if !ok {
		return nil
	}
	parsed, err := decimal.New(value)
	if err != nil {
		r.fail(field, value)
		return nil
	}
	return &parsed
}

func (r *rowReader) optionalDecimalOrZero(field string) decimal.Decimal {
	if parsed := r.optionalDecimal(field); parsed != nil {
		return *parsed
	}
	return decimal.Zero
}
