package tax

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgerloom/taxfolio/internal/config"
	"github.com/ledgerloom/taxfolio/internal/country"
	"github.com/ledgerloom/taxfolio/internal/input"
	"github.com/ledgerloom/taxfolio/internal/tax/method"
	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	when, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return when
}

func dec(s string) decimal.Decimal { return decimal.MustNew(s) }

var nextTestID atomic.Int64

func init() { nextTestID.Store(1000) }

func buy(t *testing.T, timestamp, cryptoIn, spot string) *models.InTransaction {
	t.Helper()
	return buyTyped(t, timestamp, cryptoIn, spot, models.TypeBuy)
}

func buyTyped(t *testing.T, timestamp, cryptoIn, spot string, transactionType models.TransactionType) *models.InTransaction {
	t.Helper()
	tx, err := models.NewInTransaction(models.InParams{
		Timestamp:  ts(t, timestamp),
		Asset:      "BTC",
		Exchange:   "Coinbase",
		Holder:     "Alice",
		Type:       transactionType,
		SpotPrice:  dec(spot),
		CryptoIn:   dec(cryptoIn),
		InternalID: nextTestID.Add(1),
	})
	require.NoError(t, err)
	return tx
}

func sell(t *testing.T, timestamp, cryptoOut, spot string) *models.OutTransaction {
	t.Helper()
	tx, err := models.NewOutTransaction(models.OutParams{
		Timestamp:      ts(t, timestamp),
		Asset:          "BTC",
		Exchange:       "Coinbase",
		Holder:         "Alice",
		Type:           models.TypeSell,
		SpotPrice:      dec(spot),
		CryptoOutNoFee: dec(cryptoOut),
		CryptoFee:      decimal.Zero,
		InternalID:     nextTestID.Add(1),
	})
	require.NoError(t, err)
	return tx
}

func transfer(t *testing.T, timestamp, sent, received, spot string) *models.IntraTransaction {
	t.Helper()
	tx, err := models.NewIntraTransaction(models.IntraParams{
		Timestamp:      ts(t, timestamp),
		Asset:          "BTC",
		FromExchange:   "Coinbase",
		FromHolder:     "Alice",
		ToExchange:     "Kraken",
		ToHolder:       "Alice",
		SpotPrice:      dec(spot),
		CryptoSent:     dec(sent),
		CryptoReceived: dec(received),
		InternalID:     nextTestID.Add(1),
	})
	require.NoError(t, err)
	return tx
}

// inputData bundles transactions into an InputData, splitting them by kind.
func inputData(t *testing.T, transactions ...models.Transaction) *input.InputData {
	t.Helper()
	in := models.NewTransactionSet(models.KindIn, "BTC")
	out := models.NewTransactionSet(models.KindOut, "BTC")
	intra := models.NewTransactionSet(models.KindIntra, "BTC")
	for _, tx := range transactions {
		var err error
		switch tx.(type) {
		case *models.InTransaction:
			err = in.AddEntry(tx)
		case *models.OutTransaction:
			err = out.AddEntry(tx)
		case *models.IntraTransaction:
			err = intra.AddEntry(tx)
		}
		require.NoError(t, err)
	}
	data, err := input.NewInputData("BTC", in, out, intra, 0, models.MaxYear)
	require.NoError(t, err)
	return data
}

func usConfig(t *testing.T, methodName string) *config.Config {
	t.Helper()
	us, err := country.Lookup("us")
	require.NoError(t, err)
	return &config.Config{
		Country:        us,
		ToYear:         models.MaxYear,
		YearsToMethods: map[int]string{config.MinYear: methodName},
	}
}

func newEngine(t *testing.T, cfg *config.Config) *AccountingEngine {
	t.Helper()
	methods, err := method.ForYears(cfg.YearsToMethods)
	require.NoError(t, err)
	engine, err := NewAccountingEngine(methods)
	require.NoError(t, err)
	return engine
}

func computeFor(t *testing.T, methodName string, transactions ...models.Transaction) (*ComputedData, error) {
	t.Helper()
	cfg := usConfig(t, methodName)
	return ComputeTax(cfg, newEngine(t, cfg), inputData(t, transactions...))
}

func mustRecords(t *testing.T, computed *ComputedData) []*GainLoss {
	t.Helper()
	records, err := computed.GainLossSet().Records()
	require.NoError(t, err)
	return records
}
