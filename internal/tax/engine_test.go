package tax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerloom/taxfolio/internal/config"
	"github.com/ledgerloom/taxfolio/internal/country"
	"github.com/ledgerloom/taxfolio/pkg/decimal"
	"github.com/ledgerloom/taxfolio/pkg/errors"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

// Single buy, partial sell: one record, short-term.
func TestFIFOSingleBuySell(t *testing.T) {
	t.Parallel()

	lot := buy(t, "2020-01-01T00:00:00Z", "1.0", "10000")
	out := sell(t, "2020-06-01T00:00:00Z", "0.5", "12000")
	computed, err := computeFor(t, "fifo", lot, out)
	require.NoError(t, err)

	records := mustRecords(t, computed)
	require.Len(t, records, 1)
	g := records[0]
	assert.True(t, g.CryptoAmount().Eq(dec("0.5")))
	assert.True(t, g.FiatCostBasis().Eq(dec("5000")))
	assert.True(t, g.FiatGain().Eq(dec("1000")))
	assert.False(t, g.IsLongTerm())
	assert.Equal(t, lot.InternalID(), g.AcquiredLot().InternalID())

	balances := computed.BalanceSet().Balances()
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Acquired.Eq(dec("1.0")))
	assert.True(t, balances[0].Sent.Eq(dec("0.5")))
	assert.True(t, balances[0].Final.Eq(dec("0.5")))
}

// Disposal spanning two lots: FIFO exhausts the older lot first.
func TestFIFOPartialAcrossLots(t *testing.T) {
	t.Parallel()

	lot1 := buy(t, "2020-01-01T00:00:00Z", "1.0", "10000")
	lot2 := buy(t, "2020-02-01T00:00:00Z", "1.0", "11000")
	out := sell(t, "2020-03-01T00:00:00Z", "1.2", "12000")
	computed, err := computeFor(t, "fifo", lot1, lot2, out)
	require.NoError(t, err)

	records := mustRecords(t, computed)
	require.Len(t, records, 2)

	assert.Equal(t, lot1.InternalID(), records[0].AcquiredLot().InternalID())
	assert.True(t, records[0].CryptoAmount().Eq(dec("1.0")))
	assert.True(t, records[0].FiatCostBasis().Eq(dec("10000")))
	assert.True(t, records[0].FiatGain().Eq(dec("2000")))
	assert.False(t, records[0].IsLongTerm())

	assert.Equal(t, lot2.InternalID(), records[1].AcquiredLot().InternalID())
	assert.True(t, records[1].CryptoAmount().Eq(dec("0.2")))
	assert.True(t, records[1].FiatCostBasis().Eq(dec("2200")))
	assert.True(t, records[1].FiatGain().Eq(dec("200")))
	assert.False(t, records[1].IsLongTerm())
}

// Same two lots under HIFO: the pricier lot goes first.
func TestHIFOPartialAcrossLots(t *testing.T) {
	t.Parallel()

	lot1 := buy(t, "2020-01-01T00:00:00Z", "1.0", "10000")
	lot2 := buy(t, "2020-02-01T00:00:00Z", "1.0", "11000")
	out := sell(t, "2020-03-01T00:00:00Z", "1.2", "12000")
	computed, err := computeFor(t, "hifo", lot1, lot2, out)
	require.NoError(t, err)

	records := mustRecords(t, computed)
	require.Len(t, records, 2)

	assert.Equal(t, lot2.InternalID(), records[0].AcquiredLot().InternalID())
	assert.True(t, records[0].CryptoAmount().Eq(dec("1.0")))
	assert.True(t, records[0].FiatCostBasis().Eq(dec("11000")))
	assert.True(t, records[0].FiatGain().Eq(dec("1000")))

	assert.Equal(t, lot1.InternalID(), records[1].AcquiredLot().InternalID())
	assert.True(t, records[1].CryptoAmount().Eq(dec("0.2")))
	assert.True(t, records[1].FiatCostBasis().Eq(dec("2000")))
	assert.True(t, records[1].FiatGain().Eq(dec("400")))
}

// An earn-typed acquisition is its own taxable event with no lot.
func TestEarnOnly(t *testing.T) {
	t.Parallel()

	earn := buyTyped(t, "2020-02-21T00:00:00Z", "0.1", "11000", models.TypeInterest)
	computed, err := computeFor(t, "fifo", earn)
	require.NoError(t, err)

	records := mustRecords(t, computed)
	require.Len(t, records, 1)
	g := records[0]
	assert.True(t, g.CryptoAmount().Eq(dec("0.1")))
	assert.Nil(t, g.AcquiredLot())
	assert.True(t, g.FiatCostBasis().IsZero())
	assert.True(t, g.FiatGain().Eq(dec("1100")))
	assert.False(t, g.IsLongTerm())
}

// A transfer fee is a disposal of the fee amount, long-term past 365 days.
func TestIntraWithFee(t *testing.T) {
	t.Parallel()

	lot := buy(t, "2020-01-01T00:00:00Z", "1.0", "10000")
	move := transfer(t, "2021-03-10T00:00:00Z", "0.4", "0.39", "12500")
	computed, err := computeFor(t, "fifo", lot, move)
	require.NoError(t, err)

	records := mustRecords(t, computed)
	require.Len(t, records, 1)
	g := records[0]
	assert.True(t, g.CryptoAmount().Eq(dec("0.01")))
	assert.Equal(t, lot.InternalID(), g.AcquiredLot().InternalID())
	assert.True(t, g.TaxableEventFiatAmountWithFeeFraction().Eq(dec("125")))
	assert.True(t, g.FiatCostBasis().Eq(dec("100")))
	assert.True(t, g.FiatGain().Eq(dec("25")))
	assert.True(t, g.IsLongTerm())
}

// Selling more than was ever acquired exhausts the lots: fatal.
func TestAcquiredLotsExhausted(t *testing.T) {
	t.Parallel()

	lot := buy(t, "2021-01-01T00:00:00Z", "1.0", "10000")
	out := sell(t, "2021-01-02T00:00:00Z", "2.0", "10000")
	_, err := computeFor(t, "fifo", lot, out)
	assert.ErrorIs(t, err, errors.ErrAcquiredLotsExhausted)
}

// Earn events interleaved with disposals leave the lot state untouched.
func TestEarnInterleavedWithDisposals(t *testing.T) {
	t.Parallel()

	lot := buy(t, "2020-01-01T00:00:00Z", "1.0", "10000")
	earn := buyTyped(t, "2020-02-01T00:00:00Z", "0.1", "11000", models.TypeStaking)
	out := sell(t, "2020-03-01T00:00:00Z", "1.05", "12000")
	computed, err := computeFor(t, "fifo", lot, earn, out)
	require.NoError(t, err)

	records := mustRecords(t, computed)
	require.Len(t, records, 3)

	// Earn record first (chronological), then the sale split across the buy
	// lot and the earned lot.
	assert.Nil(t, records[0].AcquiredLot())
	assert.True(t, records[0].CryptoAmount().Eq(dec("0.1")))

	assert.Equal(t, lot.InternalID(), records[1].AcquiredLot().InternalID())
	assert.True(t, records[1].CryptoAmount().Eq(dec("1.0")))

	assert.Equal(t, earn.InternalID(), records[2].AcquiredLot().InternalID())
	assert.True(t, records[2].CryptoAmount().Eq(dec("0.05")))
}

// Consecutive sales drawing down one lot track the remainder correctly.
func TestPartialRemainderAcrossEvents(t *testing.T) {
	t.Parallel()

	lot := buy(t, "2020-01-01T00:00:00Z", "1.0", "10000")
	out1 := sell(t, "2020-02-01T00:00:00Z", "0.3", "11000")
	out2 := sell(t, "2020-03-01T00:00:00Z", "0.3", "12000")
	out3 := sell(t, "2020-04-01T00:00:00Z", "0.4", "13000")
	computed, err := computeFor(t, "fifo", lot, out1, out2, out3)
	require.NoError(t, err)

	records := mustRecords(t, computed)
	require.Len(t, records, 3)
	for _, g := range records {
		assert.Equal(t, lot.InternalID(), g.AcquiredLot().InternalID())
	}
	assert.True(t, records[0].CryptoAmount().Eq(dec("0.3")))
	assert.True(t, records[1].CryptoAmount().Eq(dec("0.3")))
	assert.True(t, records[2].CryptoAmount().Eq(dec("0.4")))

	// The lot splits into exactly three fractions.
	count, err := computed.GainLossSet().AcquiredLotNumberOfFractions(lot)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

// FIFO property: selected lots are weakly monotone by timestamp in emission
// order.
func TestFIFOMonotoneLotTimestamps(t *testing.T) {
	t.Parallel()

	transactions := []models.Transaction{
		buy(t, "2020-01-01T00:00:00Z", "0.5", "9000"),
		buy(t, "2020-02-01T00:00:00Z", "0.5", "11000"),
		buy(t, "2020-03-01T00:00:00Z", "0.5", "8000"),
		sell(t, "2020-04-01T00:00:00Z", "0.7", "12000"),
		sell(t, "2020-05-01T00:00:00Z", "0.6", "13000"),
	}
	computed, err := computeFor(t, "fifo", transactions...)
	require.NoError(t, err)

	records := mustRecords(t, computed)
	for i := 1; i < len(records); i++ {
		prev := records[i-1].AcquiredLot()
		current := records[i].AcquiredLot()
		assert.False(t, current.Timestamp().Before(prev.Timestamp()))
	}
}

// LIFO property: the newest eligible lot is always selected.
func TestLIFOSelectsNewest(t *testing.T) {
	t.Parallel()

	lot1 := buy(t, "2020-01-01T00:00:00Z", "1.0", "10000")
	lot2 := buy(t, "2020-02-01T00:00:00Z", "1.0", "11000")
	out := sell(t, "2020-03-01T00:00:00Z", "1.2", "12000")
	computed, err := computeFor(t, "lifo", lot1, lot2, out)
	require.NoError(t, err)

	records := mustRecords(t, computed)
	require.Len(t, records, 2)
	assert.Equal(t, lot2.InternalID(), records[0].AcquiredLot().InternalID())
	assert.Equal(t, lot1.InternalID(), records[1].AcquiredLot().InternalID())
}

// LOFO property: the cheapest eligible lot is always selected.
func TestLOFOSelectsCheapest(t *testing.T) {
	t.Parallel()

	lot1 := buy(t, "2020-01-01T00:00:00Z", "1.0", "10000")
	lot2 := buy(t, "2020-02-01T00:00:00Z", "1.0", "8000")
	out := sell(t, "2020-03-01T00:00:00Z", "0.5", "12000")
	computed, err := computeFor(t, "lofo", lot1, lot2, out)
	require.NoError(t, err)

	records := mustRecords(t, computed)
	require.Len(t, records, 1)
	assert.Equal(t, lot2.InternalID(), records[0].AcquiredLot().InternalID())
}

// A lot acquired after the disposal is not eligible, even under LIFO.
func TestLotAfterEventIsIneligible(t *testing.T) {
	t.Parallel()

	lot1 := buy(t, "2020-01-01T00:00:00Z", "0.4", "10000")
	out := sell(t, "2020-02-01T00:00:00Z", "0.3", "12000")
	lot2 := buy(t, "2020-03-01T00:00:00Z", "1.0", "5000")
	computed, err := computeFor(t, "lifo", lot1, out, lot2)
	require.NoError(t, err)

	records := mustRecords(t, computed)
	require.Len(t, records, 1)
	assert.Equal(t, lot1.InternalID(), records[0].AcquiredLot().InternalID())
}

// Method switching at a year boundary: FIFO through 2020, HIFO from 2021.
func TestMethodSwitchAtYearBoundary(t *testing.T) {
	t.Parallel()

	cfg := usConfig(t, "fifo")
	cfg.YearsToMethods[2021] = "hifo"

	lot1 := buy(t, "2020-01-01T00:00:00Z", "1.0", "10000")
	lot2 := buy(t, "2020-02-01T00:00:00Z", "1.0", "15000")
	out2020 := sell(t, "2020-06-01T00:00:00Z", "0.5", "12000")
	out2021 := sell(t, "2021-06-01T00:00:00Z", "0.5", "20000")

	computed, err := ComputeTax(cfg, newEngine(t, cfg), inputData(t, lot1, lot2, out2020, out2021))
	require.NoError(t, err)

	records := mustRecords(t, computed)
	require.Len(t, records, 2)
	// 2020 disposal uses FIFO: oldest lot. 2021 disposal uses HIFO: the
	// pricier lot 2.
	assert.Equal(t, lot1.InternalID(), records[0].AcquiredLot().InternalID())
	assert.Equal(t, lot2.InternalID(), records[1].AcquiredLot().InternalID())
}

// Re-running the pipeline on unchanged input produces identical output.
func TestIdempotence(t *testing.T) {
	t.Parallel()

	build := func() []models.Transaction {
		return []models.Transaction{
			buy(t, "2020-01-01T00:00:00Z", "1.0", "10000"),
			buy(t, "2020-02-01T00:00:00Z", "1.0", "11000"),
			sell(t, "2020-03-01T00:00:00Z", "1.2", "12000"),
			transfer(t, "2020-04-01T00:00:00Z", "0.4", "0.39", "12500"),
		}
	}

	serialize := func(computed *ComputedData) []string {
		var out []string
		for _, g := range mustRecords(t, computed) {
			out = append(out, g.CryptoAmount().String()+"|"+g.FiatCostBasis().String()+"|"+g.FiatGain().String())
		}
		for _, b := range computed.BalanceSet().Balances() {
			out = append(out, b.Account.SortKey()+"|"+b.Final.String())
		}
		return out
	}

	// Distinct transaction instances with distinct ids, same values.
	first, err := computeFor(t, "fifo", build()...)
	require.NoError(t, err)
	second, err := computeFor(t, "fifo", build()...)
	require.NoError(t, err)
	assert.Equal(t, serialize(first), serialize(second))
}

// Universal invariant: records grouped by event sum to the event's balance
// change, and grouped by lot never exceed the lot.
func TestConservationInvariants(t *testing.T) {
	t.Parallel()

	transactions := []models.Transaction{
		buy(t, "2020-01-01T00:00:00Z", "0.7", "9000"),
		buy(t, "2020-02-01T00:00:00Z", "0.6", "11000"),
		buyTyped(t, "2020-02-15T00:00:00Z", "0.05", "11500", models.TypeMining),
		sell(t, "2020-03-01T00:00:00Z", "0.8", "12000"),
		sell(t, "2020-04-01T00:00:00Z", "0.4", "13000"),
	}

	for _, methodName := range []string{"fifo", "lifo", "hifo", "lofo"} {
		computed, err := computeFor(t, methodName, transactions...)
		require.NoError(t, err, methodName)

		byEvent := map[int64]dsum{}
		byLot := map[int64]dsum{}
		for _, g := range mustRecords(t, computed) {
			event := g.TaxableEvent()
			byEvent[event.InternalID()] = dsum{
				total: byEvent[event.InternalID()].total.Add(g.CryptoAmount()),
				cap:   event.CryptoBalanceChange(),
			}
			if lot := g.AcquiredLot(); lot != nil {
				assert.False(t, event.Timestamp().Before(lot.Timestamp()), methodName)
				byLot[lot.InternalID()] = dsum{
					total: byLot[lot.InternalID()].total.Add(g.CryptoAmount()),
					cap:   lot.CryptoIn(),
				}
			}
			// Gain identity holds exactly.
			assert.True(t, g.FiatGain().Eq(g.TaxableEventFiatAmountWithFeeFraction().Sub(g.FiatCostBasis())), methodName)
		}
		for _, s := range byEvent {
			assert.True(t, s.total.Eq(s.cap), methodName)
		}
		for _, s := range byLot {
			assert.True(t, s.total.Lte(s.cap), methodName)
		}
	}
}

type dsum struct {
	total, cap decimal.Decimal
}

// Long-term boundary: exactly 365 days is long-term, one day earlier is not.
func TestLongTermBoundary(t *testing.T) {
	t.Parallel()

	// 2020-01-01 + 365 days = 2020-12-31 (leap year).
	shortLot := buy(t, "2020-01-01T00:00:00Z", "1.0", "10000")
	shortSale := sell(t, "2020-12-30T00:00:00Z", "0.1", "12000")
	computed, err := computeFor(t, "fifo", shortLot, shortSale)
	require.NoError(t, err)
	assert.False(t, mustRecords(t, computed)[0].IsLongTerm())

	longLot := buy(t, "2020-01-01T00:00:00Z", "1.0", "10000")
	longSale := sell(t, "2020-12-31T00:00:00Z", "0.1", "12000")
	computed, err = computeFor(t, "fifo", longLot, longSale)
	require.NoError(t, err)
	assert.True(t, mustRecords(t, computed)[0].IsLongTerm())
}

func TestNewAccountingEngineRequiresMethods(t *testing.T) {
	t.Parallel()

	_, err := NewAccountingEngine(nil)
	assert.ErrorIs(t, err, errors.ErrInternal)
}

func TestEngineRequiresLots(t *testing.T) {
	t.Parallel()

	cfg := usConfig(t, "fifo")
	engine := newEngine(t, cfg)
	events := models.NewTransactionSet(models.KindMixed, "BTC")
	lots := models.NewTransactionSet(models.KindIn, "BTC")
	err := engine.Initialize(events.All(), lots.InTransactions())
	assert.ErrorIs(t, err, errors.ErrInternal)
}

func TestMissingMethodForEarliestYear(t *testing.T) {
	t.Parallel()

	us, err := country.Lookup("us")
	require.NoError(t, err)
	cfg := &config.Config{
		Country:        us,
		ToYear:         models.MaxYear,
		YearsToMethods: map[int]string{2025: "fifo"},
	}
	lot := buy(t, "2020-01-01T00:00:00Z", "1.0", "10000")
	out := sell(t, "2020-06-01T00:00:00Z", "0.5", "12000")
	_, err = ComputeTax(cfg, newEngine(t, cfg), inputData(t, lot, out))
	assert.ErrorIs(t, err, errors.ErrInternal)
}
