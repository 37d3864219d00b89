package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerloom/taxfolio/internal/country"
	"github.com/ledgerloom/taxfolio/pkg/errors"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

const validPortfolioJSON = `{
  "in_header": {
    "timestamp": 0, "asset": 1, "exchange": 2, "holder": 3,
    "transaction_type": 4, "spot_price": 5, "crypto_in": 6,
    "crypto_fee": 7, "unique_id": 8, "notes": 9
  },
  "out_header": {
    "timestamp": 0, "asset": 1, "exchange": 2, "holder": 3,
    "transaction_type": 4, "spot_price": 5, "crypto_out_no_fee": 6,
    "crypto_fee": 7, "unique_id": 8, "notes": 9
  },
  "intra_header": {
    "timestamp": 0, "asset": 1, "from_exchange": 2, "from_holder": 3,
    "to_exchange": 4, "to_holder": 5, "spot_price": 6,
    "crypto_sent": 7, "crypto_received": 8, "unique_id": 9, "notes": 10
  },
  "assets": ["BTC", "ETH"],
  "exchanges": ["Coinbase", "Kraken"],
  "holders": ["Alice"],
  "accounting_methods": {"2022": "hifo"},
  "allow_negative_balances": false
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func usCountry(t *testing.T) country.Country {
	t.Helper()
	c, err := country.Lookup("us")
	require.NoError(t, err)
	return c
}

func TestLoadPortfolio(t *testing.T) {
	t.Parallel()

	cfg, err := LoadPortfolio(writeConfig(t, validPortfolioJSON), usCountry(t), 2020, 2023, "")
	require.NoError(t, err)

	assert.NoError(t, cfg.CheckAsset("BTC"))
	assert.ErrorIs(t, cfg.CheckAsset("DOGE"), errors.ErrUnknownAsset)
	assert.NoError(t, cfg.CheckExchange("Kraken"))
	assert.ErrorIs(t, cfg.CheckExchange("Binance"), errors.ErrUnknownExchange)
	assert.NoError(t, cfg.CheckHolder("Alice"))
	assert.ErrorIs(t, cfg.CheckHolder("Bob"), errors.ErrUnknownHolder)

	assert.Equal(t, 0, cfg.InHeader["timestamp"])
	assert.Equal(t, 6, cfg.InHeader["crypto_in"])
	assert.ElementsMatch(t, []string{"BTC", "ETH"}, cfg.Assets())

	// The country default applies from MinYear; the file's per-year
	// override is layered on top.
	assert.Equal(t, "fifo", cfg.YearsToMethods[MinYear])
	assert.Equal(t, "hifo", cfg.YearsToMethods[2022])
	assert.False(t, cfg.AllowNegativeBalances)
}

func TestLoadPortfolioDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadPortfolio(writeConfig(t, validPortfolioJSON), usCountry(t), 0, 0, "lifo")
	require.NoError(t, err)
	assert.Equal(t, models.MaxYear, cfg.ToYear)
	assert.Equal(t, "lifo", cfg.YearsToMethods[MinYear])
}

func TestLoadPortfolioErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadPortfolio(filepath.Join(t.TempDir(), "nope.json"), usCountry(t), 0, 0, "")
		assert.ErrorIs(t, err, errors.ErrConfigNotFound)
	})

	t.Run("schema violation", func(t *testing.T) {
		t.Parallel()
		_, err := LoadPortfolio(writeConfig(t, `{"assets": ["BTC"]}`), usCountry(t), 0, 0, "")
		assert.ErrorIs(t, err, errors.ErrSchemaViolation)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		_, err := LoadPortfolio(writeConfig(t, `{not json`), usCountry(t), 0, 0, "")
		assert.ErrorIs(t, err, errors.ErrSchemaViolation)
	})

	t.Run("inverted year range", func(t *testing.T) {
		t.Parallel()
		_, err := LoadPortfolio(writeConfig(t, validPortfolioJSON), usCountry(t), 2023, 2020, "")
		assert.ErrorIs(t, err, errors.ErrInvalidYearRange)
	})

	t.Run("method not accepted by country", func(t *testing.T) {
		t.Parallel()
		jp, err := country.Lookup("jp")
		require.NoError(t, err)
		_, err = LoadPortfolio(writeConfig(t, validPortfolioJSON), jp, 0, 0, "lifo")
		assert.ErrorIs(t, err, errors.ErrMethodNotAccepted)
	})
}

func TestLoadSettingsDefaults(t *testing.T) {
	settings, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "info", settings.Logging.Level)
	assert.Equal(t, "text", settings.Logging.Format)
	assert.Equal(t, "output", settings.Report.OutputDir)
}
