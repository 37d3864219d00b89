// Package config loads the two configuration layers of taxfolio: application
// settings (logging, report output) through viper, and the portfolio
// configuration (assets, accounts, column maps, country binding) from a JSON
// file validated against an embedded schema.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ledgerloom/taxfolio/internal/country"
	"github.com/ledgerloom/taxfolio/pkg/errors"
	"github.com/ledgerloom/taxfolio/pkg/models"
)

//go:embed schema.json
var portfolioSchema []byte

// MinYear is the starting year of the default accounting-method assignment,
// guaranteeing every taxable event year resolves to a method.
const MinYear = 1

// Config is the validated portfolio configuration shared immutably by every
// component of a run.
type Config struct {
	ConfigurationPath string

	assets    map[string]struct{}
	exchanges map[string]struct{}
	holders   map[string]struct{}

	// Column maps: semantic field name -> 0-based column index per table.
	InHeader    map[string]int
	OutHeader   map[string]int
	IntraHeader map[string]int

	Country  country.Country
	FromYear int
	ToYear   int

	// YearsToMethods assigns the active accounting method per starting year.
	YearsToMethods map[int]string

	AllowNegativeBalances bool
}

// fileConfig is the raw JSON shape of the portfolio configuration file.
type fileConfig struct {
	InHeader              map[string]int    `json:"in_header"`
	OutHeader             map[string]int    `json:"out_header"`
	IntraHeader           map[string]int    `json:"intra_header"`
	Assets                []string          `json:"assets"`
	Exchanges             []string          `json:"exchanges"`
	Holders               []string          `json:"holders"`
	AccountingMethods     map[string]string `json:"accounting_methods"`
	AllowNegativeBalances bool              `json:"allow_negative_balances"`
}

// LoadPortfolio reads and validates the portfolio configuration file. The
// country and year range come from the CLI; the default accounting method is
// applied from MinYear and per-year overrides from the file are layered on
// top.
func LoadPortfolio(path string, c country.Country, fromYear, toYear int, defaultMethod string) (*Config, error) {
	if toYear == 0 {
		toYear = models.MaxYear
	}
	if fromYear > toYear {
		return nil, errors.InvalidYearRangeError(fromYear, toYear)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigNotFoundError(path)
	}
	if err := validateAgainstSchema(path, raw); err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, errors.SchemaViolationError(path, err)
	}

	cfg := &Config{
		ConfigurationPath:     path,
		assets:                toSet(fc.Assets),
		exchanges:             toSet(fc.Exchanges),
		holders:               toSet(fc.Holders),
		InHeader:              fc.InHeader,
		OutHeader:             fc.OutHeader,
		IntraHeader:           fc.IntraHeader,
		Country:               c,
		FromYear:              fromYear,
		ToYear:                toYear,
		AllowNegativeBalances: fc.AllowNegativeBalances,
		YearsToMethods:        map[int]string{},
	}

	if defaultMethod == "" {
		defaultMethod = c.DefaultAccountingMethod()
	}
	if !country.Accepts(c, defaultMethod) {
		return nil, errors.MethodNotAcceptedError(defaultMethod, c.Code())
	}
	cfg.YearsToMethods[MinYear] = defaultMethod

	for yearString, methodName := range fc.AccountingMethods {
		year, err := strconv.Atoi(yearString)
		if err != nil {
			return nil, errors.InvalidConfigError("accounting_methods", "year keys must be numeric: "+yearString)
		}
		if !country.Accepts(c, methodName) {
			return nil, errors.MethodNotAcceptedError(methodName, c.Code())
		}
		cfg.YearsToMethods[year] = methodName
	}

	return cfg, nil
}

func validateAgainstSchema(path string, raw []byte) error {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2019
	if err := compiler.AddResource("embedded://portfolio-schema.json", bytes.NewReader(portfolioSchema)); err != nil {
		return errors.InternalError("cannot load embedded portfolio schema: " + err.Error())
	}
	schema, err := compiler.Compile("embedded://portfolio-schema.json")
	if err != nil {
		return errors.InternalError("cannot compile embedded portfolio schema: " + err.Error())
	}

	var document any
	if err := json.Unmarshal(raw, &document); err != nil {
		return errors.SchemaViolationError(path, err)
	}
	if err := schema.Validate(document); err != nil {
		return errors.SchemaViolationError(path, err)
	}
	return nil
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// CheckAsset verifies the asset is declared in the configuration.
func (c *Config) CheckAsset(asset string) error {
	if _, ok := c.assets[asset]; !ok {
		return errors.UnknownAssetError(asset)
	}
	return nil
}

// CheckExchange verifies the exchange is declared in the configuration.
func (c *Config) CheckExchange(exchange string) error {
	if _, ok := c.exchanges[exchange]; !ok {
		return errors.UnknownExchangeError(exchange)
	}
	return nil
}

// CheckHolder verifies the holder is declared in the configuration.
func (c *Config) CheckHolder(holder string) error {
	if _, ok := c.holders[holder]; !ok {
		return errors.UnknownHolderError(holder)
	}
	return nil
}

// Assets returns the declared asset names, unordered.
func (c *Config) Assets() []string {
	out := make([]string, 0, len(c.assets))
	for asset := range c.assets {
		out = append(out, asset)
	}
	return out
}
